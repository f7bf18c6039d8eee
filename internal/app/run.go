// SPDX-License-Identifier: MIT
package app

import (
	"context"
	"path/filepath"
	"time"

	"samplex/internal/audio"
	"samplex/internal/decode"
	"samplex/internal/log"
	"samplex/internal/waveform"
)

// Events bundles the two streams the App consumes.
type Events struct {
	Audio    <-chan audio.Event
	Waveform <-chan waveform.Event
}

// RunOptions configures PlayAll.
type RunOptions struct {
	FrameRate       int           // Position polls per second, 60 when zero.
	PublishInterval time.Duration // Snapshot cadence; no publishing when zero.
	Snapshot        SnapshotOptions
	Publish         func(Snapshot)
}

// PlayAll selects paths one after another, advancing when a file reaches its
// end or cannot be decoded. It returns nil after the last file, or the
// context error when ctx is cancelled first.
func (a *App) PlayAll(ctx context.Context, events Events, paths []string, opts RunOptions) error {
	if opts.FrameRate <= 0 {
		opts.FrameRate = 60
	}

	queue := paths
	next := func() bool {
		for len(queue) > 0 {
			path := queue[0]
			queue = queue[1:]
			if !decode.IsSupported(path) {
				log.Warnf("App: Skipping %s, not a supported audio file", filepath.Base(path))
				continue
			}
			if err := a.SelectFile(path); err != nil {
				log.Errorf("App: Cannot select %s: %v", filepath.Base(path), err)
				continue
			}
			return true
		}
		return false
	}
	if !next() {
		return nil
	}

	frame := time.NewTicker(time.Second / time.Duration(opts.FrameRate))
	defer frame.Stop()

	var publish <-chan time.Time
	if opts.Publish != nil && opts.PublishInterval > 0 {
		t := time.NewTicker(opts.PublishInterval)
		defer t.Stop()
		publish = t.C
	}

	for {
		select {
		case <-ctx.Done():
			if err := a.SelectFile(""); err != nil {
				log.Debugf("App: Stop on shutdown: %v", err)
			}
			return ctx.Err()

		case ev := <-events.Audio:
			if a.HandleAudio(ev) && !next() {
				a.publishFinal(opts)
				return nil
			}

		case ev := <-events.Waveform:
			a.HandleWaveform(ev)
			if a.Failed() {
				log.Warnf("App: Cannot decode %s", filepath.Base(a.selected))
				if !next() {
					return nil
				}
			}

		case <-frame.C:
			if err := a.Tick(); err != nil {
				log.Debugf("App: Position query: %v", err)
			}

		case <-publish:
			opts.Publish(a.Snapshot(opts.Snapshot))
		}
	}
}

func (a *App) publishFinal(opts RunOptions) {
	if opts.Publish != nil {
		opts.Publish(a.Snapshot(opts.Snapshot))
	}
}
