// SPDX-License-Identifier: MIT
package tui

import (
	"sync"

	"github.com/fsnotify/fsnotify"

	"samplex/internal/log"
)

// DirWatcher reports changes to the entries of one directory at a time.
// Bursts of events are coalesced: Changes holds at most one pending signal.
type DirWatcher struct {
	w       *fsnotify.Watcher
	changes chan struct{}

	mu  sync.Mutex
	dir string
}

func NewDirWatcher() (*DirWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dw := &DirWatcher{w: w, changes: make(chan struct{}, 1)}
	go dw.loop()
	return dw, nil
}

func (dw *DirWatcher) loop() {
	for {
		select {
		case ev, ok := <-dw.w.Events:
			if !ok {
				return
			}
			// Content writes do not change the listing.
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case dw.changes <- struct{}{}:
			default:
			}
		case err, ok := <-dw.w.Errors:
			if !ok {
				return
			}
			log.Warnf("Browser: Watch error: %v", err)
		}
	}
}

// Watch replaces the watched directory with dir.
func (dw *DirWatcher) Watch(dir string) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.dir == dir {
		return nil
	}
	if dw.dir != "" {
		if err := dw.w.Remove(dw.dir); err != nil {
			log.Debugf("Browser: Unwatch %s: %v", dw.dir, err)
		}
	}
	dw.dir = ""
	if err := dw.w.Add(dir); err != nil {
		return err
	}
	dw.dir = dir
	return nil
}

func (dw *DirWatcher) Changes() <-chan struct{} { return dw.changes }

func (dw *DirWatcher) Close() error { return dw.w.Close() }
