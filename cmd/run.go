// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"samplex/internal/app"
	"samplex/internal/audio"
	"samplex/internal/config"
	"samplex/internal/log"
	"samplex/internal/transport"
	"samplex/internal/transport/udp"
	"samplex/internal/tui"
	"samplex/internal/waveform"
)

// pipeline is the engine, the loader, and the app that drives them.
type pipeline struct {
	engine *audio.Engine
	loader *waveform.Loader
	app    *app.App
}

func newPipeline(cfg *config.Config, device audio.Device) (*pipeline, error) {
	analyzers, err := app.NewAnalyzers(cfg.Analysis)
	if err != nil {
		return nil, err
	}
	engine := audio.NewEngine(device, audio.OptionsFromConfig(cfg.Audio))
	loader := waveform.NewLoader(waveform.OptionsFromConfig(cfg.Waveform))
	engine.Start()
	loader.Start()
	return &pipeline{
		engine: engine,
		loader: loader,
		app:    app.New(engine, loader, analyzers),
	}, nil
}

func (p *pipeline) events() app.Events {
	return app.Events{Audio: p.engine.Events(), Waveform: p.loader.Events()}
}

func (p *pipeline) Close() {
	p.engine.Close()
	p.loader.Close()
}

// runBrowser starts the terminal browser. Logs go to a file so they do not
// tear the screen.
func runBrowser(cfg *config.Config, dir string) error {
	if info, err := os.Stat(dir); err != nil {
		return err
	} else if !info.IsDir() {
		return errors.New(dir + " is not a directory")
	}

	closeLog := redirectLog()
	defer closeLog()

	device, cleanup := audio.InitializeOutput(cfg.Audio)
	defer cleanup()

	p, err := newPipeline(cfg, device)
	if err != nil {
		return err
	}
	defer p.Close()

	return tui.Run(p.app, p.events(), tui.Options{Dir: dir, FrameRate: cfg.Audio.UIFrameRate})
}

func redirectLog() func() {
	dir, err := os.UserCacheDir()
	if err == nil {
		dir = filepath.Join(dir, "samplex")
		err = os.MkdirAll(dir, 0o755)
	}
	var f *os.File
	if err == nil {
		f, err = os.OpenFile(filepath.Join(dir, "samplex.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	}
	if err != nil {
		log.SetOutput(io.Discard)
		return func() { log.SetOutput(os.Stderr) }
	}
	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		f.Close()
	}
}

// runPlay plays paths headless and publishes snapshots over the configured
// transports.
func runPlay(ctx context.Context, cfg *config.Config, opts *options, paths []string) error {
	var device audio.Device
	switch {
	case opts.noDevice && opts.record == "":
		return errors.New("--no-device needs --record, there would be nothing to play to")
	case !opts.noDevice:
		out, cleanup := audio.InitializeOutput(cfg.Audio)
		defer cleanup()
		if out != nil {
			device = out
		} else if opts.record == "" {
			return errors.New("no output device available")
		}
	}
	if opts.record != "" {
		device = audio.NewRecordingDevice(device, opts.record)
	}
	log.Infof("Playing through %s", device.Name())

	pub, err := newTransports(cfg.Transport)
	if err != nil {
		return err
	}
	defer pub.Close()

	p, err := newPipeline(cfg, device)
	if err != nil {
		return err
	}
	defer p.Close()

	err = p.app.PlayAll(ctx, p.events(), paths, app.RunOptions{
		FrameRate:       cfg.Audio.UIFrameRate,
		PublishInterval: cfg.Transport.PublishInterval,
		Snapshot: app.SnapshotOptions{
			WaveformColumns: cfg.Waveform.Columns,
			Points:          true,
			Scope:           true,
		},
		Publish: func(s app.Snapshot) {
			if err := pub.Send(s); err != nil {
				log.Debugf("Publish: %v", err)
			}
		},
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// newTransports opens every enabled transport, falling back to the debug log.
func newTransports(cfg config.TransportConfig) (transport.Transport, error) {
	var ts transport.Multi
	if cfg.WebSocketEnabled {
		ws, err := transport.NewWebSocketTransport(cfg.WebSocketAddress)
		if err != nil {
			return nil, err
		}
		ts = append(ts, ws)
	}
	if cfg.UDPEnabled {
		pub, err := udp.NewPublisher(cfg.UDPTargetAddress)
		if err != nil {
			ts.Close()
			return nil, err
		}
		ts = append(ts, pub)
	}
	if len(ts) == 0 {
		ts = append(ts, transport.NewLoggingTransport())
	}
	return ts, nil
}

func runDevices() error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()
	return audio.PrintDevices()
}
