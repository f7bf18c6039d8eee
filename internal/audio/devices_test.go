// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gordonklaus/portaudio"
)

func mockDevices(t *testing.T, devices []*portaudio.DeviceInfo, def *portaudio.DeviceInfo) {
	t.Helper()
	origDevices, origDefault := paLibDevicesFunc, paLibDefaultOutputDeviceFunc
	t.Cleanup(func() {
		paLibDevicesFunc, paLibDefaultOutputDeviceFunc = origDevices, origDefault
	})
	paLibDevicesFunc = func() ([]*portaudio.DeviceInfo, error) { return devices, nil }
	paLibDefaultOutputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		if def == nil {
			return nil, fmt.Errorf("no default")
		}
		return def, nil
	}
}

func TestOutputDevices(t *testing.T) {
	mic := &portaudio.DeviceInfo{Name: "Mic", MaxInputChannels: 2}
	speakers := &portaudio.DeviceInfo{
		Name:                     "Speakers",
		MaxOutputChannels:        2,
		DefaultSampleRate:        48000,
		DefaultLowOutputLatency:  5 * time.Millisecond,
		DefaultHighOutputLatency: 40 * time.Millisecond,
		HostApi:                  &portaudio.HostApiInfo{Name: "ALSA"},
	}
	hdmi := &portaudio.DeviceInfo{Name: "HDMI", MaxOutputChannels: 8, DefaultSampleRate: 44100}
	mockDevices(t, []*portaudio.DeviceInfo{mic, speakers, hdmi}, speakers)

	devices, err := OutputDevices()
	if err != nil {
		t.Fatalf("OutputDevices() error = %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("got %d output devices, want 2", len(devices))
	}
	if devices[0].ID != 1 || devices[0].Name != "Speakers" || !devices[0].IsDefault || devices[0].HostAPI != "ALSA" {
		t.Errorf("devices[0] = %+v", devices[0])
	}
	if devices[0].LowLatency != 5*time.Millisecond {
		t.Errorf("LowLatency = %v", devices[0].LowLatency)
	}
	if devices[1].ID != 2 || devices[1].IsDefault {
		t.Errorf("devices[1] = %+v", devices[1])
	}
}

func TestOutputDevices_paDevicesError(t *testing.T) {
	orig := paDevicesFunc
	defer func() { paDevicesFunc = orig }()
	paDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return nil, fmt.Errorf("mock error")
	}

	_, err := OutputDevices()
	if err == nil || !strings.Contains(err.Error(), "mock error") {
		t.Errorf("expected mock error, got %v", err)
	}
}

func TestDefaultOutputDevice(t *testing.T) {
	mockDevices(t, nil, nil)
	if _, err := DefaultOutputDevice(); err == nil || !strings.Contains(err.Error(), "no default") {
		t.Errorf("expected wrapped error, got %v", err)
	}

	mockDevices(t, nil, &portaudio.DeviceInfo{Name: "Mic", MaxInputChannels: 1})
	if _, err := DefaultOutputDevice(); err == nil {
		t.Error("an input-only default device must be rejected")
	}
}

func TestErrorInitialize(t *testing.T) {
	orig := paLibInitialize
	defer func() { paLibInitialize = orig }()

	paLibInitialize = func() error { return nil }
	if err := Initialize(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	paLibInitialize = func() error { return fmt.Errorf("mock init error") }
	if err := Initialize(); err == nil || !strings.Contains(err.Error(), "mock init error") {
		t.Errorf("expected mock init error, got %v", err)
	}
}

func TestErrorTerminate(t *testing.T) {
	orig := paLibTerminate
	defer func() { paLibTerminate = orig }()

	paLibTerminate = func() error { return nil }
	if err := Terminate(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	paLibTerminate = func() error { return fmt.Errorf("mock term error") }
	if err := Terminate(); err == nil || !strings.Contains(err.Error(), "mock term error") {
		t.Errorf("expected mock term error, got %v", err)
	}
}

func TestInitializeOutputFailure(t *testing.T) {
	orig := paLibInitialize
	defer func() { paLibInitialize = orig }()
	paLibInitialize = func() error { return fmt.Errorf("no audio subsystem") }

	device, cleanup := InitializeOutput(configForTest())
	defer cleanup()
	if device != nil {
		t.Error("expected nil device when PortAudio fails")
	}
}

func TestNilDevices(t *testing.T) {
	mockDevices(t, nil, nil)

	devices, err := paDevices()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if devices == nil {
		t.Errorf("expected empty slice, got nil")
	}
}

func TestPortAudioNotInitialized(t *testing.T) {
	orig := paLibDevicesFunc
	defer func() { paLibDevicesFunc = orig }()
	paLibDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return nil, fmt.Errorf("PortAudio not initialized")
	}

	devices, err := paDevices()
	if err == nil || !strings.Contains(err.Error(), "PortAudio not initialized") {
		t.Errorf("expected 'PortAudio not initialized' error, got %v", err)
	}
	if devices != nil {
		t.Errorf("expected devices to be nil on error, got %v", devices)
	}
}
