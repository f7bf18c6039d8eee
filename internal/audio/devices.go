// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
)

// PortAudio entry points, swappable in tests.
var (
	paLibInitialize              = portaudio.Initialize
	paLibTerminate               = portaudio.Terminate
	paLibDevicesFunc             = portaudio.Devices
	paLibDefaultOutputDeviceFunc = portaudio.DefaultOutputDevice
	paDevicesFunc                = paDevices
)

// DeviceInfo describes a host audio device.
type DeviceInfo struct {
	ID                int
	Name              string
	HostAPI           string
	MaxOutputChannels int
	DefaultSampleRate float64
	LowLatency        time.Duration
	HighLatency       time.Duration
	IsDefault         bool
}

// Initialize sets up the PortAudio subsystem.
// This must be called before any audio operations and paired with a Terminate() call.
func Initialize() error {
	if err := paLibInitialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem.
func Terminate() error {
	if err := paLibTerminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// OutputDevices lists every device that can play audio. PortAudio must be
// initialized.
func OutputDevices() ([]DeviceInfo, error) {
	devices, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}

	var defaultName string
	if def, err := paLibDefaultOutputDeviceFunc(); err == nil && def != nil {
		defaultName = def.Name
	}

	out := make([]DeviceInfo, 0, len(devices))
	for i, d := range devices {
		if d == nil || d.MaxOutputChannels == 0 {
			continue
		}
		info := DeviceInfo{
			ID:                i,
			Name:              d.Name,
			MaxOutputChannels: d.MaxOutputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
			LowLatency:        d.DefaultLowOutputLatency,
			HighLatency:       d.DefaultHighOutputLatency,
			IsDefault:         d.Name == defaultName,
		}
		if d.HostApi != nil {
			info.HostAPI = d.HostApi.Name
		}
		out = append(out, info)
	}
	return out, nil
}

// DefaultOutputDevice resolves the system default output device.
func DefaultOutputDevice() (*portaudio.DeviceInfo, error) {
	device, err := paLibDefaultOutputDeviceFunc()
	if err != nil {
		return nil, fmt.Errorf("no default output device: %w", err)
	}
	if device == nil || device.MaxOutputChannels == 0 {
		return nil, fmt.Errorf("default device cannot play audio")
	}
	return device, nil
}

// PrintDevices writes a listing of the output devices to stdout.
func PrintDevices() error {
	devices, err := OutputDevices()
	if err != nil {
		return err
	}

	fmt.Printf("\nAvailable Output Devices\n\n")

	for _, device := range devices {
		marker := ""
		if device.IsDefault {
			marker = " (default)"
		}
		fmt.Printf("[%d] %s%s\n", device.ID, device.Name, marker)
		if device.HostAPI != "" {
			fmt.Printf("    Host API: %s\n", device.HostAPI)
		}
		fmt.Printf("    Output channels: %d\n", device.MaxOutputChannels)
		fmt.Printf("    Default sample rate: %.0f Hz\n", device.DefaultSampleRate)
		fmt.Printf("    Latency: Low=%.2fms, High=%.2fms\n",
			device.LowLatency.Seconds()*1000,
			device.HighLatency.Seconds()*1000)
		fmt.Println()
	}

	return nil
}

// paDevices returns all available PortAudio devices, never a nil slice on
// success.
func paDevices() ([]*portaudio.DeviceInfo, error) {
	devices, err := paLibDevicesFunc()
	if err != nil {
		return nil, err
	}
	if devices == nil {
		devices = []*portaudio.DeviceInfo{}
	}
	return devices, nil
}
