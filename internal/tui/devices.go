// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"samplex/internal/audio"
)

type devicesMsg struct {
	devices []audio.DeviceInfo
	err     error
}

// fetchDevices gets the available output devices. PortAudio may be
// uninitialized when playback is disabled; the error is shown instead.
func fetchDevices() tea.Msg {
	devices, err := audio.OutputDevices()
	return devicesMsg{devices: devices, err: err}
}

// renderDevices formats the device list
func renderDevices(devices []audio.DeviceInfo, err error) string {
	if err != nil {
		return fmt.Sprintf("Cannot list devices: %v", err)
	}
	if len(devices) == 0 {
		return "No output devices found."
	}

	var sb strings.Builder
	for _, device := range devices {
		line := fmt.Sprintf("[%d] %s", device.ID, device.Name)
		if device.IsDefault {
			line = highlightStyle.Render(line + " (default, in use)")
		}
		sb.WriteString(line + "\n")
		if device.HostAPI != "" {
			fmt.Fprintf(&sb, "    Host API: %s\n", device.HostAPI)
		}
		fmt.Fprintf(&sb, "    Output channels: %d, default sample rate: %.0f Hz\n",
			device.MaxOutputChannels, device.DefaultSampleRate)
		fmt.Fprintf(&sb, "    Latency: low %.2f ms, high %.2f ms\n\n",
			device.LowLatency.Seconds()*1000, device.HighLatency.Seconds()*1000)
	}
	return sb.String()
}
