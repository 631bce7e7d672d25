// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"io"

	"github.com/gordonklaus/portaudio"
)

// Device describes a host audio device.
type Device struct {
	ID                int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	DefaultInput      bool
	DefaultOutput     bool
}

// Seams for tests; production code always goes through PortAudio.
var (
	paDevicesFunc       = portaudio.Devices
	paDefaultInputFunc  = portaudio.DefaultInputDevice
	paDefaultOutputFunc = portaudio.DefaultOutputDevice
)

// Initialize sets up the PortAudio subsystem.
// This must be called before any audio operations and paired with a Terminate() call.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem.
func Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// HostDevices returns every device PortAudio reports, flagging the defaults.
func HostDevices() ([]Device, error) {
	infos, err := paDevicesFunc()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	// A host without a default device is not an error for listing purposes.
	defIn, _ := paDefaultInputFunc()
	defOut, _ := paDefaultOutputFunc()

	devices := make([]Device, len(infos))
	for i, info := range infos {
		devices[i] = Device{
			ID:                i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			DefaultInput:      defIn != nil && info.Name == defIn.Name,
			DefaultOutput:     defOut != nil && info.Name == defOut.Name,
		}
	}
	return devices, nil
}

// DefaultInputDevice returns the system default input device, verifying it
// can actually capture.
func DefaultInputDevice() (*portaudio.DeviceInfo, error) {
	dev, err := paDefaultInputFunc()
	if err != nil {
		return nil, fmt.Errorf("no default input device: %w", err)
	}
	if dev.MaxInputChannels <= 0 {
		return nil, fmt.Errorf("default device %q does not support input", dev.Name)
	}
	return dev, nil
}

// DefaultOutputDevice returns the system default output device, verifying it
// can actually play.
func DefaultOutputDevice() (*portaudio.DeviceInfo, error) {
	dev, err := paDefaultOutputFunc()
	if err != nil {
		return nil, fmt.Errorf("no default output device: %w", err)
	}
	if dev.MaxOutputChannels <= 0 {
		return nil, fmt.Errorf("default device %q does not support output", dev.Name)
	}
	return dev, nil
}

// ListDevices prints input and output devices, marking the defaults with an
// arrow.
func ListDevices(w io.Writer) error {
	devices, err := HostDevices()
	if err != nil {
		return err
	}

	section := func(title string, pick func(Device) (int, bool)) {
		fmt.Fprintf(w, "\n%s:\n", title)
		found := false
		for _, d := range devices {
			ch, def := pick(d)
			if ch <= 0 {
				continue
			}
			found = true
			marker := " "
			if def {
				marker = "→"
			}
			fmt.Fprintf(w, "  %s [%d] %s (%d ch, %.0f Hz)\n", marker, d.ID, d.Name, ch, d.DefaultSampleRate)
		}
		if !found {
			fmt.Fprintf(w, "  ✗ none found\n")
		}
	}

	section("Input devices (microphones)", func(d Device) (int, bool) { return d.MaxInputChannels, d.DefaultInput })
	section("Output devices (speakers)", func(d Device) (int, bool) { return d.MaxOutputChannels, d.DefaultOutput })
	return nil
}

// OutputDevice resolves a playback target to a PortAudio device. "default"
// and the empty string select the host default output; anything else must
// match a device name exactly.
func OutputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" || name == "default" {
		return DefaultOutputDevice()
	}
	infos, err := paDevicesFunc()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	for _, info := range infos {
		if info.Name == name {
			if info.MaxOutputChannels <= 0 {
				return nil, fmt.Errorf("device %q does not support output", name)
			}
			return info, nil
		}
	}
	return nil, fmt.Errorf("output device %q not found", name)
}
