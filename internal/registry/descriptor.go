// SPDX-License-Identifier: MIT
package registry

import (
	"fmt"
	"strings"
)

// Method identifies the playback mechanism used for a path.
type Method int

const (
	MethodUnset         Method = iota
	MethodDevicePlayer         // single-shot player with an explicit device (aplay -D)
	MethodStreamPlayer         // media player with a device URI (mpv --audio-device)
	MethodNative               // host default output through the native audio API
)

var methodNames = map[Method]string{
	MethodUnset:        "unset",
	MethodDevicePlayer: "device-player",
	MethodStreamPlayer: "streaming-player",
	MethodNative:       "native",
}

// String returns the configuration name of the method.
func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod converts a configuration name (case-insensitive) to a Method.
// A few aliases naming the concrete tools are accepted.
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "device-player", "aplay":
		return MethodDevicePlayer, nil
	case "streaming-player", "stream-player", "mpv":
		return MethodStreamPlayer, nil
	case "native", "native-api", "portaudio":
		return MethodNative, nil
	case "", "unset", "none":
		return MethodUnset, nil
	default:
		return MethodUnset, fmt.Errorf("unknown playback method %q", name)
	}
}

// Descriptor names one candidate audio path and how to play through it.
// Descriptors are values; copies never alias registry state.
type Descriptor struct {
	Name        string
	Description string
	Method      Method
	Target      string // Device string or URI, syntax depends on Method.
	Priority    int    // Lower is tested first.
}

// Configured reports whether the descriptor names both a method and a target.
func (d Descriptor) Configured() bool {
	return d.Method != MethodUnset && d.Target != ""
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s (%s -> %q)", d.Name, d.Method, d.Target)
}
