// SPDX-License-Identifier: MIT
package playback

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"loopcheck/internal/registry"
)

// Runner starts an external command and waits for it. The process must be
// killed when ctx is done. It returns whatever the command wrote to stderr.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

var lookPath = exec.LookPath

// RequiredTools lists the external programs needed to play through the given
// descriptors, without duplicates.
func RequiredTools(descs []registry.Descriptor, deps Deps) []string {
	var tools []string
	add := func(tool string) {
		for _, t := range tools {
			if t == tool {
				return
			}
		}
		tools = append(tools, tool)
	}
	for _, d := range descs {
		switch d.Method {
		case registry.MethodDevicePlayer:
			add(deps.Config.DevicePlayer)
		case registry.MethodStreamPlayer:
			add(deps.Config.StreamPlayer)
		}
	}
	return tools
}

// CheckTools verifies that every required tool is on PATH.
func CheckTools(descs []registry.Descriptor, deps Deps) error {
	var missing []string
	for _, tool := range RequiredTools(descs, deps) {
		if _, err := lookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required tools not found in PATH: %s", strings.Join(missing, ", "))
	}
	return nil
}
