// SPDX-License-Identifier: MIT
//
// Package build exposes metadata embedded at link time:
//
//	go build -ldflags "-X loopcheck/pkg/build.buildName=loopcheck \
//	  -X loopcheck/pkg/build.buildVersion=0.3.0 \
//	  -X loopcheck/pkg/build.buildCommit=$(git rev-parse --short HEAD) \
//	  -X loopcheck/pkg/build.buildTime=$(date -u +%FT%TZ)"
//
// Development builds run without the flags and report "dev" values.
package build

import (
	"errors"
	"fmt"
)

// Info describes the running binary.
type Info struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String renders the version line printed by --version.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

const description = "Find which audio output paths actually make sound, by listening for them"

// Populated by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildInfo    = devInfo()
)

func devInfo() Info {
	return Info{
		Name:        "loopcheck",
		Description: description,
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
}

// Initialize copies the ldflags values into the build info. Every missing
// flag is reported; the development defaults stay in place in that case.
func Initialize() error {
	var errs []error
	if buildName == "" {
		errs = append(errs, errors.New("BuildName is required"))
	}
	if buildTime == "" {
		errs = append(errs, errors.New("BuildTime is required"))
	}
	if buildCommit == "" {
		errs = append(errs, errors.New("BuildCommit is required"))
	}
	if buildVersion == "" {
		errs = append(errs, errors.New("BuildVersion is required"))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	buildInfo = Info{
		Name:        buildName,
		Description: description,
		Time:        buildTime,
		Commit:      buildCommit,
		Version:     buildVersion,
	}
	return nil
}

// Get returns the current build information.
func Get() Info {
	return buildInfo
}
