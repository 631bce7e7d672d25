// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"loopcheck/cmd"
	applog "loopcheck/internal/log"
	"loopcheck/pkg/build"
)

// main parses the command line, runs the selected command and exits with
// its code: 0 when at least one audio path worked, 1 otherwise or on a fatal
// startup error. SIGINT and SIGTERM stop the run after the current path.
func main() {
	if err := build.Initialize(); err != nil {
		applog.Debugf("Build: running without link-time metadata: %v", err)
	}

	options, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		applog.Fatalf("%v", err)
	}
	if options.Command == "" {
		return // help or version was printed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code, err := cmd.Execute(ctx, options, os.Stdout)
	stop()
	if err != nil {
		applog.Errorf("%v", err)
		os.Exit(1)
	}
	os.Exit(code)
}
