// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"

	"loopcheck/internal/config"
	"loopcheck/pkg/build"

	"github.com/spf13/cobra"
)

// Commands selected by ParseArgs.
const (
	CommandRun   = "run"
	CommandList  = "list"
	CommandPaths = "paths"
	CommandPlay  = "play"
)

// Samples accepted by the play command.
var samples = []string{"tone", "chime", "melody"}

// ParseArgs parses the command line into Options. An empty Command means
// cobra already handled the invocation (help, version).
func ParseArgs(args []string) (*config.Options, error) {
	buildInfo := build.Get()
	options := &config.Options{}

	rootCmd := &cobra.Command{
		Use:   buildInfo.Name,
		Short: buildInfo.Description,
		Long: buildInfo.Description + `

Each candidate output path plays a test tone while the default microphone
records. A path works when the recording contains the tone.`,
		Version:       buildInfo.Version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if options.Quick && len(options.Paths) > 0 {
				return fmt.Errorf("--quick and --path are mutually exclusive")
			}
			options.Command = CommandRun
			return nil
		},
	}
	rootCmd.SetVersionTemplate(buildInfo.String() + "\n")

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandList
		},
	}

	pathsCmd := &cobra.Command{
		Use:   "paths",
		Short: "Show the audio paths in test order",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandPaths
		},
	}

	playCmd := &cobra.Command{
		Use:   "play <path>",
		Short: "Play a sample through one path to check it by ear",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validSample(options.Sample) {
				return fmt.Errorf("unknown sample %q, want one of %v", options.Sample, samples)
			}
			options.Command = CommandPlay
			options.Args = args
			return nil
		},
	}
	playCmd.Flags().StringVar(&options.Sample, "sample", "tone",
		"Sample to play: tone, chime or melody")

	rootCmd.AddCommand(listCmd, pathsCmd, playCmd)

	// Configuration
	rootCmd.PersistentFlags().StringVarP(&options.ConfigFile, "config", "c", "",
		"Configuration file (default ./"+config.DefaultConfigFile+" when present)")
	rootCmd.PersistentFlags().BoolVarP(&options.Verbose, "verbose", "v", false,
		"Show the full analysis of every path and debug logs")

	// Path selection and output
	rootCmd.Flags().BoolVar(&options.Quick, "quick", false,
		"Test only the direct plughw path")
	rootCmd.Flags().StringSliceVarP(&options.Paths, "path", "p", nil,
		"Test only the named paths (repeatable)")
	rootCmd.Flags().StringVar(&options.SaveDir, "save-dir", "",
		"Keep every recording as <dir>/<path>.wav")
	rootCmd.Flags().StringVar(&options.ServeAddr, "serve", "",
		"Publish live results on ws://<addr>/ws")

	// Execute the CLI
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return options, nil
}

func validSample(name string) bool {
	for _, s := range samples {
		if s == name {
			return true
		}
	}
	return false
}
