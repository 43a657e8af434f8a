// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/endecode/cmd/endecode/commands"
	"github.com/walteh/endecode/cmd/endecode/opts"
	"github.com/walteh/endecode/pkg/log"
)

// rootFlags are the persistent flags shared by every command
type rootFlags struct {
	debug    bool
	prefsDir string
}

// newRootCmd builds the command tree around o
func newRootCmd(o *opts.RootOpts) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "endecode",
		Short: "Embed, find and strip text watermarks in media files",
		Long: `endecode hides a short shifted label at the end of image, video and text
files, finds and removes those labels again, and makes numbered copies of a
folder where every copy carries its own label.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogging(flags.debug)
			o.PrefsDir = flags.prefsDir

			// the console zerolog mirror only runs with --debug
			mirror := zerolog.Disabled
			if flags.debug {
				mirror = zerolog.DebugLevel
			}

			ctx := logger.WithContext(cmd.Context())
			ctx = log.NewContext(ctx, log.New(cmd.ErrOrStderr(), mirror))
			cmd.SetContext(ctx)
			return nil
		},
	}

	// Add shared flags
	addRootFlags(rootCmd, flags)

	// Add commands
	rootCmd.AddCommand(
		commands.NewEncodeCmd(o),
		commands.NewDecodeCmd(o),
		commands.NewMarkerCmd(o),
		commands.NewHasCmd(o),
		commands.NewExtractCmd(o),
		commands.NewAddCmd(o),
		commands.NewStripCmd(o),
		commands.NewListCmd(o),
		commands.NewScanCmd(o),
		commands.NewBatchCmd(o),
		commands.NewOverlayCmd(o),
		commands.NewPrefsCmd(o),
	)

	return rootCmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, flags *rootFlags) {
	cmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&flags.prefsDir, "prefs-dir", "", "preferences directory (default: user config dir)")
}

// setupLogging configures zerolog based on flags
func setupLogging(debug bool) zerolog.Logger {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	return logger
}
