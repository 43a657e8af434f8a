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
package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/endecode/cmd/endecode/opts"
	"github.com/walteh/endecode/pkg/prefs"
	"gitlab.com/tozd/go/errors"
)

// NewPrefsCmd creates a new prefs command
func NewPrefsCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change saved preferences",
		Long: `Prefs prints every preference as KEY=VALUE, leaving unset keys empty.
Use "prefs get KEY" or "prefs set KEY VALUE" to read or change one; setting an
empty value clears the key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := prefsStore(o)
			if err != nil {
				return err
			}
			p, err := store.Load(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, key := range prefs.Keys() {
				value, _, err := p.Get(key)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s=%s\n", key, value)
			}
			return nil
		},
	}

	cmd.AddCommand(
		newPrefsGetCmd(o),
		newPrefsSetCmd(o),
		newPrefsPathCmd(o),
	)

	return cmd
}

func newPrefsGetCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:       "get KEY",
		Short:     "Print one preference, failing when it is unset",
		Args:      cobra.ExactArgs(1),
		ValidArgs: prefs.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := prefsStore(o)
			if err != nil {
				return err
			}
			p, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}

			value, ok, err := p.Get(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return errors.Errorf("%s is not set", args[0])
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
			return err
		},
	}
}

func newPrefsSetCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:       "set KEY [VALUE]",
		Short:     "Change one preference, clearing it without a value",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: prefs.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := prefsStore(o)
			if err != nil {
				return err
			}

			value := ""
			if len(args) == 2 {
				value = args[1]
			}
			if _, err := store.Update(cmd.Context(), func(p *prefs.Preferences) error {
				return p.Set(args[0], value)
			}); err != nil {
				return errors.Errorf("saving %s: %w", args[0], err)
			}

			if value == "" {
				o.UserLogger.LogStateChange(fmt.Sprintf("Cleared %s", args[0]))
			} else {
				o.UserLogger.LogStateChange(fmt.Sprintf("Set %s to %s", args[0], value))
			}
			return nil
		},
	}
}

func newPrefsPathCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the preferences file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := prefsStore(o)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), store.Path())
			return err
		},
	}
}

func prefsStore(o *opts.RootOpts) (*prefs.Store, error) {
	if o.PrefsDir != "" {
		return prefs.NewStore(o.PrefsDir), nil
	}
	return prefs.DefaultStore()
}

// rememberPath records dir as the last selected path. Failures are only logged.
func rememberPath(ctx context.Context, o *opts.RootOpts, dir string) {
	logger := zerolog.Ctx(ctx)

	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}

	store, err := prefsStore(o)
	if err == nil {
		_, err = store.Update(ctx, func(p *prefs.Preferences) error {
			return p.Set(prefs.KeyLastSelectedPath, abs)
		})
	}
	if err != nil {
		logger.Warn().Err(err).Str("path", abs).Msg("could not remember path")
		return
	}
	logger.Debug().Str("path", abs).Msg("remembered path")
}
