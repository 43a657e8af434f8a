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
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/walteh/endecode/cmd/endecode/opts"
	"github.com/walteh/endecode/pkg/cipher"
	"github.com/walteh/endecode/pkg/marker"
)

// NewEncodeCmd creates a new encode command
func NewEncodeCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode TEXT...",
		Short: "Shift text forward by the cipher amount",
		Long: `Encode shifts every ASCII letter forward by 7 within its case and every
digit forward by 7 modulo 10. Everything else is left alone. Multiple
arguments are joined with single spaces.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), cipher.Encode(strings.Join(args, " ")))
			return err
		},
	}

	return cmd
}

// NewDecodeCmd creates a new decode command
func NewDecodeCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode TEXT...",
		Short: "Undo encode",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), cipher.Decode(strings.Join(args, " ")))
			return err
		},
	}

	return cmd
}

// NewMarkerCmd creates a new marker command
func NewMarkerCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "marker TEXT...",
		Short: "Print the framed, encoded watermark for TEXT",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), marker.BuildString(strings.Join(args, " ")))
			return err
		},
	}

	return cmd
}
