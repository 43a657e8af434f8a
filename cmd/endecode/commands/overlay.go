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
	"github.com/spf13/cobra"
	"github.com/walteh/endecode/cmd/endecode/opts"
	"github.com/walteh/endecode/pkg/overlay"
	"gitlab.com/tozd/go/errors"
)

// NewOverlayCmd creates a new overlay command
func NewOverlayCmd(o *opts.RootOpts) *cobra.Command {
	var (
		font     string
		position string
	)

	cmd := &cobra.Command{
		Use:   "overlay PATH TEXT",
		Short: "Draw a semi-transparent label onto an image",
		Long: `Overlay draws TEXT onto the image at PATH in white at half opacity and
rewrites it in place. PNG files stay PNG; other images are saved as JPEG.
Re-encoding drops any watermark appended to the file.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, text := args[0], args[1]

			pos, err := overlay.ParsePosition(position)
			if err != nil {
				return err
			}
			face, err := overlay.LoadFont(font)
			if err != nil {
				return err
			}

			drawn, err := overlay.Renderer{Font: face, Position: pos}.Apply(ctx, path, text)
			if err != nil {
				return errors.Errorf("overlaying %s: %w", path, err)
			}
			if !drawn {
				o.UserLogger.LogFileChange(opts.FileChange{Type: opts.FileSkipped, Path: path, Description: "no font"})
				return nil
			}

			o.UserLogger.LogFileChange(opts.FileChange{Type: opts.FileOverlaid, Path: path, Description: string(pos)})
			return nil
		},
	}

	cmd.Flags().StringVar(&font, "font", overlay.BuiltinFontName, `font file, "builtin", or "" for none`)
	cmd.Flags().StringVar(&position, "position", string(overlay.BottomRight), "anchor: top_left, top_right, center, bottom_left, bottom_right")

	return cmd
}
