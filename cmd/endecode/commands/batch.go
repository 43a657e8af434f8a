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

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/endecode/cmd/endecode/opts"
	"github.com/walteh/endecode/pkg/batch"
	"github.com/walteh/endecode/pkg/config"
	"github.com/walteh/endecode/pkg/overlay"
	"github.com/walteh/endecode/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// batchFlags holds the batch command's flag values
type batchFlags struct {
	job         string
	copies      int
	text        string
	swap        bool
	zip         bool
	ignore      []string
	overlay     bool
	overlayText string
	photo       int
	font        string
	position    string
}

// NewBatchCmd creates a new batch command
func NewBatchCmd(o *opts.RootOpts) *cobra.Command {
	f := &batchFlags{}

	cmd := &cobra.Command{
		Use:   "batch [SOURCE]",
		Short: "Make numbered, individually watermarked copies of a folder",
		Long: `Batch copies SOURCE into SOURCE-Copies/NNN/<name> once per copy and marks
every supported file in each copy with "<text> NNN". Trailing digits of
--text pick the first number.
It will:
1. Copy the folder and inject the watermark into each file
2. Optionally draw a visible label onto one image (--overlay)
3. Optionally exchange images NNN and NNN+10 (--swap)
4. Optionally zip each copy and remove the folder (--zip)

A --job file (yaml, hcl or json) supplies the same settings; flags given on
the command line win over the file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			job, err := f.resolve(cmd, args)
			if err != nil {
				return err
			}
			zerolog.Ctx(ctx).Debug().Str("job", job.String()).Msg("resolved batch job")

			batchOpts, err := job.Options()
			if err != nil {
				return errors.Errorf("preparing batch: %w", err)
			}
			batchOpts.Reporter = status.New(zerolog.Ctx(ctx))

			res, err := batch.Run(ctx, batchOpts)
			if err != nil {
				return errors.Errorf("running batch: %w", err)
			}

			rememberPath(ctx, o, job.Source)

			out := cmd.OutOrStdout()
			outputs := res.Folders
			if len(res.Archives) > 0 {
				outputs = res.Archives
			}
			for _, p := range outputs {
				fmt.Fprintln(out, p)
			}
			o.UserLogger.LogValidation(true, fmt.Sprintf("%d copies written to %s", len(res.Folders), res.CopiesRoot), nil)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.job, "job", "", "job file (.yaml, .yml, .hcl or .json)")
	flags.IntVarP(&f.copies, "copies", "n", 1, "number of copies")
	flags.StringVarP(&f.text, "text", "t", "", "watermark text, trailing digits set the first number")
	flags.BoolVar(&f.swap, "swap", false, "exchange images NNN and NNN+10 in each copy")
	flags.BoolVar(&f.zip, "zip", false, "zip each copy and remove the folder")
	flags.StringSliceVar(&f.ignore, "ignore", nil, "doublestar patterns left unmarked")
	flags.BoolVar(&f.overlay, "overlay", false, "draw a visible label onto one image per copy")
	flags.StringVar(&f.overlayText, "overlay-text", "", "overlay label (default: the copy number)")
	flags.IntVar(&f.photo, "photo", 0, "number of the image to label (default: the copy number)")
	flags.StringVar(&f.font, "font", "", `overlay font file, or "builtin"`)
	flags.StringVar(&f.position, "position", "", "overlay anchor: top_left, top_right, center, bottom_left, bottom_right")

	return cmd
}

// resolve merges the job file, if any, with the flags the user set
func (f *batchFlags) resolve(cmd *cobra.Command, args []string) (*config.Job, error) {
	ctx := cmd.Context()
	flags := cmd.Flags()

	job := &config.Job{Copies: &f.copies}
	if f.job != "" {
		loaded, err := config.Load(ctx, f.job)
		if err != nil {
			return nil, err
		}
		job = loaded
	}

	if len(args) == 1 {
		job.Source = args[0]
	}
	if job.Source == "" {
		return nil, errors.Errorf("a source folder is required, as an argument or in --job")
	}
	if flags.Changed("copies") {
		job.Copies = &f.copies
	}
	if flags.Changed("text") {
		job.Text = f.text
	}
	if flags.Changed("swap") {
		job.Swap = f.swap
	}
	if flags.Changed("zip") {
		job.Zip = f.zip
	}
	if flags.Changed("ignore") {
		job.Ignore = f.ignore
	}

	if flags.Changed("overlay") && !f.overlay {
		job.Overlay = nil
		return job, nil
	}
	overlayFlags := []string{"overlay", "overlay-text", "photo", "font", "position"}
	for _, name := range overlayFlags {
		if flags.Changed(name) && job.Overlay == nil {
			job.Overlay = &config.OverlayArgs{}
		}
	}
	if job.Overlay == nil {
		return job, nil
	}

	if flags.Changed("overlay-text") {
		job.Overlay.Text = &f.overlayText
	}
	if flags.Changed("photo") {
		job.Overlay.Photo = &f.photo
	}
	if flags.Changed("font") {
		job.Overlay.Font = f.font
	}
	if flags.Changed("position") {
		job.Overlay.Position = f.position
	}
	pos, err := overlay.ParsePosition(job.Overlay.Position)
	if err != nil {
		return nil, err
	}
	job.Overlay.Position = string(pos)

	return job, nil
}
