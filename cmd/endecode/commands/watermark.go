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
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/walteh/endecode/cmd/endecode/opts"
	"github.com/walteh/endecode/pkg/files"
	"github.com/walteh/endecode/pkg/watermark"
	"gitlab.com/tozd/go/errors"
)

// NewHasCmd creates a new has command
func NewHasCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "has PATH...",
		Short: "Report whether each file ends with a watermark",
		Long: `Has looks for a watermark frame in the last 100 bytes of each file and
prints "PATH<TAB>true" or "PATH<TAB>false". A missing file fails the command.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			for _, path := range args {
				ok, err := watermark.Has(ctx, path)
				if err != nil {
					return errors.Errorf("checking %s: %w", path, err)
				}
				fmt.Fprintf(out, "%s\t%t\n", path, ok)
			}
			return nil
		},
	}

	return cmd
}

// NewExtractCmd creates a new extract command
func NewExtractCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract PATH...",
		Short: "Print the decoded watermark of each file",
		Long: `Extract prints "PATH<TAB>PAYLOAD" for every file whose tail holds a
complete frame. Files without one are reported as skipped and left out.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			for _, path := range args {
				payload, ok, err := watermark.Extract(ctx, path)
				if err != nil {
					return errors.Errorf("extracting %s: %w", path, err)
				}
				if !ok {
					o.UserLogger.LogFileChange(opts.FileChange{Type: opts.FileSkipped, Path: path, Description: "no watermark"})
					continue
				}
				fmt.Fprintf(out, "%s\t%s\n", path, payload)
			}
			return nil
		},
	}

	return cmd
}

// NewAddCmd creates a new add command
func NewAddCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add PATH TEXT",
		Short: "Append a watermark unless the file already ends with one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, text := args[0], args[1]

			added, err := watermark.Add(ctx, path, text)
			if err != nil {
				return errors.Errorf("adding watermark: %w", err)
			}

			if added {
				o.UserLogger.LogFileChange(opts.FileChange{Type: opts.FileMarked, Path: path})
			} else {
				o.UserLogger.LogFileChange(opts.FileChange{Type: opts.FileSkipped, Path: path, Description: "already marked"})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatBool(added))
			return err
		},
	}

	return cmd
}

// NewStripCmd creates a new strip command
func NewStripCmd(o *opts.RootOpts) *cobra.Command {
	var ignore []string

	cmd := &cobra.Command{
		Use:   "strip DIR",
		Short: "Remove watermarks from every supported file under DIR",
		Long: `Strip walks DIR and removes the tail watermark from each supported file.
A file that cannot be processed is counted and reported; the sweep goes on.
It will:
1. List supported files (skipping --ignore patterns)
2. Remove the frame found in each file's tail
3. Print a summary`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dir := args[0]

			report, err := watermark.StripDirectory(ctx, dir, files.WithIgnore(ignore...))
			if err != nil {
				return errors.Errorf("stripping %s: %w", dir, err)
			}

			failed := make([]string, 0, len(report.Failures))
			for path := range report.Failures {
				failed = append(failed, path)
			}
			sort.Strings(failed)
			for _, path := range failed {
				o.UserLogger.LogFileChange(opts.FileChange{Type: opts.FileError, Path: path, Error: report.Failures[path]})
			}

			rememberPath(ctx, o, dir)

			_, err = fmt.Fprintln(cmd.OutOrStdout(), report.String())
			return err
		},
	}

	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "doublestar patterns to skip, relative to DIR")

	return cmd
}

// NewListCmd creates a new list command
func NewListCmd(o *opts.RootOpts) *cobra.Command {
	var (
		ignore []string
		table  bool
	)

	cmd := &cobra.Command{
		Use:   "list DIR",
		Short: "List supported files under DIR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			paths, err := files.List(ctx, args[0], files.WithIgnore(ignore...))
			if err != nil {
				return errors.Errorf("listing %s: %w", args[0], err)
			}

			if !table {
				for _, path := range paths {
					fmt.Fprintln(out, path)
				}
				return nil
			}

			rows := make([][]string, 0, len(paths))
			for _, path := range paths {
				rows = append(rows, []string{relOrSelf(args[0], path), files.Classify(path).String()})
			}
			return o.UserLogger.Table(out, []string{"File", "Kind"}, rows)
		},
	}

	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "doublestar patterns to skip, relative to DIR")
	cmd.Flags().BoolVar(&table, "table", false, "print a table with file kinds")

	return cmd
}

// NewScanCmd creates a new scan command
func NewScanCmd(o *opts.RootOpts) *cobra.Command {
	var ignore []string

	cmd := &cobra.Command{
		Use:   "scan DIR",
		Short: "Show the watermark state of every supported file under DIR",
		Long: `Scan reads the tail of each supported file without changing anything and
prints a table of the file, its kind, whether it is marked and the decoded
payload. Legacy frames are flagged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			results, err := watermark.Scan(ctx, args[0], files.WithIgnore(ignore...))
			if err != nil {
				return errors.Errorf("scanning %s: %w", args[0], err)
			}

			rows := make([][]string, 0, len(results))
			marked := 0
			for _, r := range results {
				state := strconv.FormatBool(r.Marked)
				switch {
				case r.Err != nil:
					state = "error: " + r.Err.Error()
				case r.Legacy:
					state += " (legacy)"
				}
				if r.Marked {
					marked++
				}
				rows = append(rows, []string{relOrSelf(args[0], r.Path), r.Kind.String(), state, r.Payload})
			}

			if err := o.UserLogger.Table(cmd.OutOrStdout(), []string{"File", "Kind", "Marked", "Payload"}, rows); err != nil {
				return err
			}
			o.UserLogger.LogStateChange(fmt.Sprintf("%d of %d files marked", marked, len(results)))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "doublestar patterns to skip, relative to DIR")

	return cmd
}

func relOrSelf(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
