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

package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/endecode/pkg/archive"
	"github.com/walteh/endecode/pkg/files"
	"github.com/walteh/endecode/pkg/fsutil"
	"github.com/walteh/endecode/pkg/log"
	"github.com/walteh/endecode/pkg/overlay"
	"github.com/walteh/endecode/pkg/status"
	"github.com/walteh/endecode/pkg/watermark"
	"gitlab.com/tozd/go/errors"
)

// CopiesSuffix is appended to the source folder name to form the copies root
const CopiesSuffix = "-Copies"

// SwapOffset is the distance between the two image numbers exchanged by a swap
const SwapOffset = 10

// ⚙️ Options configures a batch run
type Options struct {
	Source   string // Folder to copy
	Copies   int    // Number of copies, zero or less makes none
	BaseText string // Label text, trailing digits pick the first order number

	Swap    bool // Exchange images numbered order and order+10
	Overlay bool // Draw a visible label onto one image per copy
	Zip     bool // Archive each copy and remove the folder

	OverlayText *string // Label for the overlay, the order string when nil
	PhotoNumber *int    // Image number to overlay, the order when nil

	Ignore   []string         // doublestar patterns skipped during injection
	Font     []byte           // Overlay font, overlays are skipped without one
	Position overlay.Position // Overlay anchor

	Reporter status.Reporter // Progress sink, a zerolog tracker when nil
}

// 📦 Result lists what a run produced
type Result struct {
	CopiesRoot string
	Folders    []string // destination folders in order, removed when zipped
	Archives   []string // archive paths, one per folder when zipping
}

// SplitBaseText separates the trailing ASCII digits of text from the rest.
// Without trailing digits, or when they overflow, start is 1.
func SplitBaseText(text string) (base string, start int) {
	end := len(text)
	for end > 0 && text[end-1] >= '0' && text[end-1] <= '9' {
		end--
	}

	start = 1
	if digits := text[end:]; digits != "" {
		if n, err := strconv.Atoi(digits); err == nil {
			start = n
		}
	}
	return strings.TrimSpace(text[:end]), start
}

// Order formats a copy number zero padded to three digits
func Order(n int) string {
	return fmt.Sprintf("%03d", n)
}

// CopiesRoot returns the folder that holds every numbered copy of source
func CopiesRoot(source string) string {
	source = filepath.Clean(source)
	return filepath.Join(filepath.Dir(source), filepath.Base(source)+CopiesSuffix)
}

// 🏭 Run makes opts.Copies numbered copies of opts.Source, each injected with
// its own marker. The first failure aborts the run; copies already made are
// left in place.
func Run(ctx context.Context, opts Options) (Result, error) {
	logger := zerolog.Ctx(ctx)
	console := log.FromContext(ctx)

	if opts.Source == "" {
		return Result{}, errors.New("source folder is required")
	}
	src, err := filepath.Abs(opts.Source)
	if err != nil {
		return Result{}, errors.Errorf("resolving %s: %w", opts.Source, err)
	}
	info, err := os.Stat(src)
	if err != nil {
		return Result{}, errors.Errorf("%w: %s: %v", files.ErrDirectoryNotFound, src, err)
	}
	if !info.IsDir() {
		return Result{}, errors.Errorf("%w: %s is not a directory", files.ErrDirectoryNotFound, src)
	}

	reporter := opts.Reporter
	if reporter == nil {
		reporter = status.New(logger)
	}

	res := Result{CopiesRoot: CopiesRoot(src)}
	if err := os.MkdirAll(res.CopiesRoot, 0755); err != nil {
		return res, errors.Errorf("creating copies folder %s: %w", res.CopiesRoot, err)
	}

	base, start := SplitBaseText(opts.BaseText)
	copies := max(opts.Copies, 0)

	logger.Info().
		Str("source", src).
		Int("copies", copies).
		Str("base", base).
		Int("start", start).
		Msg("starting batch")
	console.Header(fmt.Sprintf("making %d copies of %s", copies, filepath.Base(src)))

	reporter.StartOperation(ctx, copies)
	for i := 0; i < copies; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		order := start + i
		orderStr := Order(order)
		dest := filepath.Join(res.CopiesRoot, orderStr, filepath.Base(src))

		console.StartCopy(ctx, log.CopyOperation{Order: orderStr, Source: src, Destination: dest})
		if err := makeCopy(ctx, opts, reporter, src, dest, base, order); err != nil {
			console.EndCopy(ctx)
			return res, errors.Errorf("copy %s: %w", orderStr, err)
		}
		console.EndCopy(ctx)

		res.Folders = append(res.Folders, dest)
		reporter.UpdateProgress(ctx, i+1)
	}

	if opts.Zip {
		for _, folder := range res.Folders {
			path, err := archive.Zip(ctx, folder)
			if err != nil {
				return res, errors.Errorf("archiving %s: %w", folder, err)
			}
			res.Archives = append(res.Archives, path)

			if err := os.RemoveAll(folder); err != nil {
				return res, errors.Errorf("removing %s after archiving: %w", folder, err)
			}
			reporter.TrackFile(ctx, status.FileInfo{Path: path, Outcome: status.OutcomeArchived})
			console.LogFileOperation(ctx, log.FileOperation{
				Path:   relTo(res.CopiesRoot, path),
				Kind:   "archive",
				Action: log.ActionArchived,
			})
		}
	}
	reporter.FinishOperation(ctx)

	logger.Info().
		Str("root", res.CopiesRoot).
		Int("folders", len(res.Folders)).
		Int("archives", len(res.Archives)).
		Msg("batch complete")
	return res, nil
}

func makeCopy(ctx context.Context, opts Options, reporter status.Reporter, src, dest, base string, order int) error {
	orderStr := Order(order)

	if err := fsutil.CopyTree(ctx, src, dest); err != nil {
		return err
	}

	payload := base + " " + orderStr
	if err := inject(ctx, reporter, dest, payload, opts.Ignore); err != nil {
		return err
	}

	if opts.Overlay {
		text := orderStr
		if opts.OverlayText != nil {
			text = *opts.OverlayText
		}
		photo := order
		if opts.PhotoNumber != nil {
			photo = *opts.PhotoNumber
		}
		renderer := overlay.Renderer{Font: opts.Font, Position: opts.Position}
		if err := overlayPhoto(ctx, reporter, renderer, dest, photo, text, payload); err != nil {
			return err
		}
	}

	if opts.Swap {
		if err := swapPhotos(ctx, reporter, dest, order, order+SwapOffset); err != nil {
			return err
		}
	}
	return nil
}

// inject marks every supported file under dest. Videos only get the tail
// window check; everything else is searched whole for the exact frame.
func inject(ctx context.Context, reporter status.Reporter, dest, payload string, ignore []string) error {
	console := log.FromContext(ctx)

	paths, err := files.List(ctx, dest, files.WithIgnore(ignore...))
	if err != nil {
		return err
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		kind := files.Classify(path)
		var added bool
		if kind == files.Video {
			added, err = watermark.Add(ctx, path, payload)
		} else {
			added, err = watermark.AppendIfAbsent(ctx, path, payload)
		}
		if err != nil {
			reporter.TrackFile(ctx, status.FileInfo{Path: path, Outcome: status.OutcomeFailed, Error: err})
			return errors.Errorf("injecting %s: %w", path, err)
		}

		op := log.FileOperation{Path: relTo(dest, path), Kind: kind.String(), Action: log.ActionMarked}
		outcome := status.OutcomeMarked
		if !added {
			op.Action = log.ActionSkipped
			op.Detail = "already marked"
			outcome = status.OutcomeSkipped
		}
		reporter.TrackFile(ctx, status.FileInfo{Path: path, Outcome: outcome})
		console.LogFileOperation(ctx, op)
	}
	return nil
}

// findImage returns the first image under dir whose filename's first digit
// run equals n
func findImage(ctx context.Context, dir string, n int) (string, bool, error) {
	paths, err := files.List(ctx, dir)
	if err != nil {
		return "", false, err
	}
	for _, path := range paths {
		if files.Classify(path) != files.Image {
			continue
		}
		if got, ok := files.FirstNumber(filepath.Base(path)); ok && got == n {
			return path, true, nil
		}
	}
	return "", false, nil
}

func overlayPhoto(ctx context.Context, reporter status.Reporter, r overlay.Renderer, dest string, photo int, text, payload string) error {
	logger := zerolog.Ctx(ctx)
	console := log.FromContext(ctx)

	path, ok, err := findImage(ctx, dest, photo)
	if err != nil {
		return err
	}
	if !ok {
		logger.Debug().Int("photo", photo).Str("dir", dest).Msg("no image to overlay")
		return nil
	}

	drawn, err := r.Apply(ctx, path, text)
	if err != nil {
		reporter.TrackFile(ctx, status.FileInfo{Path: path, Outcome: status.OutcomeFailed, Error: err})
		return errors.Errorf("overlaying %s: %w", path, err)
	}
	if !drawn {
		console.Warningf("no font available, overlay skipped for %s", relTo(dest, path))
		return nil
	}

	// re-encoding drops anything past the image data, so the frame goes back on
	if _, err := watermark.AppendIfAbsent(ctx, path, payload); err != nil {
		return errors.Errorf("re-injecting %s: %w", path, err)
	}

	reporter.TrackFile(ctx, status.FileInfo{Path: path, Outcome: status.OutcomeOverlaid})
	console.LogFileOperation(ctx, log.FileOperation{
		Path:   relTo(dest, path),
		Kind:   files.Image.String(),
		Action: log.ActionOverlaid,
		Detail: text,
	})
	return nil
}

func swapPhotos(ctx context.Context, reporter status.Reporter, dest string, a, b int) error {
	logger := zerolog.Ctx(ctx)
	console := log.FromContext(ctx)

	pathA, okA, err := findImage(ctx, dest, a)
	if err != nil {
		return err
	}
	pathB, okB, err := findImage(ctx, dest, b)
	if err != nil {
		return err
	}
	if !okA || !okB {
		logger.Debug().Int("a", a).Int("b", b).Bool("found_a", okA).Bool("found_b", okB).Msg("swap pair incomplete, skipping")
		return nil
	}

	if err := Swap(ctx, pathA, pathB); err != nil {
		reporter.TrackFile(ctx, status.FileInfo{Path: pathA, Outcome: status.OutcomeFailed, Error: err})
		return err
	}

	for _, p := range []string{pathA, pathB} {
		reporter.TrackFile(ctx, status.FileInfo{Path: p, Outcome: status.OutcomeSwapped})
	}
	console.LogFileOperation(ctx, log.FileOperation{
		Path:   relTo(dest, pathA),
		Kind:   files.Image.String(),
		Action: log.ActionSwapped,
		Detail: "with " + relTo(dest, pathB),
	})
	return nil
}

func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
