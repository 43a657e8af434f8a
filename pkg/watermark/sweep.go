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

package watermark

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/walteh/endecode/pkg/files"
	"github.com/walteh/endecode/pkg/fsutil"
	"github.com/walteh/endecode/pkg/marker"
	"golang.org/x/sync/errgroup"
)

// 📊 Report tallies a directory-wide strip
type Report struct {
	Processed int
	Removed   int
	Errored   int
	// Failures maps each failing path to its error
	Failures map[string]error
}

// String renders the summary shown to users
func (r Report) String() string {
	return fmt.Sprintf("Watermark removal completed.\nFiles processed: %d\nWatermarks removed: %d\nErrors: %d",
		r.Processed, r.Removed, r.Errored)
}

// 🧹 StripDirectory strips every supported file under dir. A failing file is
// counted and the sweep moves on; only a missing dir or a cancelled context
// fails the call.
func StripDirectory(ctx context.Context, dir string, opts ...files.ListOption) (Report, error) {
	logger := zerolog.Ctx(ctx)
	report := Report{Failures: map[string]error{}}

	paths, err := files.List(ctx, dir, opts...)
	if err != nil {
		return report, err
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Processed++

		removed, err := StripFile(ctx, path)
		switch {
		case err != nil:
			report.Errored++
			report.Failures[path] = err
			logger.Warn().Err(err).Str("path", path).Msg("strip failed")
		case removed:
			report.Removed++
		}
	}

	logger.Info().
		Int("processed", report.Processed).
		Int("removed", report.Removed).
		Int("errors", report.Errored).
		Msg("strip complete")
	return report, nil
}

// 🔎 Result is one row of a Scan
type Result struct {
	Path    string
	Kind    files.Kind
	Marked  bool
	Payload string
	Legacy  bool
	Err     error
}

// Scan inspects the tail of every supported file under dir without writing.
// Files are read concurrently; results keep listing order.
func Scan(ctx context.Context, dir string, opts ...files.ListOption) ([]Result, error) {
	paths, err := files.List(ctx, dir, opts...)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = scanFile(gctx, path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func scanFile(ctx context.Context, path string) Result {
	res := Result{Path: path, Kind: files.Classify(path)}

	tail, err := fsutil.ReadTail(path, marker.TailWindow)
	if err != nil {
		res.Err = err
		return res
	}
	res.Marked = marker.Contains(tail)

	if f, ok := marker.Find(tail, true); ok {
		res.Payload = f.Payload
	} else if f, ok := marker.FindLegacy(tail); ok {
		res.Payload = f.Payload
		res.Legacy = true
	}
	return res
}
