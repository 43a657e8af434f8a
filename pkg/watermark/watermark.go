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

// Package watermark applies the marker codec to files on disk.
package watermark

import (
	"bytes"
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/walteh/endecode/pkg/fsutil"
	"github.com/walteh/endecode/pkg/marker"
	"gitlab.com/tozd/go/errors"
)

// 🔍 Has reports whether the tail window of path carries a marker prefix,
// current or legacy. A partial frame still counts.
func Has(ctx context.Context, path string) (bool, error) {
	tail, err := fsutil.ReadTail(path, marker.TailWindow)
	if err != nil {
		return false, err
	}
	return marker.Contains(tail), nil
}

// ➕ Add appends a frame for payload unless the tail window is already marked.
// It returns false when nothing was written. Existing bytes are never touched.
func Add(ctx context.Context, path, payload string) (bool, error) {
	logger := zerolog.Ctx(ctx)

	tail, err := fsutil.ReadTail(path, marker.TailWindow)
	if err != nil {
		return false, err
	}
	if marker.Contains(tail) {
		logger.Debug().Str("path", path).Msg("tail already marked, skipping")
		return false, nil
	}

	if err := fsutil.Append(path, marker.Build(payload)); err != nil {
		return false, err
	}
	logger.Debug().Str("path", path).Msg("marker appended")
	return true, nil
}

// AppendIfAbsent appends the frame for payload unless that exact frame already
// appears anywhere in the file.
func AppendIfAbsent(ctx context.Context, path, payload string) (bool, error) {
	frame := marker.Build(payload)

	content, err := os.ReadFile(path)
	if err != nil {
		return false, errors.Errorf("reading %s: %w", path, err)
	}
	if bytes.Contains(content, frame) {
		zerolog.Ctx(ctx).Debug().Str("path", path).Msg("frame already present, skipping")
		return false, nil
	}

	if err := fsutil.Append(path, frame); err != nil {
		return false, err
	}
	return true, nil
}

// 📤 Extract returns the payload of the marker in the tail window of path
func Extract(ctx context.Context, path string) (string, bool, error) {
	tail, err := fsutil.ReadTail(path, marker.TailWindow)
	if err != nil {
		return "", false, err
	}
	payload, ok := marker.Extract(tail)
	return payload, ok, nil
}

// ✂️ StripFile removes every marker from path and reports whether the file
// was rewritten.
func StripFile(ctx context.Context, path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, errors.Errorf("stat %s: %w", path, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return false, errors.Errorf("reading %s: %w", path, err)
	}
	if len(content) == 0 {
		return false, nil
	}

	cleaned, modified := marker.Strip(content)
	if !modified {
		return false, nil
	}

	if err := fsutil.WriteFileAtomic(path, cleaned, info.Mode().Perm()); err != nil {
		return false, errors.Errorf("rewriting %s: %w", path, err)
	}
	zerolog.Ctx(ctx).Debug().
		Str("path", path).
		Int("removed_bytes", len(content)-len(cleaned)).
		Msg("markers stripped")
	return true, nil
}
