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

// Package files classifies watermarkable files and lists them under a directory.
package files

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ErrDirectoryNotFound is returned when a directory to walk is missing or is not a directory
var ErrDirectoryNotFound = errors.Base("directory not found")

// 📊 Kind is the marking category of a file
type Kind int

const (
	Unsupported Kind = iota
	PlainText
	Image
	Video
)

// String returns a string representation of Kind
func (k Kind) String() string {
	switch k {
	case PlainText:
		return "text"
	case Image:
		return "image"
	case Video:
		return "video"
	default:
		return "unsupported"
	}
}

var kinds = map[string]Kind{
	"txt":  PlainText,
	"jpg":  Image,
	"jpeg": Image,
	"png":  Image,
	"mp4":  Video,
	"avi":  Video,
	"mov":  Video,
	"mkv":  Video,
}

// Extensions returns the supported extensions, sorted
func Extensions() []string {
	out := make([]string, 0, len(kinds))
	for ext := range kinds {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// 🔍 Classify returns the Kind of path based on its extension
func Classify(path string) Kind {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	return kinds[strings.ToLower(ext)]
}

// IsSupported reports whether path has a supported extension
func IsSupported(path string) bool {
	return Classify(path) != Unsupported
}

// ListOption configures List
type ListOption func(*listOptions)

type listOptions struct {
	ignore []string
}

// WithIgnore skips files whose slash-separated path relative to the listed
// directory matches any of the doublestar patterns.
func WithIgnore(patterns ...string) ListOption {
	return func(o *listOptions) {
		o.ignore = append(o.ignore, patterns...)
	}
}

// 📋 List walks dir recursively and returns the absolute paths of supported
// regular files in lexicographic order.
func List(ctx context.Context, dir string, opts ...ListOption) ([]string, error) {
	o := &listOptions{}
	for _, opt := range opts {
		opt(o)
	}

	for _, pattern := range o.ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Errorf("invalid ignore pattern %q", pattern)
		}
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Errorf("resolving %s: %w", dir, err)
	}
	if err := ensureDir(root); err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx)
	var out []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable entries are skipped, the root was checked above
			logger.Debug().Err(err).Str("path", path).Msg("skipping unreadable entry")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.Type().IsRegular() || !IsSupported(path) {
			return nil
		}
		if ignored(root, path, o.ignore) {
			logger.Debug().Str("path", path).Msg("file ignored by pattern")
			return nil
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking %s: %w", root, err)
	}

	sort.Strings(out)
	return out, nil
}

func ensureDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Errorf("%w: %s: %v", ErrDirectoryNotFound, path, err)
	}
	if !info.IsDir() {
		return errors.Errorf("%w: %s is not a directory", ErrDirectoryNotFound, path)
	}
	return nil
}

func ignored(root, path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range patterns {
		if doublestar.MatchUnvalidated(pattern, rel) {
			return true
		}
	}
	return false
}

// 🔢 FirstNumber returns the first run of ASCII digits in name
func FirstNumber(name string) (int, bool) {
	start := strings.IndexFunc(name, isDigit)
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(name) && isDigit(rune(name[end])) {
		end++
	}
	n, err := strconv.Atoi(name[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
