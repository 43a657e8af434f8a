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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/endecode/pkg/batch"
	"github.com/walteh/endecode/pkg/overlay"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for job file parsers
type Parser interface {
	// 📝 Parse parses the job from bytes
	Parse(ctx context.Context, data []byte) (*Job, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🖌️ OverlayArgs turns on the visible label
type OverlayArgs struct {
	Text     *string `json:"text,omitempty" yaml:"text,omitempty"`         // Label, the order string when unset
	Photo    *int    `json:"photo,omitempty" yaml:"photo,omitempty"`       // Image number, the order when unset
	Font     string  `json:"font,omitempty" yaml:"font,omitempty"`         // Font file or "builtin"
	Position string  `json:"position,omitempty" yaml:"position,omitempty"` // Anchor, bottom_right when unset
}

// 📚 Job describes one batch run
type Job struct {
	Source  string       `json:"source" yaml:"source"`
	Copies  *int         `json:"copies,omitempty" yaml:"copies,omitempty"` // unset means 1, zero or less makes none
	Text    string       `json:"text" yaml:"text"`
	Swap    bool         `json:"swap,omitempty" yaml:"swap,omitempty"`
	Zip     bool         `json:"zip,omitempty" yaml:"zip,omitempty"`
	Ignore  []string     `json:"ignore,omitempty" yaml:"ignore,omitempty"`
	Overlay *OverlayArgs `json:"overlay,omitempty" yaml:"overlay,omitempty"`
}

// 🎯 Load reads, parses and validates the job file at path. A relative
// source or font is resolved against the directory of the job file.
func Load(ctx context.Context, path string) (*Job, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading job file")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading job file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	job, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing job file: %w", err)
	}

	job.resolve(filepath.Dir(path))

	if err := job.Validate(); err != nil {
		return nil, errors.Errorf("validating job file: %w", err)
	}

	return job, nil
}

func (job *Job) resolve(dir string) {
	if job.Source != "" && !filepath.IsAbs(job.Source) {
		job.Source = filepath.Join(dir, job.Source)
	}
	if o := job.Overlay; o != nil && o.Font != "" && o.Font != overlay.BuiltinFontName && !filepath.IsAbs(o.Font) {
		o.Font = filepath.Join(dir, o.Font)
	}
}

// 🔍 Validate checks required fields and fills in defaults
func (job *Job) Validate() error {
	if job.Source == "" {
		return errors.Errorf("source is required")
	}
	for _, pattern := range job.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("ignore: invalid pattern %q", pattern)
		}
	}

	job.Source = filepath.Clean(job.Source)

	// Set defaults
	if job.Copies == nil {
		one := 1
		job.Copies = &one
	}
	if job.Overlay != nil {
		pos, err := overlay.ParsePosition(job.Overlay.Position)
		if err != nil {
			return errors.Errorf("overlay.position: %w", err)
		}
		job.Overlay.Position = string(pos)
	}

	return nil
}

// ⚙️ Options converts the job into batch options, loading the overlay font
func (job *Job) Options() (batch.Options, error) {
	opts := batch.Options{
		Source:   job.Source,
		Copies:   job.CopyCount(),
		BaseText: job.Text,
		Swap:     job.Swap,
		Zip:      job.Zip,
		Ignore:   job.Ignore,
	}

	if o := job.Overlay; o != nil {
		font, err := overlay.LoadFont(o.Font)
		if err != nil {
			return opts, err
		}
		opts.Overlay = true
		opts.OverlayText = o.Text
		opts.PhotoNumber = o.Photo
		opts.Font = font
		opts.Position = overlay.Position(o.Position)
	}

	return opts, nil
}

// 📝 String returns a string representation of the job
func (job *Job) String() string {
	return fmt.Sprintf("%s x%d %q", job.Source, job.CopyCount(), job.Text)
}

// CopyCount is the number of copies to make, 1 when unset
func (job *Job) CopyCount() int {
	if job.Copies == nil {
		return 1
	}
	return *job.Copies
}
