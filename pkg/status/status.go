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

package status

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📊 Outcome is what a batch step did to a file
type Outcome int

const (
	OutcomeUnknown  Outcome = iota
	OutcomeMarked           // Frame appended
	OutcomeSkipped          // Already marked, left alone
	OutcomeStripped         // Frames removed
	OutcomeOverlaid         // Text drawn onto the image
	OutcomeSwapped          // Contents exchanged with a sibling
	OutcomeArchived         // Folder zipped and removed
	OutcomeFailed           // Step returned an error
)

// String returns a string representation of Outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeMarked:
		return "marked"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeStripped:
		return "stripped"
	case OutcomeOverlaid:
		return "overlaid"
	case OutcomeSwapped:
		return "swapped"
	case OutcomeArchived:
		return "archived"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// 📄 FileInfo is the last recorded outcome for a path
type FileInfo struct {
	Path    string  // Absolute path
	Outcome Outcome // Last outcome
	Error   error   // Set when Outcome is OutcomeFailed
}

// 📈 Reporter tracks file outcomes and reports progress
type Reporter interface {
	// Outcome tracking
	TrackFile(ctx context.Context, info FileInfo)

	// Progress reporting
	StartOperation(ctx context.Context, total int)
	UpdateProgress(ctx context.Context, processed int)
	FinishOperation(ctx context.Context)
}

var _ Reporter = (*Tracker)(nil)

// 🔧 Tracker implements Reporter on top of zerolog
type Tracker struct {
	logger    *zerolog.Logger // Logger for status updates
	formatter FileFormatter   // Formatter for status messages

	mu    sync.RWMutex
	files map[string]FileInfo

	total     int
	processed int
}

// 🏭 New creates a new tracker. A nil logger falls back to zerolog's disabled logger.
func New(logger *zerolog.Logger) *Tracker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Tracker{
		logger:    logger,
		formatter: NewDefaultFileFormatter(),
		files:     make(map[string]FileInfo),
	}
}

// WithFormatter swaps the message formatter
func (t *Tracker) WithFormatter(f FileFormatter) *Tracker {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.formatter = f
	return t
}

func (t *Tracker) TrackFile(ctx context.Context, info FileInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.files[info.Path] = info

	if info.Error != nil {
		t.logger.Warn().Err(info.Error).Str("path", info.Path).Msg(t.formatter.FormatError(info.Error))
		return
	}
	t.logger.Debug().
		Str("path", info.Path).
		Str("outcome", info.Outcome.String()).
		Msg(t.formatter.FormatFileOperation(info.Path, info.Outcome))
}

// GetFileInfo returns the recorded outcome for path
func (t *Tracker) GetFileInfo(ctx context.Context, path string) (FileInfo, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	info, ok := t.files[path]
	if !ok {
		return FileInfo{}, errors.Errorf("file not tracked: %s", path)
	}
	return info, nil
}

// ListFiles returns every tracked file sorted by path
func (t *Tracker) ListFiles(ctx context.Context) []FileInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	files := make([]FileInfo, 0, len(t.files))
	for _, info := range t.files {
		files = append(files, info)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files
}

// Counts tallies tracked files by outcome
func (t *Tracker) Counts() map[Outcome]int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	counts := make(map[Outcome]int)
	for _, info := range t.files {
		counts[info.Outcome]++
	}
	return counts
}

// Progress returns the processed and total counters
func (t *Tracker) Progress() (processed, total int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.processed, t.total
}

func (t *Tracker) StartOperation(ctx context.Context, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total = total
	t.processed = 0
	t.logger.Info().Int("total", total).Msg(t.formatter.FormatProgress(0, total))
}

func (t *Tracker) UpdateProgress(ctx context.Context, processed int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.processed = processed
	t.logger.Info().
		Int("processed", processed).
		Int("total", t.total).
		Msg(t.formatter.FormatProgress(processed, t.total))
}

func (t *Tracker) FinishOperation(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.processed = t.total
	t.logger.Info().
		Int("processed", t.total).
		Int("total", t.total).
		Msg(t.formatter.FormatProgress(t.total, t.total))
}
