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
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func newTestTracker(t *testing.T) (*Tracker, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf).Level(zerolog.DebugLevel)
	return New(&logger), buf
}

func TestTrackerTrackFile(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		infos    []FileInfo
		path     string
		want     Outcome
		wantLogs []string
	}{
		{
			name:     "single_marked",
			infos:    []FileInfo{{Path: "/tmp/a.txt", Outcome: OutcomeMarked}},
			path:     "/tmp/a.txt",
			want:     OutcomeMarked,
			wantLogs: []string{"Marked /tmp/a.txt", `"outcome":"marked"`},
		},
		{
			name: "later_outcome_wins",
			infos: []FileInfo{
				{Path: "/tmp/05.png", Outcome: OutcomeMarked},
				{Path: "/tmp/05.png", Outcome: OutcomeSwapped},
			},
			path:     "/tmp/05.png",
			want:     OutcomeSwapped,
			wantLogs: []string{"Swapped /tmp/05.png"},
		},
		{
			name:     "failure_logs_error",
			infos:    []FileInfo{{Path: "/tmp/bad.txt", Outcome: OutcomeFailed, Error: errors.New("disk on fire")}},
			path:     "/tmp/bad.txt",
			want:     OutcomeFailed,
			wantLogs: []string{"Error: disk on fire", `"level":"warn"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker, buf := newTestTracker(t)
			for _, info := range tt.infos {
				tracker.TrackFile(ctx, info)
			}

			got, err := tracker.GetFileInfo(ctx, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Outcome)

			for _, want := range tt.wantLogs {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestTrackerUntracked(t *testing.T) {
	tracker, _ := newTestTracker(t)
	_, err := tracker.GetFileInfo(context.Background(), "/nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not tracked")
}

func TestTrackerListAndCounts(t *testing.T) {
	ctx := context.Background()
	tracker, _ := newTestTracker(t)

	tracker.TrackFile(ctx, FileInfo{Path: "/c.txt", Outcome: OutcomeMarked})
	tracker.TrackFile(ctx, FileInfo{Path: "/a.txt", Outcome: OutcomeMarked})
	tracker.TrackFile(ctx, FileInfo{Path: "/b.mp4", Outcome: OutcomeSkipped})

	files := tracker.ListFiles(ctx)
	require.Len(t, files, 3)
	assert.Equal(t, "/a.txt", files[0].Path)
	assert.Equal(t, "/b.mp4", files[1].Path)
	assert.Equal(t, "/c.txt", files[2].Path)

	counts := tracker.Counts()
	assert.Equal(t, 2, counts[OutcomeMarked])
	assert.Equal(t, 1, counts[OutcomeSkipped])
	assert.Zero(t, counts[OutcomeFailed])
}

func TestTrackerProgress(t *testing.T) {
	ctx := context.Background()
	tracker, buf := newTestTracker(t)

	tracker.StartOperation(ctx, 4)
	processed, total := tracker.Progress()
	assert.Equal(t, 0, processed)
	assert.Equal(t, 4, total)

	tracker.UpdateProgress(ctx, 2)
	processed, _ = tracker.Progress()
	assert.Equal(t, 2, processed)

	tracker.FinishOperation(ctx)
	processed, total = tracker.Progress()
	assert.Equal(t, 4, processed)
	assert.Equal(t, 4, total)

	out := buf.String()
	assert.Contains(t, out, "Progress: 0/4 (0%)")
	assert.Contains(t, out, "Progress: 2/4 (50%)")
	assert.Contains(t, out, "Progress: 4/4 (100%)")
}

type upperFormatter struct{ *DefaultFileFormatter }

func (upperFormatter) FormatProgress(current, total int) string { return "PROGRESS" }

func TestTrackerWithFormatter(t *testing.T) {
	tracker, buf := newTestTracker(t)
	tracker.WithFormatter(upperFormatter{NewDefaultFileFormatter()})

	tracker.StartOperation(context.Background(), 1)
	assert.Contains(t, buf.String(), "PROGRESS")
}

func TestTrackerNilLogger(t *testing.T) {
	tracker := New(nil)
	assert.NotPanics(t, func() {
		tracker.StartOperation(context.Background(), 1)
		tracker.TrackFile(context.Background(), FileInfo{Path: "/x", Outcome: OutcomeMarked})
		tracker.FinishOperation(context.Background())
	})
}

func TestTrackerConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	tracker, _ := newTestTracker(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tracker.TrackFile(ctx, FileInfo{Path: string(rune('a' + i)), Outcome: OutcomeMarked})
			tracker.UpdateProgress(ctx, i)
		}(i)
	}
	wg.Wait()

	assert.Len(t, tracker.ListFiles(ctx), 20)
}
