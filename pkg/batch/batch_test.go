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
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/endecode/pkg/files"
	"github.com/walteh/endecode/pkg/log"
	"github.com/walteh/endecode/pkg/marker"
	"github.com/walteh/endecode/pkg/overlay"
	"github.com/walteh/endecode/pkg/status"
	"github.com/walteh/endecode/pkg/watermark"
	"gitlab.com/tozd/go/errors"
)

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

// newSource creates <tmp>/album with the given files and returns its path
func newSource(t *testing.T, content map[string][]byte) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "album")
	require.NoError(t, os.MkdirAll(src, 0755))
	for name, data := range content {
		p := filepath.Join(src, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, data, 0644))
	}
	return src
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.Black)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// 🔧 mockReporter is a mock implementation of status.Reporter
type mockReporter struct {
	mock.Mock
}

func (m *mockReporter) TrackFile(ctx context.Context, info status.FileInfo) {
	m.Called(ctx, info)
}

func (m *mockReporter) StartOperation(ctx context.Context, total int) {
	m.Called(ctx, total)
}

func (m *mockReporter) UpdateProgress(ctx context.Context, processed int) {
	m.Called(ctx, processed)
}

func (m *mockReporter) FinishOperation(ctx context.Context) {
	m.Called(ctx)
}

func TestSplitBaseText(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantBase  string
		wantStart int
	}{
		{name: "glued_number", text: "Order5", wantBase: "Order", wantStart: 5},
		{name: "spaced_number", text: "Order 12", wantBase: "Order", wantStart: 12},
		{name: "padded_number", text: "Batch 007", wantBase: "Batch", wantStart: 7},
		{name: "no_number", text: "Order", wantBase: "Order", wantStart: 1},
		{name: "only_number", text: "42", wantBase: "", wantStart: 42},
		{name: "inner_digits_kept", text: "R2D2 x", wantBase: "R2D2 x", wantStart: 1},
		{name: "overflow", text: "Big 99999999999999999999999", wantBase: "Big", wantStart: 1},
		{name: "empty", text: "", wantBase: "", wantStart: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, start := SplitBaseText(tt.text)
			assert.Equal(t, tt.wantBase, base)
			assert.Equal(t, tt.wantStart, start)
		})
	}
}

func TestOrder(t *testing.T) {
	assert.Equal(t, "005", Order(5))
	assert.Equal(t, "010", Order(10))
	assert.Equal(t, "1234", Order(1234))
	assert.Equal(t, "000", Order(0))
}

func TestCopiesRoot(t *testing.T) {
	assert.Equal(t, filepath.Join("photos", "album-Copies"), CopiesRoot(filepath.Join("photos", "album")))
}

func TestRunMakesNumberedCopies(t *testing.T) {
	ctx := testContext(t)
	src := newSource(t, map[string][]byte{
		"notes.txt":     []byte("hello"),
		"clip.mp4":      []byte("\x00\x00\x00\x18ftypmp42"),
		"sub/photo.jpg": []byte("\xff\xd8\xff\xe0"),
		"skip.exe":      []byte("MZ"),
	})

	res, err := Run(ctx, Options{Source: src, Copies: 3, BaseText: "Order5"})
	require.NoError(t, err)

	root := filepath.Join(filepath.Dir(src), "album-Copies")
	assert.Equal(t, root, res.CopiesRoot)
	require.Equal(t, []string{
		filepath.Join(root, "005", "album"),
		filepath.Join(root, "006", "album"),
		filepath.Join(root, "007", "album"),
	}, res.Folders)
	assert.Empty(t, res.Archives)

	for i, folder := range res.Folders {
		want := "Order " + Order(5+i)
		for _, name := range []string{"notes.txt", "clip.mp4", "sub/photo.jpg"} {
			payload, ok, err := watermark.Extract(ctx, filepath.Join(folder, filepath.FromSlash(name)))
			require.NoError(t, err)
			require.True(t, ok, "%s in %s should be marked", name, folder)
			assert.Equal(t, want, payload)
		}
		assert.Equal(t, "MZ", string(readFile(t, filepath.Join(folder, "skip.exe"))), "unsupported files are copied untouched")
	}

	assert.Equal(t, "hello", string(readFile(t, filepath.Join(src, "notes.txt"))), "source must not be modified")
}

func TestRunIsRepeatable(t *testing.T) {
	ctx := testContext(t)
	src := newSource(t, map[string][]byte{"a.txt": []byte("a")})

	opts := Options{Source: src, Copies: 1, BaseText: "Tag"}
	first, err := Run(ctx, opts)
	require.NoError(t, err)
	before := readFile(t, filepath.Join(first.Folders[0], "a.txt"))

	second, err := Run(ctx, opts)
	require.NoError(t, err)
	after := readFile(t, filepath.Join(second.Folders[0], "a.txt"))

	assert.Equal(t, before, after)
	assert.Equal(t, append([]byte("a"), marker.Build("Tag 001")...), after)
}

func TestRunSkipsAlreadyMarked(t *testing.T) {
	ctx := testContext(t)
	buf := &bytes.Buffer{}
	ctx = log.NewContext(ctx, log.New(buf, zerolog.Disabled))

	// the source already carries the exact frame copy 001 would add
	src := newSource(t, map[string][]byte{
		"a.txt":    append([]byte("a"), marker.Build("Tag 001")...),
		"clip.mov": append([]byte("v"), marker.Build("older")...),
	})

	res, err := Run(ctx, Options{Source: src, Copies: 1, BaseText: "Tag"})
	require.NoError(t, err)

	assert.Equal(t, readFile(t, filepath.Join(src, "a.txt")), readFile(t, filepath.Join(res.Folders[0], "a.txt")))
	assert.Equal(t, readFile(t, filepath.Join(src, "clip.mov")), readFile(t, filepath.Join(res.Folders[0], "clip.mov")))
	assert.Contains(t, buf.String(), "already marked")
}

func TestRunZeroCopies(t *testing.T) {
	for _, n := range []int{0, -3} {
		src := newSource(t, map[string][]byte{"a.txt": []byte("a")})

		res, err := Run(testContext(t), Options{Source: src, Copies: n, BaseText: "x"})
		require.NoError(t, err)
		assert.Empty(t, res.Folders)

		entries, err := os.ReadDir(res.CopiesRoot)
		require.NoError(t, err, "copies root is still created")
		assert.Empty(t, entries)
	}
}

func TestRunMissingSource(t *testing.T) {
	_, err := Run(testContext(t), Options{Source: filepath.Join(t.TempDir(), "nope"), Copies: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, files.ErrDirectoryNotFound))

	_, err = Run(testContext(t), Options{Copies: 1})
	require.Error(t, err)
}

func TestRunIgnore(t *testing.T) {
	ctx := testContext(t)
	src := newSource(t, map[string][]byte{
		"a.txt":          []byte("a"),
		"raw/clip.mp4":   []byte("v"),
		"raw/nested.txt": []byte("n"),
	})

	res, err := Run(ctx, Options{Source: src, Copies: 1, BaseText: "x", Ignore: []string{"raw/**"}})
	require.NoError(t, err)

	folder := res.Folders[0]
	assert.Equal(t, "v", string(readFile(t, filepath.Join(folder, "raw", "clip.mp4"))))
	assert.Equal(t, "n", string(readFile(t, filepath.Join(folder, "raw", "nested.txt"))))

	has, err := watermark.Has(ctx, filepath.Join(folder, "a.txt"))
	require.NoError(t, err)
	assert.True(t, has)
}

func TestRunSwap(t *testing.T) {
	tests := []struct {
		name    string
		content map[string][]byte
		want    map[string]string
	}{
		{
			name: "pair_present",
			content: map[string][]byte{
				"img05.png": []byte("five"),
				"img15.png": []byte("fifteen"),
			},
			want: map[string]string{
				"img05.png": "fifteen",
				"img15.png": "five",
			},
		},
		{
			name: "partner_missing",
			content: map[string][]byte{
				"img05.png": []byte("five"),
				"img25.png": []byte("twenty five"),
			},
			want: map[string]string{
				"img05.png": "five",
				"img25.png": "twenty five",
			},
		},
		{
			name: "videos_are_not_swapped",
			content: map[string][]byte{
				"05.mp4": []byte("five"),
				"15.mp4": []byte("fifteen"),
			},
			want: map[string]string{
				"05.mp4": "five",
				"15.mp4": "fifteen",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			src := newSource(t, tt.content)

			res, err := Run(ctx, Options{Source: src, Copies: 1, BaseText: "Set 5", Swap: true})
			require.NoError(t, err)

			frame := string(marker.Build("Set 005"))
			for name, want := range tt.want {
				got := readFile(t, filepath.Join(res.Folders[0], name))
				assert.Equal(t, want+frame, string(got), "content of %s", name)
			}

			entries, err := os.ReadDir(res.Folders[0])
			require.NoError(t, err)
			assert.Len(t, entries, len(tt.want), "no swap temp files should remain")
		})
	}
}

func TestRunZip(t *testing.T) {
	ctx := testContext(t)
	src := newSource(t, map[string][]byte{
		"a.txt":     []byte("a"),
		"sub/b.png": []byte("b"),
	})

	res, err := Run(ctx, Options{Source: src, Copies: 2, BaseText: "Z", Zip: true})
	require.NoError(t, err)
	require.Len(t, res.Archives, 2)

	for i, folder := range res.Folders {
		_, statErr := os.Stat(folder)
		assert.True(t, os.IsNotExist(statErr), "folder should be removed after archiving")
		assert.Equal(t, folder+".zip", res.Archives[i])

		r, err := zip.OpenReader(res.Archives[i])
		require.NoError(t, err)

		names := map[string]string{}
		for _, f := range r.File {
			if f.FileInfo().IsDir() {
				names[f.Name] = ""
				continue
			}
			rc, err := f.Open()
			require.NoError(t, err)
			b, err := io.ReadAll(rc)
			require.NoError(t, err)
			rc.Close()
			names[f.Name] = string(b)
		}
		r.Close()

		want := string(marker.Build("Z " + Order(1+i)))
		assert.Equal(t, map[string]string{
			"a.txt":     "a" + want,
			"sub/":      "",
			"sub/b.png": "b" + want,
		}, names)
	}
}

func TestRunOverlay(t *testing.T) {
	ctx := testContext(t)
	src := newSource(t, map[string][]byte{
		"photo1.png": pngBytes(t, 120, 80),
		"photo2.png": pngBytes(t, 120, 80),
	})

	text := "PROOF"
	res, err := Run(ctx, Options{
		Source:      src,
		Copies:      2,
		BaseText:    "Ov",
		Overlay:     true,
		OverlayText: &text,
		Font:        overlay.BuiltinFont(),
		Position:    overlay.TopLeft,
	})
	require.NoError(t, err)

	// copy 001 draws on photo1, copy 002 on photo2
	for i, folder := range res.Folders {
		drawn := filepath.Join(folder, "photo"+string(rune('1'+i))+".png")
		other := filepath.Join(folder, "photo"+string(rune('2'-i))+".png")

		assert.NotEqual(t, pngBytes(t, 120, 80), bytes.TrimSuffix(readFile(t, drawn), marker.Build("Ov "+Order(1+i))),
			"overlaid image should change")
		assert.Equal(t, append(pngBytes(t, 120, 80), marker.Build("Ov "+Order(1+i))...), readFile(t, other),
			"other image only gets the marker")

		payload, ok, err := watermark.Extract(ctx, drawn)
		require.NoError(t, err)
		require.True(t, ok, "marker should survive the overlay")
		assert.Equal(t, "Ov "+Order(1+i), payload)

		_, format, err := image.DecodeConfig(bytes.NewReader(readFile(t, drawn)))
		require.NoError(t, err)
		assert.Equal(t, "png", format)
	}
}

func TestRunOverlayWithoutFont(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := log.NewContext(testContext(t), log.New(buf, zerolog.Disabled))
	original := pngBytes(t, 40, 40)
	src := newSource(t, map[string][]byte{"07.png": original})

	photo := 7
	res, err := Run(ctx, Options{Source: src, Copies: 1, BaseText: "x", Overlay: true, PhotoNumber: &photo})
	require.NoError(t, err)

	got := readFile(t, filepath.Join(res.Folders[0], "07.png"))
	assert.Equal(t, append(original, marker.Build("x 001")...), got)
	assert.Contains(t, buf.String(), "overlay skipped for 07.png")
}

func TestRunReportsProgress(t *testing.T) {
	ctx := testContext(t)
	src := newSource(t, map[string][]byte{"a.txt": []byte("a")})

	rep := &mockReporter{}
	rep.On("StartOperation", mock.Anything, 2).Once()
	rep.On("UpdateProgress", mock.Anything, 1).Once()
	rep.On("UpdateProgress", mock.Anything, 2).Once()
	rep.On("FinishOperation", mock.Anything).Once()
	rep.On("TrackFile", mock.Anything, mock.MatchedBy(func(info status.FileInfo) bool {
		return info.Outcome == status.OutcomeMarked && filepath.Base(info.Path) == "a.txt"
	})).Twice()

	_, err := Run(ctx, Options{Source: src, Copies: 2, BaseText: "p", Reporter: rep})
	require.NoError(t, err)
	rep.AssertExpectations(t)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext(t))
	cancel()
	src := newSource(t, map[string][]byte{"a.txt": []byte("a")})

	res, err := Run(ctx, Options{Source: src, Copies: 2, BaseText: "x"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Folders)
}
