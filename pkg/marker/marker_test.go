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

package marker

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/endecode/pkg/cipher"
)

func TestBuild(t *testing.T) {
	assert.Equal(t, "<<==op==>>", BuildString("hi"))
	assert.Equal(t, "<<====>>", BuildString(""))
	assert.Equal(t, []byte("<<==Vykly 772==>>"), Build("Order 005"))
}

func TestFind(t *testing.T) {
	tests := []struct {
		name    string
		window  string
		found   bool
		start   int
		end     int
		payload string
	}{
		{name: "no_prefix", window: "plain data", found: false},
		{name: "simple", window: "abc<<==op==>>", found: true, start: 3, end: 9, payload: "hi"},
		{name: "empty_payload", window: "<<====>>", found: true, start: 0, end: 4, payload: ""},
		{name: "prefix_without_suffix", window: "abc<<==op", found: false},
		{name: "suffix_before_prefix", window: "==>>abc<<==op", found: false},
		{name: "overlapping_sentinels", window: "<<==>>", found: false},
		{name: "rightmost_prefix_wins", window: "<<==vsk==>>xx<<==uld==>>", found: true, start: 13, end: 20, payload: "new"},
		{name: "earlier_prefix_like_bytes", window: "<<==junk <<==op==>>", found: true, start: 9, end: 15, payload: "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := Find([]byte(tt.window), true)
			require.Equal(t, tt.found, ok, "found should match")
			if !ok {
				return
			}
			assert.Equal(t, tt.start, f.Start, "start should match")
			assert.Equal(t, tt.end, f.End, "end should match")
			assert.Equal(t, tt.payload, f.Payload, "payload should match")
		})
	}
}

func TestFindWithoutPayload(t *testing.T) {
	f, ok := Find([]byte("<<==op==>>"), false)
	require.True(t, ok)
	assert.Empty(t, f.Payload)
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		window []byte
		want   string
		found  bool
	}{
		{name: "roundtrip", window: Build("Order 005"), want: "Order 005", found: true},
		{name: "roundtrip_multibyte", window: Build("Größe 42 ✓"), want: "Größe 42 ✓", found: true},
		{name: "legacy", window: []byte("data*/" + cipher.Encode("old")), want: "old", found: true},
		{name: "legacy_trimmed", window: []byte("data*/ " + cipher.Encode("old") + "\n"), want: "old", found: true},
		{name: "new_format_preferred", window: []byte("*/" + cipher.Encode("old") + BuildString("new")), want: "new", found: true},
		{name: "nothing", window: []byte("nothing here"), found: false},
		{name: "malformed_falls_back_to_none", window: []byte("<<==abc"), found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.window)
			require.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]byte("xx<<==")), "dangling prefix counts")
	assert.True(t, Contains([]byte("xx*/yy")), "legacy prefix counts")
	assert.False(t, Contains([]byte("==>> only suffix")))
}

func TestTail(t *testing.T) {
	short := []byte("short")
	assert.Equal(t, short, Tail(short))

	long := bytes.Repeat([]byte("a"), 250)
	long = append(long, 'z')
	tail := Tail(long)
	assert.Len(t, tail, TailWindow)
	assert.Equal(t, byte('z'), tail[len(tail)-1])
}

func TestStrip(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		want     []byte
		modified bool
	}{
		{
			name:     "single_frame",
			content:  append([]byte("hello"), Build("tag")...),
			want:     []byte("hello"),
			modified: true,
		},
		{
			name:     "stacked_frames",
			content:  append(append([]byte("hello"), Build("a")...), Build("b")...),
			want:     []byte("hello"),
			modified: true,
		},
		{
			name:     "frame_in_middle",
			content:  append(append([]byte("head"), Build("x")...), []byte("tail")...),
			want:     []byte("headtail"),
			modified: true,
		},
		{
			name:     "malformed_tail_left_alone",
			content:  append(append([]byte("hello"), Build("a")...), []byte("<<==broken")...),
			want:     append(append([]byte("hello"), Build("a")...), []byte("<<==broken")...),
			modified: false,
		},
		{
			name:     "legacy_truncated",
			content:  []byte("hello*/" + cipher.Encode("old")),
			want:     []byte("hello"),
			modified: true,
		},
		{
			name:     "no_markers",
			content:  []byte("clean file"),
			want:     []byte("clean file"),
			modified: false,
		},
		{
			name:     "binary_content_preserved",
			content:  append([]byte{0x00, 0xff, 0xd8, 0xfe}, Build("bin")...),
			want:     []byte{0x00, 0xff, 0xd8, 0xfe},
			modified: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, modified := Strip(tt.content)
			assert.Equal(t, tt.modified, modified, "modified should match")
			assert.Equal(t, tt.want, got, "content should match")

			again, modifiedAgain := Strip(got)
			assert.False(t, modifiedAgain, "second strip should be a no-op")
			assert.Equal(t, got, again, "strip should be idempotent")
		})
	}
}

func TestStripLegacyOutsideTailIgnored(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{
			name:    "short_legacy",
			content: append([]byte("a*/b"), bytes.Repeat([]byte("x"), TailWindow+10)...),
		},
		{
			name:    "encoded_legacy_payload",
			content: append([]byte("head*/"+cipher.Encode("old")), bytes.Repeat([]byte("x"), 150)...),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, modified := Strip(tt.content)
			assert.False(t, modified, "a legacy prefix before the tail window is content")
			assert.Equal(t, tt.content, got)
		})
	}
}

func TestStripDoesNotMutateInput(t *testing.T) {
	content := append([]byte("keep"), Build("gone")...)
	orig := append([]byte(nil), content...)
	_, _ = Strip(content)
	assert.Equal(t, orig, content)
}
