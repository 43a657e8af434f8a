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

	"github.com/walteh/endecode/pkg/cipher"
)

// 🏷️ Frame sentinels. These bytes are part of the on-disk format.
const (
	Prefix       = "<<=="
	Suffix       = "==>>"
	LegacyPrefix = "*/"

	// TailWindow is how many trailing bytes of a file are inspected
	TailWindow = 100
)

var (
	prefixBytes = []byte(Prefix)
	suffixBytes = []byte(Suffix)
	legacyBytes = []byte(LegacyPrefix)
)

// 📦 Frame locates one marker inside a buffer.
// Start is the offset of the prefix, End the offset of the suffix (or of the
// end of the buffer for legacy frames).
type Frame struct {
	Start   int
	End     int
	Payload string
	Legacy  bool
}

// 🏗️ Build returns PREFIX || encode(payload) || SUFFIX
func Build(payload string) []byte {
	enc := cipher.EncodeBytes([]byte(payload))
	out := make([]byte, 0, len(prefixBytes)+len(enc)+len(suffixBytes))
	out = append(out, prefixBytes...)
	out = append(out, enc...)
	return append(out, suffixBytes...)
}

// BuildString is Build for callers that want the frame as text
func BuildString(payload string) string {
	return string(Build(payload))
}

// 🔍 Find locates the most recently appended frame: the rightmost prefix and
// the first suffix after it. A prefix with no suffix behind it is not a frame.
func Find(window []byte, wantPayload bool) (Frame, bool) {
	start := bytes.LastIndex(window, prefixBytes)
	if start < 0 {
		return Frame{}, false
	}
	body := start + len(prefixBytes)
	rel := bytes.Index(window[body:], suffixBytes)
	if rel < 0 {
		return Frame{}, false
	}
	f := Frame{Start: start, End: body + rel}
	if wantPayload {
		f.Payload = string(cipher.DecodeBytes(window[body:f.End]))
	}
	return f, true
}

// FindLegacy locates a suffix-less legacy frame. Its payload runs to the end of
// the window and is trimmed of surrounding whitespace before decoding.
func FindLegacy(window []byte) (Frame, bool) {
	start := bytes.LastIndex(window, legacyBytes)
	if start < 0 {
		return Frame{}, false
	}
	raw := bytes.TrimSpace(window[start+len(legacyBytes):])
	return Frame{
		Start:   start,
		End:     len(window),
		Payload: string(cipher.DecodeBytes(raw)),
		Legacy:  true,
	}, true
}

// 📤 Extract returns the payload of the tail marker, preferring the current
// format over the legacy one.
func Extract(window []byte) (string, bool) {
	if f, ok := Find(window, true); ok {
		return f.Payload, true
	}
	if f, ok := FindLegacy(window); ok {
		return f.Payload, true
	}
	return "", false
}

// Contains reports whether window holds either prefix. A dangling prefix
// counts, so callers never write a second marker over a damaged one.
func Contains(window []byte) bool {
	return bytes.Contains(window, prefixBytes) || bytes.Contains(window, legacyBytes)
}

// Tail returns the last TailWindow bytes of content
func Tail(content []byte) []byte {
	if len(content) <= TailWindow {
		return content
	}
	return content[len(content)-TailWindow:]
}

// ✂️ Strip removes every complete frame, rightmost first, and then cuts a
// legacy frame from the tail window. Scanning stops at the first rightmost
// prefix that has no suffix so earlier data is never touched. The input slice
// is not modified.
func Strip(content []byte) ([]byte, bool) {
	out := content
	modified := false

	for {
		f, ok := Find(out, false)
		if !ok {
			break
		}
		end := f.End + len(suffixBytes)
		next := make([]byte, 0, len(out)-(end-f.Start))
		next = append(next, out[:f.Start]...)
		next = append(next, out[end:]...)
		out = next
		modified = true
	}

	offset := len(out) - len(Tail(out))
	if f, ok := FindLegacy(Tail(out)); ok {
		out = out[:offset+f.Start]
		modified = true
	}

	return out, modified
}
