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

// Package cipher implements the reversible glyph substitution used to obscure
// watermark payloads. It is an obfuscation, not encryption.
package cipher

// 🔑 Key is the fixed shift applied by Encode and undone by Decode
const Key = 7

// 🔄 Shift rotates ASCII letters within their case and digits within 0-9.
// Every other rune is returned unchanged.
func Shift(r rune, amount int) rune {
	if r > 0x7f {
		return r
	}
	return rune(shiftByte(byte(r), amount))
}

func shiftByte(b byte, amount int) byte {
	switch {
	case b >= 'A' && b <= 'Z':
		return 'A' + byte(mod(int(b-'A')+amount, 26))
	case b >= 'a' && b <= 'z':
		return 'a' + byte(mod(int(b-'a')+amount, 26))
	case b >= '0' && b <= '9':
		return '0' + byte(mod(int(b-'0')+amount, 10))
	default:
		return b
	}
}

// euclidean modulo, always in [0, n)
func mod(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// 🔒 Encode shifts every letter and digit of text forward by Key
func Encode(text string) string {
	return string(EncodeBytes([]byte(text)))
}

// 🔓 Decode reverses Encode
func Decode(text string) string {
	return string(DecodeBytes([]byte(text)))
}

// EncodeBytes is Encode over a raw buffer. Bytes outside the ASCII alphabet,
// including every byte of a multi-byte sequence, are copied through untouched.
func EncodeBytes(data []byte) []byte {
	return shiftAll(data, Key)
}

// DecodeBytes reverses EncodeBytes
func DecodeBytes(data []byte) []byte {
	return shiftAll(data, -Key)
}

func shiftAll(data []byte, amount int) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = shiftByte(b, amount)
	}
	return out
}
