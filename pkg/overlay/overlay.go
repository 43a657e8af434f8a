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

// Package overlay draws a short visible label onto png and jpeg images.
package overlay

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/endecode/pkg/fsutil"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	// Padding is the gap in pixels between the label and the image edge
	Padding = 5
	// MinSize is the smallest label size in pixels
	MinSize = 10.0
	// SizeRatio is the label size relative to the image width
	SizeRatio = 0.02
	// JPEGQuality is used when re-encoding anything that is not a png
	JPEGQuality = 80
)

// ErrUnknownPosition is returned by ParsePosition for unrecognised names
var ErrUnknownPosition = errors.Base("unknown position")

// Position is where the label is anchored
type Position string

const (
	TopLeft     Position = "top_left"
	TopRight    Position = "top_right"
	Center      Position = "center"
	BottomLeft  Position = "bottom_left"
	BottomRight Position = "bottom_right"
)

// Positions lists every anchor in display order
func Positions() []Position {
	return []Position{TopLeft, TopRight, Center, BottomLeft, BottomRight}
}

// ParsePosition accepts snake, kebab or camel case names. Empty means BottomRight.
func ParsePosition(s string) (Position, error) {
	norm := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s))
	if norm == "" {
		return BottomRight, nil
	}
	for _, p := range Positions() {
		if strings.ReplaceAll(string(p), "_", "") == norm {
			return p, nil
		}
	}
	return "", errors.Errorf("%w: %q", ErrUnknownPosition, s)
}

// BuiltinFont is the Go Regular face shipped with golang.org/x/image
func BuiltinFont() []byte {
	return goregular.TTF
}

// BuiltinFontName selects BuiltinFont in LoadFont
const BuiltinFontName = "builtin"

// LoadFont reads a font file. An empty name yields no font and
// BuiltinFontName yields the Go Regular face.
func LoadFont(name string) ([]byte, error) {
	switch name {
	case "":
		return nil, nil
	case BuiltinFontName:
		return BuiltinFont(), nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Errorf("reading font %s: %w", name, err)
	}
	return data, nil
}

// 🖌️ Renderer draws labels with a single font
type Renderer struct {
	// Font is a TrueType or OpenType font. Without one Apply does nothing.
	Font     []byte
	Position Position
}

// Apply draws text onto the image at path and rewrites it in place. PNG stays
// PNG; every other extension is written as JPEG. It returns false without
// touching the file when the renderer has no font.
func (r Renderer) Apply(ctx context.Context, path, text string) (bool, error) {
	logger := zerolog.Ctx(ctx)
	if len(r.Font) == 0 {
		logger.Debug().Str("path", path).Msg("no font configured, skipping overlay")
		return false, nil
	}

	f, err := opentype.Parse(r.Font)
	if err != nil {
		return false, errors.Errorf("parsing font: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, errors.Errorf("stat %s: %w", path, err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return false, errors.Errorf("reading %s: %w", path, err)
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return false, errors.Errorf("decoding %s: %w", path, err)
	}

	bounds := src.Bounds()
	size := float64(bounds.Dx()) * SizeRatio
	if size < MinSize {
		size = MinSize
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return false, errors.Errorf("creating font face: %w", err)
	}
	defer face.Close()

	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: 127}),
		Face: face,
	}
	x, y := r.origin(bounds, d.MeasureString(text).Ceil(), face.Metrics())
	d.Dot = fixed.P(x, y)
	d.DrawString(text)

	var out bytes.Buffer
	if strings.EqualFold(filepath.Ext(path), ".png") {
		err = png.Encode(&out, dst)
	} else {
		err = jpeg.Encode(&out, dst, &jpeg.Options{Quality: JPEGQuality})
	}
	if err != nil {
		return false, errors.Errorf("encoding %s: %w", path, err)
	}

	if err := fsutil.WriteFileAtomic(path, out.Bytes(), info.Mode().Perm()); err != nil {
		return false, err
	}

	logger.Debug().Str("path", path).Str("text", text).Str("position", string(r.position())).Msg("overlay drawn")
	return true, nil
}

func (r Renderer) position() Position {
	if r.Position == "" {
		return BottomRight
	}
	return r.Position
}

// origin returns the baseline start of the label
func (r Renderer) origin(b image.Rectangle, width int, m font.Metrics) (int, int) {
	height := (m.Ascent + m.Descent).Ceil()
	w, h := b.Dx(), b.Dy()

	var x, y int
	switch r.position() {
	case TopLeft:
		x, y = Padding, height+Padding
	case TopRight:
		x, y = w-width-Padding, height+Padding
	case BottomLeft:
		x, y = Padding, h-Padding
	case Center:
		x, y = max((w-width)/2, 0), max((h+height)/2, 0)
	default:
		x, y = w-width-Padding, h-Padding
	}
	return b.Min.X + x, b.Min.Y + y
}
