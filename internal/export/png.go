/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"csvedit/internal/grid"
)

const (
	pngPad             = 8
	pngDefaultRows     = 50
	pngDefaultFontSize = 13
)

var (
	pngBackground = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	pngHeaderBand = color.RGBA{R: 221, G: 221, B: 221, A: 255}
	pngInk        = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

// pngFace is a face plus the cell metrics used to lay out the text view.
type pngFace struct {
	font.Face
	advance, height, ascent int
}

// loadPNGFace returns the fixed 7x13 face, or a TrueType/OpenType face
// loaded from file. Columns only line up with monospaced fonts.
func loadPNGFace(file string, size float64) (pngFace, error) {
	if strings.TrimSpace(file) == "" {
		b := basicfont.Face7x13
		return pngFace{Face: b, advance: b.Advance, height: b.Height, ascent: b.Ascent}, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return pngFace{}, err
	}
	ot, err := opentype.Parse(data)
	if err != nil {
		return pngFace{}, fmt.Errorf("parse font %s: %w", file, err)
	}
	if size <= 0 {
		size = pngDefaultFontSize
	}
	face, err := opentype.NewFace(ot, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return pngFace{}, err
	}
	adv, ok := face.GlyphAdvance('0')
	if !ok {
		adv = font.MeasureString(face, "M")
	}
	m := face.Metrics()
	return pngFace{Face: face, advance: adv.Ceil(), height: m.Height.Ceil(), ascent: m.Ascent.Ceil()}, nil
}

// writePNG rasterizes the text view of the table. Glyphs outside the
// face's range render as its replacement box.
func writePNG(path string, t table, opt Options) (err error) {
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = pngDefaultRows
	}
	face, err := loadPNGFace(opt.FontFile, opt.FontSize)
	if err != nil {
		return err
	}
	defer face.Close()

	view := grid.New(t.headers, t.rows).Render(grid.ViewOptions{MaxRows: maxRows, MaxWidth: grid.DefaultViewWidth})
	lines := strings.Split(view, "\n")

	cols := 0
	for _, ln := range lines {
		cols = max(cols, runewidth.StringWidth(ln))
	}
	w := cols*face.advance + 2*pngPad
	h := len(lines)*face.height + 2*pngPad

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(pngBackground), image.Point{}, draw.Src)
	if len(t.headers) > 0 {
		band := image.Rect(0, pngPad, w, pngPad+face.height)
		draw.Draw(img, band, image.NewUniform(pngHeaderBand), image.Point{}, draw.Src)
	}

	d := &font.Drawer{Dst: img, Src: image.NewUniform(pngInk), Face: face}
	for i, ln := range lines {
		d.Dot = fixed.P(pngPad, pngPad+i*face.height+face.ascent)
		d.DrawString(ln)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return png.Encode(f, img)
}
