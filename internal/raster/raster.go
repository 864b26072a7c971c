// Package raster renders message text into bitmaps sized to a panel's resolution.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// Bitmap is a rendered frame. Pixels is exactly Width x Height.
type Bitmap struct {
	Width  int
	Height int
	Pixels *image.RGBA
}

// EncodePNG returns the bitmap as PNG bytes.
func (b Bitmap) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, b.Pixels); err != nil {
		return nil, fmt.Errorf("raster: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Rasterizer draws text with a single parsed font. It is safe for concurrent use.
type Rasterizer struct {
	font *opentype.Font
}

// New returns a Rasterizer using the Go Regular font.
func New() (*Rasterizer, error) {
	return NewWithFont(goregular.TTF)
}

// NewWithFont returns a Rasterizer for the given TrueType/OpenType data.
func NewWithFont(ttf []byte) (*Rasterizer, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("raster: failed to parse font: %w", err)
	}
	return &Rasterizer{font: f}, nil
}

// Render draws content at the full device resolution.
func (r *Rasterizer) Render(content string, opts model.DisplayOptions, res model.Resolution) (Bitmap, Layout, error) {
	layout := ComputeLayout(content, opts, res)
	bmp, err := r.draw(layout, opts, layout.Resolution.Width, layout.Resolution.Height, layout.FinalFontSize)
	return bmp, layout, err
}

// RenderPreview draws the same layout at the reference frame size.
func (r *Rasterizer) RenderPreview(content string, opts model.DisplayOptions, res model.Resolution) (Bitmap, Layout, error) {
	layout := ComputeLayout(content, opts, res)
	bmp, err := r.draw(layout, opts, layout.Reference.Width, layout.Reference.Height, layout.RefFontSize)
	return bmp, layout, err
}

func (r *Rasterizer) draw(layout Layout, opts model.DisplayOptions, width, height int, size float64) (Bitmap, error) {
	fg, err := ParseColor(opts.Color)
	if err != nil {
		return Bitmap{}, fmt.Errorf("raster: text color: %w", err)
	}
	bg, err := ParseColor(opts.BackgroundColor)
	if err != nil {
		return Bitmap{}, fmt.Errorf("raster: background color: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	bmp := Bitmap{Width: width, Height: height, Pixels: img}
	if len(layout.Lines) == 0 {
		return bmp, nil
	}

	face, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return Bitmap{}, fmt.Errorf("raster: failed to create face: %w", err)
	}
	defer func() {
		_ = face.Close()
	}()

	metrics := face.Metrics()
	ascent := fixedToFloat64(metrics.Ascent)
	descent := fixedToFloat64(metrics.Descent)

	lineHeight := size
	top := (float64(height) - float64(layout.LineCount())*lineHeight) / 2
	inset := margin(float64(width))

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Color(fg)),
		Face: face,
	}
	for i, line := range layout.Lines {
		advance := fixedToFloat64(d.MeasureString(line))

		var x float64
		switch opts.Position {
		case model.PositionLeft:
			x = inset
		case model.PositionRight:
			x = float64(width) - inset - advance
		default:
			x = (float64(width) - advance) / 2
		}
		// Center the glyph box inside its line box.
		baseline := top + float64(i)*lineHeight + (lineHeight+ascent-descent)/2

		d.Dot = fixed.Point26_6{X: floatToFixed(x), Y: floatToFixed(baseline)}
		d.DrawString(line)
	}
	return bmp, nil
}

func fixedToFloat64(x fixed.Int26_6) float64 {
	return float64(x) / 64.0
}

func floatToFixed(x float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(x * 64))
}
