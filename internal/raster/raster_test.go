package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

func options(fontSize float64) model.DisplayOptions {
	o := model.DefaultDisplayOptions()
	o.FontSize = fontSize
	return o
}

func newRasterizer(t *testing.T) *Rasterizer {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	return r
}

// inkBounds returns the bounding box of pixels that differ from the background.
func inkBounds(img *image.RGBA, bg color.RGBA) image.Rectangle {
	var box image.Rectangle
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y) != bg {
				box = box.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return box
}

func TestReferenceFrameBreakpoints(t *testing.T) {
	cases := []struct {
		res  model.Resolution
		want Frame
	}{
		{model.Resolution{Width: 1920, Height: 1080}, Frame{560, 315}},
		{model.Resolution{Width: 960, Height: 240}, Frame{720, 240}},
		{model.Resolution{Width: 750, Height: 300}, Frame{600, 300}},
		{model.Resolution{Width: 640, Height: 320}, Frame{560, 315}},
		{model.Resolution{Width: 300, Height: 200}, Frame{400, 400}},
		{model.Resolution{Width: 128, Height: 128}, Frame{400, 400}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ReferenceFrame(tc.res), "%dx%d", tc.res.Width, tc.res.Height)
	}
}

func TestComputeLayoutThreeLinesOnFullHD(t *testing.T) {
	res := model.Resolution{Width: 1920, Height: 1080}
	l := ComputeLayout("Gate 4\nBoarding now\nFlight 118", options(16), res)

	assert.Equal(t, 3, l.LineCount())
	assert.Equal(t, Frame{560, 315}, l.Reference)
	assert.InDelta(t, 560.0/1920.0, l.BaseScale, 1e-9)

	limit := maxOf(315.0/3*0.8, 560.0/12*1.2, 16*l.BaseScale*0.3)
	assert.GreaterOrEqual(t, l.RefFontSize, MinReferenceFontSize)
	assert.LessOrEqual(t, l.RefFontSize, maxOf(limit, MinReferenceFontSize))
	assert.InDelta(t, 12.0, l.RefFontSize, 1e-9, "16px on a 1080p panel falls to the 12 unit floor")

	assert.InDelta(t, 1920.0/560.0, l.FinalScale, 1e-9)
	assert.InDelta(t, l.RefFontSize*1920.0/560.0, l.FinalFontSize, 1e-9)
}

func maxOf(vals ...float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func TestComputeLayoutKeepsRequestedSizeWhenItFits(t *testing.T) {
	res := model.Resolution{Width: 1920, Height: 1080}
	l := ComputeLayout("OPEN", options(120), res)

	assert.InDelta(t, 120*560.0/1920.0, l.RefFontSize, 1e-9)
	assert.InDelta(t, 120.0, l.FinalFontSize, 1e-9, "device size equals the requested size")
}

func TestComputeLayoutCapIsLargestLimit(t *testing.T) {
	res := model.Resolution{Width: 400, Height: 400}
	content := "a\nb\nc\nd\ne\nf\ng\nh\ni\nj\nk\nl\nm\nn\no\np\nq\nr\ns\nt"
	l := ComputeLayout(content, options(120), res)

	// byHeight 16, byWidth 480, floor 36: the cap is 480 so 120 stands.
	assert.InDelta(t, 120.0, l.RefFontSize, 1e-9)

	l = ComputeLayout("x", options(120), model.Resolution{Width: 1600, Height: 1600})
	assert.InDelta(t, 30.0, l.RefFontSize, 1e-9)
	assert.InDelta(t, 120.0, l.FinalFontSize, 1e-9)
}

func TestComputeLayoutNeverBelowFloor(t *testing.T) {
	for _, res := range []model.Resolution{
		{Width: 64, Height: 32},
		{Width: 4096, Height: 256},
		{Width: 7680, Height: 4320},
		{Width: 96, Height: 96},
	} {
		for _, size := range []float64{8, 16, 60, 120} {
			l := ComputeLayout("a rather long single line of text for a tiny sign", options(size), res)
			assert.GreaterOrEqual(t, l.RefFontSize, MinReferenceFontSize)
			assert.GreaterOrEqual(t, l.FinalFontSize, MinReferenceFontSize*l.FinalScale-1e-9)
		}
	}
}

func TestComputeLayoutInvalidResolutionFallsBack(t *testing.T) {
	l := ComputeLayout("hi", options(24), model.Resolution{})
	assert.Equal(t, model.DefaultResolution(), l.Resolution)
}

func TestSplitLinesDropsBlankLines(t *testing.T) {
	assert.Equal(t, []string{"one", "  two", "three"}, SplitLines("one\r\n\n  two  \n   \nthree\n"))
	assert.Empty(t, SplitLines("  \n\t\n"))
}

func TestRenderMatchesResolution(t *testing.T) {
	r := newRasterizer(t)
	res := model.Resolution{Width: 320, Height: 96}

	bmp, layout, err := r.Render("Hello\nWorld", options(24), res)
	require.NoError(t, err)
	assert.Equal(t, 320, bmp.Width)
	assert.Equal(t, 96, bmp.Height)
	assert.Equal(t, image.Rect(0, 0, 320, 96), bmp.Pixels.Bounds())
	assert.Equal(t, 2, layout.LineCount())

	preview, _, err := r.RenderPreview("Hello\nWorld", options(24), res)
	require.NoError(t, err)
	assert.Equal(t, layout.Reference.Width, preview.Width)
	assert.Equal(t, layout.Reference.Height, preview.Height)
}

func TestRenderIsDeterministic(t *testing.T) {
	r := newRasterizer(t)
	res := model.Resolution{Width: 256, Height: 128}
	opts := options(40)
	opts.Color = "#ffcc00"

	a, _, err := r.Render("Platform 2\nDelayed", opts, res)
	require.NoError(t, err)
	b, _, err := r.Render("Platform 2\nDelayed", opts, res)
	require.NoError(t, err)

	assert.Equal(t, a.Width, b.Width)
	assert.Equal(t, a.Height, b.Height)
	assert.Equal(t, a.Pixels.Pix, b.Pixels.Pix)
}

func TestRenderFillsBackgroundAndDrawsText(t *testing.T) {
	r := newRasterizer(t)
	opts := options(60)
	opts.BackgroundColor = "#102030"
	opts.Color = "#ffffff"

	bmp, _, err := r.Render("HELLO", opts, model.Resolution{Width: 400, Height: 400})
	require.NoError(t, err)

	bg := color.RGBA{0x10, 0x20, 0x30, 0xff}
	assert.Equal(t, bg, bmp.Pixels.RGBAAt(0, 0))
	assert.Equal(t, bg, bmp.Pixels.RGBAAt(399, 399))

	ink := inkBounds(bmp.Pixels, bg)
	require.False(t, ink.Empty())
	center := (ink.Min.X + ink.Max.X) / 2
	assert.InDelta(t, 200, center, 12, "centered text")
	middle := (ink.Min.Y + ink.Max.Y) / 2
	assert.InDelta(t, 200, middle, 20, "vertically centered block")
}

func TestRenderHonoursPosition(t *testing.T) {
	r := newRasterizer(t)
	res := model.Resolution{Width: 400, Height: 400}
	bg := color.RGBA{0, 0, 0, 0xff}

	left := options(40)
	left.Position = model.PositionLeft
	bmp, _, err := r.Render("Hi", left, res)
	require.NoError(t, err)
	ink := inkBounds(bmp.Pixels, bg)
	assert.InDelta(t, 20, ink.Min.X, 6, "left margin is max(5 percent of 400, 20px)")

	right := options(40)
	right.Position = model.PositionRight
	bmp, _, err = r.Render("Hi", right, res)
	require.NoError(t, err)
	ink = inkBounds(bmp.Pixels, bg)
	assert.InDelta(t, 380, ink.Max.X, 6)
}

func TestRenderRejectsBadColor(t *testing.T) {
	r := newRasterizer(t)
	opts := options(24)
	opts.Color = "not-a-color"
	_, _, err := r.Render("x", opts, model.Resolution{Width: 10, Height: 10})
	assert.Error(t, err)
}

func TestEncodePNG(t *testing.T) {
	r := newRasterizer(t)
	bmp, _, err := r.Render("x", options(24), model.Resolution{Width: 32, Height: 16})
	require.NoError(t, err)

	data, err := bmp.EncodePNG()
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), data[:4])
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#F00")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, c)

	c, err = ParseColor("00ff0080")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0, 255, 0, 128}, c)

	c, err = ParseColor("Yellow")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{255, 255, 0, 255}, c)

	_, err = ParseColor("#12")
	assert.Error(t, err)
	_, err = ParseColor("#gggggg")
	assert.Error(t, err)
}
