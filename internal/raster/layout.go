package raster

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// MinReferenceFontSize is the absolute floor of the font size in reference-frame units.
const MinReferenceFontSize = 12.0

const (
	heightCapFactor = 0.8
	widthCapFactor  = 1.2
	floorFactor     = 0.3
	marginRatio     = 0.05
	minMarginPx     = 20.0
)

// Frame is the small coordinate space the font size is computed in. Previews are
// drawn at this size; final renders rescale from it.
type Frame struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ReferenceFrame picks the reference frame for a resolution by aspect ratio.
func ReferenceFrame(res model.Resolution) Frame {
	aspect := res.Aspect()
	switch {
	case aspect > 3:
		return Frame{Width: 720, Height: 240}
	case aspect > 2:
		return Frame{Width: 600, Height: 300}
	case aspect > 1.5:
		return Frame{Width: 560, Height: 315}
	default:
		return Frame{Width: 400, Height: 400}
	}
}

// Layout is the outcome of the font-scaling rule for one render.
type Layout struct {
	Lines         []string         `json:"lines"`
	Resolution    model.Resolution `json:"resolution"`
	Reference     Frame            `json:"reference"`
	BaseScale     float64          `json:"base_scale"`
	RefFontSize   float64          `json:"ref_font_size"`
	FinalScale    float64          `json:"final_scale"`
	FinalFontSize float64          `json:"final_font_size"`
}

// LineCount is the number of lines, never less than one.
func (l Layout) LineCount() int {
	if len(l.Lines) == 0 {
		return 1
	}
	return len(l.Lines)
}

// SplitLines breaks content into its non-blank lines.
func SplitLines(content string) []string {
	raw := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func longestLine(lines []string) int {
	longest := 0
	for _, line := range lines {
		if n := utf8.RuneCountInString(line); n > longest {
			longest = n
		}
	}
	return longest
}

// ComputeLayout applies the font-scaling rule. The font size is clamped once in
// reference-frame units and then scaled to the device, so a preview drawn at the
// reference frame and the final bitmap agree on relative text size.
func ComputeLayout(content string, opts model.DisplayOptions, res model.Resolution) Layout {
	if !res.Valid() {
		res = model.DefaultResolution()
	}
	lines := SplitLines(content)
	lineCount := len(lines)
	if lineCount == 0 {
		lineCount = 1
	}

	ref := ReferenceFrame(res)
	refW, refH := float64(ref.Width), float64(ref.Height)
	w, h := float64(res.Width), float64(res.Height)

	baseScale := math.Min(refW/w, refH/h)
	fontSize := opts.FontSize * baseScale

	byHeight := refH / float64(lineCount) * heightCapFactor
	byWidth := fontSize
	if n := longestLine(lines); n > 0 {
		byWidth = refW / float64(n) * widthCapFactor
	}
	minSize := opts.FontSize * baseScale * floorFactor

	limit := math.Max(byHeight, math.Max(byWidth, minSize))
	fontSize = math.Min(fontSize, limit)
	fontSize = math.Max(fontSize, MinReferenceFontSize)

	finalScale := math.Min(w/refW, h/refH)

	return Layout{
		Lines:         lines,
		Resolution:    res,
		Reference:     ref,
		BaseScale:     baseScale,
		RefFontSize:   fontSize,
		FinalScale:    finalScale,
		FinalFontSize: fontSize * finalScale,
	}
}

// margin is the left/right inset for aligned text in a frame of the given width.
func margin(width float64) float64 {
	return math.Max(width*marginRatio, minMarginPx)
}
