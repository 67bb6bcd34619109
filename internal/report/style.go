package report

import (
	"fmt"
	"strconv"
	"strings"
)

// Alignment values understood by the renderer.
const (
	AlignLeft    = "L"
	AlignCenter  = "C"
	AlignJustify = "J"
)

// Color is an RGB color with 0-255 components.
type Color struct {
	R, G, B int
}

// Hex parses "#RRGGBB". It panics on malformed input and is meant for literals.
func Hex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseHex parses "#RRGGBB" or "RRGGBB".
func ParseHex(s string) (Color, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return Color{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, nil
}

// TextStyle describes how one kind of block is typeset. Sizes are in points.
type TextStyle struct {
	Bold            bool
	Size            float64
	Leading         float64
	Color           Color
	SpaceBefore     float64
	SpaceAfter      float64
	FirstLineIndent float64
	LeftIndent      float64
	Align           string
}

// CellStyle describes table cells of one row class.
type CellStyle struct {
	Size       float64
	Leading    float64
	Color      Color
	Background *Color
}

// StyleConfig is read-only for the duration of a render.
type StyleConfig struct {
	Title   TextStyle
	Heading TextStyle
	Normal  TextStyle
	Bullet  TextStyle

	TableHeader CellStyle
	TableCell   CellStyle
	GridColor   Color
	GridWidth   float64
	CellPadding float64

	// Margin applies to all four page edges.
	Margin float64

	// Fonts is the result of LoadFonts; a zero value renders with the fallback font.
	Fonts FontSet
}

// DefaultStyle returns the clinical report styling.
func DefaultStyle(fonts FontSet) StyleConfig {
	headerFill := Hex("#F5F6FA")
	text := Hex("#2C3E50")

	return StyleConfig{
		Title: TextStyle{
			Size:       20,
			Leading:    24,
			Color:      text,
			SpaceAfter: 30,
			Align:      AlignCenter,
		},
		Heading: TextStyle{
			Bold:        true,
			Size:        14,
			Leading:     18,
			Color:       Hex("#34495E"),
			SpaceBefore: 20,
			SpaceAfter:  10,
			Align:       AlignLeft,
		},
		Normal: TextStyle{
			Size:            10,
			Leading:         14,
			SpaceBefore:     8,
			SpaceAfter:      8,
			FirstLineIndent: 20,
			Align:           AlignJustify,
		},
		Bullet: TextStyle{
			Size:        10,
			Leading:     14,
			SpaceBefore: 4,
			SpaceAfter:  4,
			LeftIndent:  30,
			Align:       AlignLeft,
		},
		TableHeader: CellStyle{Size: 10, Leading: 12, Color: text, Background: &headerFill},
		TableCell:   CellStyle{Size: 9, Leading: 11, Color: text},
		GridColor:   Hex("#BDC3C7"),
		GridWidth:   1,
		CellPadding: 6,
		Margin:      50,
		Fonts:       fonts,
	}
}

// forBlock returns the text style for a non-table block kind.
func (s StyleConfig) forBlock(k Kind) TextStyle {
	switch k {
	case KindTitle:
		return s.Title
	case KindHeading:
		return s.Heading
	case KindBullet:
		return s.Bullet
	}
	return s.Normal
}
