package report

import (
	"errors"
	"fmt"
	"os"

	"codeberg.org/go-pdf/fpdf"
)

const (
	// FontFamily is the family name the report font is registered under.
	FontFamily = "NanumGothic"

	// FallbackFontFamily is the built-in font used when FontFamily is unavailable.
	FallbackFontFamily = "Helvetica"
)

// FontSet holds TrueType font data loaded at startup.
type FontSet struct {
	Available bool
	Regular   []byte
	Bold      []byte
}

// LoadFonts reads and probes the report fonts. It always returns a usable
// FontSet: on failure Available is false and the error says why, so the
// caller can log it and keep serving with the fallback font.
// A missing bold face falls back to the regular face.
func LoadFonts(regularPath, boldPath string) (FontSet, error) {
	regular, err := os.ReadFile(regularPath)
	if err != nil {
		return FontSet{}, fmt.Errorf("load report font: %w", err)
	}
	if err := probeFont(regular); err != nil {
		return FontSet{}, fmt.Errorf("load report font %s: %w", regularPath, err)
	}

	fonts := FontSet{Available: true, Regular: regular, Bold: regular}

	bold, err := os.ReadFile(boldPath)
	if err != nil {
		return fonts, nil
	}
	if probeFont(bold) == nil {
		fonts.Bold = bold
	}
	return fonts, nil
}

// probeFont checks that fpdf can parse the font.
func probeFont(data []byte) (err error) {
	// the TTF parser can panic on truncated tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse font: %v", r)
		}
	}()

	if len(data) == 0 {
		return errors.New("font file is empty")
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.AddUTF8FontFromBytes(FontFamily, "", data)
	pdf.SetFont(FontFamily, "", 10)
	if pdf.Err() {
		return pdf.Error()
	}
	return nil
}
