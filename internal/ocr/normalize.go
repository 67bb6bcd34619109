package ocr

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// arrowSpacer keeps deviation markers from fusing with the token that follows them.
var arrowSpacer = strings.NewReplacer("↑", "↑ ", "↓", "↓ ")

// valueUnit matches a numeric value glued to its unit suffix, e.g. "120mg".
// Any decimal digit counts, including full-width forms.
var valueUnit = regexp.MustCompile(`(\p{Nd}+)([a-zA-Z]+)`)

// Normalize cleans raw OCR output into a single line of text.
//
// Arrows are spaced before whitespace is collapsed, which keeps the
// function idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	text := norm.NFC.String(raw)
	text = arrowSpacer.Replace(text)
	text = strings.Join(strings.Fields(text), " ")
	text = valueUnit.ReplaceAllString(text, "$1 $2")

	return text
}
