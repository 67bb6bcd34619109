package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"codeberg.org/go-pdf/fpdf"
	"github.com/rs/zerolog"

	"bloodlab/internal/logger"
)

// Renderer turns report blocks into PDF bytes. It holds no per-render state
// and is safe for concurrent use.
type Renderer struct {
	style StyleConfig
	log   zerolog.Logger
}

// NewRenderer creates a renderer for the given style.
func NewRenderer(style StyleConfig) *Renderer {
	return &Renderer{
		style: style,
		log:   logger.WithComponent("report-renderer"),
	}
}

// Render lays blocks out on A4 pages in order and returns the finished
// document positioned at offset 0.
func (r *Renderer) Render(blocks []Block) (*bytes.Reader, error) {
	return r.RenderContext(context.Background(), blocks)
}

// RenderContext is Render with cancellation checked between blocks.
func (r *Renderer) RenderContext(ctx context.Context, blocks []Block) (_ *bytes.Reader, err error) {
	const op = "Render"

	defer func() {
		if rec := recover(); rec != nil {
			err = &RenderError{Op: op, Err: fmt.Errorf("%v", rec), Details: "layout panicked"}
		}
	}()

	doc, err := r.layout(ctx, blocks)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := doc.pdf.Output(&buf); err != nil {
		return nil, &RenderError{Op: "Output", Err: err}
	}

	r.log.Debug().
		Int("blocks", len(blocks)).
		Int("pages", doc.pdf.PageCount()).
		Int("bytes", buf.Len()).
		Str("font", doc.family).
		Msg("Report rendered")

	return bytes.NewReader(buf.Bytes()), nil
}

// layout places every block on the page sequence without serializing it.
func (r *Renderer) layout(ctx context.Context, blocks []Block) (*document, error) {
	doc := r.newDocument()
	for i, b := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, &RenderError{Op: "Render", Err: err, Details: fmt.Sprintf("canceled before block %d", i)}
		}

		if b.Kind == KindTable {
			if err := doc.table(b.Rows); err != nil {
				return nil, &RenderError{Op: "Render", Err: err, Details: fmt.Sprintf("block %d (%s)", i, b.Kind)}
			}
		} else {
			doc.text(b.Text, r.style.forBlock(b.Kind))
		}
		doc.space(b.Gap)

		if doc.pdf.Err() {
			return nil, &RenderError{Op: "Render", Err: doc.pdf.Error(), Details: fmt.Sprintf("block %d (%s)", i, b.Kind)}
		}
	}
	return doc, nil
}

// document is the per-render layout cursor over one fpdf instance.
type document struct {
	pdf    *fpdf.Fpdf
	style  StyleConfig
	family string
	encode func(string) string

	left   float64
	top    float64
	width  float64
	bottom float64
}

func (r *Renderer) newDocument() *document {
	pdf := fpdf.New("P", "pt", "A4", "")
	m := r.style.Margin
	pdf.SetMargins(m, m, m)
	pdf.SetAutoPageBreak(false, m)
	pdf.SetCellMargin(0)
	pdf.SetTitle(ReportCaption, true)
	pdf.SetCreator("bloodlab", true)

	doc := &document{pdf: pdf, style: r.style}
	doc.family, doc.encode = r.registerFonts(pdf)

	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()
	doc.left = m
	doc.top = m
	doc.width = pageW - 2*m
	doc.bottom = pageH - m

	return doc
}

// registerFonts installs the report font, or falls back to the core font with
// a cp1252 translator when the font is missing or rejected.
func (r *Renderer) registerFonts(pdf *fpdf.Fpdf) (string, func(string) string) {
	fonts := r.style.Fonts
	if fonts.Available {
		err := addUTF8Fonts(pdf, fonts)
		if err == nil {
			return FontFamily, func(s string) string { return s }
		}
		r.log.Warn().Err(err).Msg("Report font rejected, using fallback font")
		pdf.ClearError()
	}
	return FallbackFontFamily, pdf.UnicodeTranslatorFromDescriptor("")
}

func addUTF8Fonts(pdf *fpdf.Fpdf, fonts FontSet) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("register font: %v", rec)
		}
	}()

	bold := fonts.Bold
	if len(bold) == 0 {
		bold = fonts.Regular
	}
	pdf.AddUTF8FontFromBytes(FontFamily, "", fonts.Regular)
	pdf.AddUTF8FontFromBytes(FontFamily, "B", bold)
	// a font fpdf could not parse is only reported once it is selected
	pdf.SetFont(FontFamily, "", 10)
	pdf.SetFont(FontFamily, "B", 10)
	if pdf.Err() {
		return pdf.Error()
	}
	return nil
}

func (d *document) setFont(bold bool, size float64) {
	style := ""
	if bold {
		style = "B"
	}
	d.pdf.SetFont(d.family, style, size)
}

func (d *document) setTextColor(c Color) {
	d.pdf.SetTextColor(c.R, c.G, c.B)
}

// ensure starts a new page unless h points fit above the bottom margin.
// A block at the top of a page is never moved.
func (d *document) ensure(h float64) {
	y := d.pdf.GetY()
	if y+h > d.bottom && y > d.top {
		d.pdf.AddPage()
	}
}

// space advances the cursor; vertical space never carries over to a new page.
func (d *document) space(h float64) {
	if h <= 0 {
		return
	}
	y := d.pdf.GetY() + h
	if y > d.bottom {
		d.pdf.AddPage()
		return
	}
	d.pdf.SetXY(d.left, y)
}

func (d *document) text(s string, st TextStyle) {
	d.setFont(st.Bold, st.Size)
	d.setTextColor(st.Color)

	if d.pdf.GetY() > d.top {
		d.space(st.SpaceBefore)
	}

	x0 := d.left + st.LeftIndent
	width := d.width - st.LeftIndent
	lines := d.wrap(d.encode(s), width-st.FirstLineIndent, width)

	for i, line := range lines {
		d.ensure(st.Leading)
		x, w := x0, width
		if i == 0 {
			x += st.FirstLineIndent
			w -= st.FirstLineIndent
		}
		y := d.pdf.GetY()
		d.line(line, x, y, w, st.Leading, st.Align, i == len(lines)-1)
		d.pdf.SetXY(d.left, y+st.Leading)
	}

	d.space(st.SpaceAfter)
}

// line writes one wrapped line. Justified lines spread their words across the
// full width; the last line of a paragraph stays left aligned.
func (d *document) line(s string, x, y, w, h float64, align string, last bool) {
	if align == AlignJustify {
		words := strings.Fields(s)
		if last || len(words) < 2 {
			align = AlignLeft
		} else {
			widths := make([]float64, len(words))
			total := 0.0
			for i, word := range words {
				widths[i] = d.pdf.GetStringWidth(word)
				total += widths[i]
			}
			gap := (w - total) / float64(len(words)-1)
			cx := x
			for i, word := range words {
				d.pdf.SetXY(cx, y)
				d.pdf.CellFormat(widths[i], h, word, "", 0, AlignLeft, false, 0, "")
				cx += widths[i] + gap
			}
			return
		}
	}

	d.pdf.SetXY(x, y)
	d.pdf.CellFormat(w, h, s, "", 0, align, false, 0, "")
}

// wrap breaks text into lines no wider than firstWidth (first line) and
// width (the rest). Words wider than a line are split between runes.
func (d *document) wrap(text string, firstWidth, width float64) []string {
	var lines []string
	limit := firstWidth
	cur := ""

	for _, word := range strings.Fields(text) {
		candidate := word
		if cur != "" {
			candidate = cur + " " + word
		}
		if d.pdf.GetStringWidth(candidate) <= limit {
			cur = candidate
			continue
		}

		if cur != "" {
			lines = append(lines, cur)
			limit = width
			cur = ""
		}
		for word != "" && d.pdf.GetStringWidth(word) > limit {
			head, tail := d.splitWord(word, limit)
			lines = append(lines, head)
			limit = width
			word = tail
		}
		cur = word
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

// splitWord returns the longest prefix of word that fits in limit, keeping at
// least one rune so wrapping always makes progress.
func (d *document) splitWord(word string, limit float64) (string, string) {
	cut := 0
	for i := 0; i < len(word); {
		_, size := utf8.DecodeRuneInString(word[i:])
		if cut > 0 && d.pdf.GetStringWidth(word[:i+size]) > limit {
			break
		}
		i += size
		cut = i
	}
	return word[:cut], word[cut:]
}

// table draws a bordered grid. Each row divides the width among its own cells,
// so ragged rows keep whatever cell count they have. Rows are never split, so
// a row taller than a whole page is an error.
func (d *document) table(rows [][]string) error {
	pad := d.style.CellPadding
	grid := d.style.GridColor
	d.pdf.SetLineWidth(d.style.GridWidth)
	d.pdf.SetDrawColor(grid.R, grid.G, grid.B)

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cs := d.style.TableCell
		if i == 0 {
			cs = d.style.TableHeader
		}
		d.setFont(false, cs.Size)

		colW := d.width / float64(len(row))
		inner := colW - 2*pad
		cells := make([][]string, len(row))
		maxLines := 1
		for j, cell := range row {
			cells[j] = d.wrap(d.encode(cell), inner, inner)
			if len(cells[j]) > maxLines {
				maxLines = len(cells[j])
			}
		}
		rowH := float64(maxLines)*cs.Leading + 2*pad
		if rowH > d.bottom-d.top {
			return fmt.Errorf("%w: row %d needs %.0fpt, page has %.0fpt", ErrRowTooTall, i, rowH, d.bottom-d.top)
		}

		d.ensure(rowH)
		y := d.pdf.GetY()

		for j, lines := range cells {
			x := d.left + float64(j)*colW
			rectStyle := "D"
			if cs.Background != nil {
				d.pdf.SetFillColor(cs.Background.R, cs.Background.G, cs.Background.B)
				rectStyle = "FD"
			}
			d.pdf.Rect(x, y, colW, rowH, rectStyle)

			d.setTextColor(cs.Color)
			ty := y + (rowH-float64(len(lines))*cs.Leading)/2
			for k, line := range lines {
				d.pdf.SetXY(x+pad, ty+float64(k)*cs.Leading)
				d.pdf.CellFormat(inner, cs.Leading, line, "", 0, AlignCenter, false, 0, "")
			}
		}

		d.pdf.SetXY(d.left, y+rowH)
	}
	return nil
}
