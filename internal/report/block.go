// Package report lays out blood-test text as a clinical lab report PDF.
//
// Text is classified line by line into headings, bullets, paragraphs and
// tables (Build), then rendered onto paginated A4 pages (Renderer).
package report

// Kind identifies the variant of a Block.
type Kind int

const (
	KindTitle Kind = iota
	KindHeading
	KindParagraph
	KindBullet
	KindTable
)

func (k Kind) String() string {
	switch k {
	case KindTitle:
		return "title"
	case KindHeading:
		return "heading"
	case KindParagraph:
		return "paragraph"
	case KindBullet:
		return "bullet"
	case KindTable:
		return "table"
	}
	return "unknown"
}

// Block is one unit of classified document content.
type Block struct {
	Kind Kind

	// Text holds the line for every kind except KindTable.
	Text string

	// Rows holds the cells of a KindTable block; rows may differ in length.
	Rows [][]string

	// Gap is extra vertical space in points inserted after the block.
	Gap float64
}

func Title(text string) Block     { return Block{Kind: KindTitle, Text: text} }
func Heading(text string) Block   { return Block{Kind: KindHeading, Text: text} }
func Paragraph(text string) Block { return Block{Kind: KindParagraph, Text: text} }
func Bullet(text string) Block    { return Block{Kind: KindBullet, Text: text} }

// Table copies rows so the block does not alias the caller's slices.
func Table(rows [][]string) Block {
	copied := make([][]string, len(rows))
	for i, row := range rows {
		copied[i] = append([]string(nil), row...)
	}
	return Block{Kind: KindTable, Rows: copied}
}
