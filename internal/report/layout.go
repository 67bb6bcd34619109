package report

import (
	"strings"
	"time"
)

const (
	// ReportCaption is the fixed title of every generated report.
	ReportCaption = "임상병리학적 분석 보고서"

	// TimestampLayout renders the generation time, e.g. "2024년 03월 05일 09시 07분".
	TimestampLayout = "2006년 01월 02일 15시 04분"

	headerGap = 30
	tableGap  = 10
)

// Build classifies text line by line into report blocks.
// The output always starts with the caption and the generation timestamp.
func Build(text string, at time.Time) []Block {
	stamp := Paragraph("보고서 생성일시: " + at.Format(TimestampLayout))
	stamp.Gap = headerGap
	blocks := []Block{Title(ReportCaption), stamp}

	var st LayoutState
	for _, line := range strings.Split(text, "\n") {
		step := Classify(strings.TrimSpace(line), st)
		blocks = append(blocks, step.Blocks...)
		st = step.State
	}

	return append(blocks, Flush(st).Blocks...)
}
