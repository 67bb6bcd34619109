package report

import "strings"

// LayoutState carries table accumulation between lines.
// Rows is non-empty only while InTable is set.
type LayoutState struct {
	InTable bool
	Rows    [][]string
}

// Step is the outcome of classifying one line: the blocks to emit, in order,
// and the state to carry into the next line.
type Step struct {
	Blocks []Block
	State  LayoutState
}

// rule pairs a predicate with the action taken when it is the first to match.
type rule struct {
	name    string
	matches func(line string) bool
	apply   func(line string, st LayoutState) Step
}

// rules is evaluated in order; categories overlap, so the order is significant.
var rules = []rule{
	{name: "blank", matches: isBlank, apply: flushStep},
	{name: "table", matches: isTableRow, apply: appendRow},
	{name: "heading", matches: isHeading, apply: emit(Heading)},
	{name: "bullet", matches: isBullet, apply: emit(Bullet)},
	{name: "paragraph", matches: func(string) bool { return true }, apply: emit(Paragraph)},
}

// Classify applies the first matching rule to an already trimmed line.
func Classify(line string, st LayoutState) Step {
	for _, r := range rules {
		if r.matches(line) {
			return r.apply(line, st)
		}
	}
	// unreachable: the paragraph rule matches everything
	return Step{State: st}
}

// RuleName reports which rule classifies line.
func RuleName(line string) string {
	for _, r := range rules {
		if r.matches(line) {
			return r.name
		}
	}
	return ""
}

func isBlank(line string) bool { return line == "" }

func isTableRow(line string) bool { return strings.Contains(line, "|") }

// isHeading treats a leading section digit 1-7 or a trailing colon as a heading.
// Any sentence that merely starts with one of those digits is also caught.
func isHeading(line string) bool {
	if line[0] >= '1' && line[0] <= '7' {
		return true
	}
	return strings.HasSuffix(line, ":")
}

func isBullet(line string) bool {
	return strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "• ")
}

func emit(build func(string) Block) func(string, LayoutState) Step {
	return func(line string, st LayoutState) Step {
		return Step{Blocks: []Block{build(line)}, State: st}
	}
}

func appendRow(line string, st LayoutState) Step {
	var row []string
	for _, cell := range strings.Split(line, "|") {
		if cell = strings.TrimSpace(cell); cell != "" {
			row = append(row, cell)
		}
	}

	next := LayoutState{InTable: true, Rows: st.Rows}
	if len(row) > 0 {
		next.Rows = append(append([][]string(nil), st.Rows...), row)
	}
	return Step{State: next}
}

func flushStep(_ string, st LayoutState) Step {
	return Flush(st)
}

// Flush turns pending rows into a table block and resets the state.
func Flush(st LayoutState) Step {
	if !st.InTable || len(st.Rows) == 0 {
		return Step{}
	}
	table := Table(st.Rows)
	table.Gap = tableGap
	return Step{Blocks: []Block{table}}
}
