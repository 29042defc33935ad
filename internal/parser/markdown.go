package parser

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Heading represents a parsed heading.
type Heading struct {
	Level int
	Text  string
	Line  int // 1-indexed
}

// Link is an inline markdown link or image destination.
type Link struct {
	Destination string
	Line        int
}

// CodeSpan is an inline code span (`like this`).
type CodeSpan struct {
	Text string
	Line int
}

// CodeLine is one line of a fenced or indented code block.
type CodeLine struct {
	Text string
	Line int
}

// Markdown holds the body constructs the validator and reader care about.
type Markdown struct {
	Headings  []Heading
	Links     []Link
	CodeSpans []CodeSpan
	CodeLines []CodeLine
}

// Title returns the text of the first level-1 heading, if any.
func (m *Markdown) Title() string {
	for _, h := range m.Headings {
		if h.Level == 1 {
			return h.Text
		}
	}
	return ""
}

// ScanMarkdown parses body with goldmark. startLine is the 1-indexed file line
// where body begins, so every reported line refers to the original file.
//
// Links inside code are never reported: goldmark does not parse inline syntax
// in code blocks or code spans.
func ScanMarkdown(body string, startLine int) *Markdown {
	source := []byte(body)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))
	lineStarts := computeLineStarts(body)
	lineOf := func(offset int) int {
		return startLine + offsetToLine(lineStarts, offset)
	}

	result := &Markdown{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			headingText := strings.TrimSpace(string(node.Text(source)))
			if headingText != "" && node.Lines().Len() > 0 {
				result.Headings = append(result.Headings, Heading{
					Level: node.Level,
					Text:  headingText,
					Line:  lineOf(node.Lines().At(0).Start),
				})
			}

		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				result.CodeLines = append(result.CodeLines, CodeLine{
					Text: strings.TrimRight(string(seg.Value(source)), "\n"),
					Line: lineOf(seg.Start),
				})
			}
			return ast.WalkSkipChildren, nil

		case *ast.CodeSpan:
			if offset, ok := firstTextOffset(node); ok {
				result.CodeSpans = append(result.CodeSpans, CodeSpan{
					Text: string(node.Text(source)),
					Line: lineOf(offset),
				})
			}
			return ast.WalkSkipChildren, nil

		case *ast.Link:
			result.Links = append(result.Links, Link{
				Destination: string(node.Destination),
				Line:        lineOf(nodeOffset(node)),
			})

		case *ast.Image:
			result.Links = append(result.Links, Link{
				Destination: string(node.Destination),
				Line:        lineOf(nodeOffset(node)),
			})
		}

		return ast.WalkContinue, nil
	})

	return result
}

// firstTextOffset finds the byte offset of the first text segment below n.
func firstTextOffset(n ast.Node) (int, bool) {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			return t.Segment.Start, true
		}
		if offset, ok := firstTextOffset(child); ok {
			return offset, true
		}
	}
	return 0, false
}

// nodeOffset approximates an inline node's position: its own text when it has
// any, otherwise the first line of the enclosing block.
func nodeOffset(n ast.Node) int {
	if offset, ok := firstTextOffset(n); ok {
		return offset
	}
	for parent := n.Parent(); parent != nil; parent = parent.Parent() {
		if parent.Type() == ast.TypeBlock && parent.Lines().Len() > 0 {
			return parent.Lines().At(0).Start
		}
	}
	return 0
}

// computeLineStarts computes the byte offset of each line start.
func computeLineStarts(content string) []int {
	starts := []int{0}
	for i, c := range content {
		if c == '\n' && i+1 < len(content) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// offsetToLine converts a byte offset to a 0-indexed line number.
func offsetToLine(lineStarts []int, offset int) int {
	for i := len(lineStarts) - 1; i >= 0; i-- {
		if lineStarts[i] <= offset {
			return i
		}
	}
	return 0
}
