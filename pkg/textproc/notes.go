// Package textproc normalizes user-authored text before it is sent to the
// backend. Notes arrive from a rich-text editor and may carry HTML markup.
package textproc

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PlainText strips HTML markup from a note, returning readable plain text.
// Block-level boundaries become newlines, scripts and styles are dropped,
// and runs of whitespace collapse to single spaces within a line.
func PlainText(input string) string {
	// Fast path: nothing that looks like markup.
	if !strings.ContainsAny(input, "<&") {
		return collapse(input)
	}

	doc, err := html.Parse(strings.NewReader(input))
	if err != nil {
		// Parsing user text should never hard-fail the submission.
		return collapse(input)
	}

	var b strings.Builder
	extractText(doc, &b)
	return collapse(b.String())
}

func extractText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Head:
			return
		case atom.Br, atom.P, atom.Div, atom.Li, atom.Tr, atom.H1, atom.H2, atom.H3, atom.H4:
			b.WriteString("\n")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, b)
	}
}

// collapse trims the text and squeezes whitespace runs, preserving single
// newlines as paragraph separators.
func collapse(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
