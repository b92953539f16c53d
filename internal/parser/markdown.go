package parser

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/fjglira/mdcr/internal/domain"
)

// MarkdownParser extracts fenced code blocks from Markdown using goldmark.
type MarkdownParser struct{}

// NewMarkdownParser creates a new MarkdownParser.
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{}
}

// SupportedExtensions returns the file extensions this parser handles.
func (p *MarkdownParser) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// Parse walks the document once and returns its fenced code blocks in
// document order. Blocks whose info string carries the skip marker are left out.
func (p *MarkdownParser) Parse(filePath string, content []byte) (*domain.ParsedDocument, error) {
	md := goldmark.New()
	reader := text.NewReader(content)
	doc := md.Parser().Parse(reader)

	lines := SplitLines(string(content))
	parsed := &domain.ParsedDocument{
		FilePath:  filePath,
		LineCount: len(lines),
	}

	// cursor is the first line not yet claimed by a block.
	cursor := 0
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		node, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		var info string
		if node.Info != nil {
			info = string(node.Info.Segment.Value(content))
		}

		block, ok := extractBlock(node, content, lines, cursor)
		if !ok {
			return ast.WalkSkipChildren, nil
		}
		cursor = block.EndLine

		if hasSkipMarker(info) {
			return ast.WalkSkipChildren, nil
		}

		block.Headers = info
		if fields := strings.Fields(info); len(fields) > 0 {
			block.Language = fields[0]
		}
		parsed.Blocks = append(parsed.Blocks, block)

		return ast.WalkSkipChildren, nil
	})

	if err != nil {
		return nil, domain.NewErrorWithSuggestion("parse", filePath, 0,
			"failed to walk markdown AST",
			"check the markdown file for syntax issues, fenced code blocks need matching fences",
			err)
	}

	return parsed, nil
}

// extractBlock locates the fence lines of node and captures its body.
func extractBlock(node *ast.FencedCodeBlock, content []byte, lines []string, cursor int) (domain.CodeBlock, bool) {
	var buf bytes.Buffer
	segs := node.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		buf.Write(seg.Value(content))
	}

	start := -1
	switch {
	case node.Info != nil:
		start = lineIndex(content, node.Info.Segment.Start)
	case segs.Len() > 0:
		start = lineIndex(content, segs.At(0).Start) - 1
	default:
		// Empty block without an info string: the AST carries no position.
		for i := cursor; i < len(lines); i++ {
			if _, ok := fenceStart(lines[i]); ok {
				start = i
				break
			}
		}
	}
	if start < 0 || start >= len(lines) {
		return domain.CodeBlock{}, false
	}

	fence := lines[start]
	idx, ok := fenceStart(fence)
	if !ok {
		return domain.CodeBlock{}, false
	}
	marker := fenceMarker(fence[idx:])

	closing := start + 1
	if segs.Len() > 0 {
		closing = lineIndex(content, segs.At(segs.Len()-1).Start) + 1
	}
	end := closing
	if closing < len(lines) && isClosingFence(lines[closing], marker) {
		end = closing + 1
	}
	if end > len(lines) {
		end = len(lines)
	}

	return domain.CodeBlock{
		Code:      buf.String(),
		StartLine: start,
		EndLine:   end,
		Indent:    leadingWhitespace(fence),
		Fence:     fence,
		Marker:    marker,
		Margin:    margin(fence[:idx]),
	}, true
}

func hasSkipMarker(info string) bool {
	for _, f := range strings.Fields(info) {
		if f == domain.SkipMarker {
			return true
		}
	}
	return false
}

// lineIndex returns the 0-based line containing the byte offset.
func lineIndex(content []byte, offset int) int {
	if offset > len(content) {
		offset = len(content)
	}
	return bytes.Count(content[:offset], []byte("\n"))
}

// SplitLines splits text into lines the way the applier joins them back:
// a trailing newline does not start an extra line and "\r\n" counts as one break.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// fenceStart returns the index of the fence characters on an opening fence
// line. Only container markup (indentation, list markers, blockquotes) may precede them.
func fenceStart(line string) (int, bool) {
	for i := 0; i < len(line); i++ {
		switch c := line[i]; c {
		case ' ', '\t', '>', '-', '*', '+', '.', ')', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			continue
		case '`', '~':
			if strings.HasPrefix(line[i:], strings.Repeat(string(c), 3)) {
				return i, true
			}
			return 0, false
		default:
			return 0, false
		}
	}
	return 0, false
}

func fenceMarker(s string) string {
	if s == "" {
		return ""
	}
	n := 0
	for n < len(s) && s[n] == s[0] {
		n++
	}
	return s[:n]
}

func isClosingFence(line, marker string) bool {
	if marker == "" {
		return false
	}
	rest := strings.TrimLeft(line, " \t>")
	run := fenceMarker(rest)
	if len(run) < len(marker) || run[0] != marker[0] {
		return false
	}
	return strings.TrimSpace(rest[len(run):]) == ""
}

func leadingWhitespace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}

// margin turns the markup before an opening fence into the prefix for the
// lines that follow it: whitespace and blockquote markers are kept, list
// markers become spaces.
func margin(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		switch r {
		case ' ', '\t', '>':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}
