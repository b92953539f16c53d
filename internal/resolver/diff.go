package resolver

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/fjglira/mdcr/internal/domain"
)

// Diff renders a unified diff from the block body to the command output,
// both compared the way Resolve compares them. It returns "" when they match.
func Diff(path string, block domain.CodeBlock, output string) string {
	current := strings.TrimSpace(block.Code)
	wanted := strings.TrimSpace(output)
	if current == wanted {
		return ""
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(current + "\n"),
		B:        difflib.SplitLines(wanted + "\n"),
		FromFile: fmt.Sprintf("%s (lines %s)", path, block.Lines()),
		ToFile:   "command output",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return text
}
