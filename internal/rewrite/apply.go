package rewrite

import (
	"os"
	"sort"
	"strings"

	"github.com/fjglira/mdcr/internal/domain"
	"github.com/fjglira/mdcr/internal/parser"
)

// Apply splices reps into a copy of lines. Replacements are applied from the
// highest start line down, so each splice only shifts lines that have
// already been processed. Ranges are clamped to the current line count.
func Apply(lines []string, reps []domain.Replacement) []string {
	out := make([]string, len(lines))
	copy(out, lines)

	sorted := make([]domain.Replacement, len(reps))
	copy(sorted, reps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartLine > sorted[j].StartLine
	})

	for _, rep := range sorted {
		end := min(rep.EndLine, len(out))
		start := max(min(rep.StartLine, end), 0)

		spliced := make([]string, 0, len(out)-(end-start)+len(rep.NewLines))
		spliced = append(spliced, out[:start]...)
		spliced = append(spliced, rep.NewLines...)
		spliced = append(spliced, out[end:]...)
		out = spliced
	}
	return out
}

// Render joins lines with "\n" and terminates the result with a single newline.
func Render(lines []string) []byte {
	return []byte(strings.Join(lines, "\n") + "\n")
}

// Rewrite applies reps to content and returns the new file content.
func Rewrite(content []byte, reps []domain.Replacement) []byte {
	return Render(Apply(parser.SplitLines(string(content)), reps))
}

// ApplyToFile rewrites path with reps computed against original, the content
// the blocks were extracted from. Nothing is written when reps is empty.
func ApplyToFile(path string, original []byte, reps []domain.Replacement) (bool, error) {
	if len(reps) == 0 {
		return false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, domain.NewError("write", path, 0, "failed to stat file", err)
	}
	if err := writeFileAtomic(path, Rewrite(original, reps), info.Mode().Perm()); err != nil {
		return false, domain.NewErrorWithSuggestion("write", path, 0,
			"failed to write updated file",
			"check disk space and write permissions for the directory", err)
	}
	return true, nil
}
