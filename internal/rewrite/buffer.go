package rewrite

import "github.com/fjglira/mdcr/internal/domain"

// Buffer collects the replacements computed for one file. A later
// replacement for the same range overwrites the earlier one.
type Buffer struct {
	reps  []domain.Replacement
	index map[rangeKey]int
}

type rangeKey struct {
	file  string
	start int
}

// NewBuffer creates an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{index: make(map[rangeKey]int)}
}

// Add records rep, replacing any earlier replacement starting at the same line.
func (b *Buffer) Add(rep domain.Replacement) {
	key := rangeKey{file: rep.FilePath, start: rep.StartLine}
	if i, ok := b.index[key]; ok {
		b.reps[i] = rep
		return
	}
	b.index[key] = len(b.reps)
	b.reps = append(b.reps, rep)
}

// Len returns the number of buffered replacements.
func (b *Buffer) Len() int {
	return len(b.reps)
}

// Replacements returns the buffered replacements in the order they were first added.
func (b *Buffer) Replacements() []domain.Replacement {
	out := make([]domain.Replacement, len(b.reps))
	copy(out, b.reps)
	return out
}

// GroupByFile splits replacements per target file, keeping their relative order.
func GroupByFile(reps []domain.Replacement) map[string][]domain.Replacement {
	groups := make(map[string][]domain.Replacement)
	for _, rep := range reps {
		groups[rep.FilePath] = append(groups[rep.FilePath], rep)
	}
	return groups
}
