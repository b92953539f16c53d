package domain

import "fmt"

// SkipMarker excludes a fenced block from processing when it appears as a
// whitespace-delimited token of the info string.
const SkipMarker = "mdcr-skip"

// ParsedDocument holds the result of parsing a single document file.
type ParsedDocument struct {
	FilePath  string
	Blocks    []CodeBlock // Fenced blocks in document order, skip-marked ones excluded
	LineCount int
}

// CodeBlock is one fenced code block found in a document.
//
// StartLine and EndLine are 0-based and delimit the half-open range
// [StartLine, EndLine) of the original line sequence, both fence lines included.
type CodeBlock struct {
	Language  string // first token of the info string
	Headers   string // full info string
	Code      string // body text exactly as parsed
	StartLine int
	EndLine   int
	Indent    string // leading whitespace of the opening fence line
	Fence     string // opening fence line, verbatim
	Marker    string // fence characters, e.g. "```" or "~~~~"
	Margin    string // prefix for body and closing fence lines
}

// Lines renders the block range for humans: 1-based and inclusive.
func (b CodeBlock) Lines() string {
	end := b.EndLine
	if end <= b.StartLine {
		end = b.StartLine + 1
	}
	return fmt.Sprintf("%d-%d", b.StartLine+1, end)
}

// Replacement asks the applier to substitute lines [StartLine, EndLine) of
// FilePath with NewLines.
type Replacement struct {
	FilePath  string
	StartLine int
	EndLine   int
	NewLines  []string
}

// FileState is the terminal state of one processed file.
type FileState int

const (
	NoChangeNeeded FileState = iota
	Updated
	CheckFailed
	CommandFailed
	DryRunReported
	Errored
)

func (s FileState) String() string {
	switch s {
	case NoChangeNeeded:
		return "unchanged"
	case Updated:
		return "updated"
	case CheckFailed:
		return "check-failed"
	case CommandFailed:
		return "command-failed"
	case DryRunReported:
		return "dry-run"
	case Errored:
		return "error"
	default:
		return fmt.Sprintf("FileState(%d)", int(s))
	}
}

// Failed reports whether the state makes the run fail.
func (s FileState) Failed() bool {
	return s == CheckFailed || s == CommandFailed || s == Errored
}

// FileResult is the outcome of processing one file.
type FileResult struct {
	Path         string
	State        FileState
	Lines        int
	Blocks       int
	Replacements int
	Mismatches   int
	Failures     int
	Err          error
}
