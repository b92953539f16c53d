package resolver

import (
	"fmt"
	"strings"

	"github.com/fjglira/mdcr/internal/config"
	"github.com/fjglira/mdcr/internal/domain"
	"github.com/fjglira/mdcr/internal/executor"
	"github.com/fjglira/mdcr/internal/parser"
)

// Mode carries the run-wide flags that change how outcomes are treated.
// DryRun takes precedence over CheckOnly.
type Mode struct {
	CheckOnly bool
	DryRun    bool
}

// Action is the decision taken for one block/preset pairing.
type Action int

const (
	// Pass means the block is fine as it is.
	Pass Action = iota
	// CommandFailure means the command exited non-zero or timed out.
	CommandFailure
	// CommandWarned is a command failure downgraded by dry-run.
	CommandWarned
	// MismatchReported is a mismatch in check-only mode.
	MismatchReported
	// MismatchWarned is a mismatch downgraded by dry-run.
	MismatchWarned
	// Replace means a Replacement was built and must be buffered.
	Replace
)

func (a Action) String() string {
	switch a {
	case Pass:
		return "pass"
	case CommandFailure:
		return "command-failure"
	case CommandWarned:
		return "command-warned"
	case MismatchReported:
		return "mismatch"
	case MismatchWarned:
		return "mismatch-warned"
	case Replace:
		return "replace"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Outcome is the resolved result for one block/preset pairing.
type Outcome struct {
	Action      Action
	Message     string
	Replacement *domain.Replacement
	// Diff is the unified diff behind a mismatch, empty otherwise.
	Diff string
}

// Resolve decides what to do with the result of running preset against block.
func Resolve(path string, block domain.CodeBlock, preset config.Preset, res *executor.Result, mode Mode) Outcome {
	if !res.Success {
		msg := failureMessage(path, block, preset, res)
		if mode.DryRun {
			return Outcome{Action: CommandWarned, Message: msg}
		}
		return Outcome{Action: CommandFailure, Message: msg}
	}

	if preset.OutputMode == config.OutputCheck {
		return Outcome{Action: Pass}
	}

	if strings.TrimSpace(res.Stdout) == strings.TrimSpace(block.Code) {
		return Outcome{Action: Pass}
	}

	diff := Diff(path, block, res.Stdout)
	msg := fmt.Sprintf("Code block mismatch detected in: %s (preset: %s, language: %s)", path, preset.Name, block.Language)
	switch {
	case mode.DryRun:
		return Outcome{Action: MismatchWarned, Message: msg, Diff: diff}
	case mode.CheckOnly:
		return Outcome{Action: MismatchReported, Message: msg, Diff: diff}
	}

	rep := BuildReplacement(path, block, res.Stdout)
	return Outcome{
		Action:      Replace,
		Message:     fmt.Sprintf("Code block mismatch will be updated in: %s (preset: %s, lines %s)", path, preset.Name, block.Lines()),
		Replacement: &rep,
		Diff:        diff,
	}
}

// BuildReplacement rewrites block so its body becomes the trimmed output.
// The opening fence line is kept verbatim unless the output holds a line that
// would close it; then the fence marker is lengthened on both fence lines.
// Body lines and the closing fence are prefixed with the block's margin so
// nested blocks keep their indentation.
func BuildReplacement(path string, block domain.CodeBlock, output string) domain.Replacement {
	marker := block.Marker
	if marker == "" {
		marker = "```"
	}
	fence := block.Fence
	if fence == "" {
		fence = block.Indent + marker + block.Headers
	}
	prefix := block.Margin
	if prefix == "" {
		prefix = block.Indent
	}

	body := parser.SplitLines(strings.TrimSpace(output))
	if wider := fenceFor(marker, body); wider != marker {
		if i := strings.Index(fence, marker); i >= 0 {
			fence = fence[:i] + wider + fence[i+len(marker):]
		}
		marker = wider
	}

	lines := make([]string, 0, len(body)+2)
	lines = append(lines, fence)
	for _, l := range body {
		if l == "" {
			// Blank lines keep only the blockquote markers of the margin.
			lines = append(lines, strings.TrimRight(prefix, " \t"))
			continue
		}
		lines = append(lines, prefix+l)
	}
	lines = append(lines, prefix+marker)

	return domain.Replacement{
		FilePath:  path,
		StartLine: block.StartLine,
		EndLine:   block.EndLine,
		NewLines:  lines,
	}
}

// fenceFor returns a marker no body line can close: marker itself, or one
// character longer than the longest run of its character opening a line.
func fenceFor(marker string, body []string) string {
	c := marker[0]
	longest := 0
	for _, l := range body {
		l = strings.TrimLeft(l, " \t>")
		n := 0
		for n < len(l) && l[n] == c {
			n++
		}
		longest = max(longest, n)
	}
	if longest < len(marker) {
		return marker
	}
	return strings.Repeat(string(c), longest+1)
}

func failureMessage(path string, block domain.CodeBlock, preset config.Preset, res *executor.Result) string {
	if res.TimedOut {
		return fmt.Sprintf("The command `%s` timed out after %s for preset `%s` in %s (lines %s)",
			res.CommandLine(), preset.Timeout, preset.Name, path, block.Lines())
	}
	return fmt.Sprintf("The command `%s` returned a non-zero exit status (%d) for preset `%s` in %s (lines %s)",
		res.CommandLine(), res.ExitCode, preset.Name, path, block.Lines())
}
