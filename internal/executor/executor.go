package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"mvdan.cc/sh/v3/syntax"

	"github.com/fjglira/mdcr/internal/config"
	"github.com/fjglira/mdcr/internal/domain"
)

// Request is one preset invocation against one block's code.
type Request struct {
	Preset   config.Preset
	Language string
	Code     string
}

// Result is what a finished command produced. A non-zero exit status is a
// normal result, reported through Success and ExitCode.
type Result struct {
	Args     []string
	Stdout   string
	Stderr   string
	ExitCode int
	Success  bool
	TimedOut bool
}

// CommandLine renders Args shell-quoted, for diagnostics.
func (r *Result) CommandLine() string {
	return QuoteArgs(r.Args)
}

// Executor runs a preset's command against a block's code. It returns an
// error only when the command could not be run at all.
type Executor interface {
	Execute(ctx context.Context, req Request) (*Result, error)
}

// CommandExecutor runs presets as child processes.
type CommandExecutor struct {
	// TempDir receives file-mode temp files; empty means os.TempDir().
	TempDir string
	// BlockedPatterns lists substrings that make a block's code ineligible to run.
	BlockedPatterns []string
	log             *logrus.Logger
}

// NewCommandExecutor creates a new CommandExecutor.
func NewCommandExecutor(log *logrus.Logger) *CommandExecutor {
	return &CommandExecutor{log: log}
}

// Execute runs req.Preset against req.Code. In stdin mode the code is piped
// to the child; in file mode it is written to a fresh temp file that is
// removed once the command returns.
func (e *CommandExecutor) Execute(ctx context.Context, req Request) (*Result, error) {
	preset := req.Preset
	if len(preset.Command) == 0 {
		return nil, domain.NewError("exec", "", 0, fmt.Sprintf("preset %q has no command", preset.Name), nil)
	}
	if err := ValidateCode(req.Code, e.BlockedPatterns); err != nil {
		return nil, domain.NewErrorWithSuggestion("exec", "", 0, err.Error(),
			"add mdcr-skip to the block's info string, or remove the pattern from blocked_patterns", nil)
	}

	lang := strings.TrimSpace(req.Language)
	if lang == "" {
		lang = preset.Language()
	}

	if preset.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, preset.Timeout)
		defer cancel()
	}

	switch preset.InputMode {
	case config.InputFile:
		path, err := e.writeTemp(req.Code, extension(preset, lang))
		if err != nil {
			return nil, domain.NewError("exec", "", 0, "failed to write temporary file", err)
		}
		defer os.Remove(path)

		ph := NewPlaceholders(path, lang)
		if e.TempDir != "" {
			ph.TmpDir = e.TempDir
		}
		return e.run(ctx, preset, Expand(preset.Command, ph), nil)
	default:
		ph := NewPlaceholders(StdinMarker, lang)
		if e.TempDir != "" {
			ph.TmpDir = e.TempDir
		}
		return e.run(ctx, preset, Expand(preset.Command, ph), strings.NewReader(req.Code))
	}
}

// run starts the command and waits for it. When stdin is set, exec copies it
// to the child on its own goroutine while stdout and stderr are drained, so a
// child that never reads its input cannot block the writer.
func (e *CommandExecutor) run(ctx context.Context, preset config.Preset, args []string, stdin io.Reader) (*Result, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = stdin
	if preset.Timeout > 0 {
		cmd.WaitDelay = time.Second
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if e.log != nil {
		e.log.WithField("preset", preset.Name).Debugf("Executing command %s", QuoteArgs(args))
	}

	runErr := cmd.Run()
	res := &Result{Args: args, Stdout: stdout.String(), Stderr: stderr.String()}

	if ctxErr := ctx.Err(); ctxErr != nil && runErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) && preset.Timeout > 0 {
			res.TimedOut = true
			res.ExitCode = -1
			return res, nil
		}
		return nil, domain.NewError("exec", "", 0, fmt.Sprintf("command %s was interrupted", QuoteArgs(args)), ctxErr)
	}

	// Only a non-zero exit is a result; anything else means the child never ran.
	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		return nil, domain.NewErrorWithSuggestion("exec", "", 0,
			fmt.Sprintf("failed to run command %s for preset %q", QuoteArgs(args), preset.Name),
			"check that the program is installed and on PATH", runErr)
	}

	res.ExitCode = cmd.ProcessState.ExitCode()
	res.Success = res.ExitCode == 0
	return res, nil
}

func (e *CommandExecutor) writeTemp(code, ext string) (string, error) {
	pattern := "mdcr-*"
	if ext != "" {
		pattern += "." + ext
	}
	f, err := os.CreateTemp(e.TempDir, pattern)
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(code); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func extension(preset config.Preset, lang string) string {
	ext := preset.Extension
	if ext == "" {
		ext = strings.ToLower(lang)
	}
	if strings.ContainsAny(ext, `/\`) {
		return ""
	}
	return ext
}

// QuoteArgs joins args into a single shell-quoted command line.
func QuoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		q, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			q = fmt.Sprintf("%q", arg)
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " ")
}
