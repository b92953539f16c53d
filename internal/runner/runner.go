package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fjglira/mdcr/internal/config"
	"github.com/fjglira/mdcr/internal/domain"
	"github.com/fjglira/mdcr/internal/executor"
	"github.com/fjglira/mdcr/internal/parser"
	"github.com/fjglira/mdcr/internal/resolver"
	"github.com/fjglira/mdcr/internal/rewrite"
	"github.com/fjglira/mdcr/internal/scanner"
)

// ErrRunFailed is returned when at least one file ended in a failing state.
var ErrRunFailed = errors.New("one or more files failed")

// Options controls a single run.
type Options struct {
	Targets   []string
	Include   []string
	Exclude   []string
	CheckOnly bool
	DryRun    bool
	Jobs      int
}

func (o Options) mode() resolver.Mode {
	return resolver.Mode{CheckOnly: o.CheckOnly, DryRun: o.DryRun}
}

// Summary aggregates the per-file results of a run.
type Summary struct {
	Files  []domain.FileResult
	DryRun bool
}

// Failed reports whether the run must exit non-zero. Dry-run never fails.
func (s *Summary) Failed() bool {
	if s.DryRun {
		return false
	}
	for _, f := range s.Files {
		if f.State.Failed() {
			return true
		}
	}
	return false
}

// Count returns how many files ended in state.
func (s *Summary) Count(state domain.FileState) int {
	n := 0
	for _, f := range s.Files {
		if f.State == state {
			n++
		}
	}
	return n
}

// Runner drives extraction, execution, resolution and rewriting per file.
type Runner struct {
	settings *config.Config
	scanner  scanner.Scanner
	registry parser.ParserRegistry
	executor executor.Executor
	log      *logrus.Logger
}

// NewRunner creates a new Runner with all dependencies. settings is shared
// read-only by every worker.
func NewRunner(
	settings *config.Config,
	s scanner.Scanner,
	r parser.ParserRegistry,
	e executor.Executor,
	log *logrus.Logger,
) *Runner {
	return &Runner{
		settings: settings,
		scanner:  s,
		registry: r,
		executor: e,
		log:      log,
	}
}

// Run discovers the target files and processes them concurrently. Per-file
// failures never stop sibling files; they are aggregated in the Summary once
// every worker has finished. The returned error covers discovery only.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	files, err := r.scanner.Scan(opts.Targets, opts.Include, opts.Exclude)
	if err != nil {
		return nil, err
	}

	summary := &Summary{DryRun: opts.DryRun}
	if len(files) == 0 {
		r.log.Warn("No markdown files found")
		return summary, nil
	}
	r.log.Infof("Found %d markdown file(s)", len(files))

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	results := make([]domain.FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			results[i] = r.ProcessFile(gctx, file, opts)
			return nil
		})
	}
	// Workers record their errors in results and never fail the group.
	_ = g.Wait()

	summary.Files = results
	return summary, nil
}

// ProcessFile runs every matching preset against every block of path, in
// document order then configuration order, and applies the buffered
// replacements once all blocks are resolved.
func (r *Runner) ProcessFile(ctx context.Context, path string, opts Options) domain.FileResult {
	result := domain.FileResult{Path: path}
	mode := opts.mode()
	log := r.log.WithField("file", path)

	content, err := os.ReadFile(path)
	if err != nil {
		return r.fail(result, opts, domain.NewError("parse", path, 0, "failed to read file", err))
	}

	p, err := r.registry.ParserFor(filepath.Ext(path))
	if err != nil {
		return r.fail(result, opts, domain.NewError("parse", path, 0, "no parser for file", err))
	}
	doc, err := p.Parse(path, content)
	if err != nil {
		return r.fail(result, opts, err)
	}
	result.Lines = doc.LineCount
	result.Blocks = len(doc.Blocks)
	log.Debugf("Found %d code block(s) in %d line(s)", len(doc.Blocks), doc.LineCount)

	buf := rewrite.NewBuffer()
	for _, block := range doc.Blocks {
		for _, preset := range r.settings.PresetsFor(block.Language) {
			if err := ctx.Err(); err != nil {
				return r.fail(result, opts, domain.NewError("exec", path, block.StartLine+1, "run cancelled", err))
			}

			fields := logrus.Fields{
				"lines":    block.Lines(),
				"preset":   preset.Name,
				"language": block.Language,
			}
			log.WithFields(fields).Debugf("Processing preset `%s` for language `%s` in mode `%s`",
				preset.Name, block.Language, preset.OutputMode)

			res, err := r.executor.Execute(ctx, executor.Request{Preset: preset, Language: block.Language, Code: block.Code})
			if err != nil {
				if opts.DryRun {
					result.Failures++
					log.WithFields(fields).Warnf("Error executing command for preset `%s` in `%s`: %v", preset.Name, path, err)
					continue
				}
				return r.fail(result, opts, fmt.Errorf("preset %q, lines %s: %w", preset.Name, block.Lines(), err))
			}

			outcome := resolver.Resolve(path, block, preset, res, mode)
			r.record(&result, buf, log.WithFields(fields), outcome, res)
		}
	}

	result.Replacements = buf.Len()
	result.State = r.decide(result, opts)

	if result.State == domain.Updated {
		for file, reps := range rewrite.GroupByFile(buf.Replacements()) {
			if _, err := rewrite.ApplyToFile(file, content, reps); err != nil {
				return r.fail(result, opts, err)
			}
			log.Infof("Updated: %s", file)
		}
	}

	switch result.State {
	case domain.NoChangeNeeded:
		log.Debugf("No changes needed for file: %s", path)
	case domain.CheckFailed:
		log.Errorf("Code block mismatch detected in file: %s", path)
	case domain.CommandFailed:
		log.Errorf("Error(s) while executing commands in file: %s", path)
	}

	return result
}

func (r *Runner) record(result *domain.FileResult, buf *rewrite.Buffer, log *logrus.Entry, outcome resolver.Outcome, res *executor.Result) {
	switch outcome.Action {
	case resolver.Pass:
		log.Debug("Skipping code block, content matches output.")
	case resolver.CommandFailure:
		result.Failures++
		log.WithField("exit_code", res.ExitCode).WithField("stderr", res.Stderr).Error(outcome.Message)
	case resolver.CommandWarned:
		result.Failures++
		log.WithField("exit_code", res.ExitCode).WithField("stderr", res.Stderr).Warn(outcome.Message)
	case resolver.MismatchReported:
		result.Mismatches++
		log.Error(outcome.Message)
		log.Infof("Expected content:\n%s", outcome.Diff)
	case resolver.MismatchWarned:
		result.Mismatches++
		log.Warn(outcome.Message)
		log.Infof("Expected content:\n%s", outcome.Diff)
	case resolver.Replace:
		result.Mismatches++
		log.Info(outcome.Message)
		log.Debugf("Replacing content:\n%s", outcome.Diff)
		buf.Add(*outcome.Replacement)
	}
}

// decide picks the terminal state once every block has been resolved.
// Any command failure keeps the file untouched.
func (r *Runner) decide(result domain.FileResult, opts Options) domain.FileState {
	switch {
	case opts.DryRun:
		if result.Mismatches > 0 || result.Failures > 0 {
			return domain.DryRunReported
		}
		return domain.NoChangeNeeded
	case result.Failures > 0:
		return domain.CommandFailed
	case opts.CheckOnly && result.Mismatches > 0:
		return domain.CheckFailed
	case result.Replacements > 0:
		return domain.Updated
	default:
		return domain.NoChangeNeeded
	}
}

func (r *Runner) fail(result domain.FileResult, opts Options, err error) domain.FileResult {
	result.Err = err
	if opts.DryRun {
		result.State = domain.DryRunReported
		r.log.WithField("file", result.Path).Warn(err)
		return result
	}
	result.State = domain.Errored
	r.log.WithField("file", result.Path).Error(err)
	return result
}
