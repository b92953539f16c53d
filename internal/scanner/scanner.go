package scanner

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"

	"github.com/fjglira/mdcr/internal/domain"
)

// Scanner discovers Markdown files for the given targets.
type Scanner interface {
	Scan(targets []string, patterns []string, excludes []string) ([]string, error)
}

// FileScanner implements Scanner using fs.WalkDir.
type FileScanner struct {
	Recursive bool
}

// NewScanner creates a new FileScanner.
func NewScanner(recursive bool) *FileScanner {
	return &FileScanner{Recursive: recursive}
}

// Scan resolves each target: a file is returned as is, a directory is walked
// for paths matching any include pattern and no exclude pattern. The result
// is sorted and free of duplicates.
func (s *FileScanner) Scan(targets []string, patterns []string, excludes []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, target := range targets {
		target = filepath.Clean(target)
		info, err := os.Stat(target)
		if err != nil {
			return nil, domain.NewErrorWithSuggestion("scan", target, 0, "failed to stat target",
				"check that the path exists", err)
		}

		var found []string
		if info.IsDir() {
			rel, err := s.ScanFS(os.DirFS(target), patterns, excludes)
			if err != nil {
				var derr *domain.Error
				if errors.As(err, &derr) && derr.File == "" {
					derr.File = target
				}
				return nil, err
			}
			for _, r := range rel {
				found = append(found, filepath.Join(target, filepath.FromSlash(r)))
			}
		} else {
			found = []string{target}
		}

		for _, f := range found {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// ScanFS walks fsys from its root and returns matching slash-separated paths, sorted.
func (s *FileScanner) ScanFS(fsys fs.FS, patterns []string, excludes []string) ([]string, error) {
	include, err := compile(patterns)
	if err != nil {
		return nil, domain.NewError("scan", "", 0, "invalid include pattern", err)
	}
	exclude, err := compile(excludes)
	if err != nil {
		return nil, domain.NewError("scan", "", 0, "invalid exclude pattern", err)
	}
	files, err := s.walk(fsys, include, exclude)
	if err != nil {
		return nil, domain.NewError("scan", "", 0, "failed to scan directory", err)
	}
	return files, nil
}

func (s *FileScanner) walk(fsys fs.FS, include, exclude []glob.Glob) ([]string, error) {
	var files []string

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if p == "." {
				return nil
			}
			// Skip non-root directories if not recursive
			if !s.Recursive {
				return fs.SkipDir
			}
			if matchAny(exclude, p) || matchAny(exclude, p+"/") {
				return fs.SkipDir
			}
			return nil
		}

		if matchAny(exclude, p) {
			return nil
		}
		if matchAny(include, p) || matchAny(include, path.Base(p)) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func compile(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(filepath.ToSlash(p), '/')
		if err != nil {
			return nil, err
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func matchAny(globs []glob.Glob, p string) bool {
	for _, g := range globs {
		if g.Match(p) {
			return true
		}
	}
	return false
}
