package executor

import (
	"os"
	"path/filepath"
	"strings"
)

// StdinMarker stands in for {file} when the code is piped to the command.
const StdinMarker = "stdin"

// Placeholders holds the per-invocation values substituted into a command template.
type Placeholders struct {
	File   string
	Lang   string
	TmpDir string
}

// NewPlaceholders derives the placeholder values for file and lang.
func NewPlaceholders(file, lang string) Placeholders {
	return Placeholders{File: file, Lang: lang, TmpDir: os.TempDir()}
}

// Vars returns the substitution table keyed by placeholder token.
func (p Placeholders) Vars() map[string]string {
	dir := filepath.Dir(p.File)
	if !strings.ContainsRune(p.File, filepath.Separator) {
		dir = ""
	}
	return map[string]string{
		"{file}":     p.File,
		"{lang}":     p.Lang,
		"{basename}": filepath.Base(p.File),
		"{dirname}":  dir,
		"{suffix}":   strings.TrimPrefix(filepath.Ext(p.File), "."),
		"{tmpdir}":   p.TmpDir,
	}
}

// Expand substitutes placeholders in every argument of template.
// Unknown tokens are left untouched.
func Expand(template []string, p Placeholders) []string {
	pairs := make([]string, 0, 12)
	for token, value := range p.Vars() {
		pairs = append(pairs, token, value)
	}
	r := strings.NewReplacer(pairs...)

	args := make([]string, len(template))
	for i, arg := range template {
		args[i] = r.Replace(arg)
	}
	return args
}
