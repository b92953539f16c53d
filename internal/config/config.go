package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/fjglira/mdcr/internal/domain"
)

// InputMode selects how a block's code reaches the command.
type InputMode string

const (
	InputStdin InputMode = "stdin"
	InputFile  InputMode = "file"
)

// OutputMode selects how the command's result is interpreted.
type OutputMode string

const (
	OutputCheck   OutputMode = "check"
	OutputReplace OutputMode = "replace"
)

// Config is the top-level configuration, read-only once loaded.
type Config struct {
	Presets []Preset
	// BlockedPatterns refuses to run any block whose code contains one of them.
	BlockedPatterns []string
}

// Preset is one named rule mapping languages to an external command.
type Preset struct {
	Name       string
	Languages  []string
	Command    []string
	InputMode  InputMode
	OutputMode OutputMode
	Timeout    time.Duration
	Extension  string
}

// Language returns the preset's primary configured language.
func (p Preset) Language() string {
	if len(p.Languages) == 0 {
		return ""
	}
	return strings.TrimSpace(p.Languages[0])
}

// rawPreset mirrors the on-disk schema before normalization. language,
// languages and command accept either a string or a list; timeout a
// duration string or a number of seconds.
type rawPreset struct {
	Language   interface{} `yaml:"language" toml:"language"`
	Languages  interface{} `yaml:"languages" toml:"languages"`
	Command    interface{} `yaml:"command" toml:"command"`
	InputMode  string      `yaml:"input_mode" toml:"input_mode"`
	OutputMode string      `yaml:"output_mode" toml:"output_mode"`
	Mode       string      `yaml:"mode" toml:"mode"`
	Timeout    interface{} `yaml:"timeout" toml:"timeout"`
	Extension  string      `yaml:"extension" toml:"extension"`
}

// Load reads a configuration file and returns a Config. The format is chosen
// by extension: .yaml, .yml and .json are decoded as YAML, everything else as TOML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewErrorWithSuggestion("config", path, 0, "failed to read config file",
			"pass an existing file with --config, or create one with `mdcr init`", err)
	}

	format := "toml"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		format = "yaml"
	}

	cfg, err := Parse(data, format)
	if err != nil {
		return nil, domain.NewError("config", path, 0, "failed to parse config file", err)
	}
	return cfg, nil
}

// Parse decodes configuration data in the given format ("toml" or "yaml").
func Parse(data []byte, format string) (*Config, error) {
	var (
		names   []string
		raws    map[string]rawPreset
		blocked []string
		err     error
	)

	switch format {
	case "yaml", "json":
		names, raws, blocked, err = parseYAML(data)
	case "toml":
		names, raws, blocked, err = parseTOML(data)
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	cfg.BlockedPatterns = blocked
	for _, name := range names {
		p, err := raws[name].normalize(name)
		if err != nil {
			return nil, err
		}
		cfg.Presets = append(cfg.Presets, p)
	}
	return cfg, nil
}

func parseYAML(data []byte) ([]string, map[string]rawPreset, []string, error) {
	var doc struct {
		Presets         yaml.Node `yaml:"presets"`
		BlockedPatterns []string  `yaml:"blocked_patterns"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, nil, err
	}

	raws := make(map[string]rawPreset)
	node := &doc.Presets
	if node.Kind == 0 {
		return nil, raws, doc.BlockedPatterns, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, nil, nil, fmt.Errorf("line %d: presets must be a mapping of name to preset", node.Line)
	}

	var names []string
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		var raw rawPreset
		if err := node.Content[i+1].Decode(&raw); err != nil {
			return nil, nil, nil, fmt.Errorf("preset %q: %w", name, err)
		}
		if _, dup := raws[name]; !dup {
			names = append(names, name)
		}
		raws[name] = raw
	}
	return names, raws, doc.BlockedPatterns, nil
}

func parseTOML(data []byte) ([]string, map[string]rawPreset, []string, error) {
	var doc struct {
		Presets         map[string]rawPreset `toml:"presets"`
		BlockedPatterns []string             `toml:"blocked_patterns"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, nil, nil, fmt.Errorf("TOML parse error at line %d, column %d: %w", row, col, err)
		}
		return nil, nil, nil, err
	}
	if doc.Presets == nil {
		doc.Presets = make(map[string]rawPreset)
	}
	return orderedNames(tomlPresetOrder(data), doc.Presets), doc.Presets, doc.BlockedPatterns, nil
}

// orderedNames returns the keys of raws following order; keys missing from
// order are appended sorted by name.
func orderedNames(order []string, raws map[string]rawPreset) []string {
	seen := make(map[string]bool, len(raws))
	names := make([]string, 0, len(raws))
	for _, name := range order {
		if _, ok := raws[name]; ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	var rest []string
	for name := range raws {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

func (r rawPreset) normalize(name string) (Preset, error) {
	p := Preset{
		Name:       name,
		InputMode:  InputMode(strings.ToLower(strings.TrimSpace(r.InputMode))),
		OutputMode: OutputMode(strings.ToLower(strings.TrimSpace(r.OutputMode))),
		Extension:  strings.TrimPrefix(strings.TrimSpace(r.Extension), "."),
	}

	// "string" is what older configs call stdin input; "mode" is the old output_mode key.
	switch p.InputMode {
	case "":
		p.InputMode = InputStdin
	case "string":
		p.InputMode = InputStdin
	}
	if p.OutputMode == "" {
		p.OutputMode = OutputMode(strings.ToLower(strings.TrimSpace(r.Mode)))
	}
	if p.OutputMode == "" {
		p.OutputMode = OutputReplace
	}

	langs, err := stringList(r.Language)
	if err != nil {
		return Preset{}, fmt.Errorf("preset %q: language: %w", name, err)
	}
	more, err := stringList(r.Languages)
	if err != nil {
		return Preset{}, fmt.Errorf("preset %q: languages: %w", name, err)
	}
	for _, l := range append(langs, more...) {
		if l = strings.TrimSpace(l); l != "" {
			p.Languages = append(p.Languages, l)
		}
	}

	switch c := r.Command.(type) {
	case nil:
	case string:
		p.Command, err = shlex.Split(c)
		if err != nil {
			return Preset{}, fmt.Errorf("preset %q: command: %w", name, err)
		}
	default:
		p.Command, err = stringList(c)
		if err != nil {
			return Preset{}, fmt.Errorf("preset %q: command: %w", name, err)
		}
	}

	p.Timeout, err = duration(r.Timeout)
	if err != nil {
		return Preset{}, fmt.Errorf("preset %q: timeout: %w", name, err)
	}

	return p, nil
}

// stringList accepts a string or a list of strings.
func stringList(v interface{}) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{t}, nil
	case []string:
		return t, nil
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected a string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a string or a list of strings, got %T", v)
	}
}

// duration accepts a Go duration string ("30s", "1m30s") or a bare number of
// seconds. Empty and zero mean no timeout.
func duration(v interface{}) (time.Duration, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case string:
		t = strings.TrimSpace(t)
		if t == "" || t == "0" {
			return 0, nil
		}
		d, err := time.ParseDuration(t)
		if err != nil {
			return 0, fmt.Errorf("must be a duration string like \"30s\": %w", err)
		}
		return d, nil
	case int:
		return time.Duration(t) * time.Second, nil
	case int64:
		return time.Duration(t) * time.Second, nil
	case uint64:
		return time.Duration(t) * time.Second, nil
	case float64:
		return time.Duration(t * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("must be a duration string like \"30s\" or a number of seconds, got %T", v)
	}
}
