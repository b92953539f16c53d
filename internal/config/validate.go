package config

import (
	"fmt"
	"strings"

	"github.com/fjglira/mdcr/internal/domain"
)

// Validate checks the Config for required fields and valid values.
func Validate(cfg *Config) error {
	var errs []string

	if len(cfg.Presets) == 0 {
		errs = append(errs, "presets must not be empty")
	}

	for i, pattern := range cfg.BlockedPatterns {
		if strings.TrimSpace(pattern) == "" {
			errs = append(errs, fmt.Sprintf("blocked_patterns[%d] must not be empty", i))
		}
	}

	for _, p := range cfg.Presets {
		prefix := fmt.Sprintf("presets.%s", p.Name)
		if len(p.Languages) == 0 {
			errs = append(errs, prefix+".language must not be empty")
		}
		if len(p.Command) == 0 || strings.TrimSpace(p.Command[0]) == "" {
			errs = append(errs, prefix+".command must name a program")
		}
		switch p.InputMode {
		case InputStdin, InputFile:
		default:
			errs = append(errs, fmt.Sprintf("%s.input_mode must be one of: stdin, file (got %q)", prefix, p.InputMode))
		}
		switch p.OutputMode {
		case OutputCheck, OutputReplace:
		default:
			errs = append(errs, fmt.Sprintf("%s.output_mode must be one of: check, replace (got %q)", prefix, p.OutputMode))
		}
		if p.Timeout < 0 {
			errs = append(errs, prefix+".timeout must not be negative")
		}
	}

	if len(errs) > 0 {
		return domain.NewError("config", "", 0, fmt.Sprintf("validation failed: %s", strings.Join(errs, "; ")), nil)
	}

	return nil
}
