package executor

import (
	"fmt"
	"strings"
)

// ValidateCode checks whether code contains any blocked pattern.
func ValidateCode(code string, blockedPatterns []string) error {
	for _, pattern := range blockedPatterns {
		if pattern != "" && strings.Contains(code, pattern) {
			return fmt.Errorf("code block refused by blocked_patterns: contains %q", pattern)
		}
	}
	return nil
}
