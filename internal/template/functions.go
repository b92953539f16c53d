package template

import (
	"strconv"
	"strings"
	"text/template"
)

// CustomFuncMap returns the custom template functions available in templates.
func CustomFuncMap() template.FuncMap {
	return template.FuncMap{
		"quote": strconv.Quote,
		// key leaves bare TOML/YAML keys as they are and quotes the rest.
		"key": func(s string) string {
			if s == "" || strings.IndexFunc(s, notBareKey) >= 0 {
				return strconv.Quote(s)
			}
			return s
		},
		// list renders strings as a quoted, comma-separated inline array.
		"list": func(items []string) string {
			quoted := make([]string, len(items))
			for i, item := range items {
				quoted[i] = strconv.Quote(item)
			}
			return "[" + strings.Join(quoted, ", ") + "]"
		},
		"first": func(items []string) string {
			if len(items) == 0 {
				return ""
			}
			return items[0]
		},
		"plural": func(items []string) bool {
			return len(items) > 1
		},
	}
}

func notBareKey(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		return false
	}
	return true
}
