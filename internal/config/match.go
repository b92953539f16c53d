package config

import "strings"

// PresetsFor returns every preset targeting lang, in configuration order.
// Languages are compared after trimming surrounding whitespace.
func (c *Config) PresetsFor(lang string) []Preset {
	lang = strings.TrimSpace(lang)
	var out []Preset
	for _, p := range c.Presets {
		for _, l := range p.Languages {
			if strings.TrimSpace(l) == lang {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
