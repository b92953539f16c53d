package config

import (
	"github.com/pelletier/go-toml/v2/unstable"
)

// tomlPresetOrder lists preset names in the order they are first declared,
// whether as [presets.<name>] tables, dotted keys or an inline presets table.
// Decoding into a map loses this order; the caller falls back to sorting.
func tomlPresetOrder(data []byte) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	p := unstable.Parser{}
	p.Reset(data)

	var table []string
	for p.NextExpression() {
		expr := p.Expression()
		switch expr.Kind {
		case unstable.Table, unstable.ArrayTable:
			table = keyParts(expr)
			if len(table) >= 2 && table[0] == "presets" {
				add(table[1])
			}
		case unstable.KeyValue:
			key := append(append([]string{}, table...), keyParts(expr)...)
			switch {
			case len(key) >= 2 && key[0] == "presets":
				add(key[1])
			case len(key) == 1 && key[0] == "presets" && expr.Value().Kind == unstable.InlineTable:
				children := expr.Value().Children()
				for children.Next() {
					child := children.Node()
					if child.Kind != unstable.KeyValue {
						continue
					}
					if parts := keyParts(child); len(parts) > 0 {
						add(parts[0])
					}
				}
			}
		}
	}
	if p.Error() != nil {
		return nil
	}
	return names
}

func keyParts(n *unstable.Node) []string {
	var parts []string
	it := n.Key()
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}
