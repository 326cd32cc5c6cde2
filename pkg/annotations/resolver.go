package annotations

import "strings"

// Alias maps a name prefix, as written in the text, to its canonical replacement
type Alias struct {
	Prefix    string
	Canonical string
}

// NameResolver maps raw annotation names to canonical names and back using an
// ordered alias table. Resolution is purely textual.
type NameResolver struct {
	aliases []Alias
}

// NewNameResolver creates a resolver over a copy of the given alias table
func NewNameResolver(aliases []Alias) *NameResolver {
	table := make([]Alias, len(aliases))
	copy(table, aliases)
	return &NameResolver{aliases: table}
}

// Resolve replaces the first alias prefix (in table order) that matches raw,
// case-insensitively. Unaliased names are returned unchanged.
func (r *NameResolver) Resolve(raw string) string {
	if r == nil {
		return raw
	}
	for _, alias := range r.aliases {
		if hasPrefixFold(raw, alias.Prefix) {
			return alias.Canonical + raw[len(alias.Prefix):]
		}
	}
	return raw
}

// AliasesOf returns the canonical name together with every aliased spelling
// that resolves to it.
func (r *NameResolver) AliasesOf(canonical string) []string {
	names := []string{canonical}
	if r == nil {
		return names
	}

	seen := map[string]bool{strings.ToLower(canonical): true}
	for _, alias := range r.aliases {
		if !hasPrefixFold(canonical, alias.Canonical) {
			continue
		}
		name := alias.Prefix + canonical[len(alias.Canonical):]
		if key := strings.ToLower(name); !seen[key] {
			seen[key] = true
			names = append(names, name)
		}
	}
	return names
}

// Aliases returns a copy of the alias table
func (r *NameResolver) Aliases() []Alias {
	if r == nil {
		return nil
	}
	table := make([]Alias, len(r.aliases))
	copy(table, r.aliases)
	return table
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
