package config

import "strings"

// DisallowedNamespaceCharacters lists the characters a namespace prefix may
// not contain. A comma or brace would collide with the wire encoding the
// backend and routing layers use to frame namespace-qualified keys.
const DisallowedNamespaceCharacters = ",{}"

// IsValidNamespaceSyntax reports whether prefix avoids every character in
// DisallowedNamespaceCharacters.
func IsValidNamespaceSyntax(prefix string) bool {
	return !strings.ContainsAny(prefix, DisallowedNamespaceCharacters)
}

// NamespaceConfiguration is a single entry of the "sharedDataLayer" JSON
// array: whether namespaces matching Prefix are backed by the database at
// all, and whether notifications are enabled for them.
type NamespaceConfiguration struct {
	Prefix              string
	UseDbBackend        bool
	EnableNotifications bool
	Source              string
}

// NamespaceConfigurations is the longest-prefix-match routing table built
// from every NamespaceConfiguration entry read across all configuration
// sources. A later entry for the same prefix overwrites an earlier one.
type NamespaceConfigurations struct {
	byPrefix map[string]NamespaceConfiguration
}

// NewNamespaceConfigurations returns an empty NamespaceConfigurations.
func NewNamespaceConfigurations() *NamespaceConfigurations {
	return &NamespaceConfigurations{byPrefix: make(map[string]NamespaceConfiguration)}
}

// IsEmpty reports whether no entry has been added yet.
func (n *NamespaceConfigurations) IsEmpty() bool {
	return len(n.byPrefix) == 0
}

// AddNamespaceConfiguration validates and stores entry, overwriting any
// existing entry for the same prefix.
func (n *NamespaceConfigurations) AddNamespaceConfiguration(entry NamespaceConfiguration) error {
	if !IsValidNamespaceSyntax(entry.Prefix) {
		return NewInvalidNamespacePrefixError(entry.Source, entry.Prefix)
	}
	if entry.EnableNotifications && !entry.UseDbBackend {
		return NewInconsistentNotificationsError(entry.Source, entry.Prefix)
	}
	n.byPrefix[entry.Prefix] = entry
	return nil
}

// Lookup returns the NamespaceConfiguration whose prefix is the longest
// match for namespace, or false if no configured prefix matches.
func (n *NamespaceConfigurations) Lookup(namespace string) (NamespaceConfiguration, bool) {
	var best NamespaceConfiguration
	found := false
	for prefix, cfg := range n.byPrefix {
		if !strings.HasPrefix(namespace, prefix) {
			continue
		}
		if !found || len(prefix) > len(best.Prefix) {
			best = cfg
			found = true
		}
	}
	return best, found
}

// Entries returns every configured entry, in no particular order.
func (n *NamespaceConfigurations) Entries() []NamespaceConfiguration {
	out := make([]NamespaceConfiguration, 0, len(n.byPrefix))
	for _, cfg := range n.byPrefix {
		out = append(out, cfg)
	}
	return out
}
