// Package territory loads the country-to-owner routing table. The table is
// loaded once at startup and is read-only afterwards, so concurrent
// pipeline runs can resolve owners without locking.
package territory

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultKey is the required fallback entry of every routing table.
const DefaultKey = "DEFAULT"

// Table maps upper-cased country codes to CRM owner identifiers.
type Table struct {
	owners map[string]string
}

// Load reads a YAML routing table of the form:
//
//	US: us-team@company.com
//	CA: canada-team@company.com
//	DEFAULT: general@company.com
//
// A table without a DEFAULT entry is rejected.
func Load(path string) (*Table, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load routing table %s: %w", path, err)
	}

	owners := make(map[string]string)
	for _, key := range k.Keys() {
		owners[strings.ToUpper(key)] = k.String(key)
	}

	return New(owners)
}

// New builds a table from an explicit mapping, validating the DEFAULT
// entry. Keys are upper-cased.
func New(owners map[string]string) (*Table, error) {
	normalized := make(map[string]string, len(owners))
	for country, owner := range owners {
		if owner == "" {
			return nil, fmt.Errorf("routing table: empty owner for %q", country)
		}
		normalized[strings.ToUpper(country)] = owner
	}

	if _, ok := normalized[DefaultKey]; !ok {
		return nil, fmt.Errorf("routing table: missing required %s entry", DefaultKey)
	}

	return &Table{owners: normalized}, nil
}

// Resolve returns the owner for country, falling back to DEFAULT when
// there is no exact match. matched reports whether the country itself hit.
func (t *Table) Resolve(country string) (owner string, matched bool) {
	if owner, ok := t.owners[strings.ToUpper(strings.TrimSpace(country))]; ok {
		return owner, true
	}
	return t.owners[DefaultKey], false
}

// Countries returns the number of explicit (non-DEFAULT) entries.
func (t *Table) Countries() int {
	n := len(t.owners)
	if _, ok := t.owners[DefaultKey]; ok {
		n--
	}
	return n
}
