package redact

import (
	"sort"
	"strings"
)

// Category identifies a kind of sensitive data a caller can ask for.
type Category string

const (
	CategoryPerson   Category = "PERSON"
	CategoryAddress  Category = "ADDRESS"
	CategoryEmail    Category = "EMAIL"
	CategoryPhone    Category = "PHONE"
	CategoryDate     Category = "DATE"
	CategoryIDNumber Category = "ID_NUMBER"
	CategoryMCR      Category = "MCR no."
	CategoryNRIC     Category = "NRIC/FIN"
)

// KnownCategories lists every category some detector can produce, in the
// order the front end presents them.
var KnownCategories = []Category{
	CategoryPerson,
	CategoryNRIC,
	CategoryEmail,
	CategoryPhone,
	CategoryMCR,
	CategoryAddress,
	CategoryDate,
	CategoryIDNumber,
}

// Label renders the category as <CATEGORY>.
func (c Category) Label() string { return "<" + string(c) + ">" }

// Known reports whether any detector produces this category.
func (c Category) Known() bool {
	for _, k := range KnownCategories {
		if k == c {
			return true
		}
	}
	return false
}

// CategorySet is the read-only set of categories requested for one document.
// Unknown names are kept but never match a detector.
type CategorySet map[Category]struct{}

// NewCategorySet builds a set from caller-supplied names. Surrounding
// whitespace is trimmed and empty names are dropped.
func NewCategorySet(names ...string) CategorySet {
	s := make(CategorySet, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		s[Category(n)] = struct{}{}
	}
	return s
}

// Has reports whether c was requested.
func (s CategorySet) Has(c Category) bool {
	_, ok := s[c]
	return ok
}

// Unknown returns the requested names no detector can produce, sorted.
func (s CategorySet) Unknown() []string {
	var out []string
	for c := range s {
		if !c.Known() {
			out = append(out, string(c))
		}
	}
	sort.Strings(out)
	return out
}

// Names returns the set contents sorted, for logging and manifests.
func (s CategorySet) Names() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}
