package redact

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Entity is one span reported by the NER collaborator. Offsets are character
// offsets into the text that was recognized.
type Entity struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"`
	Text  string `json:"text,omitempty"`
}

// Recognizer is the NER collaborator. Implementations must be safe for
// concurrent use. A returned error is treated as "no entities" for the line.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
}

// RecognizerFunc adapts a function to Recognizer.
type RecognizerFunc func(ctx context.Context, text string) ([]Entity, error)

func (f RecognizerFunc) Recognize(ctx context.Context, text string) ([]Entity, error) {
	return f(ctx, text)
}

// Static serves precomputed entities keyed by line text. Lines it does not
// know yield no entities.
type Static map[string][]Entity

func (s Static) Recognize(_ context.Context, text string) ([]Entity, error) {
	return s[text], nil
}

var (
	personLabels  = map[string]bool{"PERSON": true, "PER": true}
	addressLabels = map[string]bool{"ORG": true, "GPE": true, "LOC": true, "LOCATION": true}
)

// NormalizeLabel maps a model label onto the fused category it feeds, or ""
// when the label is not used.
func NormalizeLabel(label string) Category {
	switch {
	case personLabels[label]:
		return CategoryPerson
	case addressLabels[label]:
		return CategoryAddress
	}
	return ""
}

// AcceptFunc decides whether a candidate entity text should be kept for the
// given category.
type AcceptFunc func(candidate string, category Category) bool

// AcceptAll keeps every candidate.
func AcceptAll(string, Category) bool { return true }

// Denylist is a set of lower-cased terms the model is known to mis-tag.
type Denylist map[string]struct{}

// DefaultDenylist holds salutations, role nouns and form boilerplate that the
// model tags as PERSON or GPE on medical letters.
var DefaultDenylist = NewDenylist(
	"patient", "patient's", "doctor", "doctor's", "medical", "report",
	"particulars", "name", "age", "mcr", "nric", "fin",
	"passport", "hospital", "clinic", "visit", "date", "birth",
	"event", "registration", "team", "coordinator", "relations",
	"dear",
)

// fold lower-cases s. A cases.Caser holds state, so each call gets its own.
func fold(s string) string { return cases.Lower(language.Und).String(s) }

// NewDenylist builds a denylist, lower-casing every term.
func NewDenylist(terms ...string) Denylist {
	d := make(Denylist, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		d[fold(t)] = struct{}{}
	}
	return d
}

// With returns a new denylist holding d's terms plus terms.
func (d Denylist) With(terms ...string) Denylist {
	out := make(Denylist, len(d)+len(terms))
	for t := range d {
		out[t] = struct{}{}
	}
	for t := range NewDenylist(terms...) {
		out[t] = struct{}{}
	}
	return out
}

// Contains reports whether the lower-cased candidate is listed.
func (d Denylist) Contains(candidate string) bool {
	_, ok := d[fold(candidate)]
	return ok
}

// Accept implements AcceptFunc: anything not listed is trusted.
func (d Denylist) Accept(candidate string, _ Category) bool {
	return !d.Contains(candidate)
}

// EntityAdapter turns NER output into PERSON and ADDRESS findings.
type EntityAdapter struct {
	Accept AcceptFunc
}

// NewEntityAdapter returns an adapter filtering through accept. A nil accept
// keeps every entity.
func NewEntityAdapter(accept AcceptFunc) EntityAdapter {
	if accept == nil {
		accept = AcceptAll
	}
	return EntityAdapter{Accept: accept}
}

// Skip reports whether the model should not be run on text at all: lines
// holding an '@' are left to the email rule.
func (EntityAdapter) Skip(text string) bool {
	return strings.Contains(text, "@")
}

// Wants reports whether any category the adapter can produce was requested.
func (EntityAdapter) Wants(cats CategorySet) bool {
	return cats.Has(CategoryPerson) || cats.Has(CategoryAddress)
}

// Adapt converts entities recognized in text into findings.
func (a EntityAdapter) Adapt(text string, cats CategorySet, ents []Entity) []Finding {
	if a.Skip(text) || len(ents) == 0 {
		return nil
	}
	accept := a.Accept
	if accept == nil {
		accept = AcceptAll
	}
	n := len([]rune(text))
	var out []Finding
	for _, e := range ents {
		cat := NormalizeLabel(e.Label)
		if cat == "" || !cats.Has(cat) {
			continue
		}
		if e.Start < 0 || e.End > n || e.Start >= e.End {
			continue
		}
		if !accept(substring(text, e.Start, e.End), cat) {
			continue
		}
		out = append(out, Finding{Start: e.Start, End: e.End, Category: cat})
	}
	return out
}

// substring slices s by rune offsets.
func substring(s string, start, end int) string {
	r := []rune(s)
	return string(r[start:end])
}
