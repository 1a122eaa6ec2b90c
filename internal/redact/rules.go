package redact

import (
	"fmt"
	"regexp"
)

// Rule is one entry of the pattern table. When Context is non-nil it must
// match somewhere in the line before Pattern is evaluated at all.
type Rule struct {
	Category Category
	Pattern  *regexp.Regexp
	Context  *regexp.Regexp
}

// NewRule compiles a rule. An empty context leaves the rule ungated.
func NewRule(category Category, pattern, context string) (Rule, error) {
	p, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("redact: rule %s: pattern: %w", category, err)
	}
	r := Rule{Category: category, Pattern: p}
	if context != "" {
		c, err := regexp.Compile(context)
		if err != nil {
			return Rule{}, fmt.Errorf("redact: rule %s: context: %w", category, err)
		}
		r.Context = c
	}
	return r, nil
}

func mustRule(category Category, pattern, context string) Rule {
	r, err := NewRule(category, pattern, context)
	if err != nil {
		panic(err)
	}
	return r
}

// Gated reports whether the rule needs a context match.
func (r Rule) Gated() bool { return r.Context != nil }

// Applies reports whether the rule's precondition holds for text.
func (r Rule) Applies(text string) bool {
	return r.Context == nil || r.Context.MatchString(text)
}

const (
	phonePattern = `(\b[689]\d{3}[\s-]?\d{4}\b)|(\+[\d\s\-\(\)]{7,17}\d\b)`
	datePattern  = `(?i)\b(?:dob|birth)\b[^\dA-Za-z]{0,5}((?:\d{1,2}[./-]\d{1,2}[./-]\d{2,4})|(?:\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s\d{1,2},?\s\d{2,4}\b))`
	idPattern    = `(?i)\b(?:[A-Z]{2}\d{6}|\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{3,4})\b`
)

// RuleSet is the ordered rule table. It is read-only once built and safe to
// share between goroutines.
type RuleSet []Rule

// DefaultRules returns the built-in table. PHONE is deliberately ungated:
// any digit run of the right shape is redacted, trading precision for
// recall on letterheads that carry no "tel" keyword.
func DefaultRules() RuleSet {
	return RuleSet{
		mustRule(CategoryNRIC, `(?i)\b[STFGM]\d{7}[A-Z]\b`, `(?i)\b(?:nric|fin|passport)\b`),
		mustRule(CategoryMCR, `\b\d{6}\b`, `(?i)mcr`),
		mustRule(CategoryEmail, `(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`, ""),
		mustRule(CategoryPhone, phonePattern, ""),
		mustRule(CategoryDate, datePattern, `(?i)\b(?:date|birth|dob)\b`),
		mustRule(CategoryIDNumber, idPattern, `(?i)\b(?:med\. number|ihi|id)\b`),
	}
}

// Lookup returns the rule for category, if present.
func (rs RuleSet) Lookup(category Category) (Rule, bool) {
	for _, r := range rs {
		if r.Category == category {
			return r, true
		}
	}
	return Rule{}, false
}

// With returns a copy of rs where the rule for r.Category is replaced by r,
// or r is appended when the category has no rule yet.
func (rs RuleSet) With(r Rule) RuleSet {
	out := make(RuleSet, 0, len(rs)+1)
	replaced := false
	for _, cur := range rs {
		if cur.Category == r.Category {
			out = append(out, r)
			replaced = true
			continue
		}
		out = append(out, cur)
	}
	if !replaced {
		out = append(out, r)
	}
	return out
}

// Without returns a copy of rs with the rule for category removed.
func (rs RuleSet) Without(category Category) RuleSet {
	out := make(RuleSet, 0, len(rs))
	for _, cur := range rs {
		if cur.Category != category {
			out = append(out, cur)
		}
	}
	return out
}

// Evaluate runs every requested rule over text and returns one finding per
// non-overlapping match, in table order.
func (rs RuleSet) Evaluate(text string, cats CategorySet) []Finding {
	if text == "" {
		return nil
	}
	var out []Finding
	for _, r := range rs {
		if !cats.Has(r.Category) || !r.Applies(text) {
			continue
		}
		for _, m := range r.Pattern.FindAllStringIndex(text, -1) {
			out = append(out, Finding{
				Start:    runeOffset(text, m[0]),
				End:      runeOffset(text, m[1]),
				Category: r.Category,
			})
		}
	}
	return out
}
