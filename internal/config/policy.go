package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gonkalabs/gonka-redact-go/internal/redact"
)

// ErrInvalidPolicy is returned when a policy file cannot be applied.
var ErrInvalidPolicy = errors.New("invalid policy")

// RuleOverride replaces or disables the rule for one category. An omitted
// pattern or context keeps the built-in one; Ungated drops the context gate.
type RuleOverride struct {
	Category string `yaml:"category"`
	Pattern  string `yaml:"pattern"`
	Context  string `yaml:"context"`
	Ungated  bool   `yaml:"ungated"`
	Disabled bool   `yaml:"disabled"`
}

// Policy is the operator-tunable detection policy. The denylist grows as
// false positives are observed in production.
type Policy struct {
	Denylist        []string       `yaml:"denylist"`
	ReplaceDenylist bool           `yaml:"replace_denylist"`
	Rules           []RuleOverride `yaml:"rules"`
}

// LoadPolicy reads a YAML policy file. An empty path yields the zero Policy,
// which keeps every built-in table unchanged.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return &Policy{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	return ParsePolicy(raw)
}

// ParsePolicy decodes a YAML policy document.
func ParsePolicy(raw []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	return &p, nil
}

// EffectiveDenylist merges the policy's terms with the built-in denylist, or
// replaces it when ReplaceDenylist is set.
func (p *Policy) EffectiveDenylist() redact.Denylist {
	if p.ReplaceDenylist {
		return redact.NewDenylist(p.Denylist...)
	}
	return redact.DefaultDenylist.With(p.Denylist...)
}

// RuleSet applies the overrides to the built-in rule table.
func (p *Policy) RuleSet() (redact.RuleSet, error) {
	rules := redact.DefaultRules()
	for _, o := range p.Rules {
		cat := redact.Category(o.Category)
		if !cat.Known() {
			return nil, fmt.Errorf("%w: no pattern rule for category %q", ErrInvalidPolicy, o.Category)
		}
		if o.Disabled {
			rules = rules.Without(cat)
			continue
		}
		if o.Ungated && o.Context != "" {
			return nil, fmt.Errorf("%w: rule %q sets both context and ungated", ErrInvalidPolicy, o.Category)
		}
		pattern, context := o.Pattern, o.Context
		cur, ok := rules.Lookup(cat)
		if pattern == "" {
			if !ok {
				return nil, fmt.Errorf("%w: rule %q needs a pattern", ErrInvalidPolicy, o.Category)
			}
			pattern = cur.Pattern.String()
		}
		if context == "" && !o.Ungated && ok && cur.Gated() {
			context = cur.Context.String()
		}
		r, err := redact.NewRule(cat, pattern, context)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
		}
		rules = rules.With(r)
	}
	return rules, nil
}

// EngineOptions turns the policy and engine settings into redact.Engine options.
func (c *Cfg) EngineOptions(p *Policy) ([]redact.Option, error) {
	rules, err := p.RuleSet()
	if err != nil {
		return nil, err
	}
	return []redact.Option{
		redact.WithRules(rules),
		redact.WithAccept(p.EffectiveDenylist().Accept),
		redact.WithWorkers(c.Workers),
		redact.WithCoalesce(c.Coalesce),
	}, nil
}
