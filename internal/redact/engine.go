// Package redact finds sensitive spans in OCR lines and projects them onto
// the page image as redaction regions.
//
// Three independent detectors run over every line: a positional address
// heuristic, an adapter over an external NER model, and a table of context
// gated patterns. Their findings are concatenated without merging and each
// one is turned into a full-height slice of the line's bounding box.
//
// Usage:
//
//	e := redact.New(redact.WithRecognizer(nerClient))
//	regions, err := e.Compile(ctx, lines, redact.NewCategorySet("PERSON", "EMAIL"))
package redact

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Engine is created once at startup and shared. All of its state is
// read-only after New returns.
type Engine struct {
	rules      RuleSet
	adapter    EntityAdapter
	recognizer Recognizer
	coalesce   bool
	workers    int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRules replaces the pattern table.
func WithRules(rs RuleSet) Option {
	return func(e *Engine) { e.rules = rs }
}

// WithAccept replaces the entity filter. The default is DefaultDenylist.
func WithAccept(accept AcceptFunc) Option {
	return func(e *Engine) { e.adapter = NewEntityAdapter(accept) }
}

// WithRecognizer sets the NER collaborator. Without one no PERSON findings and
// no model-based ADDRESS findings are produced.
func WithRecognizer(r Recognizer) Option {
	return func(e *Engine) { e.recognizer = r }
}

// WithCoalesce enables interval-union of overlapping findings per line.
// It is off by default: overlapping findings each become a region.
func WithCoalesce(on bool) Option {
	return func(e *Engine) { e.coalesce = on }
}

// WithWorkers sets how many lines Compile processes concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// New creates an Engine with the built-in rule table and denylist.
func New(opts ...Option) *Engine {
	e := &Engine{
		rules:   DefaultRules(),
		adapter: NewEntityAdapter(DefaultDenylist.Accept),
		workers: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the engine's pattern table.
func (e *Engine) Rules() RuleSet { return e.rules }

// Recognizer returns the NER collaborator, or nil when none is set.
func (e *Engine) Recognizer() Recognizer { return e.recognizer }

// With returns a copy of e with opts applied on top of its settings.
func (e *Engine) With(opts ...Option) *Engine {
	c := *e
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// recognize asks the collaborator for entities, treating any failure as an
// empty result.
func (e *Engine) recognize(ctx context.Context, text string) []Entity {
	if e.recognizer == nil {
		return nil
	}
	ents, err := e.recognizer.Recognize(ctx, text)
	if err != nil {
		slog.Warn("redact: recognizer error, skipping entities for line", "err", err)
		return nil
	}
	return ents
}

// Detect runs all detectors over one line of text and returns the fused
// findings.
func (e *Engine) Detect(ctx context.Context, text string, cats CategorySet) []Finding {
	if len(cats) == 0 || text == "" {
		return nil
	}
	heuristic := AddressAfterColon(text, cats)

	var entities []Finding
	if e.adapter.Wants(cats) && !e.adapter.Skip(text) {
		entities = e.adapter.Adapt(text, cats, e.recognize(ctx, text))
	}

	rules := e.rules.Evaluate(text, cats)

	findings := Fuse(heuristic, entities, rules)
	if e.coalesce {
		findings = Coalesce(findings)
	}
	return findings
}

// ProcessLine detects and projects one line.
func (e *Engine) ProcessLine(ctx context.Context, line Line, cats CategorySet) []Region {
	return Project(line, e.Detect(ctx, line.Text, cats))
}

// Compile processes every line of a document and returns the regions in line
// order, and within a line in fusion order. Only cancellation of ctx is
// reported as an error; per-line problems yield no regions for that line.
func (e *Engine) Compile(ctx context.Context, lines []Line, cats CategorySet) ([]Region, error) {
	return e.compile(ctx, len(lines), cats, func(ctx context.Context, i int) []Region {
		return e.ProcessLine(ctx, lines[i], cats)
	})
}

// CompileAnnotated is Compile for lines that may carry their own entities.
// Entities are bound to the line's position, so repeated line texts with
// different entities stay apart. Lines without entities use the engine's
// recognizer.
func (e *Engine) CompileAnnotated(ctx context.Context, lines []AnnotatedLine, cats CategorySet) ([]Region, error) {
	return e.compile(ctx, len(lines), cats, func(ctx context.Context, i int) []Region {
		l := lines[i]
		if l.Entities == nil {
			return e.ProcessLine(ctx, l.Line, cats)
		}
		return e.With(WithRecognizer(Static{l.Text: l.Entities})).ProcessLine(ctx, l.Line, cats)
	})
}

func (e *Engine) compile(ctx context.Context, n int, cats CategorySet, line func(context.Context, int) []Region) ([]Region, error) {
	if unknown := cats.Unknown(); len(unknown) > 0 {
		slog.Debug("redact: ignoring unknown categories", "categories", unknown)
	}

	perLine := make([][]Region, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range n {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perLine[i] = line(gctx, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Region
	for _, rs := range perLine {
		out = append(out, rs...)
	}
	slog.Info("redact: compiled regions",
		"lines", n,
		"regions", len(out),
		"categories", cats.Names(),
	)
	return out, nil
}
