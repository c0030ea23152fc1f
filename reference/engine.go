package reference

import (
	"sort"
	"strings"

	"github.com/dhamidi/plugref/graph"
)

type anchor struct {
	pattern  Pattern
	strategy Strategy
}

// Engine dispatches sites to strategies. Anchors are tried in order; the
// first pattern that accepts a site decides its strategy.
type Engine struct {
	anchors []anchor
}

// NewEngine builds an engine from strategies, keeping their order and the
// order of each strategy's patterns.
func NewEngine(strategies ...Strategy) *Engine {
	e := &Engine{}
	for _, s := range strategies {
		for _, p := range s.Patterns() {
			e.anchors = append(e.anchors, anchor{pattern: p, strategy: s})
		}
	}
	return e
}

// DefaultEngine returns an engine with every built-in strategy.
func DefaultEngine() *Engine {
	return NewEngine(
		CommandStrategy{},
		PluginIDStrategy{},
		AssetStrategy{},
		AccessorStrategy{},
		InvokerStrategy{},
		MainClassStrategy{},
	)
}

// Strategies returns the engine's strategies in anchor order.
func (e *Engine) Strategies() []Strategy {
	var result []Strategy
	seen := make(map[Category]bool)
	for _, a := range e.anchors {
		if !seen[a.strategy.Category()] {
			seen[a.strategy.Category()] = true
			result = append(result, a.strategy)
		}
	}
	return result
}

// Match returns the strategy owning site and the pattern that matched.
func (e *Engine) Match(g graph.Accessor, site *Site) (Strategy, Pattern, bool) {
	if site == nil {
		return nil, Pattern{}, false
	}
	for _, a := range e.anchors {
		if a.pattern.Match(g, site) {
			return a.strategy, a.pattern, true
		}
	}
	return nil, Pattern{}, false
}

// Resolve resolves site with its owning strategy.
func (e *Engine) Resolve(g graph.Accessor, site *Site) (Category, []Target) {
	s, _, ok := e.Match(g, site)
	if !ok {
		return "", nil
	}
	return s.Category(), s.Resolve(g, site)
}

// IsUnresolved reports whether site is a reference its strategy cannot
// resolve. Sites no strategy owns are never unresolved.
func (e *Engine) IsUnresolved(g graph.Accessor, site *Site) bool {
	s, _, ok := e.Match(g, site)
	if !ok {
		return false
	}
	return s.IsUnresolved(g, site)
}

// Complete collects the owning strategy's variants, drops repeated lookup
// texts and orders the rest by descending priority. Variants of equal
// priority keep the strategy's order.
func (e *Engine) Complete(g graph.Accessor, site *Site) []Variant {
	s, _, ok := e.Match(g, site)
	if !ok {
		return nil
	}
	return collect(s.CollectVariants(g, site))
}

// CompleteAt is Complete restricted to variants starting with prefix.
// Matching ignores case.
func (e *Engine) CompleteAt(g graph.Accessor, site *Site, prefix string) []Variant {
	all := e.Complete(g, site)
	if prefix == "" {
		return all
	}
	lower := strings.ToLower(prefix)
	var result []Variant
	for _, v := range all {
		if strings.HasPrefix(strings.ToLower(v.Text), lower) {
			result = append(result, v)
		}
	}
	return result
}

func collect(variants []Variant) []Variant {
	seen := make(map[string]bool, len(variants))
	result := make([]Variant, 0, len(variants))
	for _, v := range variants {
		if v.Text == "" || seen[v.Text] {
			continue
		}
		seen[v.Text] = true
		result = append(result, v)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority > result[j].Priority
	})
	return result
}
