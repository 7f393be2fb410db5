// Package signals classifies indicator readings into verdicts using ordered rule cascades.
package signals

import "NSEScan/internal/domain/models"

// Rule pairs a predicate with the verdict it produces. A nil When always matches.
type Rule[T any] struct {
	Name      string
	Label     string
	Sentiment models.Sentiment
	When      func(T) bool
	Reasons   func(T) []string
}

func (r Rule[T]) verdict(in T) models.Verdict {
	v := models.Verdict{Label: r.Label, Sentiment: r.Sentiment, Rule: r.Name}
	if r.Reasons != nil {
		v.Reasons = r.Reasons(in)
	}
	if v.Reasons == nil {
		v.Reasons = []string{}
	}
	return v
}

// Cascade evaluates rules in order; the first match wins and the fallback closes the list.
type Cascade[T any] struct {
	rules    []Rule[T]
	fallback Rule[T]
}

// NewCascade builds a cascade. Rule order is evaluation order.
func NewCascade[T any](fallback Rule[T], rules ...Rule[T]) Cascade[T] {
	return Cascade[T]{rules: rules, fallback: fallback}
}

// Evaluate returns the verdict of the first matching rule.
func (c Cascade[T]) Evaluate(in T) models.Verdict {
	for _, r := range c.rules {
		if r.When == nil || r.When(in) {
			return r.verdict(in)
		}
	}
	return c.fallback.verdict(in)
}

// Names lists rule names in evaluation order, fallback last.
func (c Cascade[T]) Names() []string {
	out := make([]string, 0, len(c.rules)+1)
	for _, r := range c.rules {
		out = append(out, r.Name)
	}
	return append(out, c.fallback.Name)
}
