// internal/nlu/analyzer.go

// Package nlu is the deterministic command interpreter for the assistant.
// It turns a raw chat message into an (intent, entities, confidence) triple
// by walking an immutable, priority-ordered rule registry. It performs no
// I/O, keeps no state between calls, and is safe for concurrent use.
package nlu

import "time"

// DefaultShortCircuit is the confidence cutoff above which the resolver
// stops scanning the remaining rules. Rules registered after an accepted
// match that clears this bar are unreachable for that message; the registry
// order accounts for it.
const DefaultShortCircuit = 0.95

// Analyzer resolves messages against a fixed rule registry.
type Analyzer struct {
	rules        []Rule
	shortCircuit float64
	now          func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithRules replaces the default registry. The slice order is the priority.
func WithRules(rules []Rule) Option {
	return func(a *Analyzer) { a.rules = rules }
}

// WithShortCircuit overrides the early-exit confidence cutoff.
func WithShortCircuit(threshold float64) Option {
	return func(a *Analyzer) { a.shortCircuit = threshold }
}

// WithClock injects the reference time used by relative session-date
// parsing. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer builds an Analyzer over DefaultRules unless overridden.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		rules:        DefaultRules(),
		shortCircuit: DefaultShortCircuit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze classifies one message. It is a single greedy pass: rules are
// tried in registration order, a candidate replaces the running best only
// with strictly higher confidence and a passing required-field gate, and the
// scan stops early once the best clears the short-circuit cutoff. Messages
// no rule claims come back as the zero-confidence "unknown" result, which is
// an ordinary outcome, not an error.
func (a *Analyzer) Analyze(message string) Result {
	best := Result{Intent: IntentUnknown}
	now := a.now()

	for _, rule := range a.rules {
		if !rule.matches(message) {
			continue
		}
		entities := rule.Extract(message, now)
		if entities == nil {
			continue
		}
		if rule.Confidence > best.Confidence && (rule.Valid == nil || rule.Valid(entities)) {
			best = Result{
				Intent:     rule.Name,
				Entities:   *entities,
				Confidence: rule.Confidence,
			}
		}
		if best.Confidence > a.shortCircuit {
			break
		}
	}

	return best
}
