// Package rule defines the rule data model: questions, dependency
// sets, prioritized rules with their firing contract, and the RuleSet
// index the resolution engine draws candidates from.
package rule

import (
	"sort"

	"github.com/roach88/sibyl/internal/answer"
)

// Question identifies a fact slot. Opaque to the engine; the predicate
// and rule-file syntaxes constrain the spelling.
type Question string

// Dependencies is the set of questions consulted while deriving an
// answer. It is provenance: the fact store evicts a cached answer when
// any question in its dependency set changes.
type Dependencies map[Question]struct{}

// NewDependencies creates a dependency set from the given questions.
func NewDependencies(questions ...Question) Dependencies {
	d := make(Dependencies, len(questions))
	for _, q := range questions {
		d[q] = struct{}{}
	}
	return d
}

// Add records a single question.
func (d Dependencies) Add(q Question) {
	d[q] = struct{}{}
}

// AddAll merges another dependency set into this one.
func (d Dependencies) AddAll(other Dependencies) {
	for q := range other {
		d[q] = struct{}{}
	}
}

// Contains reports whether q is in the set.
func (d Dependencies) Contains(q Question) bool {
	_, ok := d[q]
	return ok
}

// Clone returns an independent copy of the set.
func (d Dependencies) Clone() Dependencies {
	c := make(Dependencies, len(d))
	for q := range d {
		c[q] = struct{}{}
	}
	return c
}

// Sorted returns the questions in lexical order. Used wherever the
// set must serialize or display deterministically.
func (d Dependencies) Sorted() []Question {
	qs := make([]Question, 0, len(d))
	for q := range d {
		qs = append(qs, q)
	}
	sort.Slice(qs, func(i, j int) bool { return qs[i] < qs[j] })
	return qs
}

// SortedStrings is Sorted with plain string elements, for encoding.
func (d Dependencies) SortedStrings() []string {
	qs := d.Sorted()
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = string(q)
	}
	return out
}

// AnswerWithDependencies pairs a derived answer with the exact set of
// questions consulted to produce it. This is the unit the fact store
// caches and the resolution engine returns.
type AnswerWithDependencies struct {
	Answer       answer.Answer
	Dependencies Dependencies
}
