// Package engine implements the resolution core: the Facts store with
// its dependency-tracked answer cache, and the Brain that selects and
// fires the winning rule for a question.
//
// Facts and Brain are mutually recursive - evaluating a candidate's
// predicate may require answering other questions through the same
// Facts instance - so they live in one package and thread an explicit
// resolution path through the call tree for cycle detection.
package engine

import (
	"log/slog"
	"sort"

	"github.com/roach88/sibyl/internal/answer"
	"github.com/roach88/sibyl/internal/rule"
)

// Recorder receives resolution events for journaling. Implementations
// must not fail the resolution; a recorder that cannot persist an
// event should log and drop it. A nil recorder disables journaling.
type Recorder interface {
	// GivenHit records a question answered directly from a given fact.
	GivenHit(q rule.Question, a answer.Answer)

	// CacheHit records a question answered from the inferred cache.
	CacheHit(q rule.Question, awd rule.AnswerWithDependencies)

	// Resolved records a fresh derivation: the winning rule's priority
	// and the produced answer with its dependency set.
	Resolved(q rule.Question, priority int, awd rule.AnswerWithDependencies)

	// Evicted records an inferred cache entry removed because cause
	// changed (directly or transitively).
	Evicted(q rule.Question, cause rule.Question)

	// Failed records a resolution that returned an error.
	Failed(q rule.Question, err error)
}

// Facts is the authoritative store of given facts plus a memoizing
// cache of inferred answers tagged with their exact dependency sets.
//
// INVARIANTS:
//   - A given fact for Q always shadows an inferred entry for Q.
//   - Every cached inferred entry is consistent with the current given
//     facts: asserting or forgetting Q evicts every entry whose
//     dependency set contains Q, directly or transitively.
//   - Recorded dependency sets are exact: the questions consulted
//     while deriving the answer, nothing more, nothing less.
//   - Failed resolutions are never cached.
//
// Thread-safety model: a Facts instance assumes a single writer.
// Answer populates the cache with a read-then-write sequence, so
// concurrent Assert/Forget/Answer calls require external mutual
// exclusion. Cycle tracking is scoped per in-flight resolution and is
// never shared, so independent Facts instances are fully isolated.
type Facts struct {
	given    map[rule.Question]answer.Answer
	inferred map[rule.Question]rule.AnswerWithDependencies
	brain    Brain
	recorder Recorder
	logger   *slog.Logger
}

// Option configures a Facts instance.
type Option func(*Facts)

// WithRecorder attaches a resolution journal.
func WithRecorder(r Recorder) Option {
	return func(f *Facts) {
		f.recorder = r
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(f *Facts) {
		f.logger = l
	}
}

// New creates a Facts instance seeded with the given facts. The map is
// copied; nil is a valid empty seed.
func New(given map[rule.Question]answer.Answer, opts ...Option) *Facts {
	f := &Facts{
		given:    make(map[rule.Question]answer.Answer, len(given)),
		inferred: make(map[rule.Question]rule.AnswerWithDependencies),
		logger:   slog.Default(),
	}
	for q, a := range given {
		f.given[q] = a
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Assert sets or overwrites a given fact, then evicts every inferred
// entry whose dependency set contains q directly or transitively: if A
// depends on B and B depends on C, asserting C evicts both A and B.
func (f *Facts) Assert(q rule.Question, a answer.Answer) {
	f.given[q] = a
	f.logger.Info("fact asserted", "question", q, "answer", a.String())
	f.invalidate(q)
}

// Forget removes a given fact. Triggers the same cascading
// invalidation as Assert; forgetting an unknown question is a no-op
// apart from the cascade.
func (f *Facts) Forget(q rule.Question) {
	delete(f.given, q)
	f.logger.Info("fact forgotten", "question", q)
	f.invalidate(q)
}

// Answer resolves a question: given fact first, then the inferred
// cache, then a fresh derivation through the Brain. Successful
// derivations are cached with their exact dependency set; failures are
// returned without caching, so the question can be retried once the
// relevant facts change.
func (f *Facts) Answer(q rule.Question, rules *rule.RuleSet) (rule.AnswerWithDependencies, error) {
	awd, err := f.answerOn(q, rules, newResolutionPath())
	if err != nil {
		if f.recorder != nil {
			f.recorder.Failed(q, err)
		}
		return rule.AnswerWithDependencies{}, err
	}
	return awd, nil
}

// answerOn is the recursive resolution entry point. The path carries
// the questions currently in flight on this call tree; Brain threads
// it back in when predicates descend into sub-questions.
func (f *Facts) answerOn(q rule.Question, rules *rule.RuleSet, path *resolutionPath) (rule.AnswerWithDependencies, error) {
	// Given facts are authoritative and carry no dependencies.
	if a, ok := f.given[q]; ok {
		f.logger.Debug("given fact hit", "question", q)
		if f.recorder != nil {
			f.recorder.GivenHit(q, a)
		}
		return rule.AnswerWithDependencies{Answer: a, Dependencies: rule.NewDependencies()}, nil
	}

	if awd, ok := f.inferred[q]; ok {
		f.logger.Debug("inferred cache hit", "question", q, "dependencies", awd.Dependencies.SortedStrings())
		if f.recorder != nil {
			f.recorder.CacheHit(q, awd)
		}
		return awd, nil
	}

	if path.contains(q) {
		chain := path.chain(q)
		f.logger.Debug("cycle detected", "question", q, "chain", chainStrings(chain))
		return rule.AnswerWithDependencies{}, NewCycleError(q, chain)
	}

	path.push(q)
	awd, err := f.brain.resolve(q, rules, f, path)
	path.pop()
	if err != nil {
		// Never cache a failure: a later Assert may make q resolvable.
		return rule.AnswerWithDependencies{}, err
	}

	// Cache only after the whole derivation succeeded, so no partially
	// resolved state is ever observable.
	f.inferred[q] = awd
	return awd, nil
}

// Reset drops the inferred cache, starting a clean evaluation session.
// Given facts are retained.
func (f *Facts) Reset() {
	f.inferred = make(map[rule.Question]rule.AnswerWithDependencies)
}

// Given returns the given fact for q, if present.
func (f *Facts) Given(q rule.Question) (answer.Answer, bool) {
	a, ok := f.given[q]
	return a, ok
}

// GivenCount returns the number of given facts.
func (f *Facts) GivenCount() int { return len(f.given) }

// InferredCount returns the number of cached inferred answers.
// Used for testing and introspection.
func (f *Facts) InferredCount() int { return len(f.inferred) }

// InferredFor returns the cached entry for q, if present.
// Used for testing and introspection.
func (f *Facts) InferredFor(q rule.Question) (rule.AnswerWithDependencies, bool) {
	awd, ok := f.inferred[q]
	return awd, ok
}

// invalidate evicts every inferred entry whose dependency set contains
// changed, directly or transitively. The transitive closure is
// computed over the recorded dependency sets before anything is
// deleted: evicting B because it depends on C must also evict A when A
// depends on B, even though A's recorded set never mentions C.
func (f *Facts) invalidate(changed rule.Question) {
	// affected grows to a fixed point: first the entries depending on
	// the changed question, then entries depending on those, and so on.
	affected := map[rule.Question]struct{}{changed: {}}
	evicted := make(map[rule.Question]struct{})

	for {
		grew := false
		for q, entry := range f.inferred {
			if _, done := evicted[q]; done {
				continue
			}
			for dep := range entry.Dependencies {
				if _, hit := affected[dep]; hit {
					evicted[q] = struct{}{}
					affected[q] = struct{}{}
					grew = true
					break
				}
			}
		}
		if !grew {
			break
		}
	}

	// Evict in lexical order so logs and journals are deterministic.
	ordered := make([]rule.Question, 0, len(evicted))
	for q := range evicted {
		ordered = append(ordered, q)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	for _, q := range ordered {
		delete(f.inferred, q)
		f.logger.Info("inferred answer evicted", "question", q, "cause", changed)
		if f.recorder != nil {
			f.recorder.Evicted(q, changed)
		}
	}
}

func chainStrings(chain []rule.Question) []string {
	out := make([]string, len(chain))
	for i, q := range chain {
		out[i] = string(q)
	}
	return out
}
