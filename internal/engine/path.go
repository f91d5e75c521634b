package engine

import "github.com/roach88/sibyl/internal/rule"

// resolutionPath tracks the chain of questions currently being
// resolved on the active call path.
//
// Cycles occur when answering a question transitively requires
// answering that same question. This happens with mutually dependent
// rules:
//
//	answer(eligible) → predicate needs tier → answer(tier)
//	→ predicate needs eligible → answer(eligible) ← CYCLE DETECTED
//
// The path is checked before descending into a sub-question and must
// be scoped to a single in-flight resolution: each call to
// Facts.Answer starts a fresh path, and the same path value is
// threaded down the recursive call tree. It is never shared across
// resolutions, so no locking is needed - resolution is a synchronous
// call tree, not a scheduler.
type resolutionPath struct {
	active map[rule.Question]struct{}
	order  []rule.Question // outermost first, for diagnostics
}

func newResolutionPath() *resolutionPath {
	return &resolutionPath{active: make(map[rule.Question]struct{})}
}

// contains reports whether q is already being resolved on this path.
func (p *resolutionPath) contains(q rule.Question) bool {
	_, ok := p.active[q]
	return ok
}

// push marks q as in flight. Callers must pop after the descent
// returns, success or failure.
func (p *resolutionPath) push(q rule.Question) {
	p.active[q] = struct{}{}
	p.order = append(p.order, q)
}

// pop unmarks the most recent question.
func (p *resolutionPath) pop() {
	last := p.order[len(p.order)-1]
	p.order = p.order[:len(p.order)-1]
	delete(p.active, last)
}

// chain returns the in-flight questions outermost first, with q
// appended to show where the path closed.
func (p *resolutionPath) chain(q rule.Question) []rule.Question {
	out := make([]rule.Question, 0, len(p.order)+1)
	out = append(out, p.order...)
	out = append(out, q)
	return out
}
