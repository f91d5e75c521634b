package rule

import "sort"

// RuleSet indexes rules by the question they answer.
//
// Registration order is preserved per question and is the documented
// tie-break: when two candidates share the highest matching priority,
// the earlier-registered rule wins. The order never changes after
// registration, so resolution is deterministic across restarts given
// the same registration sequence.
type RuleSet struct {
	byQuestion map[Question][]*Rule
	count      int
}

// NewRuleSet creates a rule set containing the given pre-validated
// rules, registered in argument order.
func NewRuleSet(rules ...*Rule) *RuleSet {
	rs := &RuleSet{byQuestion: make(map[Question][]*Rule)}
	for _, r := range rules {
		rs.Add(r)
	}
	return rs
}

// Add registers a rule. Panics on nil - rules come from validated
// construction, so a nil here is a programming error, not input.
func (rs *RuleSet) Add(r *Rule) {
	if r == nil {
		panic("rule.RuleSet: Add called with nil rule")
	}
	rs.byQuestion[r.question] = append(rs.byQuestion[r.question], r)
	rs.count++
}

// Candidates returns the rules registered for a question, in
// registration order. The returned slice is a copy; mutating it does
// not affect the set.
func (rs *RuleSet) Candidates(q Question) []*Rule {
	rules := rs.byQuestion[q]
	if len(rules) == 0 {
		return nil
	}
	out := make([]*Rule, len(rules))
	copy(out, rules)
	return out
}

// Len returns the total number of registered rules.
func (rs *RuleSet) Len() int { return rs.count }

// Questions returns every question with at least one rule, sorted.
func (rs *RuleSet) Questions() []Question {
	qs := make([]Question, 0, len(rs.byQuestion))
	for q := range rs.byQuestion {
		qs = append(qs, q)
	}
	sort.Slice(qs, func(i, j int) bool { return qs[i] < qs[j] })
	return qs
}
