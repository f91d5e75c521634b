package engine

import (
	"sort"

	"github.com/roach88/sibyl/internal/answer"
	"github.com/roach88/sibyl/internal/predicate"
	"github.com/roach88/sibyl/internal/rule"
)

// Brain is the stateless resolution algorithm: it selects and fires
// the winning rule for a question.
//
// Candidates are ordered by priority descending; among candidates
// sharing a priority, registration order decides (stable sort over the
// RuleSet's registration-ordered slice). This tie-break is documented
// engine behavior: the earliest-registered rule at the highest
// matching priority wins, deterministically and restart-stable.
//
// Every question a predicate consults is accumulated into one running
// dependency set for the resolution - including questions consulted
// by losing candidates evaluated before the winner. Those answers
// gated the outcome (a false predicate is why a lower-priority rule
// won), so a change to any of them must invalidate the cached result.
type Brain struct{}

// resolve derives an answer for q.
//
// Algorithm:
//  1. Collect the candidates registered for q.
//  2. Order by priority descending, registration order on ties.
//  3. Evaluate each candidate's predicate; sub-questions resolve
//     recursively through facts on the same resolution path and are
//     recorded as dependencies.
//  4. The first true predicate wins: fire it and return its answer
//     with the accumulated dependencies. Later candidates are never
//     consulted.
//  5. Any predicate evaluation failure aborts immediately with that
//     error - no fall-through to lower-priority candidates.
//  6. No match is a no-matching-rule error, distinct from firing
//     errors.
func (Brain) resolve(q rule.Question, rules *rule.RuleSet, facts *Facts, path *resolutionPath) (rule.AnswerWithDependencies, error) {
	candidates := rules.Candidates(q)
	if len(candidates) == 0 {
		facts.logger.Debug("no candidate rules", "question", q)
		return rule.AnswerWithDependencies{}, NewNoMatchingRuleError(q)
	}

	// SliceStable keeps registration order within equal priorities.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority() > candidates[j].Priority()
	})

	deps := rule.NewDependencies()
	lookup := func(question string) (answer.Answer, error) {
		sub := rule.Question(question)
		deps.Add(sub)
		awd, err := facts.answerOn(sub, rules, path)
		if err != nil {
			return nil, err
		}
		return awd.Answer, nil
	}

	for _, cand := range candidates {
		matched, err := predicate.Evaluate(cand.Predicate(), lookup)
		if err != nil {
			facts.logger.Debug("predicate evaluation failed",
				"question", q,
				"priority", cand.Priority(),
				"error", err,
			)
			return rule.AnswerWithDependencies{}, err
		}
		if !matched {
			continue
		}

		awd, err := cand.Fire(deps)
		if err != nil {
			return rule.AnswerWithDependencies{}, err
		}

		facts.logger.Info("rule fired",
			"question", q,
			"priority", cand.Priority(),
			"answer", awd.Answer.String(),
			"dependencies", awd.Dependencies.SortedStrings(),
		)
		if facts.recorder != nil {
			facts.recorder.Resolved(q, cand.Priority(), awd)
		}
		return awd, nil
	}

	facts.logger.Debug("no rule matched", "question", q, "candidates", len(candidates))
	return rule.AnswerWithDependencies{}, NewNoMatchingRuleError(q)
}
