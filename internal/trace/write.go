package trace

import (
	"context"
	"fmt"

	"github.com/roach88/sibyl/internal/answer"
	"github.com/roach88/sibyl/internal/rule"
)

// EventKind identifies a journal event type.
type EventKind string

const (
	EventResolved EventKind = "resolved"
	EventGivenHit EventKind = "given_hit"
	EventCacheHit EventKind = "cache_hit"
	EventEvicted  EventKind = "evicted"
	EventFailed   EventKind = "failed"
)

// Event is one journal row.
type Event struct {
	Seq      int64     `json:"seq"`
	Kind     EventKind `json:"kind"`
	Question string    `json:"question"`

	// Priority is the winning rule's priority, for resolved events.
	Priority *int `json:"priority,omitempty"`

	// Answer is the canonical JSON answer, for resolved/given_hit/cache_hit.
	Answer string `json:"answer,omitempty"`

	// Dependencies is a canonical JSON list of questions, for
	// resolved/cache_hit events.
	Dependencies string `json:"dependencies,omitempty"`

	// Cause is the changed question, for evicted events.
	Cause string `json:"cause,omitempty"`

	// Error is the failure text, for failed events.
	Error string `json:"error,omitempty"`
}

// WriteResolved journals a fresh derivation.
func (s *Session) WriteResolved(ctx context.Context, q rule.Question, priority int, awd rule.AnswerWithDependencies) error {
	ansJSON, depsJSON, err := encodeResult(awd)
	if err != nil {
		return fmt.Errorf("write resolved: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO events (session_token, seq, kind, question, priority, answer, dependencies)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, s.token, s.nextSeq(), EventResolved, string(q), priority, ansJSON, depsJSON)
	if err != nil {
		return fmt.Errorf("write resolved: %w", err)
	}
	return nil
}

// WriteGivenHit journals a question answered from a given fact.
func (s *Session) WriteGivenHit(ctx context.Context, q rule.Question, a answer.Answer) error {
	ansJSON, err := answer.MarshalCanonical(a)
	if err != nil {
		return fmt.Errorf("write given hit: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO events (session_token, seq, kind, question, answer)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, s.token, s.nextSeq(), EventGivenHit, string(q), string(ansJSON))
	if err != nil {
		return fmt.Errorf("write given hit: %w", err)
	}
	return nil
}

// WriteCacheHit journals a question answered from the inferred cache.
func (s *Session) WriteCacheHit(ctx context.Context, q rule.Question, awd rule.AnswerWithDependencies) error {
	ansJSON, depsJSON, err := encodeResult(awd)
	if err != nil {
		return fmt.Errorf("write cache hit: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO events (session_token, seq, kind, question, answer, dependencies)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, s.token, s.nextSeq(), EventCacheHit, string(q), ansJSON, depsJSON)
	if err != nil {
		return fmt.Errorf("write cache hit: %w", err)
	}
	return nil
}

// WriteEvicted journals a cache eviction caused by a changed fact.
func (s *Session) WriteEvicted(ctx context.Context, q, cause rule.Question) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO events (session_token, seq, kind, question, cause)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, s.token, s.nextSeq(), EventEvicted, string(q), string(cause))
	if err != nil {
		return fmt.Errorf("write evicted: %w", err)
	}
	return nil
}

// WriteFailed journals a failed resolution.
func (s *Session) WriteFailed(ctx context.Context, q rule.Question, resolutionErr error) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO events (session_token, seq, kind, question, error)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, s.token, s.nextSeq(), EventFailed, string(q), resolutionErr.Error())
	if err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

// encodeResult renders an answer and its dependency set as canonical
// JSON, so identical results always journal identical bytes.
func encodeResult(awd rule.AnswerWithDependencies) (ansJSON, depsJSON string, err error) {
	ab, err := answer.MarshalCanonical(awd.Answer)
	if err != nil {
		return "", "", err
	}
	db, err := answer.MarshalCanonical(awd.Dependencies.SortedStrings())
	if err != nil {
		return "", "", err
	}
	return string(ab), string(db), nil
}
