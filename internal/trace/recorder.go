package trace

import (
	"context"
	"log/slog"

	"github.com/roach88/sibyl/internal/answer"
	"github.com/roach88/sibyl/internal/rule"
)

// Recorder adapts a Session to the engine's recorder hook.
//
// Journal writes must never fail a resolution, so every write error is
// logged and dropped. "Log and continue" keeps the engine's behavior
// identical with and without a journal attached.
type Recorder struct {
	session *Session
	ctx     context.Context
	logger  *slog.Logger
}

// NewRecorder creates a recorder writing to the given session.
// The context bounds every journal write.
func NewRecorder(ctx context.Context, session *Session, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{session: session, ctx: ctx, logger: logger}
}

// GivenHit implements engine.Recorder.
func (r *Recorder) GivenHit(q rule.Question, a answer.Answer) {
	if err := r.session.WriteGivenHit(r.ctx, q, a); err != nil {
		r.logger.Error("journal write failed", "kind", EventGivenHit, "question", q, "error", err)
	}
}

// CacheHit implements engine.Recorder.
func (r *Recorder) CacheHit(q rule.Question, awd rule.AnswerWithDependencies) {
	if err := r.session.WriteCacheHit(r.ctx, q, awd); err != nil {
		r.logger.Error("journal write failed", "kind", EventCacheHit, "question", q, "error", err)
	}
}

// Resolved implements engine.Recorder.
func (r *Recorder) Resolved(q rule.Question, priority int, awd rule.AnswerWithDependencies) {
	if err := r.session.WriteResolved(r.ctx, q, priority, awd); err != nil {
		r.logger.Error("journal write failed", "kind", EventResolved, "question", q, "error", err)
	}
}

// Evicted implements engine.Recorder.
func (r *Recorder) Evicted(q, cause rule.Question) {
	if err := r.session.WriteEvicted(r.ctx, q, cause); err != nil {
		r.logger.Error("journal write failed", "kind", EventEvicted, "question", q, "error", err)
	}
}

// Failed implements engine.Recorder.
func (r *Recorder) Failed(q rule.Question, resolutionErr error) {
	if err := r.session.WriteFailed(r.ctx, q, resolutionErr); err != nil {
		r.logger.Error("journal write failed", "kind", EventFailed, "question", q, "error", err)
	}
}
