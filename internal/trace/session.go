package trace

import (
	"sync"

	"github.com/google/uuid"
)

// TokenGenerator generates unique session tokens.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session tokens.
// The embedded timestamp makes journal sessions sortable by creation
// time, which helps when browsing a journal database by hand.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined tokens for deterministic tests
// and golden comparison. Falls back to "session-overflow" when the
// supplied tokens run out.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedGenerator creates a generator yielding the given tokens in order.
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next predetermined token.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		return "session-overflow"
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}

// Session is one journaled evaluation session. Events carry a
// per-session monotonic sequence number assigned at write time.
//
// Thread-safety model matches the engine's: a session is written from
// the single resolution path; the seq counter is guarded anyway so a
// session can be shared with monitoring readers.
type Session struct {
	store *Store
	token string

	mu  sync.Mutex
	seq int64
}

// Token returns the session token.
func (s *Session) Token() string { return s.token }

// nextSeq returns the next per-session sequence number.
func (s *Session) nextSeq() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}
