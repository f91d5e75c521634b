package trace

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sibyl/internal/answer"
	"github.com/roach88/sibyl/internal/rule"
)

func openTestStore(t *testing.T, tokens ...string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := Open(path, WithTokenGenerator(NewFixedGenerator(tokens...)))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Re-opening an existing database reapplies the schema harmlessly.
	store, err = Open(path)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestBeginSession_TokensFromGenerator(t *testing.T) {
	store := openTestStore(t, "session-a", "session-b")
	ctx := context.Background()

	s1, err := store.BeginSession(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, "session-a", s1.Token())

	s2, err := store.BeginSession(ctx, "second")
	require.NoError(t, err)
	assert.Equal(t, "session-b", s2.Token())

	infos, err := store.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	// Newest token first.
	assert.Equal(t, "session-b", infos[0].Token)
	assert.Equal(t, "second", infos[0].Label)
	assert.Equal(t, "session-a", infos[1].Token)
}

func TestBeginSession_UUIDv7Default(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	s, err := store.BeginSession(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, s.Token(), 36, "expected a hyphenated UUID token")
}

func TestWriteAndReadSession(t *testing.T) {
	store := openTestStore(t, "session-a")
	ctx := context.Background()

	session, err := store.BeginSession(ctx, "round trip")
	require.NoError(t, err)

	deps := rule.NewDependencies()
	deps.Add("member")
	awd := rule.AnswerWithDependencies{Answer: answer.NewString("10"), Dependencies: deps}

	require.NoError(t, session.WriteGivenHit(ctx, "member", answer.NewBool(true)))
	require.NoError(t, session.WriteResolved(ctx, "discount", 10, awd))
	require.NoError(t, session.WriteCacheHit(ctx, "discount", awd))
	require.NoError(t, session.WriteEvicted(ctx, "discount", "member"))
	require.NoError(t, session.WriteFailed(ctx, "discount", assert.AnError))

	events, err := store.ReadSession(ctx, "session-a")
	require.NoError(t, err)
	require.Len(t, events, 5)

	// given_hit
	assert.Equal(t, int64(1), events[0].Seq)
	assert.Equal(t, EventGivenHit, events[0].Kind)
	assert.Equal(t, "member", events[0].Question)
	assert.Equal(t, "true", events[0].Answer)
	assert.Nil(t, events[0].Priority)

	// resolved
	assert.Equal(t, EventResolved, events[1].Kind)
	assert.Equal(t, "discount", events[1].Question)
	assert.Equal(t, `"10"`, events[1].Answer)
	assert.Equal(t, `["member"]`, events[1].Dependencies)
	require.NotNil(t, events[1].Priority)
	assert.Equal(t, 10, *events[1].Priority)

	// cache_hit
	assert.Equal(t, EventCacheHit, events[2].Kind)
	assert.Equal(t, `"10"`, events[2].Answer)
	assert.Equal(t, `["member"]`, events[2].Dependencies)

	// evicted
	assert.Equal(t, EventEvicted, events[3].Kind)
	assert.Equal(t, "member", events[3].Cause)

	// failed
	assert.Equal(t, EventFailed, events[4].Kind)
	assert.Equal(t, assert.AnError.Error(), events[4].Error)
}

func TestReadSession_UnknownToken(t *testing.T) {
	store := openTestStore(t, "session-a")

	events, err := store.ReadSession(context.Background(), "no-such-session")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSessions_IsolatedEventStreams(t *testing.T) {
	store := openTestStore(t, "session-a", "session-b")
	ctx := context.Background()

	s1, err := store.BeginSession(ctx, "")
	require.NoError(t, err)
	s2, err := store.BeginSession(ctx, "")
	require.NoError(t, err)

	require.NoError(t, s1.WriteGivenHit(ctx, "a", answer.NewInt(1)))
	require.NoError(t, s2.WriteGivenHit(ctx, "b", answer.NewInt(2)))
	require.NoError(t, s1.WriteGivenHit(ctx, "c", answer.NewInt(3)))

	events, err := store.ReadSession(ctx, "session-a")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].Question)
	assert.Equal(t, "c", events[1].Question)
	// Sequence numbers are per session.
	assert.Equal(t, int64(1), events[0].Seq)
	assert.Equal(t, int64(2), events[1].Seq)
}
