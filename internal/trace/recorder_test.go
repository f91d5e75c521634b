package trace

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sibyl/internal/answer"
	"github.com/roach88/sibyl/internal/engine"
	"github.com/roach88/sibyl/internal/predicate"
	"github.com/roach88/sibyl/internal/rule"
)

// The recorder journals a full engine run: derivations, cache hits,
// evictions, and failures, in resolution order.
func TestRecorder_JournalsEngineRun(t *testing.T) {
	store := openTestStore(t, "session-a")
	ctx := context.Background()

	session, err := store.BeginSession(ctx, "engine run")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := NewRecorder(ctx, session, logger)

	pred, err := predicate.Parse(`member == true`)
	require.NoError(t, err)
	memberRule, err := rule.NewLiteral(10, pred, "discount", answer.NewString("10"))
	require.NoError(t, err)
	rules := rule.NewRuleSet(memberRule)

	facts := engine.New(map[rule.Question]answer.Answer{
		"member": answer.NewBool(true),
	}, engine.WithRecorder(rec), engine.WithLogger(logger))

	_, err = facts.Answer("discount", rules)
	require.NoError(t, err)
	_, err = facts.Answer("discount", rules)
	require.NoError(t, err)
	facts.Assert("member", answer.NewBool(false))
	_, err = facts.Answer("discount", rules)
	require.Error(t, err)

	events, err := store.ReadSession(ctx, "session-a")
	require.NoError(t, err)

	kinds := make([]EventKind, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind
	}
	assert.Equal(t, []EventKind{
		EventGivenHit, // member consulted during derivation
		EventResolved, // discount derived
		EventCacheHit, // second ask
		EventEvicted,  // assert member=false evicts discount
		EventGivenHit, // member re-consulted
		EventFailed,   // no rule matches anymore
	}, kinds)

	assert.Equal(t, "discount", events[1].Question)
	assert.Equal(t, `"10"`, events[1].Answer)
	assert.Equal(t, "member", events[3].Cause)
}
