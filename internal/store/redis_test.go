package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley/internal/models"
)

func newTestRedisStore(t *testing.T, opts ...Option) *RedisSessionStore {
	t.Helper()
	mr := miniredis.RunT(t)
	opts = append([]Option{WithDSN(mr.Addr())}, opts...)
	s, err := NewRedisSessionStore(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRedisSessionStore_CreatesOnFirstGet(t *testing.T) {
	s := newTestRedisStore(t)
	session, err := s.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", session.ID)
	assert.False(t, session.State.Active())
}

func TestRedisSessionStore_RoundTrip(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	session, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	session.State = models.FlowState{Flow: models.FlowRFP, Step: "awaiting_brief"}
	session.Set("company", "Acme")
	session.AppendTurn(models.RoleUser, "we have an rfp")
	require.NoError(t, s.PutSession(ctx, session))

	got, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.FlowRFP, got.State.Flow)
	assert.Equal(t, "Acme", got.Get("company"))
	require.Len(t, got.History, 1)
	assert.Equal(t, models.RoleUser, got.History[0].Role)
}

func TestRedisSessionStore_Delete(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	session, _ := s.GetSession(ctx, "s1")
	session.State = models.FlowState{Flow: models.FlowDemo, Step: "awaiting_name"}
	require.NoError(t, s.PutSession(ctx, session))
	require.NoError(t, s.DeleteSession(ctx, "s1"))

	got, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, got.State.Active(), "deleted session should come back fresh")
}

func TestRedisSessionStore_TTLExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedisSessionStore(context.Background(),
		WithDSN(mr.Addr()), WithSessionTTL(time.Minute))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	session, _ := s.GetSession(ctx, "s1")
	session.State = models.FlowState{Flow: models.FlowDemo, Step: "awaiting_name"}
	require.NoError(t, s.PutSession(ctx, session))

	mr.FastForward(2 * time.Minute)

	got, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, got.State.Active(), "expired session should behave as a new one")
}

func TestRedisSessionStore_MalformedStateSelfHeals(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedisSessionStore(context.Background(), WithDSN(mr.Addr()))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, mr.Set(sessionKey("s1"), "not json"))

	got, err := s.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, got.State.Active())
}

func TestNewRedisSessionStore_BadAddr(t *testing.T) {
	_, err := NewRedisSessionStore(context.Background(), WithDSN("127.0.0.1:1"))
	assert.Error(t, err)
}

func TestNewRedisSessionStore_NoDSN(t *testing.T) {
	_, err := NewRedisSessionStore(context.Background())
	assert.Error(t, err)
}
