package store

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/fairdeal/internal/fairness"
	"github.com/lox/fairdeal/internal/game"
	"github.com/lox/fairdeal/internal/gameid"
	"github.com/lox/fairdeal/poker"
)

// newRedisStore runs against FAIRDEAL_TEST_REDIS_ADDR when set and an
// in-process miniredis otherwise. The miniredis handle is nil for a real server.
func newRedisStore(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	ctx := context.Background()

	var mr *miniredis.Miniredis
	addr := os.Getenv("FAIRDEAL_TEST_REDIS_ADDR")
	if addr == "" {
		mr = miniredis.RunT(t)
		addr = mr.Addr()
	}

	rdb, err := Dial(ctx, addr, "", 0)
	require.NoError(t, err)

	prefix := "fairdeal-test:" + gameid.Generate() + ":"
	t.Cleanup(func() {
		keys, err := rdb.Keys(ctx, prefix+"*").Result()
		if err == nil && len(keys) > 0 {
			rdb.Del(ctx, keys...)
		}
		rdb.Close()
	})
	return NewRedis(rdb, prefix), mr
}

func TestStateSurvivesJSON(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := game.NewMemoryStore()
	e := game.NewEngine(zerolog.Nop(), mem, nil,
		game.WithDealer(fairness.StackedDealer{Top: poker.MustParseCards("AS AD KS KD 3C 8H 9D 2S JC")}))

	h, err := e.CreateHand(ctx, "alice", 100)
	require.NoError(t, err)
	h, err = e.ProcessAction(ctx, h.ID, game.Call, 0)
	require.NoError(t, err)

	s, err := mem.Get(ctx, h.ID)
	require.NoError(t, err)
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded game.State
	require.NoError(t, json.Unmarshal(data, &decoded))
	again, err := json.Marshal(&decoded)
	require.NoError(t, err)

	assert.JSONEq(t, string(data), string(again))
	assert.Equal(t, s.HouseCards, decoded.HouseCards)
	assert.Equal(t, s.Deal.Cards, decoded.Deal.Cards)
	assert.Equal(t, game.Flop, decoded.Hand.Street)
	assert.Contains(t, string(data), `"street":"flop"`)
	assert.Contains(t, string(data), `"player_cards":["AS","AD"]`)
}

func TestRedisStore(t *testing.T) {
	t.Parallel()
	store, _ := newRedisStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, game.ErrHandNotFound)

	e := game.NewEngine(zerolog.Nop(), store, nil)
	h, err := e.CreateHand(ctx, "bob", 50)
	require.NoError(t, err)

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{h.ID}, active)

	got, err := e.Get(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, h.PlayerCards, got.PlayerCards)
	assert.Equal(t, h.Commitment, got.Commitment)

	h, err = e.ProcessAction(ctx, h.ID, game.Fold, 0)
	require.NoError(t, err)
	assert.True(t, fairness.VerifyCommitment(h.Deck, h.Salt, h.Commitment))

	active, err = store.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	resolved, err := store.Get(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, game.Resolved, resolved.Hand.Street)
	assert.True(t, resolved.Hand.Persisted)
}

func TestRedisRejectsStaleWrite(t *testing.T) {
	t.Parallel()
	store, _ := newRedisStore(t)
	ctx := context.Background()

	play := game.NewEngine(zerolog.Nop(), store, nil)
	h, err := play.CreateHand(ctx, "cyd", 100)
	require.NoError(t, err)

	// Two readers of the same version: the reaper lands first.
	stale, err := store.Get(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stale.Version)

	reaper := game.NewEngine(zerolog.Nop(), store, nil)
	folded, err := reaper.ForceFold(ctx, h.ID)
	require.NoError(t, err)
	require.Equal(t, game.Resolved, folded.Street)

	stale.Hand.Street = game.Flop
	err = store.Put(ctx, stale)
	require.ErrorIs(t, err, game.ErrStaleWrite)
	assert.ErrorIs(t, err, game.ErrHandBusy)
	assert.Equal(t, int64(1), stale.Version)

	got, err := store.Get(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, game.Resolved, got.Hand.Street)
	assert.Equal(t, int64(3), got.Version)

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = play.ProcessAction(ctx, h.ID, game.Call, 0)
	assert.ErrorIs(t, err, game.ErrInvalidStateTransition)
}

func TestRedisNewHandMustStartAtZero(t *testing.T) {
	t.Parallel()
	store, _ := newRedisStore(t)
	ctx := context.Background()

	e := game.NewEngine(zerolog.Nop(), store, nil)
	h, err := e.CreateHand(ctx, "eve", 10)
	require.NoError(t, err)
	held, err := store.Get(ctx, h.ID)
	require.NoError(t, err)

	s := held.Clone()
	s.Hand.ID = "ghost"
	s.Version = 4
	require.ErrorIs(t, store.Put(ctx, s), game.ErrStaleWrite)

	_, err = store.Get(ctx, "ghost")
	require.ErrorIs(t, err, game.ErrHandNotFound)

	s.Version = 0
	require.NoError(t, store.Put(ctx, s))
	assert.Equal(t, int64(1), s.Version)

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ghost", h.ID}, active)
}

func TestRedisResolvedTTL(t *testing.T) {
	t.Parallel()
	store, mr := newRedisStore(t)
	if mr == nil {
		t.Skip("expiry is checked against miniredis only")
	}
	store.ResolvedTTL = time.Hour
	ctx := context.Background()

	e := game.NewEngine(zerolog.Nop(), store, nil)
	h, err := e.CreateHand(ctx, "dee", 10)
	require.NoError(t, err)
	assert.Zero(t, mr.TTL(store.handKey(h.ID)))

	_, err = e.ProcessAction(ctx, h.ID, game.Fold, 0)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL(store.handKey(h.ID)))

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, h.ID)
	assert.ErrorIs(t, err, game.ErrHandNotFound)
}
