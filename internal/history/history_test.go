package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/fairdeal/internal/fairness"
	"github.com/lox/fairdeal/internal/game"
	"github.com/lox/fairdeal/internal/phh"
	"github.com/lox/fairdeal/poker"
)

var resolvedAt = time.Date(2025, time.March, 2, 18, 30, 0, 0, time.UTC)

// showdownRecord is a hand the player wins at showdown after raising the flop.
func showdownRecord(id string) game.Record {
	deck := "AS,AD,KS,KD,3C,8H,9D,2S,JC"
	return game.Record{
		HandID:        id,
		Player:        "alice",
		Wager:         100,
		StartingStack: 1000,
		Pot:           400,
		Payout:        400,
		Profit:        200,
		PlayerResult:  game.Win,
		HouseResult:   game.Loss,
		Reason:        game.ReasonShowdown,
		Log: []game.ActionEntry{
			{Street: game.Preflop, Actor: game.ActorPlayer, Action: game.Call},
			{Street: game.Preflop, Actor: game.ActorHouse, Action: game.Call, Amount: 100},
			{Street: game.Flop, Actor: game.ActorPlayer, Action: game.Raise, Amount: 100},
			{Street: game.Flop, Actor: game.ActorHouse, Action: game.Call, Amount: 100},
			{Street: game.Turn, Actor: game.ActorPlayer, Action: game.Call},
			{Street: game.Turn, Actor: game.ActorHouse, Action: game.Call},
			{Street: game.River, Actor: game.ActorPlayer, Action: game.Call},
			{Street: game.River, Actor: game.ActorHouse, Action: game.Call},
		},
		Board:       poker.MustParseCards("3C 8H 9D 2S JC"),
		PlayerCards: poker.MustParseCards("AS AD"),
		HouseCards:  poker.MustParseCards("KS KD"),
		Commitment:  fairness.Commit(deck, "00"),
		Deck:        deck,
		Salt:        "00",
		ResolvedAt:  resolvedAt,
	}
}

func foldRecord(id, player string, at time.Time) game.Record {
	return game.Record{
		HandID:        id,
		Player:        player,
		Wager:         50,
		StartingStack: 1000,
		Pot:           50,
		Profit:        -50,
		PlayerResult:  game.Folded,
		HouseResult:   game.Win,
		Reason:        game.ReasonPlayerFold,
		Log: []game.ActionEntry{
			{Street: game.Preflop, Actor: game.ActorPlayer, Action: game.Fold},
		},
		PlayerCards: poker.MustParseCards("7C 2D"),
		HouseCards:  poker.MustParseCards("QS QD"),
		Commitment:  "c",
		Deck:        "d",
		Salt:        "s",
		ResolvedAt:  at,
	}
}

func TestHandHistoryShowdown(t *testing.T) {
	h := HandHistory(showdownRecord("h1"), "house", 1_000_000)

	assert.Equal(t, []string{
		"d dh p1 AsAd",
		"d dh p2 KsKd",
		"p1 cc",
		"p2 cc",
		"d db 3c8h9d",
		"p1 cbr 100",
		"p2 cc",
		"d db 2s",
		"p1 cc",
		"p2 cc",
		"d db Jc",
		"p1 cc",
		"p2 cc",
		"p1 sm AsAd",
		"p2 sm KsKd",
	}, h.Actions)
	assert.Equal(t, []int64{100, 0}, h.BlindsOrStraddles)
	assert.Equal(t, []int64{1000, 1_000_000}, h.StartingStacks)
	assert.Equal(t, []int64{1200, 999_800}, h.FinishingStacks)
	assert.Equal(t, []int64{400, 0}, h.Winnings)
	assert.Equal(t, []string{"alice", "house"}, h.Players)
	assert.Equal(t, "showdown", h.Reason)
	assert.Equal(t, 2025, h.Year)
	assert.Equal(t, "18:30:00", h.Time)
}

func TestHandHistoryFold(t *testing.T) {
	h := HandHistory(foldRecord("h2", "bob", resolvedAt), "house", 5000)

	assert.Equal(t, []string{"d dh p1 7c2d", "d dh p2 QsQd", "p1 f"}, h.Actions)
	assert.Equal(t, []int64{950, 5050}, h.FinishingStacks)
	assert.Equal(t, []int64{0, 50}, h.Winnings)
}

func TestHandHistoryAllInRunout(t *testing.T) {
	r := game.Record{
		HandID:        "h3",
		Player:        "carol",
		Wager:         100,
		StartingStack: 300,
		Pot:           600,
		Payout:        300,
		PlayerResult:  game.Draw,
		HouseResult:   game.Draw,
		Reason:        game.ReasonShowdown,
		Log: []game.ActionEntry{
			{Street: game.Preflop, Actor: game.ActorPlayer, Action: game.AllIn, Amount: 200},
			{Street: game.Preflop, Actor: game.ActorHouse, Action: game.Call, Amount: 300},
		},
		Board:       poker.MustParseCards("2C 3D 4H 5S 9C"),
		PlayerCards: poker.MustParseCards("AS KD"),
		HouseCards:  poker.MustParseCards("AH KC"),
	}
	h := HandHistory(r, "house", 1000)

	assert.Equal(t, []string{
		"d dh p1 AsKd",
		"d dh p2 AhKc",
		"p1 cbr 300",
		"p2 cc",
		"d db 2c3d4h",
		"d db 5s",
		"d db 9c",
		"p1 sm AsKd",
		"p2 sm AhKc",
	}, h.Actions)
	assert.Equal(t, []int64{300, 1000}, h.FinishingStacks)
	assert.Equal(t, []int64{300, 300}, h.Winnings)
}

func newFileSink(t *testing.T, dir string, clock quartz.Clock, flushHands int) *FileSink {
	t.Helper()
	f, err := NewFileSink(zerolog.Nop(), FileConfig{
		Dir:           dir,
		FlushHands:    flushHands,
		FlushInterval: time.Minute,
		Clock:         clock,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func readSession(t *testing.T, dir string) []phh.HandHistory {
	t.Helper()
	file, err := os.Open(filepath.Join(dir, defaultFilename))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	defer file.Close()
	hands, err := phh.DecodeSession(file)
	require.NoError(t, err)
	return hands
}

// sectionsWritten is safe to poll while a flush is in progress.
func sectionsWritten(dir string) int {
	n, _ := phh.LastSection(filepath.Join(dir, defaultFilename))
	return n
}

func TestFileSinkWritesOnClose(t *testing.T) {
	dir := t.TempDir()
	f := newFileSink(t, dir, quartz.NewMock(t), 100)
	ctx := context.Background()

	require.NoError(t, f.Record(ctx, showdownRecord("a")))
	require.NoError(t, f.Record(ctx, foldRecord("b", "bob", resolvedAt)))
	require.NoError(t, f.Record(ctx, showdownRecord("a")))
	assert.Empty(t, readSession(t, dir))

	require.NoError(t, f.Close())
	hands := readSession(t, dir)
	require.Len(t, hands, 2)
	assert.Equal(t, "a", hands[0].HandID)
	assert.Equal(t, "b", hands[1].HandID)
	assert.Equal(t, "00", hands[0].Salt)
	assert.Equal(t, []int64{1200, 999_800}, hands[0].FinishingStacks)
}

func TestFileSinkForgetsOldHandIDs(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFileSink(zerolog.Nop(), FileConfig{
		Dir:           dir,
		FlushHands:    100,
		FlushInterval: time.Minute,
		DedupeWindow:  2,
		Clock:         quartz.NewMock(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, f.Record(ctx, foldRecord(id, "bob", resolvedAt)))
	}
	// Buffered hands are kept regardless of the window.
	assert.Len(t, f.seen, 3)

	require.NoError(t, f.Flush())
	assert.Len(t, f.seen, 2)
	assert.Equal(t, []string{"b", "c"}, f.written)

	// A retry inside the window is still suppressed.
	require.NoError(t, f.Record(ctx, foldRecord("c", "bob", resolvedAt)))
	require.NoError(t, f.Record(ctx, foldRecord("d", "bob", resolvedAt)))
	require.NoError(t, f.Flush())
	assert.Equal(t, []string{"c", "d"}, f.written)
	assert.Len(t, f.seen, 2)

	hands := readSession(t, dir)
	require.Len(t, hands, 4)
	assert.Equal(t, "d", hands[3].HandID)
}

func TestFileSinkFlushesWhenBufferFull(t *testing.T) {
	dir := t.TempDir()
	f := newFileSink(t, dir, quartz.NewMock(t), 2)
	ctx := context.Background()

	require.NoError(t, f.Record(ctx, showdownRecord("a")))
	require.NoError(t, f.Record(ctx, showdownRecord("b")))

	require.Eventually(t, func() bool {
		return sectionsWritten(dir) == 2
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, f.Close())
	assert.Len(t, readSession(t, dir), 2)
}

func TestFileSinkFlushesOnTick(t *testing.T) {
	dir := t.TempDir()
	clock := quartz.NewMock(t)
	f := newFileSink(t, dir, clock, 100)

	require.NoError(t, f.Record(context.Background(), showdownRecord("a")))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	clock.Advance(time.Minute).MustWait(ctx)

	require.Eventually(t, func() bool {
		return sectionsWritten(dir) == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, f.Close())
	hands := readSession(t, dir)
	require.Len(t, hands, 1)
	assert.Equal(t, "a", hands[0].HandID)
}

func TestFileSinkContinuesSectionNumbers(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := newFileSink(t, dir, quartz.NewMock(t), 100)
	require.NoError(t, first.Record(ctx, showdownRecord("a")))
	require.NoError(t, first.Close())

	second := newFileSink(t, dir, quartz.NewMock(t), 100)
	require.NoError(t, second.Record(ctx, showdownRecord("b")))
	require.NoError(t, second.Close())

	data, err := os.ReadFile(filepath.Join(dir, defaultFilename))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[1]\n"))
	assert.Contains(t, string(data), "\n[2]\n")

	hands := readSession(t, dir)
	require.Len(t, hands, 2)
	assert.Equal(t, "b", hands[1].HandID)
}

func TestFileSinkWritesAuditRecords(t *testing.T) {
	dir := t.TempDir()
	f := newFileSink(t, dir, quartz.NewMock(t), 100)

	r := showdownRecord("audited")
	r.PlayerResult, r.HouseResult = game.Draw, game.Draw
	r.Payout, r.Profit = 200, 0
	r.AuditRequired = true
	require.NoError(t, f.Record(context.Background(), r))

	data, err := os.ReadFile(filepath.Join(dir, "audit", "audited.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"AuditRequired": true`)
	assert.Contains(t, string(data), r.Commitment)
}

func TestFileSinkDisablesAfterRepeatedFailures(t *testing.T) {
	dir := t.TempDir()
	f := newFileSink(t, dir, quartz.NewMock(t), 100)
	ctx := context.Background()

	// A directory in place of the session file makes every flush fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, defaultFilename), 0o755))
	require.NoError(t, f.Record(ctx, showdownRecord("a")))

	for range maxFlushFailures {
		f.flushAndCheck()
	}
	assert.True(t, f.Disabled())
	assert.ErrorIs(t, f.Record(ctx, showdownRecord("b")), ErrDisabled)
	assert.NoError(t, f.Flush())
}

func newSQLSink(t *testing.T) *SQLSink {
	t.Helper()
	db, err := OpenSQL("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	s, err := NewSQLSink(db)
	require.NoError(t, err)
	return s
}

func TestSQLSinkRecordIsIdempotent(t *testing.T) {
	s := newSQLSink(t)
	ctx := context.Background()

	r := showdownRecord("h1")
	require.NoError(t, s.Record(ctx, r))
	require.NoError(t, s.Record(ctx, r))

	rows, err := s.List(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got, err := s.Get(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Player)
	assert.Equal(t, "win", got.PlayerResult)
	assert.Equal(t, "AS,AD", got.PlayerCards)
	assert.Equal(t, int64(200), got.Profit)
	assert.True(t, got.Verify())

	entries, err := got.Entries()
	require.NoError(t, err)
	assert.Equal(t, r.Log, entries)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLSinkListAndStats(t *testing.T) {
	s := newSQLSink(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, foldRecord("f1", "bob", resolvedAt)))
	require.NoError(t, s.Record(ctx, foldRecord("f2", "bob", resolvedAt.Add(time.Minute))))
	won := showdownRecord("w1")
	won.Player = "bob"
	won.ResolvedAt = resolvedAt.Add(2 * time.Minute)
	require.NoError(t, s.Record(ctx, won))
	audited := showdownRecord("a1")
	audited.AuditRequired = true
	require.NoError(t, s.Record(ctx, audited))

	rows, err := s.List(ctx, Query{Player: "bob"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "w1", rows[0].HandID)
	assert.Equal(t, "f1", rows[2].HandID)

	rows, err = s.List(ctx, Query{Player: "bob", Limit: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rows, err = s.List(ctx, Query{AuditOnly: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a1", rows[0].HandID)

	stats, err := s.Stats(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, PlayerStats{
		Hands:     3,
		Wins:      1,
		Folds:     2,
		NetProfit: 100,
		Wagered:   200,
	}, stats)

	stats, err = s.Stats(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, stats.Hands)
}

func TestOpenSQLRejectsUnknownDriver(t *testing.T) {
	_, err := OpenSQL("oracle", "")
	assert.ErrorContains(t, err, "unsupported")
}

func TestMultiSinkRetriesOnlyFailedSinks(t *testing.T) {
	var okCalls, flakyCalls int
	ok := game.SinkFunc(func(context.Context, game.Record) error {
		okCalls++
		return nil
	})
	flaky := game.SinkFunc(func(context.Context, game.Record) error {
		flakyCalls++
		if flakyCalls == 1 {
			return errors.New("disk full")
		}
		return nil
	})

	m := NewMultiSink(ok, nil, flaky)
	ctx := context.Background()
	r := showdownRecord("h1")

	err := m.Record(ctx, r)
	require.ErrorContains(t, err, "disk full")
	require.NoError(t, m.Record(ctx, r))

	assert.Equal(t, 1, okCalls)
	assert.Equal(t, 2, flakyCalls)
	assert.Empty(t, m.pending)

	require.NoError(t, m.Record(ctx, showdownRecord("h2")))
	assert.Equal(t, 2, okCalls)
}

func TestMultiSinkBoundsPending(t *testing.T) {
	failing := game.SinkFunc(func(context.Context, game.Record) error {
		return errors.New("database unavailable")
	})
	m := NewMultiSink(failing)
	m.limit = 2
	ctx := context.Background()

	for _, id := range []string{"h1", "h2", "h1", "h3"} {
		require.Error(t, m.Record(ctx, showdownRecord(id)))
	}
	assert.Len(t, m.pending, 2)
	assert.NotContains(t, m.pending, "h1")
	assert.Contains(t, m.pending, "h3")
	assert.LessOrEqual(t, len(m.order), 2*m.limit)
}
