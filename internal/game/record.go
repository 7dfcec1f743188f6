package game

import (
	"context"
	"time"

	"github.com/lox/fairdeal/poker"
)

// Record is the persisted summary of a resolved hand.
type Record struct {
	HandID        string
	Player        string
	Wager         int64
	StartingStack int64
	Pot           int64
	Profit        int64
	Payout        int64
	PlayerResult  Result
	HouseResult   Result
	Reason        Reason
	Actions       string
	Log           []ActionEntry
	Board         []poker.Card
	PlayerCards   []poker.Card
	HouseCards    []poker.Card
	Commitment    string
	Deck          string
	Salt          string
	AuditRequired bool
	ResolvedAt    time.Time
}

// Sink receives each resolved hand. Record may be called again for the same
// hand if an earlier call failed, so implementations should treat HandID as
// an idempotency key.
type Sink interface {
	Record(ctx context.Context, r Record) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, r Record) error

// Record implements Sink.
func (f SinkFunc) Record(ctx context.Context, r Record) error {
	return f(ctx, r)
}

type discardSink struct{}

func (discardSink) Record(context.Context, Record) error { return nil }

// NewRecord builds the persistence record for a resolved hand.
func NewRecord(h *Hand) Record {
	r := Record{
		HandID:        h.ID,
		Player:        h.Player,
		Wager:         h.Wager,
		StartingStack: h.Stack + h.PlayerCommitted,
		Pot:           h.Pot,
		Actions:       Summarize(h.Actions),
		Log:           h.Actions,
		Board:         h.Board,
		PlayerCards:   h.PlayerCards,
		HouseCards:    h.HouseCards,
		Commitment:    h.Commitment,
		Deck:          h.Deck,
		Salt:          h.Salt,
	}
	if o := h.Outcome; o != nil {
		r.Profit = o.Profit
		r.Payout = o.Payout
		r.PlayerResult = o.Player
		r.HouseResult = o.House
		r.Reason = o.Reason
		r.AuditRequired = o.AuditRequired
		r.ResolvedAt = o.ResolvedAt
	}
	return r
}
