package history

import (
	"github.com/lox/fairdeal/internal/game"
	"github.com/lox/fairdeal/internal/phh"
	"github.com/lox/fairdeal/poker"
)

const (
	playerSeat = 0
	houseSeat  = 1
)

// HandHistory converts a resolved hand to PHH. The player sits in p1 and
// the house in p2; the opening wager is written as p1's forced bet.
func HandHistory(r game.Record, table string, houseStack int64) *phh.HandHistory {
	playerCommitted := r.Payout - r.Profit
	houseCommitted := r.Pot - playerCommitted

	var houseWon int64
	switch r.HouseResult {
	case game.Win:
		houseWon = r.Pot
	case game.Draw:
		houseWon = houseCommitted
	}

	h := &phh.HandHistory{
		Variant:           "NT",
		Table:             table,
		SeatCount:         2,
		Seats:             []int{1, 2},
		Antes:             []int64{0, 0},
		BlindsOrStraddles: []int64{r.Wager, 0},
		MinBet:            1,
		StartingStacks:    []int64{r.StartingStack, houseStack},
		FinishingStacks:   []int64{r.StartingStack + r.Profit, houseStack - houseCommitted + houseWon},
		Winnings:          []int64{r.Payout, houseWon},
		Actions:           phhActions(r),
		Players:           []string{r.Player, "house"},
		HandID:            r.HandID,
		Reason:            string(r.Reason),
		Commitment:        r.Commitment,
		Salt:              r.Salt,
		AuditRequired:     r.AuditRequired,
	}
	h.SetTime(r.ResolvedAt)
	return h
}

func phhActions(r game.Record) []string {
	actions := []string{
		phh.DealHole(playerSeat, r.PlayerCards),
		phh.DealHole(houseSeat, r.HouseCards),
	}

	street := game.Preflop
	totals := [2]int64{r.Wager, 0}
	for _, e := range r.Log {
		for street < e.Street {
			street++
			if cards := streetCards(r.Board, street); len(cards) > 0 {
				actions = append(actions, phh.DealBoard(cards))
			}
			totals = [2]int64{}
		}

		seat, other := playerSeat, houseSeat
		if e.Actor == game.ActorHouse {
			seat, other = houseSeat, playerSeat
		}

		switch e.Action {
		case game.Fold:
			actions = append(actions, phh.Fold(seat))
			continue
		case game.Raise:
			totals[seat] = totals[other] + e.Amount
		default:
			totals[seat] += e.Amount
			if e.Action != game.AllIn || totals[seat] <= totals[other] {
				actions = append(actions, phh.CheckCall(seat))
				continue
			}
		}
		actions = append(actions, phh.BetRaise(seat, totals[seat]))
	}

	for s := street + 1; s <= game.River; s++ {
		if cards := streetCards(r.Board, s); len(cards) > 0 {
			actions = append(actions, phh.DealBoard(cards))
		}
	}

	if r.Reason == game.ReasonShowdown {
		actions = append(actions,
			phh.ShowMuck(playerSeat, r.PlayerCards),
			phh.ShowMuck(houseSeat, r.HouseCards),
		)
	}
	return actions
}

// streetCards returns the board cards first shown on street.
func streetCards(board []poker.Card, street game.Street) []poker.Card {
	var lo, hi int
	switch street {
	case game.Flop:
		lo, hi = 0, 3
	case game.Turn:
		lo, hi = 3, 4
	case game.River:
		lo, hi = 4, 5
	default:
		return nil
	}
	if len(board) < hi {
		return nil
	}
	return board[lo:hi]
}
