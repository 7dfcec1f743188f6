package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lox/fairdeal/internal/display"
	"github.com/lox/fairdeal/internal/fairness"
	"github.com/lox/fairdeal/internal/history"
	"github.com/lox/fairdeal/poker"
)

// ErrCommitmentMismatch is returned when a revealed deck fails verification.
var ErrCommitmentMismatch = errors.New("commitment mismatch")

// VerifyCmd checks a revealed deck and salt against a commitment, either
// given directly or loaded from the history database.
type VerifyCmd struct {
	Hand       string `help:"Hand id to load from the history database"`
	Deck       string `help:"Revealed deck as comma separated cards"`
	Salt       string `help:"Revealed salt"`
	Commitment string `help:"Commitment published when the hand was dealt"`
}

func (c *VerifyCmd) Run(g *Globals) error {
	if c.Hand == "" {
		if c.Deck == "" || c.Salt == "" || c.Commitment == "" {
			return errors.New("verify needs --hand, or all of --deck, --salt and --commitment")
		}
		return verifyDeck(os.Stdout, c.Deck, c.Salt, c.Commitment)
	}

	ctx := context.Background()
	rt, err := openRuntime(ctx, g, os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	sql, err := rt.requireSQL()
	if err != nil {
		return err
	}
	rec, err := sql.Get(ctx, c.Hand)
	if err != nil {
		return err
	}
	fmt.Printf("Hand %s  %s  %s\n", rec.HandID, rec.Player, rec.Actions)
	return verifyHand(os.Stdout, rec)
}

// verifyHand checks the revealed deck against the commitment and then that
// the recorded cards were dealt from the top of that deck.
func verifyHand(w io.Writer, rec *history.HandRecord) error {
	if err := verifyDeck(w, rec.Deck, rec.Salt, rec.Commitment); err != nil {
		return err
	}

	deck, err := poker.ParseCards(rec.Deck)
	if err != nil {
		return fmt.Errorf("parse deck: %w", err)
	}
	var dealt [3][]poker.Card
	for i, s := range []string{rec.PlayerCards, rec.HouseCards, rec.Board} {
		if dealt[i], err = poker.ParseCards(s); err != nil {
			return fmt.Errorf("parse dealt cards %q: %w", s, err)
		}
	}

	err = fairness.VerifyDeal(deck, dealt[0], dealt[1], dealt[2])
	fmt.Fprintln(w, display.DealVerification(err))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCommitmentMismatch, err)
	}
	return nil
}

// verifyDeck checks that deck is a full distinct deck and that it hashes to
// commitment with salt.
func verifyDeck(w io.Writer, deck, salt, commitment string) error {
	cards, err := poker.ParseCards(deck)
	if err != nil {
		return fmt.Errorf("parse deck: %w", err)
	}
	if len(cards) != 52 || !poker.Distinct(cards) {
		return fmt.Errorf("deck has %d cards, want 52 distinct cards", len(cards))
	}

	ok := fairness.VerifyCommitment(deck, salt, commitment)
	fmt.Fprintln(w, display.Verification(commitment, ok))
	if !ok {
		return ErrCommitmentMismatch
	}
	return nil
}
