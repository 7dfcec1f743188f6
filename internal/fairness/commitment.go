// Package fairness implements the commit-reveal scheme that lets a player
// audit a dealt deck after the hand ends.
//
// Before any card is shown the dealer publishes
//
//	commitment = hex(SHA-256(serializedDeck || salt))
//
// where serializedDeck is the comma-joined card tokens of the shuffled deck.
// The salt stays server side until the hand is resolved. Publishing it earlier
// lets the holder of the commitment recover the deck order, so callers must
// only disclose a Deal's Salt and Serialized fields after resolution.
package fairness

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/lox/fairdeal/poker"
)

// SaltBytes is the number of random bytes in a salt (256 bits).
const SaltBytes = 32

// ErrEntropy is returned when the secure random source cannot supply bytes.
// Generation fails closed; there is no fallback source.
var ErrEntropy = errors.New("fairness: secure randomness unavailable")

// Deal is a shuffled deck together with its commitment.
type Deal struct {
	Cards      []poker.Card `json:"cards"`
	Serialized string       `json:"serialized"`
	Salt       string       `json:"salt"`
	Commitment string       `json:"commitment"`
}

// GenerateFairDeck shuffles a fresh deck with r and commits to it. A nil r
// uses crypto/rand.
func GenerateFairDeck(r io.Reader) (Deal, error) {
	if r == nil {
		r = rand.Reader
	}

	cards := poker.FullDeck()
	err := poker.Shuffle(cards, func(n int) (int, error) {
		return uniformIndex(r, n)
	})
	if err != nil {
		return Deal{}, fmt.Errorf("%w: shuffle: %v", ErrEntropy, err)
	}

	salt, err := NewSalt(r)
	if err != nil {
		return Deal{}, err
	}
	return NewDeal(cards, salt)
}

// NewSalt reads SaltBytes from r and hex encodes them.
func NewSalt(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	buf := make([]byte, SaltBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: salt: %v", ErrEntropy, err)
	}
	return hex.EncodeToString(buf), nil
}

// NewDeal commits to an explicit deck order.
func NewDeal(order []poker.Card, salt string) (Deal, error) {
	if len(order) != poker.DeckSize || !poker.Distinct(order) {
		return Deal{}, poker.ErrMalformedDeck
	}
	if len(salt) < 32 {
		return Deal{}, errors.New("fairness: salt must carry at least 128 bits")
	}
	cards := append([]poker.Card(nil), order...)
	serialized := poker.JoinCards(cards)
	return Deal{
		Cards:      cards,
		Serialized: serialized,
		Salt:       salt,
		Commitment: Commit(serialized, salt),
	}, nil
}

// Commit returns the hex SHA-256 digest of serializedDeck followed by salt.
func Commit(serializedDeck, salt string) string {
	sum := sha256.Sum256([]byte(serializedDeck + salt))
	return hex.EncodeToString(sum[:])
}

// VerifyCommitment reports whether the revealed deck and salt reproduce the
// published commitment.
func VerifyCommitment(serializedDeck, salt, commitment string) bool {
	want := Commit(serializedDeck, salt)
	return subtle.ConstantTimeCompare([]byte(want), []byte(commitment)) == 1
}

// uniformIndex returns a uniform value in [0, n) using rejection sampling so
// that no index is favoured by modulo bias.
func uniformIndex(r io.Reader, n int) (int, error) {
	if n <= 0 || n > 1<<16 {
		return 0, fmt.Errorf("fairness: index bound %d out of range", n)
	}
	limit := (uint64(1) << 32) / uint64(n) * uint64(n)
	var buf [4]byte
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		if v := uint64(binary.BigEndian.Uint32(buf[:])); v < limit {
			return int(v % uint64(n)), nil
		}
	}
}
