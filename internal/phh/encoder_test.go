package phh_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lox/fairdeal/internal/phh"
	"github.com/lox/fairdeal/poker"
)

func TestCards(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TH", "Th"},
		{"AS KD", "AsKd"},
		{"2C", "2c"},
		{"", ""},
	}

	for _, tt := range tests {
		cards := poker.MustParseCards(tt.in)
		if got := phh.Cards(cards); got != tt.want {
			t.Fatalf("Cards(%q)=%q, want %q", tt.in, got, tt.want)
		}
		back, err := phh.ParseCards(tt.want)
		if err != nil {
			t.Fatalf("ParseCards(%q): %v", tt.want, err)
		}
		if poker.JoinCards(back) != poker.JoinCards(cards) {
			t.Fatalf("ParseCards(%q)=%v, want %v", tt.want, back, cards)
		}
	}

	if _, err := phh.ParseCards("AhK"); err == nil {
		t.Fatal("expected error for odd-length card string")
	}
}

func TestActions(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{phh.Fold(0), "p1 f"},
		{phh.CheckCall(1), "p2 cc"},
		{phh.BetRaise(0, 350), "p1 cbr 350"},
		{phh.ShowMuck(1, poker.MustParseCards("KS KD")), "p2 sm KsKd"},
		{phh.DealHole(0, poker.MustParseCards("AS TD")), "d dh p1 AsTd"},
		{phh.DealBoard(poker.MustParseCards("3C 8H 9D")), "d db 3c8h9d"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Fatalf("got %q want %q", tt.got, tt.want)
		}
	}
}

func TestEncodeNil(t *testing.T) {
	if err := phh.Encode(&bytes.Buffer{}, nil); !errors.Is(err, phh.ErrNilHand) {
		t.Fatalf("Encode(nil) = %v, want ErrNilHand", err)
	}
}

func sampleHand(id string) *phh.HandHistory {
	hand := &phh.HandHistory{
		Variant:           "NT",
		Table:             "house",
		SeatCount:         2,
		Seats:             []int{1, 2},
		Antes:             []int64{0, 0},
		BlindsOrStraddles: []int64{0, 0},
		MinBet:            1,
		StartingStacks:    []int64{1000, 1000},
		FinishingStacks:   []int64{1100, 900},
		Winnings:          []int64{200, 0},
		Actions: []string{
			phh.DealHole(0, poker.MustParseCards("AS AD")),
			phh.DealHole(1, poker.MustParseCards("KS KD")),
			phh.BetRaise(0, 100),
			phh.CheckCall(1),
			phh.DealBoard(poker.MustParseCards("3C 8H 9D")),
		},
		Players:    []string{"alice", "house"},
		HandID:     id,
		Reason:     "showdown",
		Commitment: "abc123",
		Salt:       "00ff",
	}
	hand.SetTime(time.Date(2025, time.November, 14, 15, 22, 0, 0, time.UTC))
	return hand
}

func TestEncodeHandHistory(t *testing.T) {
	var buf bytes.Buffer
	if err := phh.Encode(&buf, sampleHand("hand-00042")); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	got := buf.String()
	want := "" +
		"variant = \"NT\"\n" +
		"table = \"house\"\n" +
		"seat_count = 2\n" +
		"seats = [1, 2]\n" +
		"antes = [0, 0]\n" +
		"blinds_or_straddles = [0, 0]\n" +
		"min_bet = 1\n" +
		"starting_stacks = [1000, 1000]\n" +
		"finishing_stacks = [1100, 900]\n" +
		"winnings = [200, 0]\n" +
		"actions = [\"d dh p1 AsAd\", \"d dh p2 KsKd\", \"p1 cbr 100\", \"p2 cc\", \"d db 3c8h9d\"]\n" +
		"players = [\"alice\", \"house\"]\n" +
		"hand = \"hand-00042\"\n" +
		"time = \"15:22:00\"\n" +
		"time_zone = \"UTC\"\n" +
		"day = 14\n" +
		"month = 11\n" +
		"year = 2025\n" +
		"_reason = \"showdown\"\n" +
		"_commitment = \"abc123\"\n" +
		"_salt = \"00ff\"\n"

	if got != want {
		t.Fatalf("Encode output mismatch.\nGot:\n%s\nWant:\n%s", got, want)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.phhs")

	last, err := phh.LastSection(path)
	if err != nil || last != 0 {
		t.Fatalf("LastSection on missing file = %d, %v", last, err)
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	for i, id := range []string{"first", "second", "third"} {
		if err := phh.WriteSection(f, i+1, sampleHand(id)); err != nil {
			t.Fatalf("WriteSection: %v", err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	last, err = phh.LastSection(path)
	if err != nil || last != 3 {
		t.Fatalf("LastSection = %d, %v; want 3", last, err)
	}

	f, err = os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	hands, err := phh.DecodeSession(f)
	if err != nil {
		t.Fatalf("DecodeSession: %v", err)
	}
	if len(hands) != 3 {
		t.Fatalf("decoded %d hands, want 3", len(hands))
	}
	for i, want := range []string{"first", "second", "third"} {
		if hands[i].HandID != want {
			t.Errorf("hand %d id = %q, want %q", i, hands[i].HandID, want)
		}
	}
	if hands[0].Salt != "00ff" || hands[0].StartingStacks[0] != 1000 {
		t.Errorf("fields lost in round trip: %+v", hands[0])
	}
}
