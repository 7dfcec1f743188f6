package gameid

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerate(t *testing.T) {
	// Test that Generate produces valid hand IDs
	id := Generate()

	if len(id) != 26 {
		t.Errorf("expected 26 characters, got %d", len(id))
	}

	if err := Validate(id); err != nil {
		t.Errorf("generated ID failed validation: %v", err)
	}

	// Test that first character is valid (0-7)
	if id[0] > '7' {
		t.Errorf("first character %c exceeds maximum '7'", id[0])
	}
}

func TestGenerateUnique(t *testing.T) {
	// Generate multiple IDs and ensure they're unique
	ids := make(map[string]bool)

	for i := 0; i < 100; i++ {
		id := Generate()
		if ids[id] {
			t.Errorf("duplicate ID generated: %s", id)
		}
		ids[id] = true
	}
}

func TestGenerateTimeSorted(t *testing.T) {
	// Generate IDs with a small delay to ensure time-based sorting
	var ids []string

	for i := 0; i < 10; i++ {
		ids = append(ids, Generate())
		time.Sleep(time.Millisecond)
	}

	// Check that IDs are sorted (UUIDv7 should be sortable by timestamp)
	for i := 1; i < len(ids); i++ {
		if strings.Compare(ids[i-1], ids[i]) >= 0 {
			t.Errorf("IDs not sorted: %s >= %s", ids[i-1], ids[i])
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{
			name:    "valid ID",
			id:      "01h5n0et5q6mt3v7ms1234abcd",
			wantErr: false,
		},
		{
			name:    "too short",
			id:      "01h5n0et5q6mt3v7ms123",
			wantErr: true,
		},
		{
			name:    "too long",
			id:      "01h5n0et5q6mt3v7ms1234abcdef",
			wantErr: true,
		},
		{
			name:    "first char too high",
			id:      "81h5n0et5q6mt3v7ms1234abcd",
			wantErr: true,
		},
		{
			name:    "invalid character",
			id:      "01h5n0et5q6mt3v7ms1234abci",
			wantErr: true,
		},
		{
			name:    "uppercase not allowed",
			id:      "01H5N0ET5Q6MT3V7MS1234ABCD",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAlphabet(t *testing.T) {
	// Ensure alphabet has no duplicate characters and is the correct length
	if len(alphabet) != 32 {
		t.Errorf("alphabet should have 32 characters, got %d", len(alphabet))
	}

	seen := make(map[rune]bool)
	for _, char := range alphabet {
		if seen[char] {
			t.Errorf("duplicate character in alphabet: %c", char)
		}
		seen[char] = true
	}

	// Check specific requirements: no i, l, o, u
	forbidden := "ilou"
	for _, char := range forbidden {
		if strings.ContainsRune(alphabet, char) {
			t.Errorf("alphabet should not contain %c", char)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	for i := 0; i < 50; i++ {
		u := uuid.Must(uuid.NewV7())
		id := Encode(u)
		if err := Validate(id); err != nil {
			t.Fatalf("encoded ID %s failed validation: %v", id, err)
		}
		got, err := Parse(id)
		if err != nil {
			t.Fatalf("Parse(%s): %v", id, err)
		}
		if got != u {
			t.Errorf("round trip mismatch: %s != %s", got, u)
		}
		if got.Version() != 7 {
			t.Errorf("expected version 7, got %d", got.Version())
		}
	}

	if _, err := Parse("not-an-id"); err == nil {
		t.Error("expected error for malformed ID")
	}
}

func TestEncodeBoundaries(t *testing.T) {
	if got := Encode(uuid.Nil); got != strings.Repeat("0", Length) {
		t.Errorf("nil UUID encoded as %s", got)
	}
	var max uuid.UUID
	for i := range max {
		max[i] = 0xff
	}
	if got := Encode(max); got != "7"+strings.Repeat("z", Length-1) {
		t.Errorf("max UUID encoded as %s", got)
	}
}

func TestGeneratorWithReader(t *testing.T) {
	// Same random bytes, different milliseconds: ids must still be unique and valid.
	gen := NewGenerator(bytes.NewReader(bytes.Repeat([]byte{0xAB}, 1024)))

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		id, err := gen.New()
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := Validate(id); err != nil {
			t.Errorf("ID %d failed validation: %v", i, err)
		}
		if seen[id] {
			t.Errorf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestGeneratorPropagatesReaderErrors(t *testing.T) {
	gen := NewGenerator(bytes.NewReader(nil))
	if _, err := gen.New(); err == nil {
		t.Error("expected error from exhausted reader")
	}
}
