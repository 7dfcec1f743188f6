// Package gameid generates hand identifiers: UUIDv7 values encoded as 26
// lowercase Crockford base32 characters, so ids sort by creation time.
package gameid

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Base32 alphabet used by TypeID (Crockford's base32)
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length is the length of an encoded id.
const Length = 26

// Generator creates ids from a configurable random source.
type Generator struct {
	rand io.Reader
}

// NewGenerator returns a generator reading randomness from r. A nil r uses
// the uuid package's default source.
func NewGenerator(r io.Reader) *Generator {
	return &Generator{rand: r}
}

// Generate returns a new id. It panics if the random source fails.
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate returns a new id from the generator's source.
func (g *Generator) Generate() string {
	id, err := g.New()
	if err != nil {
		panic("gameid: " + err.Error())
	}
	return id
}

// New returns a new id or the random source's error.
func (g *Generator) New() (string, error) {
	var (
		u   uuid.UUID
		err error
	)
	if g.rand != nil {
		u, err = uuid.NewV7FromReader(g.rand)
	} else {
		u, err = uuid.NewV7()
	}
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return Encode(u), nil
}

// Encode renders u as 26 base32 characters. The 128 bits are left-padded with
// two zero bits, so the first character is always 0-7.
func Encode(u uuid.UUID) string {
	hi := binary.BigEndian.Uint64(u[:8])
	lo := binary.BigEndian.Uint64(u[8:])

	var out [Length]byte
	for i := Length - 1; i >= 0; i-- {
		out[i] = alphabet[lo&0x1f]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}

// Parse decodes an id produced by Encode.
func Parse(id string) (uuid.UUID, error) {
	if err := Validate(id); err != nil {
		return uuid.Nil, err
	}
	var hi, lo uint64
	for i := range Length {
		v := uint64(strings.IndexByte(alphabet, id[i]))
		hi = hi<<5 | lo>>59
		lo = lo<<5 | v
	}
	var u uuid.UUID
	binary.BigEndian.PutUint64(u[:8], hi)
	binary.BigEndian.PutUint64(u[8:], lo)
	return u, nil
}

// Validate checks if an id is valid (26 characters, valid base32)
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("hand ID must be exactly %d characters, got %d", Length, len(id))
	}

	// The first character carries only three bits.
	if id[0] > '7' {
		return fmt.Errorf("hand ID first character must be 0-7, got %c", id[0])
	}

	for i := range len(id) {
		if strings.IndexByte(alphabet, id[i]) < 0 {
			return fmt.Errorf("invalid character %c at position %d", id[i], i)
		}
	}

	return nil
}
