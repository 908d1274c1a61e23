// Package id generates entity UIDs and deterministic dictionary ids.
package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/sha3"
)

// RawLen is the width, in bytes, of an entity UID before base58 encoding.
const RawLen = 24

// NewRandom returns a fresh 24-byte entity UID in its canonical base58 textual form.
func NewRandom() string {
	var buf [RawLen]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand.Read does not fail on a supported platform; fall back to a
		// nanoid-derived seed rather than panicking a write path.
		seed, genErr := gonanoid.Generate("0123456789abcdef", RawLen*2)
		if genErr != nil {
			panic(fmt.Sprintf("id: could not generate random uid: %v / %v", err, genErr))
		}
		copy(buf[:], seed)
	}
	return base58.Encode(buf[:])
}

// NewHash generates a deterministic ID from input data using SHA3-256, truncated to 128 bits.
// Used to intern dictionary rows (tag facets, tag labels, cue labels) without a lookup
// round-trip: the id of a given text is computable before the row exists.
func NewHash(data ...string) string {
	hash := sha3.New256()
	for _, d := range data {
		hash.Write([]byte(d))
		hash.Write([]byte(string(rune(0x200b))))
	}
	h := hash.Sum(nil)[:16]
	bi := big.NewInt(0)
	bi.SetBytes(h)
	s := bi.Text(62)
	return fmt.Sprintf("%022s", s)
}

// NewDictionaryID generates a deterministic id for a dictionary row from its normalized text.
func NewDictionaryID(text string) string {
	return NewHash(strings.ToLower(strings.TrimSpace(text)))
}
