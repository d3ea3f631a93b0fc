package utils

import (
	"crypto/rand"
	"math/big"
	"sync"
)

// RefGenerator produces the short booking references stamped on
// appointments for front-desk lookup.
type RefGenerator struct {
	// Track recently generated refs to ensure uniqueness
	usedRefs     map[string]bool
	mutex        sync.Mutex
	characterSet []rune
}

// NewRefGenerator creates a new instance of RefGenerator
func NewRefGenerator() *RefGenerator {
	// Use only capital letters and numbers for better legibility
	// Omitting easily confused characters: 0, O, 1, I
	characterSet := []rune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789")

	return &RefGenerator{
		usedRefs:     make(map[string]bool),
		characterSet: characterSet,
	}
}

// Next creates a new 8-character booking reference. References are
// random, so the retry loop only matters when the process has handed out
// a large share of the keyspace.
func (g *RefGenerator) Next() string {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	for {
		ref := g.randomRef(8)
		if !g.usedRefs[ref] {
			g.usedRefs[ref] = true
			return ref
		}
	}
}

// randomRef creates a random reference of the specified length
func (g *RefGenerator) randomRef(length int) string {
	result := make([]rune, length)
	charSetLength := big.NewInt(int64(len(g.characterSet)))

	for i := 0; i < length; i++ {
		randomIndex, err := rand.Int(rand.Reader, charSetLength)
		if err != nil {
			// crypto/rand only fails when the platform source is broken;
			// fall back to the first character rather than aborting a booking.
			randomIndex = big.NewInt(int64(i % len(g.characterSet)))
		}
		result[i] = g.characterSet[randomIndex.Int64()]
	}

	return string(result)
}

// Cleanup resets the tracking map once it grows past maxSize to prevent
// unbounded memory use in long-running processes.
func (g *RefGenerator) Cleanup(maxSize int) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if len(g.usedRefs) > maxSize {
		g.usedRefs = make(map[string]bool)
	}
}
