package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefGenerator(t *testing.T) {
	g := NewRefGenerator()
	format := regexp.MustCompile(`^[A-HJ-NP-Z2-9]{8}$`)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		ref := g.Next()
		assert.Regexp(t, format, ref)
		assert.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
}

func TestRefGeneratorCleanup(t *testing.T) {
	g := NewRefGenerator()
	for i := 0; i < 100; i++ {
		g.Next()
	}

	g.Cleanup(10)
	assert.Empty(t, g.usedRefs)

	g.Next()
	g.Cleanup(10)
	assert.Len(t, g.usedRefs, 1)
}
