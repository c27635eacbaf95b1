package game

import (
	game_constants "Lotero/constants/game"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShuffledNumbersIsPermutation(t *testing.T) {
	numbers := shuffledNumbers()

	assert.Len(t, numbers, game_constants.TotalNumbers)

	seen := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, game_constants.TotalNumbers)
		assert.False(t, seen[n], "number %d appears twice", n)
		seen[n] = true
	}
	assert.Len(t, seen, game_constants.TotalNumbers)
}
