package game

import (
	game_constants "Lotero/constants/game"
	"math/rand"
)

// shuffledNumbers returns an unbiased permutation of 1..TotalNumbers
// (Fisher-Yates). Computed exactly once per game, then persisted as the
// committed draw order.
func shuffledNumbers() []int {
	numbers := make([]int, game_constants.TotalNumbers)
	for i := range numbers {
		numbers[i] = i + 1
	}
	for i := len(numbers) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		numbers[i], numbers[j] = numbers[j], numbers[i]
	}
	return numbers
}
