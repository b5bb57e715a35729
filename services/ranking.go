package services

import (
	"sort"

	"quizlive/models"
)

// RankPlayers orders players by score descending, then by name ascending
// (case-sensitive). The input slice is not modified; re-running on the
// same players always yields the identical order.
func RankPlayers(players []models.Player) []models.Player {
	ranked := append([]models.Player(nil), players...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked
}

// RankPosition returns the 1-based position of playerID in the ranking,
// or len(ranking) if the player is not present.
func RankPosition(ranked []models.Player, playerID uint) int {
	for i := range ranked {
		if ranked[i].ID == playerID {
			return i + 1
		}
	}
	return len(ranked)
}
