package services

import (
	"math"
	"time"

	"arena_server/models"
)

// Standard ELO parameters. Every player is rated individually against the
// average rating of the opposing team.
const (
	RatingKFactor = 32
	RatingFloor   = 0
	RatingCeiling = 10000
)

// ComputeNewRating returns the player's post-match rating from their current
// rating, the opposing team's average rating and whether they won. Pure and
// deterministic; the result is clamped to [RatingFloor, RatingCeiling].
func ComputeNewRating(currentRating, opponentAverageRating int, won bool) int {
	expected := 1.0 / (1.0 + math.Pow(10, float64(opponentAverageRating-currentRating)/400.0))

	actual := 0.0
	if won {
		actual = 1.0
	}

	newRating := int(math.Round(float64(currentRating) + RatingKFactor*(actual-expected)))
	if newRating < RatingFloor {
		return RatingFloor
	}
	if newRating > RatingCeiling {
		return RatingCeiling
	}
	return newRating
}

// ComputeRatingChange builds the immutable rating-change record for one
// player in one match.
func ComputeRatingChange(matchID string, currentRating, opponentAverageRating int, won bool) models.RatingChange {
	newRating := ComputeNewRating(currentRating, opponentAverageRating, won)
	return models.RatingChange{
		MatchID:        matchID,
		PreviousRating: currentRating,
		Delta:          newRating - currentRating,
		NewRating:      newRating,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}
}

// TeamAverage is the arithmetic mean of the roster's rating snapshots,
// rounded to the nearest integer.
func TeamAverage(players []models.QueuedPlayer) int {
	if len(players) == 0 {
		return 0
	}
	sum := 0
	for _, p := range players {
		sum += p.Rating
	}
	return int(math.Round(float64(sum) / float64(len(players))))
}
