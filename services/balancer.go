package services

import (
	"fmt"
	"sort"

	"arena_server/models"
)

// BalanceTeams partitions exactly 2*teamSize queued players into two teams
// with near-equal average ratings using a snake draft: players are sorted
// descending by their rating snapshot and walked in buckets of four, picks
// alternating A,B,B,A within each bucket. The sort is stable, so ties keep
// their insertion order and the same input always yields the same teams.
func BalanceTeams(players []models.QueuedPlayer, teamSize int) (models.Team, models.Team, error) {
	if teamSize < 1 {
		return models.Team{}, models.Team{}, fmt.Errorf("%w: team size must be at least 1", ErrInvalidInput)
	}
	if len(players) != 2*teamSize {
		return models.Team{}, models.Team{}, fmt.Errorf("%w: have %d players, need %d", ErrInsufficientPlayers, len(players), 2*teamSize)
	}

	sorted := make([]models.QueuedPlayer, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rating > sorted[j].Rating
	})

	teamA := models.Team{Side: models.SideA}
	teamB := models.Team{Side: models.SideB}
	for i, p := range sorted {
		if i%4 == 0 || i%4 == 3 {
			teamA.Players = append(teamA.Players, p)
		} else {
			teamB.Players = append(teamB.Players, p)
		}
	}

	teamA.AverageRating = TeamAverage(teamA.Players)
	teamB.AverageRating = TeamAverage(teamB.Players)
	return teamA, teamB, nil
}
