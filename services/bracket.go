package services

import (
	"fmt"

	"arena_server/models"
)

// Pure bracket algorithms. Everything in this file operates on an in-memory
// tournament document and leaves persistence to the tournament service, so
// win detection and advancement are testable without a store.

// BracketMatchID builds the composite address of a bracket node.
func BracketMatchID(tournamentID string, round, index int) string {
	return fmt.Sprintf("%s-r%d-m%d", tournamentID, round, index)
}

// NewBracket seeds a single-elimination bracket from an ordered team list.
// The team count must be a power of two and at least two. Round 0 is paired
// off in seed order and marked upcoming; every later round starts empty,
// awaiting teams.
func NewBracket(tournamentID string, teams []models.TournamentTeam) ([][]models.TournamentMatch, error) {
	n := len(teams)
	if n < 2 || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: team count must be a power of two, got %d", ErrInvalidInput, n)
	}

	numRounds := 0
	for size := n; size > 1; size /= 2 {
		numRounds++
	}

	rounds := make([][]models.TournamentMatch, numRounds)
	for r := 0; r < numRounds; r++ {
		matches := n >> uint(r+1)
		rounds[r] = make([]models.TournamentMatch, matches)
		for i := 0; i < matches; i++ {
			rounds[r][i] = models.TournamentMatch{
				MatchID:    BracketMatchID(tournamentID, r, i),
				RoundIndex: r,
				MatchIndex: i,
				Status:     models.BracketStatusAwaitingTeams,
			}
		}
	}

	for i := 0; i < n/2; i++ {
		a, b := teams[2*i], teams[2*i+1]
		rounds[0][i].TeamA = &a
		rounds[0][i].TeamB = &b
		rounds[0][i].Status = models.BracketStatusUpcoming
	}

	return rounds, nil
}

// EmptyBracket is the unseeded state: a single round with no matches.
func EmptyBracket() [][]models.TournamentMatch {
	return [][]models.TournamentMatch{{}}
}

// ValidateMapScore rejects scores a winner cannot be derived from: negative
// rounds, rounds beyond the per-map cap, or a draw.
func ValidateMapScore(teamARounds, teamBRounds, maxRounds int) error {
	if teamARounds < 0 || teamBRounds < 0 {
		return fmt.Errorf("%w: rounds cannot be negative", ErrInvalidInput)
	}
	if teamARounds > maxRounds || teamBRounds > maxRounds {
		return fmt.Errorf("%w: rounds exceed the per-map cap of %d", ErrInvalidInput, maxRounds)
	}
	if teamARounds == teamBRounds {
		return fmt.Errorf("%w: a map cannot end in a draw", ErrInvalidInput)
	}
	return nil
}

// RecordMapScore stores one map's result on a bracket match and runs
// best-of-N win detection over all recorded maps. The match completes, with
// its winner set, exactly when one side reaches the series majority.
func RecordMapScore(match *models.TournamentMatch, mapIndex, teamARounds, teamBRounds, bestOf, maxRounds int) error {
	if match.TeamA == nil || match.TeamB == nil {
		return fmt.Errorf("%w: match is still awaiting teams", ErrInvalidState)
	}
	if match.Status == models.BracketStatusCompleted {
		return fmt.Errorf("%w: match is already completed", ErrInvalidState)
	}
	if mapIndex < 0 || mapIndex >= bestOf {
		return fmt.Errorf("%w: map index %d out of range for a best-of-%d", ErrInvalidInput, mapIndex, bestOf)
	}
	if err := ValidateMapScore(teamARounds, teamBRounds, maxRounds); err != nil {
		return err
	}

	winner := models.SideA
	if teamBRounds > teamARounds {
		winner = models.SideB
	}
	entry := models.MapScore{
		MapIndex:    mapIndex,
		TeamARounds: teamARounds,
		TeamBRounds: teamBRounds,
		Winner:      winner,
	}

	replaced := false
	for i := range match.Maps {
		if match.Maps[i].MapIndex == mapIndex {
			match.Maps[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		match.Maps = append(match.Maps, entry)
	}
	match.Status = models.BracketStatusInProgress

	winsA, winsB := 0, 0
	for _, m := range match.Maps {
		if m.Winner == models.SideA {
			winsA++
		} else {
			winsB++
		}
	}
	majority := bestOf/2 + 1
	if winsA >= majority {
		match.Status = models.BracketStatusCompleted
		match.Winner = models.SideA
	} else if winsB >= majority {
		match.Status = models.BracketStatusCompleted
		match.Winner = models.SideB
	}

	return nil
}

// AdvanceWinner writes a completed match's winning roster into its slot in
// the next round: slot index/2, side A for even match indexes, side B for
// odd. The downstream match leaves awaiting_teams once both slots are
// populated. Advancing from the final is a no-op (the caller marks the
// tournament completed). A slot already holding a different team is a
// bracket-consistency violation and reported as ErrConflict.
func AdvanceWinner(t *models.Tournament, round, index int) error {
	if round < 0 || round >= len(t.Rounds) || index < 0 || index >= len(t.Rounds[round]) {
		return fmt.Errorf("%w: no match at round %d index %d", ErrNotFound, round, index)
	}
	src := &t.Rounds[round][index]
	if src.Status != models.BracketStatusCompleted || src.Winner == "" {
		return fmt.Errorf("%w: match has no winner to advance", ErrInvalidState)
	}
	if round == len(t.Rounds)-1 {
		return nil
	}

	winner := src.WinnerTeam()
	next := &t.Rounds[round+1][index/2]
	slot := &next.TeamA
	if index%2 == 1 {
		slot = &next.TeamB
	}
	if *slot != nil {
		if (*slot).Name != winner.Name {
			return fmt.Errorf("%w: slot already holds team %q", ErrConflict, (*slot).Name)
		}
		return nil
	}
	*slot = winner

	if next.TeamA != nil && next.TeamB != nil && next.Status == models.BracketStatusAwaitingTeams {
		next.Status = models.BracketStatusUpcoming
	}
	return nil
}
