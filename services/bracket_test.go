package services

import (
	"testing"

	"arena_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namedTeams(names ...string) []models.TournamentTeam {
	teams := make([]models.TournamentTeam, len(names))
	for i, n := range names {
		teams[i] = models.TournamentTeam{Name: n}
	}
	return teams
}

func fourTeamTournament(t *testing.T) *models.Tournament {
	t.Helper()
	rounds, err := NewBracket("t1", namedTeams("alpha", "bravo", "charlie", "delta"))
	require.NoError(t, err)
	return &models.Tournament{
		TournamentID: "t1",
		BestOf:       3,
		MaxRounds:    13,
		Status:       models.TournamentStatusStarted,
		Rounds:       rounds,
	}
}

func TestNewBracketShape(t *testing.T) {
	rounds, err := NewBracket("t1", namedTeams("alpha", "bravo", "charlie", "delta"))
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	require.Len(t, rounds[0], 2)
	require.Len(t, rounds[1], 1)

	// Round 0 is seeded in order and playable.
	assert.Equal(t, "alpha", rounds[0][0].TeamA.Name)
	assert.Equal(t, "bravo", rounds[0][0].TeamB.Name)
	assert.Equal(t, "charlie", rounds[0][1].TeamA.Name)
	assert.Equal(t, "delta", rounds[0][1].TeamB.Name)
	assert.Equal(t, models.BracketStatusUpcoming, rounds[0][0].Status)

	// The final waits for its teams.
	assert.Nil(t, rounds[1][0].TeamA)
	assert.Nil(t, rounds[1][0].TeamB)
	assert.Equal(t, models.BracketStatusAwaitingTeams, rounds[1][0].Status)
	assert.Equal(t, "t1-r1-m0", rounds[1][0].MatchID)
}

func TestNewBracketRejectsBadTeamCounts(t *testing.T) {
	for _, n := range []int{0, 1, 3, 6} {
		names := make([]string, n)
		for i := range names {
			names[i] = "team"
		}
		_, err := NewBracket("t1", namedTeams(names...))
		assert.ErrorIs(t, err, ErrInvalidInput, "%d teams must be rejected", n)
	}
}

func TestValidateMapScore(t *testing.T) {
	assert.NoError(t, ValidateMapScore(13, 7, 13))
	assert.ErrorIs(t, ValidateMapScore(13, 13, 13), ErrInvalidInput)
	assert.ErrorIs(t, ValidateMapScore(5, 5, 13), ErrInvalidInput)
	assert.ErrorIs(t, ValidateMapScore(14, 7, 13), ErrInvalidInput)
	assert.ErrorIs(t, ValidateMapScore(-1, 7, 13), ErrInvalidInput)
}

func TestRecordMapScoreBestOfThree(t *testing.T) {
	tournament := fourTeamTournament(t)
	match := &tournament.Rounds[0][0]

	// Map 1: team A takes it. Series still open.
	require.NoError(t, RecordMapScore(match, 0, 2, 0, 3, 13))
	assert.Equal(t, models.BracketStatusInProgress, match.Status)
	assert.Empty(t, match.Winner)

	// Map 2: team B equalizes.
	require.NoError(t, RecordMapScore(match, 1, 1, 2, 3, 13))
	assert.Equal(t, models.BracketStatusInProgress, match.Status)
	assert.Empty(t, match.Winner)

	// Map 3 decides it.
	require.NoError(t, RecordMapScore(match, 2, 2, 1, 3, 13))
	assert.Equal(t, models.BracketStatusCompleted, match.Status)
	assert.Equal(t, models.SideA, match.Winner)
	assert.Equal(t, "alpha", match.WinnerTeam().Name)
}

func TestRecordMapScoreEarlyMajority(t *testing.T) {
	tournament := fourTeamTournament(t)
	match := &tournament.Rounds[0][0]

	require.NoError(t, RecordMapScore(match, 0, 0, 2, 3, 13))
	require.NoError(t, RecordMapScore(match, 1, 1, 2, 3, 13))
	assert.Equal(t, models.BracketStatusCompleted, match.Status)
	assert.Equal(t, models.SideB, match.Winner)

	// No more maps once the series is decided.
	err := RecordMapScore(match, 2, 2, 0, 3, 13)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRecordMapScoreGuards(t *testing.T) {
	tournament := fourTeamTournament(t)
	final := &tournament.Rounds[1][0]

	err := RecordMapScore(final, 0, 2, 0, 3, 13)
	assert.ErrorIs(t, err, ErrInvalidState, "a match awaiting teams cannot take scores")

	match := &tournament.Rounds[0][0]
	err = RecordMapScore(match, 3, 2, 0, 3, 13)
	assert.ErrorIs(t, err, ErrInvalidInput, "map index beyond the series length")
}

func TestAdvanceWinnerFourTeamBracket(t *testing.T) {
	tournament := fourTeamTournament(t)

	// Complete round-0 match 0 (even index): winner goes to slot A.
	m0 := &tournament.Rounds[0][0]
	require.NoError(t, RecordMapScore(m0, 0, 2, 0, 3, 13))
	require.NoError(t, RecordMapScore(m0, 1, 2, 1, 3, 13))
	require.Equal(t, models.BracketStatusCompleted, m0.Status)
	require.NoError(t, AdvanceWinner(tournament, 0, 0))

	final := &tournament.Rounds[1][0]
	require.NotNil(t, final.TeamA)
	assert.Equal(t, "alpha", final.TeamA.Name)
	assert.Nil(t, final.TeamB)
	assert.Equal(t, models.BracketStatusAwaitingTeams, final.Status, "final waits until both slots are filled")

	// Complete round-0 match 1 (odd index): winner goes to slot B and
	// the final becomes playable.
	m1 := &tournament.Rounds[0][1]
	require.NoError(t, RecordMapScore(m1, 0, 0, 2, 3, 13))
	require.NoError(t, RecordMapScore(m1, 1, 1, 2, 3, 13))
	require.NoError(t, AdvanceWinner(tournament, 0, 1))

	require.NotNil(t, final.TeamB)
	assert.Equal(t, "delta", final.TeamB.Name)
	assert.Equal(t, models.BracketStatusUpcoming, final.Status)
}

func TestAdvanceWinnerSlotConflict(t *testing.T) {
	tournament := fourTeamTournament(t)

	m0 := &tournament.Rounds[0][0]
	m0.Status = models.BracketStatusCompleted
	m0.Winner = models.SideA
	require.NoError(t, AdvanceWinner(tournament, 0, 0))

	// Re-advancing the same winner is harmless.
	require.NoError(t, AdvanceWinner(tournament, 0, 0))

	// A different team landing in an occupied slot is a bracket
	// consistency violation.
	m0.Winner = models.SideB
	err := AdvanceWinner(tournament, 0, 0)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAdvanceWinnerFromFinal(t *testing.T) {
	tournament := fourTeamTournament(t)
	final := &tournament.Rounds[1][0]
	final.TeamA = &models.TournamentTeam{Name: "alpha"}
	final.TeamB = &models.TournamentTeam{Name: "delta"}
	final.Status = models.BracketStatusCompleted
	final.Winner = models.SideA

	// The final has no downstream match; advancing is a no-op.
	assert.NoError(t, AdvanceWinner(tournament, 1, 0))
}

func TestAdvanceWinnerRequiresCompletedMatch(t *testing.T) {
	tournament := fourTeamTournament(t)
	err := AdvanceWinner(tournament, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidState)

	err = AdvanceWinner(tournament, 5, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEmptyBracket(t *testing.T) {
	rounds := EmptyBracket()
	require.Len(t, rounds, 1)
	assert.Empty(t, rounds[0])
}
