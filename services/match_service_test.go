package services

import (
	"context"
	"errors"
	"testing"

	"arena_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingMatch() *models.Match {
	return &models.Match{
		MatchID:  "m1",
		GameType: "valorant",
		TeamSize: 2,
		TeamA: models.Team{
			Side:          models.SideA,
			AverageRating: 1450,
			Players: []models.QueuedPlayer{
				{PlayerID: "a1", Rating: 1600},
				{PlayerID: "a2", Rating: 1300},
			},
		},
		TeamB: models.Team{
			Side:          models.SideB,
			AverageRating: 1450,
			Players: []models.QueuedPlayer{
				{PlayerID: "b1", Rating: 1500},
				{PlayerID: "b2", Rating: 1400},
			},
		},
		Status: models.MatchStatusPending,
	}
}

func TestCanConfirm(t *testing.T) {
	match := pendingMatch()
	match.SubmittedBy = "a1"

	assert.NoError(t, CanConfirm(match, "b1"))
	assert.NoError(t, CanConfirm(match, "b2"))

	// Teammates of the submitter cannot confirm, nor can the submitter.
	assert.ErrorIs(t, CanConfirm(match, "a2"), ErrForbidden)
	assert.ErrorIs(t, CanConfirm(match, "a1"), ErrForbidden)

	// Outsiders are rejected outright.
	assert.ErrorIs(t, CanConfirm(match, "stranger"), ErrForbidden)
}

func TestComputeMatchRatings(t *testing.T) {
	match := pendingMatch()
	match.ScoreA, match.ScoreB = 2, 1

	changes, err := ComputeMatchRatings(match)
	require.NoError(t, err)
	require.Len(t, changes, 4)

	// Winners gain, losers lose, each rated against the opposing average.
	for _, id := range []string{"a1", "a2"} {
		assert.Positive(t, changes[id].Delta, "winner %s must gain", id)
	}
	for _, id := range []string{"b1", "b2"} {
		assert.Negative(t, changes[id].Delta, "loser %s must lose", id)
	}

	// The change record is anchored to the snapshot rating.
	assert.Equal(t, 1600, changes["a1"].PreviousRating)
	assert.Equal(t, changes["a1"].PreviousRating+changes["a1"].Delta, changes["a1"].NewRating)
	assert.Equal(t, "m1", changes["a1"].MatchID)

	// Against the same opposing average, the lower-rated winner gains more.
	assert.Greater(t, changes["a2"].Delta, changes["a1"].Delta)
}

func TestComputeMatchRatingsTeamBWin(t *testing.T) {
	match := pendingMatch()
	match.ScoreA, match.ScoreB = 0, 2

	changes, err := ComputeMatchRatings(match)
	require.NoError(t, err)
	assert.Negative(t, changes["a1"].Delta)
	assert.Positive(t, changes["b1"].Delta)
}

func TestComputeMatchRatingsRejectsDraw(t *testing.T) {
	match := pendingMatch()
	match.ScoreA, match.ScoreB = 1, 1

	_, err := ComputeMatchRatings(match)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestComputeMatchRatingsRefusesSecondApplication(t *testing.T) {
	match := pendingMatch()
	match.ScoreA, match.ScoreB = 2, 0
	match.RatingChanges = map[string]models.RatingChange{
		"a1": {MatchID: "m1", Delta: 16},
	}

	_, err := ComputeMatchRatings(match)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestValidateMatchScores(t *testing.T) {
	assert.NoError(t, validateMatchScores(2, 1, nil))
	assert.ErrorIs(t, validateMatchScores(1, 1, nil), ErrInvalidInput)
	assert.ErrorIs(t, validateMatchScores(-1, 2, nil), ErrInvalidInput)

	maps := []models.MapScore{
		{MapIndex: 0, TeamARounds: 13, TeamBRounds: 7},
		{MapIndex: 1, TeamARounds: 13, TeamBRounds: 13},
	}
	assert.ErrorIs(t, validateMatchScores(2, 0, maps), ErrInvalidInput, "a drawn map is rejected")

	ok := []models.MapScore{
		{MapIndex: 0, TeamARounds: 13, TeamBRounds: 7},
		{MapIndex: 1, TeamARounds: 10, TeamBRounds: 13},
	}
	assert.NoError(t, validateMatchScores(2, 1, ok))
}

func TestPlayerSide(t *testing.T) {
	match := pendingMatch()
	assert.Equal(t, models.SideA, match.PlayerSide("a2"))
	assert.Equal(t, models.SideB, match.PlayerSide("b1"))
	assert.Empty(t, match.PlayerSide("stranger"))
}

func submittedMatchStore(t *testing.T) *stubStore {
	t.Helper()
	match := pendingMatch()
	match.SubmittedBy = "a1"
	match.ScoreA, match.ScoreB = 2, 1

	item, err := attributevalue.MarshalMap(*match)
	require.NoError(t, err)
	return &stubStore{
		items: map[string]map[string]types.AttributeValue{models.MatchesTable: item},
	}
}

func TestConfirmPinsSubmitterInCondition(t *testing.T) {
	store := submittedMatchStore(t)
	ms := &MatchService{Dynamo: store}

	match, err := ms.Confirm(context.Background(), "m1", "b1", true)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCompleted, match.Status)

	// The confirm flip requires the pending status plus the exact report
	// that was read, so a racing resubmission voids it.
	require.NotEmpty(t, store.updates)
	flip := store.updates[0]
	assert.Equal(t, "#st = :pending AND submittedBy = :sub AND scoreA = :sa AND scoreB = :sb", flip.condition)
	assert.Equal(t, "a1", avString(flip.values[":sub"]))

	// One flip, four player writes, one completed flip.
	assert.Len(t, store.updates, 6)
}

func TestDisputePinsSubmitterInCondition(t *testing.T) {
	store := submittedMatchStore(t)
	ms := &MatchService{Dynamo: store}

	match, err := ms.Confirm(context.Background(), "m1", "b2", false)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusDisputed, match.Status)

	require.Len(t, store.updates, 1)
	assert.Equal(t, "#st = :pending AND submittedBy = :sub AND scoreA = :sa AND scoreB = :sb", store.updates[0].condition)
	assert.Equal(t, "a1", avString(store.updates[0].values[":sub"]))
}

func TestConfirmLostRaceSurfacesInvalidState(t *testing.T) {
	store := submittedMatchStore(t)
	store.updateErr = func(table, updateExpr, conditionExpr string, key map[string]types.AttributeValue) error {
		if table == models.MatchesTable && conditionExpr != "" {
			return ErrConflict
		}
		return nil
	}
	ms := &MatchService{Dynamo: store}

	_, err := ms.Confirm(context.Background(), "m1", "b1", true)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestConfirmPartialRatingFailureNamesPlayer(t *testing.T) {
	store := submittedMatchStore(t)
	store.updateErr = func(table, updateExpr, conditionExpr string, key map[string]types.AttributeValue) error {
		if table == models.PlayersTable && keyString(key, "playerId") == "b2" {
			return errors.New("write timeout")
		}
		return nil
	}
	ms := &MatchService{Dynamo: store}

	_, err := ms.Confirm(context.Background(), "m1", "b1", true)
	require.Error(t, err)

	// The error names the first unapplied player so the remaining writes
	// can be replayed by hand.
	assert.Contains(t, err.Error(), "b2")

	// The match never reaches completed while player writes are missing.
	for _, u := range store.updates {
		assert.NotEqual(t, "SET #st = :completed", u.updateExpr)
	}
}
