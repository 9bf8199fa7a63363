package services

import (
	"context"
	"testing"

	"arena_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitMapScoreRetriesAfterConflict(t *testing.T) {
	tournament := fourTeamTournament(t)
	item, err := attributevalue.MarshalMap(*tournament)
	require.NoError(t, err)

	// First persist loses the version race; the retry re-reads and wins.
	persistCalls := 0
	store := &stubStore{
		items: map[string]map[string]types.AttributeValue{models.TournamentsTable: item},
		updateErr: func(table, updateExpr, conditionExpr string, key map[string]types.AttributeValue) error {
			if table != models.TournamentsTable {
				return nil
			}
			persistCalls++
			if persistCalls == 1 {
				return ErrConflict
			}
			return nil
		},
	}
	ts := &TournamentService{Dynamo: store}

	updated, err := ts.SubmitMapScore(context.Background(), "t1", "t1-r0-m0", 0, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, persistCalls)

	require.Len(t, updated.Rounds[0][0].Maps, 1)
	assert.Equal(t, models.SideA, updated.Rounds[0][0].Maps[0].Winner)
	assert.Equal(t, models.BracketStatusInProgress, updated.Rounds[0][0].Status)
}

func TestSubmitMapScoreSurfacesRepeatedConflict(t *testing.T) {
	tournament := fourTeamTournament(t)
	item, err := attributevalue.MarshalMap(*tournament)
	require.NoError(t, err)

	store := &stubStore{
		items: map[string]map[string]types.AttributeValue{models.TournamentsTable: item},
		updateErr: func(table, updateExpr, conditionExpr string, key map[string]types.AttributeValue) error {
			return ErrConflict
		},
	}
	ts := &TournamentService{Dynamo: store}

	_, err = ts.SubmitMapScore(context.Background(), "t1", "t1-r0-m0", 0, 2, 0)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Len(t, store.updates, 2, "one internal retry, then the conflict surfaces")
}
