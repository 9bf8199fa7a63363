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

func TestPlayerInActiveQueues(t *testing.T) {
	queues := []models.Queue{
		{
			QueueID: "q1",
			Status:  models.QueueStatusOpen,
			Players: []models.QueuedPlayer{{PlayerID: "p1"}},
		},
		{
			QueueID: "q2",
			Status:  models.QueueStatusFull,
			Players: []models.QueuedPlayer{{PlayerID: "p2"}},
		},
		{
			QueueID: "q3",
			Status:  models.QueueStatusLaunched,
			Players: []models.QueuedPlayer{{PlayerID: "p3"}},
		},
	}

	assert.True(t, PlayerInActiveQueues(queues, "p1"))
	assert.True(t, PlayerInActiveQueues(queues, "p2"))

	// A launched queue's roster already belongs to a match.
	assert.False(t, PlayerInActiveQueues(queues, "p3"))
	assert.False(t, PlayerInActiveQueues(queues, "p4"))
	assert.False(t, PlayerInActiveQueues(nil, "p1"))
}

func TestEligibleForQueue(t *testing.T) {
	queue := &models.Queue{MinElo: 1000, MaxElo: 1500}

	assert.True(t, EligibleForQueue(queue, 1000), "tier bounds are inclusive")
	assert.True(t, EligibleForQueue(queue, 1500))
	assert.True(t, EligibleForQueue(queue, 1250))
	assert.False(t, EligibleForQueue(queue, 999))
	assert.False(t, EligibleForQueue(queue, 1501))
}

func TestQueueCapacityAndStatus(t *testing.T) {
	queue := &models.Queue{TeamSize: 3, Status: models.QueueStatusOpen}
	assert.Equal(t, 6, queue.Capacity())
	assert.True(t, queue.Active())

	queue.Status = models.QueueStatusFull
	assert.True(t, queue.Active())

	queue.Status = models.QueueStatusLaunched
	assert.False(t, queue.Active())
}

func TestQueueHasPlayer(t *testing.T) {
	queue := &models.Queue{
		Players: []models.QueuedPlayer{{PlayerID: "p1"}, {PlayerID: "p2"}},
	}
	assert.True(t, queue.HasPlayer("p2"))
	assert.False(t, queue.HasPlayer("p3"))
}

func TestPlayerQueuedElsewhere(t *testing.T) {
	queues := []models.Queue{
		{
			QueueID: "q1",
			Status:  models.QueueStatusFull,
			Players: []models.QueuedPlayer{{PlayerID: "p1"}, {PlayerID: "p2"}},
		},
		{
			QueueID: "q2",
			Status:  models.QueueStatusOpen,
			Players: []models.QueuedPlayer{{PlayerID: "p3"}},
		},
	}

	// Membership in the exempted queue does not count: a reshuffle must be
	// able to re-sample the roster it just cleared.
	assert.False(t, PlayerQueuedElsewhere(queues, "q1", "p1"))
	assert.False(t, PlayerQueuedElsewhere(queues, "q1", "p2"))

	// Membership anywhere else still does.
	assert.True(t, PlayerQueuedElsewhere(queues, "q1", "p3"))
	assert.True(t, PlayerQueuedElsewhere(queues, "q2", "p1"))
	assert.False(t, PlayerQueuedElsewhere(queues, "q2", "p4"))
}

func tierQueue(players ...models.QueuedPlayer) models.Queue {
	return models.Queue{
		QueueID:  "q1",
		GameType: "valorant",
		TeamSize: 2,
		MinElo:   1000,
		MaxElo:   1500,
		Players:  players,
		Status:   models.QueueStatusFull,
		Version:  1,
	}
}

func tierRoster() []models.QueuedPlayer {
	return []models.QueuedPlayer{
		{PlayerID: "p1", DisplayName: "P1", Rating: 1400},
		{PlayerID: "p2", DisplayName: "P2", Rating: 1300},
		{PlayerID: "p3", DisplayName: "P3", Rating: 1200},
		{PlayerID: "p4", DisplayName: "P4", Rating: 1100},
	}
}

func TestFillReshuffleReusesClearedRoster(t *testing.T) {
	queue := tierQueue(tierRoster()...)
	item, err := attributevalue.MarshalMap(queue)
	require.NoError(t, err)

	// The stored documents still show the old roster while the reshuffle
	// is sampling; those members are the only eligible pool.
	profiles := make([]models.Player, 0, 4)
	for _, p := range tierRoster() {
		profiles = append(profiles, models.Player{
			PlayerID:    p.PlayerID,
			DisplayName: p.DisplayName,
			Ratings:     map[string]int{"2": p.Rating},
		})
	}

	store := &stubStore{
		items: map[string]map[string]types.AttributeValue{models.QueuesTable: item},
		scans: map[string]interface{}{
			models.QueuesTable:  []models.Queue{queue},
			models.PlayersTable: profiles,
		},
	}
	qs := &QueueService{Dynamo: store}

	updated, err := qs.Fill(context.Background(), "q1", true)
	require.NoError(t, err)
	require.Len(t, updated.Players, 4)
	assert.Equal(t, models.QueueStatusFull, updated.Status)
}

func TestLaunchHandsRosterBackOnMatchWriteFailure(t *testing.T) {
	queue := tierQueue(tierRoster()...)
	queue.Version = 3
	item, err := attributevalue.MarshalMap(queue)
	require.NoError(t, err)

	store := &stubStore{
		items: map[string]map[string]types.AttributeValue{models.QueuesTable: item},
		putErr: func(table string, _ interface{}) error {
			if table == models.MatchesTable {
				return errors.New("match write failed")
			}
			return nil
		},
	}
	qs := &QueueService{Dynamo: store}

	_, err = qs.Launch(context.Background(), "q1")
	require.Error(t, err)

	// The claim flip went through, then the failed match write flipped the
	// queue back to full so it is not stranded at launched.
	require.Len(t, store.updates, 2)
	assert.Equal(t, models.QueueStatusLaunched, avString(store.updates[0].values[":to"]))
	assert.Equal(t, models.QueueStatusFull, avString(store.updates[1].values[":to"]))
}

func TestWithConflictRetry(t *testing.T) {
	qs := &QueueService{}

	// A single conflict resolves on the internal retry.
	calls := 0
	err := qs.withConflictRetry(func() error {
		calls++
		if calls == 1 {
			return ErrConflict
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)

	// A second conflict surfaces; the retry happens exactly once.
	calls = 0
	err = qs.withConflictRetry(func() error {
		calls++
		return ErrConflict
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 2, calls)

	// Non-conflict failures are never retried.
	calls = 0
	boom := errors.New("boom")
	err = qs.withConflictRetry(func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}
