package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"arena_server/models"
	"arena_server/utils"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// QueueService owns the matchmaking queue lifecycle: open -> full ->
// launched -> open (recycled). Every mutation is a version-guarded
// conditional write; a lost race surfaces as ErrConflict and is retried
// once before reaching the caller.
type QueueService struct {
	Dynamo   DynamoAPI
	Notifier *NotificationService
}

func queueKey(queueID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"queueId": &types.AttributeValueMemberS{Value: queueID},
	}
}

// GetQueue retrieves a queue by ID
func (qs *QueueService) GetQueue(ctx context.Context, queueID string) (*models.Queue, error) {
	item, err := qs.Dynamo.GetItem(ctx, models.QueuesTable, queueKey(queueID))
	if err != nil {
		return nil, err
	}
	var queue models.Queue
	if err := attributevalue.UnmarshalMap(item, &queue); err != nil {
		return nil, fmt.Errorf("failed to parse queue: %w", err)
	}
	return &queue, nil
}

// ListQueues returns queue documents, optionally narrowed to a team size.
func (qs *QueueService) ListQueues(ctx context.Context, teamSize int) ([]models.Queue, error) {
	var filter func(map[string]types.AttributeValue) bool
	if teamSize > 0 {
		filter = func(item map[string]types.AttributeValue) bool {
			return utils.ExtractInt(item, "teamSize") == teamSize
		}
	}

	var queues []models.Queue
	if err := qs.Dynamo.ScanWithFilter(ctx, models.QueuesTable, filter, &queues); err != nil {
		return nil, fmt.Errorf("failed to list queues: %w", err)
	}
	return queues, nil
}

// CreateQueue registers a new queue for a game type and ELO tier.
func (qs *QueueService) CreateQueue(ctx context.Context, queue models.Queue) (*models.Queue, error) {
	if queue.QueueID == "" || queue.GameType == "" {
		return nil, fmt.Errorf("%w: queueId and gameType are required", ErrInvalidInput)
	}
	if queue.TeamSize < 1 {
		return nil, fmt.Errorf("%w: team size must be at least 1", ErrInvalidInput)
	}
	if queue.MinElo > queue.MaxElo {
		return nil, fmt.Errorf("%w: minElo cannot exceed maxElo", ErrInvalidInput)
	}

	queue.Players = []models.QueuedPlayer{}
	queue.Status = models.QueueStatusOpen
	queue.Version = 0

	err := qs.Dynamo.PutItemWithCondition(ctx, models.QueuesTable, queue, "attribute_not_exists(queueId)", nil, nil)
	if err != nil {
		return nil, err
	}
	log.Printf("Queue %s created (gameType=%s, teamSize=%d, tier=[%d,%d])", queue.QueueID, queue.GameType, queue.TeamSize, queue.MinElo, queue.MaxElo)
	return &queue, nil
}

// DeleteQueue removes a queue document.
func (qs *QueueService) DeleteQueue(ctx context.Context, queueID string) error {
	return qs.Dynamo.DeleteItem(ctx, models.QueuesTable, queueKey(queueID))
}

// getPlayer fetches a player profile from the Players table.
func (qs *QueueService) getPlayer(ctx context.Context, playerID string) (*models.Player, error) {
	item, err := qs.Dynamo.GetItem(ctx, models.PlayersTable, map[string]types.AttributeValue{
		"playerId": &types.AttributeValueMemberS{Value: playerID},
	})
	if err != nil {
		return nil, err
	}
	var player models.Player
	if err := attributevalue.UnmarshalMap(item, &player); err != nil {
		return nil, fmt.Errorf("failed to parse player: %w", err)
	}
	return &player, nil
}

// playerInActiveQueue reports whether the player is already queued
// anywhere. Launched queues are filtered out at the scan.
func (qs *QueueService) playerInActiveQueue(ctx context.Context, playerID string) (bool, error) {
	var queues []models.Queue
	err := qs.Dynamo.ScanWithFilter(ctx, models.QueuesTable, func(item map[string]types.AttributeValue) bool {
		return utils.ExtractString(item, "status") != models.QueueStatusLaunched
	}, &queues)
	if err != nil {
		return false, err
	}
	return PlayerInActiveQueues(queues, playerID), nil
}

// PlayerInActiveQueues reports whether any open or full queue in the list
// contains the player. Launched queues no longer count: their roster has
// already been handed to a match.
func PlayerInActiveQueues(queues []models.Queue, playerID string) bool {
	return PlayerQueuedElsewhere(queues, "", playerID)
}

// PlayerQueuedElsewhere is PlayerInActiveQueues with one queue exempted.
// Fill samples against the stored queue documents, so during a reshuffle
// the target queue's own (just cleared) roster must not count as an active
// membership.
func PlayerQueuedElsewhere(queues []models.Queue, queueID, playerID string) bool {
	for i := range queues {
		if queueID != "" && queues[i].QueueID == queueID {
			continue
		}
		if queues[i].Active() && queues[i].HasPlayer(playerID) {
			return true
		}
	}
	return false
}

// EligibleForQueue reports whether a rating snapshot fits the queue's tier.
func EligibleForQueue(queue *models.Queue, rating int) bool {
	return rating >= queue.MinElo && rating <= queue.MaxElo
}

// Join appends a player to the queue roster with a rating snapshot taken
// now. Fails with ErrAlreadyQueued if the player is in any active queue,
// ErrForbidden if their rating is outside the tier, ErrQueueFull at
// capacity. Reaching capacity flips the queue to full.
func (qs *QueueService) Join(ctx context.Context, queueID, playerID string) (*models.Queue, error) {
	player, err := qs.getPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}

	queued, err := qs.playerInActiveQueue(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if queued {
		return nil, ErrAlreadyQueued
	}

	var updated *models.Queue
	err = qs.withConflictRetry(func() error {
		queue, err := qs.GetQueue(ctx, queueID)
		if err != nil {
			return err
		}
		if queue.Status == models.QueueStatusLaunched {
			return fmt.Errorf("%w: queue is mid-launch", ErrInvalidState)
		}
		if queue.HasPlayer(playerID) {
			return ErrAlreadyQueued
		}
		if len(queue.Players) >= queue.Capacity() {
			return ErrQueueFull
		}

		rating := player.Rating(queue.TeamSize)
		if !EligibleForQueue(queue, rating) {
			return fmt.Errorf("%w: rating %d is outside tier [%d, %d]", ErrForbidden, rating, queue.MinElo, queue.MaxElo)
		}

		queue.Players = append(queue.Players, models.QueuedPlayer{
			PlayerID:    playerID,
			DisplayName: player.DisplayName,
			Rating:      rating,
			JoinedAt:    time.Now().UTC().Format(time.RFC3339),
		})
		if len(queue.Players) == queue.Capacity() {
			queue.Status = models.QueueStatusFull
		}

		if err := qs.writeRoster(ctx, queue); err != nil {
			return err
		}
		updated = queue
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Player %s joined queue %s (%d/%d)", playerID, queueID, len(updated.Players), updated.Capacity())
	qs.Notifier.BroadcastQueue(updated)
	return updated, nil
}

// Leave removes a player from the roster. ErrNotInQueue when absent. A full
// queue with a vacancy drops back to open.
func (qs *QueueService) Leave(ctx context.Context, queueID, playerID string) (*models.Queue, error) {
	var updated *models.Queue
	err := qs.withConflictRetry(func() error {
		queue, err := qs.GetQueue(ctx, queueID)
		if err != nil {
			return err
		}
		if queue.Status == models.QueueStatusLaunched {
			return fmt.Errorf("%w: queue is mid-launch", ErrInvalidState)
		}
		if !queue.HasPlayer(playerID) {
			return ErrNotInQueue
		}

		players := make([]models.QueuedPlayer, 0, len(queue.Players)-1)
		for _, p := range queue.Players {
			if p.PlayerID != playerID {
				players = append(players, p)
			}
		}
		queue.Players = players
		if queue.Status == models.QueueStatusFull {
			queue.Status = models.QueueStatusOpen
		}

		if err := qs.writeRoster(ctx, queue); err != nil {
			return err
		}
		updated = queue
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Player %s left queue %s (%d/%d)", playerID, queueID, len(updated.Players), updated.Capacity())
	qs.Notifier.BroadcastQueue(updated)
	return updated, nil
}

// Fill is the administrative roster filler: it samples rated players whose
// rating for the queue's team size falls inside the tier and who are not
// already queued, topping the roster up to capacity. With reshuffle the
// existing roster is cleared first. ErrNoEligiblePlayers when the sampling
// pool is empty.
func (qs *QueueService) Fill(ctx context.Context, queueID string, reshuffle bool) (*models.Queue, error) {
	var updated *models.Queue
	err := qs.withConflictRetry(func() error {
		queue, err := qs.GetQueue(ctx, queueID)
		if err != nil {
			return err
		}
		if queue.Status == models.QueueStatusLaunched {
			return fmt.Errorf("%w: queue is mid-launch", ErrInvalidState)
		}
		if reshuffle {
			queue.Players = []models.QueuedPlayer{}
			queue.Status = models.QueueStatusOpen
		} else if len(queue.Players) >= queue.Capacity() {
			return ErrQueueFull
		}

		queues, err := qs.ListQueues(ctx, 0)
		if err != nil {
			return err
		}

		var pool []models.Player
		err = qs.Dynamo.ScanWithFilter(ctx, models.PlayersTable, nil, &pool)
		if err != nil {
			return err
		}

		now := time.Now().UTC().Format(time.RFC3339)
		eligible := 0
		for i := range pool {
			if len(queue.Players) >= queue.Capacity() {
				break
			}
			p := &pool[i]
			rating := p.Rating(queue.TeamSize)
			if !EligibleForQueue(queue, rating) {
				continue
			}
			if queue.HasPlayer(p.PlayerID) || PlayerQueuedElsewhere(queues, queue.QueueID, p.PlayerID) {
				continue
			}
			eligible++
			queue.Players = append(queue.Players, models.QueuedPlayer{
				PlayerID:    p.PlayerID,
				DisplayName: p.DisplayName,
				Rating:      rating,
				JoinedAt:    now,
			})
		}
		if eligible == 0 {
			return ErrNoEligiblePlayers
		}
		if len(queue.Players) == queue.Capacity() {
			queue.Status = models.QueueStatusFull
		}

		if err := qs.writeRoster(ctx, queue); err != nil {
			return err
		}
		updated = queue
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Queue %s filled to %d/%d", queueID, len(updated.Players), updated.Capacity())
	qs.Notifier.BroadcastQueue(updated)
	return updated, nil
}

// Launch converts a full queue into a pending match. The conditional flip
// full -> launched is the mutual-exclusion point: of two racing launches
// exactly one wins, the other observes ErrConflict and, after its retry
// re-read, ErrInvalidState. The winning call balances the roster, persists
// the match and recycles the queue to open.
func (qs *QueueService) Launch(ctx context.Context, queueID string) (*models.Match, error) {
	var match *models.Match
	err := qs.withConflictRetry(func() error {
		queue, err := qs.GetQueue(ctx, queueID)
		if err != nil {
			return err
		}
		if queue.Status != models.QueueStatusFull {
			return fmt.Errorf("%w: queue must be full to launch, is %s", ErrInvalidState, queue.Status)
		}

		teamA, teamB, err := BalanceTeams(queue.Players, queue.TeamSize)
		if err != nil {
			return err
		}

		// Claim the launch before writing the match so a racing call
		// cannot convert the same roster twice.
		if err := qs.flipStatus(ctx, queue, models.QueueStatusFull, models.QueueStatusLaunched); err != nil {
			return err
		}
		queue.Version++

		m := models.Match{
			MatchID:   uuid.NewString(),
			GameType:  queue.GameType,
			TeamSize:  queue.TeamSize,
			MinElo:    queue.MinElo,
			MaxElo:    queue.MaxElo,
			TeamA:     teamA,
			TeamB:     teamB,
			Status:    models.MatchStatusPending,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := qs.Dynamo.PutItemWithCondition(ctx, models.MatchesTable, m, "attribute_not_exists(matchId)", nil, nil); err != nil {
			// No match was written. Hand the roster back so the queue is
			// not stranded at launched with no operation able to touch it.
			if rbErr := qs.flipStatus(ctx, queue, models.QueueStatusLaunched, models.QueueStatusFull); rbErr != nil {
				log.Printf("Queue %s stuck at launched after a failed match write: %v", queue.QueueID, rbErr)
			}
			return err
		}
		match = &m

		// Recycle the roster. The queue is ours (status launched), so no
		// condition beyond the key is needed.
		queue.Players = []models.QueuedPlayer{}
		queue.Status = models.QueueStatusOpen
		queue.Version++
		if err := qs.putQueue(ctx, queue); err != nil {
			// The match exists; only the recycle failed. Name both ids so
			// the roster reset can be replayed by hand.
			log.Printf("Queue %s not recycled after launching match %s: %v", queue.QueueID, m.MatchID, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Queue %s launched match %s (avgA=%d, avgB=%d)", queueID, match.MatchID, match.TeamA.AverageRating, match.TeamB.AverageRating)
	for _, p := range append(append([]models.QueuedPlayer{}, match.TeamA.Players...), match.TeamB.Players...) {
		qs.Notifier.Notify(p.PlayerID, fmt.Sprintf("Your %s match is ready! Match ID: %s", match.GameType, match.MatchID))
	}
	qs.Notifier.BroadcastMatch(match, "matchCreated")
	return match, nil
}

// writeRoster persists roster and status under an optimistic version guard.
func (qs *QueueService) writeRoster(ctx context.Context, queue *models.Queue) error {
	playersAttr, err := attributevalue.Marshal(queue.Players)
	if err != nil {
		return fmt.Errorf("failed to marshal roster: %w", err)
	}

	oldVersion := queue.Version
	queue.Version++
	_, err = qs.Dynamo.UpdateItemWithCondition(ctx, models.QueuesTable,
		"SET players = :players, #st = :st, version = :newVersion",
		queueKey(queue.QueueID),
		map[string]types.AttributeValue{
			":players":    playersAttr,
			":st":         &types.AttributeValueMemberS{Value: queue.Status},
			":newVersion": &types.AttributeValueMemberN{Value: fmt.Sprint(queue.Version)},
			":oldVersion": &types.AttributeValueMemberN{Value: fmt.Sprint(oldVersion)},
		},
		map[string]string{"#st": "status"},
		"version = :oldVersion",
	)
	return err
}

// flipStatus transitions queue status only from the expected source state.
func (qs *QueueService) flipStatus(ctx context.Context, queue *models.Queue, from, to string) error {
	_, err := qs.Dynamo.UpdateItemWithCondition(ctx, models.QueuesTable,
		"SET #st = :to, version = :newVersion",
		queueKey(queue.QueueID),
		map[string]types.AttributeValue{
			":to":         &types.AttributeValueMemberS{Value: to},
			":from":       &types.AttributeValueMemberS{Value: from},
			":newVersion": &types.AttributeValueMemberN{Value: fmt.Sprint(queue.Version + 1)},
			":oldVersion": &types.AttributeValueMemberN{Value: fmt.Sprint(queue.Version)},
		},
		map[string]string{"#st": "status"},
		"#st = :from AND version = :oldVersion",
	)
	return err
}

// putQueue overwrites the whole queue document.
func (qs *QueueService) putQueue(ctx context.Context, queue *models.Queue) error {
	return qs.Dynamo.PutItem(ctx, models.QueuesTable, *queue)
}

// withConflictRetry retries fn once after ErrConflict. Conflicts are
// expected under concurrent access and usually resolve on a re-read.
func (qs *QueueService) withConflictRetry(fn func() error) error {
	err := fn()
	if err == nil || !IsConflict(err) {
		return err
	}
	log.Printf("Conflict on queue update, retrying once")
	return fn()
}
