package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"arena_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/brianvoe/gofakeit/v7"
)

// PlayerService handles player profiles, the leaderboard and the demo
// player pool the queue filler samples from.
type PlayerService struct {
	Dynamo DynamoAPI
}

// GetPlayer retrieves a player profile by ID
func (ps *PlayerService) GetPlayer(ctx context.Context, playerID string) (*models.Player, error) {
	item, err := ps.Dynamo.GetItem(ctx, models.PlayersTable, map[string]types.AttributeValue{
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

// EnsurePlayer creates a profile with default ratings on first contact and
// returns the existing one otherwise.
func (ps *PlayerService) EnsurePlayer(ctx context.Context, playerID, displayName string) (*models.Player, error) {
	if playerID == "" {
		return nil, fmt.Errorf("%w: playerId is required", ErrInvalidInput)
	}

	player, err := ps.GetPlayer(ctx, playerID)
	if err == nil {
		return player, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	fresh := newPlayer(playerID, displayName)
	err = ps.Dynamo.PutItemWithCondition(ctx, models.PlayersTable, fresh, "attribute_not_exists(playerId)", nil, nil)
	if IsConflict(err) {
		// Lost a create race; the other writer's profile is the truth.
		return ps.GetPlayer(ctx, playerID)
	}
	if err != nil {
		return nil, err
	}
	log.Printf("Player %s registered", playerID)
	return &fresh, nil
}

func newPlayer(playerID, displayName string) models.Player {
	if displayName == "" {
		displayName = playerID
	}
	return models.Player{
		PlayerID:    playerID,
		DisplayName: displayName,
		Ratings: map[string]int{
			"2": models.DefaultRating,
			"3": models.DefaultRating,
			"5": models.DefaultRating,
		},
		RatingHistory: map[string][]models.RatingChange{},
		Wins:          map[string]int{},
		Losses:        map[string]int{},
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	}
}

// Leaderboard returns the top players for a team size, highest rating
// first. Ties break on display name to keep the ordering stable.
func (ps *PlayerService) Leaderboard(ctx context.Context, teamSize, limit int) ([]models.Player, error) {
	if teamSize < 1 {
		return nil, fmt.Errorf("%w: team size must be at least 1", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 25
	}

	var players []models.Player
	if err := ps.Dynamo.ScanWithFilter(ctx, models.PlayersTable, nil, &players); err != nil {
		return nil, fmt.Errorf("failed to scan players: %w", err)
	}

	sort.SliceStable(players, func(i, j int) bool {
		ri, rj := players[i].Rating(teamSize), players[j].Rating(teamSize)
		if ri != rj {
			return ri > rj
		}
		return players[i].DisplayName < players[j].DisplayName
	})

	if len(players) > limit {
		players = players[:limit]
	}
	return players, nil
}

// SeedDemoPlayers batch-creates generated players with ratings spread
// across the tiers. Development/admin tooling: it feeds the pool the queue
// Fill operation samples.
func (ps *PlayerService) SeedDemoPlayers(ctx context.Context, count int) ([]models.Player, error) {
	if count < 1 || count > 100 {
		return nil, fmt.Errorf("%w: count must be between 1 and 100", ErrInvalidInput)
	}

	players := make([]models.Player, 0, count)
	writes := make([]types.WriteRequest, 0, count)
	for i := 0; i < count; i++ {
		p := newPlayer(fmt.Sprintf("demo-%s", gofakeit.UUID()), gofakeit.Gamertag())
		rating := gofakeit.Number(RatingFloor+800, 2200)
		for k := range p.Ratings {
			p.Ratings[k] = rating
		}

		item, err := attributevalue.MarshalMap(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal demo player: %w", err)
		}
		writes = append(writes, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		players = append(players, p)
	}

	if err := ps.Dynamo.BatchWriteItems(ctx, models.PlayersTable, writes); err != nil {
		return nil, err
	}
	log.Printf("Seeded %d demo players", count)
	return players, nil
}
