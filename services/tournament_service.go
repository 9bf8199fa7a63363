package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"arena_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TournamentService persists the bracket algorithms in bracket.go. A
// tournament is one document, so every mutation is a version-guarded
// read-modify-write of the whole bracket; a lost race is retried once
// against a fresh read.
type TournamentService struct {
	Dynamo   DynamoAPI
	Notifier *NotificationService
}

func tournamentKey(tournamentID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"tournamentId": &types.AttributeValueMemberS{Value: tournamentID},
	}
}

// GetTournament retrieves a tournament by ID
func (ts *TournamentService) GetTournament(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	item, err := ts.Dynamo.GetItem(ctx, models.TournamentsTable, tournamentKey(tournamentID))
	if err != nil {
		return nil, err
	}
	var t models.Tournament
	if err := attributevalue.UnmarshalMap(item, &t); err != nil {
		return nil, fmt.Errorf("failed to parse tournament: %w", err)
	}
	return &t, nil
}

// ListTournaments returns every tournament document.
func (ts *TournamentService) ListTournaments(ctx context.Context) ([]models.Tournament, error) {
	var tournaments []models.Tournament
	if err := ts.Dynamo.ScanWithFilter(ctx, models.TournamentsTable, nil, &tournaments); err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

// CreateTournament registers a new draft tournament with an empty bracket.
func (ts *TournamentService) CreateTournament(ctx context.Context, t models.Tournament) (*models.Tournament, error) {
	if t.TournamentID == "" || t.Name == "" {
		return nil, fmt.Errorf("%w: tournamentId and name are required", ErrInvalidInput)
	}
	if t.TeamSize < 1 {
		return nil, fmt.Errorf("%w: team size must be at least 1", ErrInvalidInput)
	}
	if t.BestOf < 1 || t.BestOf%2 == 0 {
		return nil, fmt.Errorf("%w: bestOf must be a positive odd number", ErrInvalidInput)
	}
	if t.MaxRounds < 1 {
		return nil, fmt.Errorf("%w: maxRounds must be at least 1", ErrInvalidInput)
	}

	t.Status = models.TournamentStatusDraft
	t.Rounds = EmptyBracket()
	t.Version = 0
	t.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	err := ts.Dynamo.PutItemWithCondition(ctx, models.TournamentsTable, t, "attribute_not_exists(tournamentId)", nil, nil)
	if err != nil {
		return nil, err
	}
	log.Printf("Tournament %s created (%s, best-of-%d)", t.TournamentID, t.Name, t.BestOf)
	return &t, nil
}

// Seed builds the bracket from an ordered team list. Draft only.
func (ts *TournamentService) Seed(ctx context.Context, tournamentID string, teams []models.TournamentTeam) (*models.Tournament, error) {
	var updated *models.Tournament
	err := ts.withConflictRetry(func() error {
		t, err := ts.GetTournament(ctx, tournamentID)
		if err != nil {
			return err
		}
		if t.Status != models.TournamentStatusDraft {
			return fmt.Errorf("%w: bracket can only be seeded while draft", ErrInvalidState)
		}

		rounds, err := NewBracket(tournamentID, teams)
		if err != nil {
			return err
		}
		t.Rounds = rounds

		if err := ts.persist(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Tournament %s seeded with %d teams", tournamentID, len(teams))
	return updated, nil
}

// Unseed wipes the bracket back to a single empty round. Administrative,
// and only permitted while the tournament has not been started.
func (ts *TournamentService) Unseed(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	var updated *models.Tournament
	err := ts.withConflictRetry(func() error {
		t, err := ts.GetTournament(ctx, tournamentID)
		if err != nil {
			return err
		}
		if t.Status != models.TournamentStatusDraft {
			return fmt.Errorf("%w: bracket can only be unseeded while draft", ErrInvalidState)
		}

		t.Rounds = EmptyBracket()
		if err := ts.persist(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Tournament %s unseeded", tournamentID)
	return updated, nil
}

// Start moves a fully seeded draft tournament to started.
func (ts *TournamentService) Start(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	var updated *models.Tournament
	err := ts.withConflictRetry(func() error {
		t, err := ts.GetTournament(ctx, tournamentID)
		if err != nil {
			return err
		}
		if t.Status != models.TournamentStatusDraft {
			return fmt.Errorf("%w: tournament is %s", ErrInvalidState, t.Status)
		}
		if len(t.Rounds) == 0 || len(t.Rounds[0]) == 0 {
			return fmt.Errorf("%w: bracket has not been seeded", ErrInvalidState)
		}
		for _, m := range t.Rounds[0] {
			if m.TeamA == nil || m.TeamB == nil {
				return fmt.Errorf("%w: round 1 has unfilled slots", ErrInvalidState)
			}
		}

		t.Status = models.TournamentStatusStarted
		if err := ts.persist(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Tournament %s started", tournamentID)
	ts.Notifier.BroadcastTournament(updated, "tournamentStarted")
	return updated, nil
}

// SubmitMapScore records one map's result on a bracket match, runs
// best-of-N win detection and, when the match completes, advances the
// winner into the next round. Completing the final completes the
// tournament.
func (ts *TournamentService) SubmitMapScore(ctx context.Context, tournamentID, matchID string, mapIndex, teamARounds, teamBRounds int) (*models.Tournament, error) {
	var updated *models.Tournament
	err := ts.withConflictRetry(func() error {
		t, err := ts.GetTournament(ctx, tournamentID)
		if err != nil {
			return err
		}
		if t.Status != models.TournamentStatusStarted {
			return fmt.Errorf("%w: tournament is %s", ErrInvalidState, t.Status)
		}

		match := t.FindMatch(matchID)
		if match == nil {
			return fmt.Errorf("%w: no bracket match %s", ErrNotFound, matchID)
		}

		if err := RecordMapScore(match, mapIndex, teamARounds, teamBRounds, t.BestOf, t.MaxRounds); err != nil {
			return err
		}

		if match.Status == models.BracketStatusCompleted {
			if err := AdvanceWinner(t, match.RoundIndex, match.MatchIndex); err != nil {
				return err
			}
			if match.RoundIndex == len(t.Rounds)-1 {
				t.Status = models.TournamentStatusCompleted
			}
		}

		if err := ts.persist(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Tournament %s match %s map %d scored %d-%d", tournamentID, matchID, mapIndex, teamARounds, teamBRounds)
	ts.Notifier.BroadcastTournament(updated, "bracketUpdated")
	return updated, nil
}

// AdvanceTeam is the manual override: an admin declares a side the winner
// of a bracket match without map scores (forfeits, no-shows) and the
// winner advances as usual.
func (ts *TournamentService) AdvanceTeam(ctx context.Context, tournamentID string, round, index int, side string) (*models.Tournament, error) {
	if side != models.SideA && side != models.SideB {
		return nil, fmt.Errorf("%w: side must be %q or %q", ErrInvalidInput, models.SideA, models.SideB)
	}

	var updated *models.Tournament
	err := ts.withConflictRetry(func() error {
		t, err := ts.GetTournament(ctx, tournamentID)
		if err != nil {
			return err
		}
		if t.Status != models.TournamentStatusStarted {
			return fmt.Errorf("%w: tournament is %s", ErrInvalidState, t.Status)
		}
		if round < 0 || round >= len(t.Rounds) || index < 0 || index >= len(t.Rounds[round]) {
			return fmt.Errorf("%w: no match at round %d index %d", ErrNotFound, round, index)
		}

		match := &t.Rounds[round][index]
		if match.Status == models.BracketStatusCompleted {
			return fmt.Errorf("%w: match is already completed", ErrInvalidState)
		}
		if match.TeamA == nil || match.TeamB == nil {
			return fmt.Errorf("%w: match is still awaiting teams", ErrInvalidState)
		}

		match.Status = models.BracketStatusCompleted
		match.Winner = side
		if err := AdvanceWinner(t, round, index); err != nil {
			return err
		}
		if round == len(t.Rounds)-1 {
			t.Status = models.TournamentStatusCompleted
		}

		if err := ts.persist(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Tournament %s: team %s advanced from round %d match %d by override", tournamentID, side, round, index)
	ts.Notifier.BroadcastTournament(updated, "bracketUpdated")
	return updated, nil
}

// DeleteTournament removes a tournament document.
func (ts *TournamentService) DeleteTournament(ctx context.Context, tournamentID string) error {
	return ts.Dynamo.DeleteItem(ctx, models.TournamentsTable, tournamentKey(tournamentID))
}

// persist writes rounds and status under an optimistic version guard.
func (ts *TournamentService) persist(ctx context.Context, t *models.Tournament) error {
	roundsAttr, err := attributevalue.Marshal(t.Rounds)
	if err != nil {
		return fmt.Errorf("failed to marshal bracket: %w", err)
	}

	oldVersion := t.Version
	t.Version++
	_, err = ts.Dynamo.UpdateItemWithCondition(ctx, models.TournamentsTable,
		"SET rounds = :rounds, #st = :st, version = :newVersion",
		tournamentKey(t.TournamentID),
		map[string]types.AttributeValue{
			":rounds":     roundsAttr,
			":st":         &types.AttributeValueMemberS{Value: t.Status},
			":newVersion": &types.AttributeValueMemberN{Value: fmt.Sprint(t.Version)},
			":oldVersion": &types.AttributeValueMemberN{Value: fmt.Sprint(oldVersion)},
		},
		map[string]string{"#st": "status"},
		"version = :oldVersion",
	)
	return err
}

func (ts *TournamentService) withConflictRetry(fn func() error) error {
	err := fn()
	if err == nil || !IsConflict(err) {
		return err
	}
	log.Printf("Conflict on tournament update, retrying once")
	return fn()
}
