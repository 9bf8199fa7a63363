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
)

// Per-map round cap for ranked matches that report map detail. Tournament
// brackets carry their own configured cap.
const rankedMapRoundCap = 30

// MatchService owns the ranked match lifecycle: pending -> confirmed ->
// completed, or pending -> disputed (terminal, held for manual resolution).
// The pending -> confirmed/disputed transition is a conditional update, so
// ratings apply exactly once however many confirmations race.
type MatchService struct {
	Dynamo   DynamoAPI
	Notifier *NotificationService
}

func matchKey(matchID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"matchId": &types.AttributeValueMemberS{Value: matchID},
	}
}

// GetMatch retrieves a match by ID
func (ms *MatchService) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	item, err := ms.Dynamo.GetItem(ctx, models.MatchesTable, matchKey(matchID))
	if err != nil {
		return nil, err
	}
	var match models.Match
	if err := attributevalue.UnmarshalMap(item, &match); err != nil {
		return nil, fmt.Errorf("failed to parse match: %w", err)
	}
	return &match, nil
}

// ListMatches returns matches, optionally narrowed to a status and to
// those a player took part in.
func (ms *MatchService) ListMatches(ctx context.Context, playerID, status string) ([]models.Match, error) {
	var filter func(map[string]types.AttributeValue) bool
	if status != "" {
		filter = func(item map[string]types.AttributeValue) bool {
			return utils.ExtractString(item, "status") == status
		}
	}

	var matches []models.Match
	err := ms.Dynamo.ScanWithFilter(ctx, models.MatchesTable, filter, &matches)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	if playerID == "" {
		return matches, nil
	}
	filtered := matches[:0]
	for _, m := range matches {
		if m.PlayerSide(playerID) != "" {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

// SubmitScores records a score report on a pending match. The submitter
// must be a roster member; resubmission while still pending overwrites the
// previous report. Optional per-map detail is validated the same way
// tournament maps are.
func (ms *MatchService) SubmitScores(ctx context.Context, matchID, submitterID string, scoreA, scoreB int, maps []models.MapScore) (*models.Match, error) {
	match, err := ms.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusPending {
		return nil, fmt.Errorf("%w: scores can only be submitted while pending, match is %s", ErrInvalidState, match.Status)
	}
	if match.PlayerSide(submitterID) == "" {
		return nil, fmt.Errorf("%w: submitter is not on either roster", ErrForbidden)
	}
	if err := validateMatchScores(scoreA, scoreB, maps); err != nil {
		return nil, err
	}

	mapsAttr, err := attributevalue.Marshal(maps)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal map scores: %w", err)
	}

	_, err = ms.Dynamo.UpdateItemWithCondition(ctx, models.MatchesTable,
		"SET scoreA = :a, scoreB = :b, submittedBy = :by, mapScores = :maps",
		matchKey(matchID),
		map[string]types.AttributeValue{
			":a":       &types.AttributeValueMemberN{Value: fmt.Sprint(scoreA)},
			":b":       &types.AttributeValueMemberN{Value: fmt.Sprint(scoreB)},
			":by":      &types.AttributeValueMemberS{Value: submitterID},
			":maps":    mapsAttr,
			":pending": &types.AttributeValueMemberS{Value: models.MatchStatusPending},
		},
		map[string]string{"#st": "status"},
		"#st = :pending",
	)
	if err != nil {
		if IsConflict(err) {
			return nil, fmt.Errorf("%w: match left pending during submission", ErrInvalidState)
		}
		return nil, err
	}

	log.Printf("Match %s scores submitted by %s: %d-%d", matchID, submitterID, scoreA, scoreB)
	match.ScoreA, match.ScoreB = scoreA, scoreB
	match.SubmittedBy = submitterID
	match.MapScores = maps
	ms.Notifier.BroadcastMatch(match, "scoresSubmitted")
	return match, nil
}

func validateMatchScores(scoreA, scoreB int, maps []models.MapScore) error {
	if scoreA < 0 || scoreB < 0 {
		return fmt.Errorf("%w: scores cannot be negative", ErrInvalidInput)
	}
	if scoreA == scoreB {
		return fmt.Errorf("%w: a ranked match cannot end in a draw", ErrInvalidInput)
	}
	for _, m := range maps {
		if err := ValidateMapScore(m.TeamARounds, m.TeamBRounds, rankedMapRoundCap); err != nil {
			return err
		}
	}
	return nil
}

// Confirm resolves a pending match. The confirmer must belong to the roster
// opposing the original submitter. Accepting applies ratings and completes
// the match; rejecting marks it disputed with no rating mutation.
func (ms *MatchService) Confirm(ctx context.Context, matchID, confirmerID string, accept bool) (*models.Match, error) {
	match, err := ms.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusPending {
		return nil, fmt.Errorf("%w: match is %s", ErrInvalidState, match.Status)
	}
	if match.SubmittedBy == "" {
		return nil, fmt.Errorf("%w: no scores have been submitted", ErrInvalidState)
	}
	if err := CanConfirm(match, confirmerID); err != nil {
		return nil, err
	}

	if !accept {
		_, err = ms.Dynamo.UpdateItemWithCondition(ctx, models.MatchesTable,
			"SET #st = :disputed, disputedBy = :by",
			matchKey(matchID),
			map[string]types.AttributeValue{
				":disputed": &types.AttributeValueMemberS{Value: models.MatchStatusDisputed},
				":by":       &types.AttributeValueMemberS{Value: confirmerID},
				":pending":  &types.AttributeValueMemberS{Value: models.MatchStatusPending},
				":sub":      &types.AttributeValueMemberS{Value: match.SubmittedBy},
				":sa":       &types.AttributeValueMemberN{Value: fmt.Sprint(match.ScoreA)},
				":sb":       &types.AttributeValueMemberN{Value: fmt.Sprint(match.ScoreB)},
			},
			map[string]string{"#st": "status"},
			"#st = :pending AND submittedBy = :sub AND scoreA = :sa AND scoreB = :sb",
		)
		if err != nil {
			if IsConflict(err) {
				return nil, fmt.Errorf("%w: match was resolved by a concurrent request", ErrInvalidState)
			}
			return nil, err
		}
		match.Status = models.MatchStatusDisputed
		match.DisputedBy = confirmerID
		log.Printf("Match %s disputed by %s", matchID, confirmerID)
		ms.Notifier.Notify(match.SubmittedBy, fmt.Sprintf("Your score report for match %s was disputed.", matchID))
		ms.Notifier.BroadcastMatch(match, "matchDisputed")
		return match, nil
	}

	changes, err := ComputeMatchRatings(match)
	if err != nil {
		return nil, err
	}

	changesAttr, err := attributevalue.Marshal(changes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rating changes: %w", err)
	}

	// The conditional pending -> confirmed flip is the at-most-once gate:
	// of two racing confirms only one passes, and a re-run on a confirmed
	// match never reaches the rating writes. Pinning the submitter and the
	// scores rejects a confirmation of a report resubmitted after our read.
	completedAt := time.Now().UTC().Format(time.RFC3339)
	_, err = ms.Dynamo.UpdateItemWithCondition(ctx, models.MatchesTable,
		"SET #st = :confirmed, confirmedBy = :by, ratingChanges = :changes, completedAt = :at",
		matchKey(matchID),
		map[string]types.AttributeValue{
			":confirmed": &types.AttributeValueMemberS{Value: models.MatchStatusConfirmed},
			":by":        &types.AttributeValueMemberS{Value: confirmerID},
			":changes":   changesAttr,
			":at":        &types.AttributeValueMemberS{Value: completedAt},
			":pending":   &types.AttributeValueMemberS{Value: models.MatchStatusPending},
			":sub":       &types.AttributeValueMemberS{Value: match.SubmittedBy},
			":sa":        &types.AttributeValueMemberN{Value: fmt.Sprint(match.ScoreA)},
			":sb":        &types.AttributeValueMemberN{Value: fmt.Sprint(match.ScoreB)},
		},
		map[string]string{"#st": "status"},
		"#st = :pending AND submittedBy = :sub AND scoreA = :sa AND scoreB = :sb",
	)
	if err != nil {
		if IsConflict(err) {
			return nil, fmt.Errorf("%w: match was resolved by a concurrent request", ErrInvalidState)
		}
		return nil, err
	}

	match.Status = models.MatchStatusConfirmed
	match.ConfirmedBy = confirmerID
	match.RatingChanges = changes
	match.CompletedAt = completedAt

	if err := ms.applyRatings(ctx, match, changes); err != nil {
		return nil, err
	}

	_, err = ms.Dynamo.UpdateItem(ctx, models.MatchesTable,
		"SET #st = :completed",
		matchKey(matchID),
		map[string]types.AttributeValue{
			":completed": &types.AttributeValueMemberS{Value: models.MatchStatusCompleted},
		},
		map[string]string{"#st": "status"},
	)
	if err != nil {
		return nil, err
	}
	match.Status = models.MatchStatusCompleted

	log.Printf("Match %s confirmed by %s and completed (%d-%d)", matchID, confirmerID, match.ScoreA, match.ScoreB)
	ms.notifyRatingChanges(match, changes)
	ms.Notifier.BroadcastMatch(match, "matchCompleted")
	return match, nil
}

// Complete is the administrative direct path: it records the given scores
// and resolves the match in one step, through the same conditional gate and
// the same rating procedure as Confirm. Confirm and Complete are mutually
// exclusive by that gate.
func (ms *MatchService) Complete(ctx context.Context, matchID, adminID string, scoreA, scoreB int) (*models.Match, error) {
	match, err := ms.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusPending {
		return nil, fmt.Errorf("%w: match is %s", ErrInvalidState, match.Status)
	}
	if err := validateMatchScores(scoreA, scoreB, nil); err != nil {
		return nil, err
	}

	match.ScoreA, match.ScoreB = scoreA, scoreB
	changes, err := ComputeMatchRatings(match)
	if err != nil {
		return nil, err
	}

	changesAttr, err := attributevalue.Marshal(changes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rating changes: %w", err)
	}

	completedAt := time.Now().UTC().Format(time.RFC3339)
	_, err = ms.Dynamo.UpdateItemWithCondition(ctx, models.MatchesTable,
		"SET #st = :confirmed, scoreA = :a, scoreB = :b, confirmedBy = :by, ratingChanges = :changes, completedAt = :at",
		matchKey(matchID),
		map[string]types.AttributeValue{
			":confirmed": &types.AttributeValueMemberS{Value: models.MatchStatusConfirmed},
			":a":         &types.AttributeValueMemberN{Value: fmt.Sprint(scoreA)},
			":b":         &types.AttributeValueMemberN{Value: fmt.Sprint(scoreB)},
			":by":        &types.AttributeValueMemberS{Value: adminID},
			":changes":   changesAttr,
			":at":        &types.AttributeValueMemberS{Value: completedAt},
			":pending":   &types.AttributeValueMemberS{Value: models.MatchStatusPending},
		},
		map[string]string{"#st": "status"},
		"#st = :pending",
	)
	if err != nil {
		if IsConflict(err) {
			return nil, fmt.Errorf("%w: match was resolved by a concurrent request", ErrInvalidState)
		}
		return nil, err
	}

	match.Status = models.MatchStatusConfirmed
	match.ConfirmedBy = adminID
	match.RatingChanges = changes
	match.CompletedAt = completedAt

	if err := ms.applyRatings(ctx, match, changes); err != nil {
		return nil, err
	}

	_, err = ms.Dynamo.UpdateItem(ctx, models.MatchesTable,
		"SET #st = :completed",
		matchKey(matchID),
		map[string]types.AttributeValue{
			":completed": &types.AttributeValueMemberS{Value: models.MatchStatusCompleted},
		},
		map[string]string{"#st": "status"},
	)
	if err != nil {
		return nil, err
	}
	match.Status = models.MatchStatusCompleted

	log.Printf("Match %s completed by admin %s (%d-%d)", matchID, adminID, scoreA, scoreB)
	ms.notifyRatingChanges(match, changes)
	ms.Notifier.BroadcastMatch(match, "matchCompleted")
	return match, nil
}

// AttachEvidence links an uploaded S3 object to a pending or disputed
// match, supporting the manual dispute-resolution process.
func (ms *MatchService) AttachEvidence(ctx context.Context, matchID, playerID, objectKey string) error {
	if objectKey == "" {
		return fmt.Errorf("%w: objectKey is required", ErrInvalidInput)
	}
	match, err := ms.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if match.Status != models.MatchStatusPending && match.Status != models.MatchStatusDisputed {
		return fmt.Errorf("%w: evidence can only be attached while pending or disputed", ErrInvalidState)
	}
	if match.PlayerSide(playerID) == "" {
		return fmt.Errorf("%w: player is not on either roster", ErrForbidden)
	}

	keyAttr, err := attributevalue.Marshal([]string{objectKey})
	if err != nil {
		return fmt.Errorf("failed to marshal evidence key: %w", err)
	}
	_, err = ms.Dynamo.UpdateItem(ctx, models.MatchesTable,
		"SET evidenceKeys = list_append(if_not_exists(evidenceKeys, :empty), :key)",
		matchKey(matchID),
		map[string]types.AttributeValue{
			":key":   keyAttr,
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
		},
		nil,
	)
	return err
}

// CanConfirm enforces the confirmation rule: the confirmer must be on the
// roster opposing the original submitter.
func CanConfirm(match *models.Match, confirmerID string) error {
	submitterSide := match.PlayerSide(match.SubmittedBy)
	confirmerSide := match.PlayerSide(confirmerID)
	if confirmerSide == "" {
		return fmt.Errorf("%w: confirmer is not on either roster", ErrForbidden)
	}
	if submitterSide == confirmerSide {
		return fmt.Errorf("%w: confirmation must come from the opposing team", ErrForbidden)
	}
	return nil
}

// ComputeMatchRatings derives every participant's rating change from the
// final score: each player is rated against the opposing team's average,
// with their own side's win/loss as the outcome. Pure. Calling it on a
// match that already carries rating changes is a hard failure, never a
// double application.
func ComputeMatchRatings(match *models.Match) (map[string]models.RatingChange, error) {
	if len(match.RatingChanges) > 0 {
		return nil, fmt.Errorf("%w: ratings already applied to match %s", ErrInvalidState, match.MatchID)
	}
	if match.ScoreA == match.ScoreB {
		return nil, fmt.Errorf("%w: cannot derive a winner from a drawn score", ErrInvalidInput)
	}

	teamAWon := match.ScoreA > match.ScoreB
	changes := make(map[string]models.RatingChange, len(match.TeamA.Players)+len(match.TeamB.Players))
	for _, p := range match.TeamA.Players {
		changes[p.PlayerID] = ComputeRatingChange(match.MatchID, p.Rating, match.TeamB.AverageRating, teamAWon)
	}
	for _, p := range match.TeamB.Players {
		changes[p.PlayerID] = ComputeRatingChange(match.MatchID, p.Rating, match.TeamA.AverageRating, !teamAWon)
	}
	return changes, nil
}

// applyRatings persists one immutable rating-change record per player:
// running rating, per-size history and win/loss counters, all keyed by the
// match's team size.
func (ms *MatchService) applyRatings(ctx context.Context, match *models.Match, changes map[string]models.RatingChange) error {
	sizeKey := models.TeamSizeKey(match.TeamSize)
	teamAWon := match.ScoreA > match.ScoreB
	for playerID, change := range changes {
		won := match.PlayerSide(playerID) == models.SideA
		if !teamAWon {
			won = !won
		}
		counter := "losses"
		if won {
			counter = "wins"
		}

		changeAttr, err := attributevalue.Marshal([]models.RatingChange{change})
		if err != nil {
			return fmt.Errorf("failed to marshal rating change: %w", err)
		}

		_, err = ms.Dynamo.UpdateItem(ctx, models.PlayersTable,
			"SET ratings.#k = :rating, "+
				"ratingHistory.#k = list_append(if_not_exists(ratingHistory.#k, :emptyList), :change), "+
				"#ctr.#k = if_not_exists(#ctr.#k, :zero) + :one",
			map[string]types.AttributeValue{
				"playerId": &types.AttributeValueMemberS{Value: playerID},
			},
			map[string]types.AttributeValue{
				":rating":    &types.AttributeValueMemberN{Value: fmt.Sprint(change.NewRating)},
				":change":    changeAttr,
				":emptyList": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
				":zero":      &types.AttributeValueMemberN{Value: "0"},
				":one":       &types.AttributeValueMemberN{Value: "1"},
			},
			map[string]string{"#k": sizeKey, "#ctr": counter},
		)
		if err != nil {
			// Earlier players in the loop are already written; the error
			// names the first unapplied one so the rest can be replayed.
			return fmt.Errorf("failed to apply rating for player %s: %w", playerID, err)
		}
		log.Printf("Match %s: rating applied for player %s (%d -> %d)", match.MatchID, playerID, change.PreviousRating, change.NewRating)
	}
	return nil
}

func (ms *MatchService) notifyRatingChanges(match *models.Match, changes map[string]models.RatingChange) {
	for playerID, change := range changes {
		msg := fmt.Sprintf("Match %s resolved: your rating moved %+d to %d.", match.MatchID, change.Delta, change.NewRating)
		ms.Notifier.Notify(playerID, msg)
	}
}
