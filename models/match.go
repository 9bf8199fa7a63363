package models

// Team is one side of a match: the tagged side marker, the roster handed
// over from the queue, and the arithmetic mean of the roster's rating
// snapshots (the opponent-average input to the rating engine).
type Team struct {
	Side          string         `dynamodbav:"side" json:"side"`
	Players       []QueuedPlayer `dynamodbav:"players" json:"players"`
	AverageRating int            `dynamodbav:"averageRating" json:"averageRating"`
}

// HasPlayer reports whether the roster contains the player id.
func (t *Team) HasPlayer(playerID string) bool {
	for _, p := range t.Players {
		if p.PlayerID == playerID {
			return true
		}
	}
	return false
}

// Match is a ranked match created from a full queue. Terminal states are
// completed (ratings applied) and disputed (held for manual resolution).
type Match struct {
	MatchID       string                  `dynamodbav:"matchId" json:"matchId"` // ✅ Partition Key
	GameType      string                  `dynamodbav:"gameType" json:"gameType"`
	TeamSize      int                     `dynamodbav:"teamSize" json:"teamSize"`
	MinElo        int                     `dynamodbav:"minElo" json:"minElo"`
	MaxElo        int                     `dynamodbav:"maxElo" json:"maxElo"`
	TeamA         Team                    `dynamodbav:"teamA" json:"teamA"`
	TeamB         Team                    `dynamodbav:"teamB" json:"teamB"`
	Status        string                  `dynamodbav:"status" json:"status"`
	SubmittedBy   string                  `dynamodbav:"submittedBy,omitempty" json:"submittedBy,omitempty"`
	ConfirmedBy   string                  `dynamodbav:"confirmedBy,omitempty" json:"confirmedBy,omitempty"`
	DisputedBy    string                  `dynamodbav:"disputedBy,omitempty" json:"disputedBy,omitempty"`
	ScoreA        int                     `dynamodbav:"scoreA" json:"scoreA"`
	ScoreB        int                     `dynamodbav:"scoreB" json:"scoreB"`
	MapScores     []MapScore              `dynamodbav:"mapScores,omitempty" json:"mapScores,omitempty"`
	RatingChanges map[string]RatingChange `dynamodbav:"ratingChanges,omitempty" json:"ratingChanges,omitempty"`
	EvidenceKeys  []string                `dynamodbav:"evidenceKeys,omitempty" json:"evidenceKeys,omitempty"`
	CreatedAt     string                  `dynamodbav:"createdAt" json:"createdAt"`
	CompletedAt   string                  `dynamodbav:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// PlayerSide returns which side a player is on, or "" for non-members.
func (m *Match) PlayerSide(playerID string) string {
	if m.TeamA.HasPlayer(playerID) {
		return SideA
	}
	if m.TeamB.HasPlayer(playerID) {
		return SideB
	}
	return ""
}

// MatchesTable is the DynamoDB table holding ranked matches.
const MatchesTable = "Matches"
