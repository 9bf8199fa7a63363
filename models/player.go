package models

// Player is the persisted profile for a rated player. Ratings and history
// are kept per team size ("2", "3", "5") so a player's duo rating never
// bleeds into their five-stack rating.
type Player struct {
	PlayerID      string                    `dynamodbav:"playerId" json:"playerId"` // ✅ Partition Key
	DisplayName   string                    `dynamodbav:"displayName" json:"displayName"`
	Avatar        string                    `dynamodbav:"avatar,omitempty" json:"avatar,omitempty"`
	Ratings       map[string]int            `dynamodbav:"ratings" json:"ratings"`
	RatingHistory map[string][]RatingChange `dynamodbav:"ratingHistory" json:"ratingHistory"`
	Wins          map[string]int            `dynamodbav:"wins" json:"wins"`
	Losses        map[string]int            `dynamodbav:"losses" json:"losses"`
	CreatedAt     string                    `dynamodbav:"createdAt" json:"createdAt"`
}

// RatingChange is the immutable per-match record appended to a player's
// history when a match is resolved. Never mutated after creation.
type RatingChange struct {
	MatchID        string `dynamodbav:"matchId" json:"matchId"`
	PreviousRating int    `dynamodbav:"previousRating" json:"previousRating"`
	Delta          int    `dynamodbav:"delta" json:"delta"`
	NewRating      int    `dynamodbav:"newRating" json:"newRating"`
	CreatedAt      string `dynamodbav:"createdAt" json:"createdAt"`
}

// Rating returns the player's rating for a team size, falling back to the
// default for sizes they have not played yet.
func (p *Player) Rating(teamSize int) int {
	if r, ok := p.Ratings[TeamSizeKey(teamSize)]; ok {
		return r
	}
	return DefaultRating
}

// DefaultRating is assigned to players with no history for a team size.
const DefaultRating = 1000

// PlayersTable is the DynamoDB table holding player profiles.
const PlayersTable = "Players"
