package models

import "strconv"

// Queue is a matchmaking queue for one game type and ELO tier. The roster
// holds 2*TeamSize players at most; a player id appears in at most one
// open/full queue system-wide.
type Queue struct {
	QueueID  string         `dynamodbav:"queueId" json:"queueId"` // ✅ Partition Key
	GameType string         `dynamodbav:"gameType" json:"gameType"`
	TeamSize int            `dynamodbav:"teamSize" json:"teamSize"`
	MinElo   int            `dynamodbav:"minElo" json:"minElo"`
	MaxElo   int            `dynamodbav:"maxElo" json:"maxElo"`
	Players  []QueuedPlayer `dynamodbav:"players" json:"players"`
	Status   string         `dynamodbav:"status" json:"status"`
	Version  int            `dynamodbav:"version" json:"version"`
}

// QueuedPlayer is one roster entry. The rating is a snapshot taken at join
// time and does not track later rating changes.
type QueuedPlayer struct {
	PlayerID    string `dynamodbav:"playerId" json:"playerId"`
	DisplayName string `dynamodbav:"displayName" json:"displayName"`
	Rating      int    `dynamodbav:"rating" json:"rating"`
	JoinedAt    string `dynamodbav:"joinedAt" json:"joinedAt"`
}

// Capacity is the roster size that flips the queue to full.
func (q *Queue) Capacity() int {
	return 2 * q.TeamSize
}

// HasPlayer reports whether the roster contains the player id.
func (q *Queue) HasPlayer(playerID string) bool {
	for _, p := range q.Players {
		if p.PlayerID == playerID {
			return true
		}
	}
	return false
}

// Active reports whether the queue counts toward the one-queue-per-player
// rule (launched queues have already handed their roster to a match).
func (q *Queue) Active() bool {
	return q.Status == QueueStatusOpen || q.Status == QueueStatusFull
}

// TeamSizeKey converts a team size to the map key used by player ratings.
func TeamSizeKey(teamSize int) string {
	return strconv.Itoa(teamSize)
}

// QueuesTable is the DynamoDB table holding matchmaking queues.
const QueuesTable = "Queues"
