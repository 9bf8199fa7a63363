package models

// MapScore is one map's result inside a series. Shared between tournament
// matches and ranked matches that report per-map detail.
type MapScore struct {
	MapIndex     int    `dynamodbav:"mapIndex" json:"mapIndex"`
	TeamARounds  int    `dynamodbav:"teamARounds" json:"teamARounds"`
	TeamBRounds  int    `dynamodbav:"teamBRounds" json:"teamBRounds"`
	SubmittedByA bool   `dynamodbav:"submittedByA" json:"submittedByA"`
	SubmittedByB bool   `dynamodbav:"submittedByB" json:"submittedByB"`
	Winner       string `dynamodbav:"winner" json:"winner"`
}

// TournamentTeam is a named roster occupying a bracket slot. Slots are nil
// until filled by seeding or by advancement from the previous round.
type TournamentTeam struct {
	Name    string         `dynamodbav:"name" json:"name"`
	Players []QueuedPlayer `dynamodbav:"players" json:"players"`
}

// TournamentMatch is one bracket node, addressed by (round, matchIndex).
type TournamentMatch struct {
	MatchID    string          `dynamodbav:"matchId" json:"matchId"`
	RoundIndex int             `dynamodbav:"roundIndex" json:"roundIndex"`
	MatchIndex int             `dynamodbav:"matchIndex" json:"matchIndex"`
	TeamA      *TournamentTeam `dynamodbav:"teamA,omitempty" json:"teamA,omitempty"`
	TeamB      *TournamentTeam `dynamodbav:"teamB,omitempty" json:"teamB,omitempty"`
	Maps       []MapScore      `dynamodbav:"maps,omitempty" json:"maps,omitempty"`
	Status     string          `dynamodbav:"status" json:"status"`
	Winner     string          `dynamodbav:"winner,omitempty" json:"winner,omitempty"`
}

// WinnerTeam returns the roster that won a completed bracket match.
func (tm *TournamentMatch) WinnerTeam() *TournamentTeam {
	switch tm.Winner {
	case SideA:
		return tm.TeamA
	case SideB:
		return tm.TeamB
	}
	return nil
}

// Tournament is a single-elimination bracket document. Rounds are stored
// leaves-first: rounds[0] holds the opening matches, the last round the final.
type Tournament struct {
	TournamentID string              `dynamodbav:"tournamentId" json:"tournamentId"` // ✅ Partition Key
	Name         string              `dynamodbav:"name" json:"name"`
	GameType     string              `dynamodbav:"gameType" json:"gameType"`
	TeamSize     int                 `dynamodbav:"teamSize" json:"teamSize"`
	BestOf       int                 `dynamodbav:"bestOf" json:"bestOf"`
	MaxRounds    int                 `dynamodbav:"maxRounds" json:"maxRounds"`
	Status       string              `dynamodbav:"status" json:"status"`
	Rounds       [][]TournamentMatch `dynamodbav:"rounds" json:"rounds"`
	Version      int                 `dynamodbav:"version" json:"version"`
	CreatedAt    string              `dynamodbav:"createdAt" json:"createdAt"`
}

// FindMatch locates a bracket match by id. Returns nil when absent.
func (t *Tournament) FindMatch(matchID string) *TournamentMatch {
	for r := range t.Rounds {
		for i := range t.Rounds[r] {
			if t.Rounds[r][i].MatchID == matchID {
				return &t.Rounds[r][i]
			}
		}
	}
	return nil
}

// TournamentsTable is the DynamoDB table holding tournament brackets.
const TournamentsTable = "Tournaments"
