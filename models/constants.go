package models

// Queue statuses
const (
	QueueStatusOpen     = "open"
	QueueStatusFull     = "full"
	QueueStatusLaunched = "launched"
)

// Match statuses
const (
	MatchStatusPending   = "pending"
	MatchStatusConfirmed = "confirmed"
	MatchStatusDisputed  = "disputed"
	MatchStatusCompleted = "completed"
)

// Tournament statuses
const (
	TournamentStatusDraft     = "draft"
	TournamentStatusStarted   = "started"
	TournamentStatusCompleted = "completed"
)

// Tournament match statuses
const (
	BracketStatusAwaitingTeams = "awaiting_teams"
	BracketStatusUpcoming      = "upcoming"
	BracketStatusInProgress    = "in_progress"
	BracketStatusCompleted     = "completed"
)

// Team sides
const (
	SideA = "A"
	SideB = "B"
)
