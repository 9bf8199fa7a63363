package controllers

import (
	"encoding/json"
	"net/http"

	"arena_server/models"
	"arena_server/services"

	"github.com/gorilla/mux"
)

// TournamentController handles HTTP requests for tournament brackets
type TournamentController struct {
	TournamentService *services.TournamentService
	Directory         *services.DirectoryService
}

// NewTournamentController creates a new TournamentController instance
func NewTournamentController(tournamentService *services.TournamentService, directory *services.DirectoryService) *TournamentController {
	return &TournamentController{TournamentService: tournamentService, Directory: directory}
}

// ListTournaments handles fetching every tournament
func (tc *TournamentController) ListTournaments(w http.ResponseWriter, r *http.Request) {
	tournaments, err := tc.TournamentService.ListTournaments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tournaments": tournaments})
}

// GetTournament handles fetching a single tournament's bracket
func (tc *TournamentController) GetTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID := mux.Vars(r)["tournamentId"]
	tournament, err := tc.TournamentService.GetTournament(r.Context(), tournamentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tournament)
}

// CreateTournament handles creating a draft tournament (admin only)
func (tc *TournamentController) CreateTournament(w http.ResponseWriter, r *http.Request) {
	if _, err := RequireAdmin(r, tc.Directory); err != nil {
		writeError(w, err)
		return
	}

	var payload models.Tournament
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	tournament, err := tc.TournamentService.CreateTournament(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tournament)
}

// Seed handles building the bracket from a team list (admin only)
func (tc *TournamentController) Seed(w http.ResponseWriter, r *http.Request) {
	if _, err := RequireAdmin(r, tc.Directory); err != nil {
		writeError(w, err)
		return
	}

	tournamentID := mux.Vars(r)["tournamentId"]

	var payload struct {
		Teams []models.TournamentTeam `json:"teams"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	tournament, err := tc.TournamentService.Seed(r.Context(), tournamentID, payload.Teams)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tournament)
}

// Start handles moving a seeded tournament to started (admin only)
func (tc *TournamentController) Start(w http.ResponseWriter, r *http.Request) {
	if _, err := RequireAdmin(r, tc.Directory); err != nil {
		writeError(w, err)
		return
	}

	tournamentID := mux.Vars(r)["tournamentId"]
	tournament, err := tc.TournamentService.Start(r.Context(), tournamentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tournament)
}

// Unseed handles wiping the bracket of an unstarted tournament (admin only)
func (tc *TournamentController) Unseed(w http.ResponseWriter, r *http.Request) {
	if _, err := RequireAdmin(r, tc.Directory); err != nil {
		writeError(w, err)
		return
	}

	tournamentID := mux.Vars(r)["tournamentId"]
	tournament, err := tc.TournamentService.Unseed(r.Context(), tournamentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tournament)
}

// SubmitMapScore handles recording one map's result on a bracket match
func (tc *TournamentController) SubmitMapScore(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tournamentID := vars["tournamentId"]
	matchID := vars["matchId"]

	var payload struct {
		MapIndex    int `json:"mapIndex"`
		TeamARounds int `json:"teamARounds"`
		TeamBRounds int `json:"teamBRounds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	tournament, err := tc.TournamentService.SubmitMapScore(r.Context(), tournamentID, matchID, payload.MapIndex, payload.TeamARounds, payload.TeamBRounds)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tournament)
}

// AdvanceTeam handles the manual winner override (admin only)
func (tc *TournamentController) AdvanceTeam(w http.ResponseWriter, r *http.Request) {
	if _, err := RequireAdmin(r, tc.Directory); err != nil {
		writeError(w, err)
		return
	}

	tournamentID := mux.Vars(r)["tournamentId"]

	var payload struct {
		Round      int    `json:"round"`
		MatchIndex int    `json:"matchIndex"`
		Side       string `json:"side"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	tournament, err := tc.TournamentService.AdvanceTeam(r.Context(), tournamentID, payload.Round, payload.MatchIndex, payload.Side)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tournament)
}

// DeleteTournament handles removing a tournament (admin only)
func (tc *TournamentController) DeleteTournament(w http.ResponseWriter, r *http.Request) {
	if _, err := RequireAdmin(r, tc.Directory); err != nil {
		writeError(w, err)
		return
	}

	tournamentID := mux.Vars(r)["tournamentId"]
	if err := tc.TournamentService.DeleteTournament(r.Context(), tournamentID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Tournament deleted"})
}
