package controllers

import (
	"encoding/json"
	"net/http"

	"arena_server/models"
	"arena_server/services"

	"github.com/gorilla/mux"
)

// MatchController handles HTTP requests for ranked matches
type MatchController struct {
	MatchService *services.MatchService
	Directory    *services.DirectoryService
}

// NewMatchController creates a new MatchController instance
func NewMatchController(matchService *services.MatchService, directory *services.DirectoryService) *MatchController {
	return &MatchController{MatchService: matchService, Directory: directory}
}

// ListMatches handles fetching matches, optionally filtered by player/status
func (mc *MatchController) ListMatches(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	status := r.URL.Query().Get("status")

	matches, err := mc.MatchService.ListMatches(r.Context(), playerID, status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"matches": matches})
}

// GetMatch handles fetching a single match's state
func (mc *MatchController) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["matchId"]
	match, err := mc.MatchService.GetMatch(r.Context(), matchID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

// SubmitScores handles a roster member reporting the final score
func (mc *MatchController) SubmitScores(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["matchId"]

	var payload struct {
		PlayerID string            `json:"playerId"`
		ScoreA   int               `json:"scoreA"`
		ScoreB   int               `json:"scoreB"`
		Maps     []models.MapScore `json:"maps,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.PlayerID == "" {
		http.Error(w, "playerId and scores are required", http.StatusBadRequest)
		return
	}

	match, err := mc.MatchService.SubmitScores(r.Context(), matchID, payload.PlayerID, payload.ScoreA, payload.ScoreB, payload.Maps)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

// Confirm handles the opposing team accepting or disputing a score report
func (mc *MatchController) Confirm(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["matchId"]

	var payload struct {
		PlayerID string `json:"playerId"`
		Accept   *bool  `json:"accept"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.PlayerID == "" || payload.Accept == nil {
		http.Error(w, "playerId and accept are required", http.StatusBadRequest)
		return
	}

	match, err := mc.MatchService.Confirm(r.Context(), matchID, payload.PlayerID, *payload.Accept)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

// Complete handles the administrative direct resolution of a match
func (mc *MatchController) Complete(w http.ResponseWriter, r *http.Request) {
	identity, err := RequireAdmin(r, mc.Directory)
	if err != nil {
		writeError(w, err)
		return
	}

	matchID := mux.Vars(r)["matchId"]

	var payload struct {
		ScoreA int `json:"scoreA"`
		ScoreB int `json:"scoreB"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	match, err := mc.MatchService.Complete(r.Context(), matchID, identity.PlayerID, payload.ScoreA, payload.ScoreB)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

// AttachEvidence links an uploaded evidence file to a match
func (mc *MatchController) AttachEvidence(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["matchId"]

	var payload struct {
		PlayerID  string `json:"playerId"`
		ObjectKey string `json:"objectKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.PlayerID == "" {
		http.Error(w, "playerId and objectKey are required", http.StatusBadRequest)
		return
	}

	if err := mc.MatchService.AttachEvidence(r.Context(), matchID, payload.PlayerID, payload.ObjectKey); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Evidence attached"})
}
