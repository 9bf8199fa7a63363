package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"arena_server/services"

	"github.com/gorilla/mux"
)

// PlayerController handles HTTP requests for player profiles
type PlayerController struct {
	PlayerService *services.PlayerService
	Directory     *services.DirectoryService
}

// NewPlayerController creates a new PlayerController instance
func NewPlayerController(playerService *services.PlayerService, directory *services.DirectoryService) *PlayerController {
	return &PlayerController{PlayerService: playerService, Directory: directory}
}

// GetPlayer handles fetching a player profile
func (pc *PlayerController) GetPlayer(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["playerId"]
	player, err := pc.PlayerService.GetPlayer(r.Context(), playerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

// Register handles first-contact profile creation
func (pc *PlayerController) Register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PlayerID    string `json:"playerId"`
		DisplayName string `json:"displayName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.PlayerID == "" {
		http.Error(w, "playerId is required", http.StatusBadRequest)
		return
	}

	player, err := pc.PlayerService.EnsurePlayer(r.Context(), payload.PlayerID, payload.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

// Leaderboard handles fetching the top players for a team size
func (pc *PlayerController) Leaderboard(w http.ResponseWriter, r *http.Request) {
	teamSize, err := strconv.Atoi(r.URL.Query().Get("teamSize"))
	if err != nil {
		http.Error(w, "teamSize is required", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	players, err := pc.PlayerService.Leaderboard(r.Context(), teamSize, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"players": players})
}

// SeedDemoPlayers handles batch-creating demo players (admin only)
func (pc *PlayerController) SeedDemoPlayers(w http.ResponseWriter, r *http.Request) {
	if _, err := RequireAdmin(r, pc.Directory); err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	players, err := pc.PlayerService.SeedDemoPlayers(r.Context(), payload.Count)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"players": players})
}
