package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"arena_server/models"
	"arena_server/services"

	"github.com/gorilla/mux"
)

// QueueController handles HTTP requests for matchmaking queues
type QueueController struct {
	QueueService *services.QueueService
	Directory    *services.DirectoryService
}

// NewQueueController creates a new QueueController instance
func NewQueueController(queueService *services.QueueService, directory *services.DirectoryService) *QueueController {
	return &QueueController{QueueService: queueService, Directory: directory}
}

// ListQueues handles fetching queues, optionally filtered by team size
func (qc *QueueController) ListQueues(w http.ResponseWriter, r *http.Request) {
	teamSize, _ := strconv.Atoi(r.URL.Query().Get("teamSize"))
	queues, err := qc.QueueService.ListQueues(r.Context(), teamSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"queues": queues})
}

// GetQueue handles fetching a single queue's state
func (qc *QueueController) GetQueue(w http.ResponseWriter, r *http.Request) {
	queueID := mux.Vars(r)["queueId"]
	queue, err := qc.QueueService.GetQueue(r.Context(), queueID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queue)
}

// CreateQueue handles creating a queue (admin only)
func (qc *QueueController) CreateQueue(w http.ResponseWriter, r *http.Request) {
	if _, err := RequireAdmin(r, qc.Directory); err != nil {
		writeError(w, err)
		return
	}

	var payload models.Queue
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	queue, err := qc.QueueService.CreateQueue(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, queue)
}

// DeleteQueue handles removing a queue (admin only)
func (qc *QueueController) DeleteQueue(w http.ResponseWriter, r *http.Request) {
	if _, err := RequireAdmin(r, qc.Directory); err != nil {
		writeError(w, err)
		return
	}

	queueID := mux.Vars(r)["queueId"]
	if err := qc.QueueService.DeleteQueue(r.Context(), queueID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Queue deleted"})
}

// Join handles a player joining a queue
func (qc *QueueController) Join(w http.ResponseWriter, r *http.Request) {
	queueID := mux.Vars(r)["queueId"]

	var payload struct {
		PlayerID string `json:"playerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.PlayerID == "" {
		http.Error(w, "playerId is required", http.StatusBadRequest)
		return
	}

	queue, err := qc.QueueService.Join(r.Context(), queueID, payload.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queue)
}

// Leave handles a player leaving a queue
func (qc *QueueController) Leave(w http.ResponseWriter, r *http.Request) {
	queueID := mux.Vars(r)["queueId"]

	var payload struct {
		PlayerID string `json:"playerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.PlayerID == "" {
		http.Error(w, "playerId is required", http.StatusBadRequest)
		return
	}

	queue, err := qc.QueueService.Leave(r.Context(), queueID, payload.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queue)
}

// Fill handles the administrative roster filler
func (qc *QueueController) Fill(w http.ResponseWriter, r *http.Request) {
	if _, err := RequireAdmin(r, qc.Directory); err != nil {
		writeError(w, err)
		return
	}

	queueID := mux.Vars(r)["queueId"]
	reshuffle := r.URL.Query().Get("reshuffle") == "true"

	queue, err := qc.QueueService.Fill(r.Context(), queueID, reshuffle)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queue)
}

// Launch converts a full queue into a pending match (admin only)
func (qc *QueueController) Launch(w http.ResponseWriter, r *http.Request) {
	if _, err := RequireAdmin(r, qc.Directory); err != nil {
		writeError(w, err)
		return
	}

	queueID := mux.Vars(r)["queueId"]
	match, err := qc.QueueService.Launch(r.Context(), queueID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, match)
}
