package services

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"arena_server/models"

	gosocketio "github.com/erock530/gosf-socketio"
)

// NotificationService is the fire-and-forget sink: live socket broadcasts
// to per-queue/match/tournament rooms plus an optional chat webhook. Every
// failure here is logged and swallowed; a notification must never fail a
// core state transition that already committed.
type NotificationService struct {
	Socket     *gosocketio.Server
	WebhookURL string
	HTTPClient *http.Client
}

// NewNotificationService wires the socket server and the optional webhook.
func NewNotificationService(socket *gosocketio.Server, webhookURL string) *NotificationService {
	return &NotificationService{
		Socket:     socket,
		WebhookURL: webhookURL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Notify sends a direct message to a player through the webhook.
func (ns *NotificationService) Notify(playerID, message string) {
	if ns == nil || ns.WebhookURL == "" {
		return
	}

	payload, err := json.Marshal(map[string]string{
		"playerId": playerID,
		"message":  message,
	})
	if err != nil {
		log.Printf("Failed to marshal notification for %s: %v", playerID, err)
		return
	}

	resp, err := ns.HTTPClient.Post(ns.WebhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Printf("Notification webhook unreachable for %s: %v", playerID, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("Notification webhook returned status %d for %s", resp.StatusCode, playerID)
	}
}

// BroadcastQueue pushes the queue state to its socket room.
func (ns *NotificationService) BroadcastQueue(queue *models.Queue) {
	ns.broadcast("queue:"+queue.QueueID, "queueUpdated", queue)
}

// BroadcastMatch pushes a match event to the match's socket room.
func (ns *NotificationService) BroadcastMatch(match *models.Match, event string) {
	ns.broadcast("match:"+match.MatchID, event, match)
}

// BroadcastTournament pushes a bracket event to the tournament's room.
func (ns *NotificationService) BroadcastTournament(t *models.Tournament, event string) {
	ns.broadcast("tournament:"+t.TournamentID, event, t)
}

func (ns *NotificationService) broadcast(room, event string, payload interface{}) {
	if ns == nil || ns.Socket == nil {
		return
	}
	ns.Socket.BroadcastTo(room, event, payload)
}
