package routes

import (
	"arena_server/controllers"
	"arena_server/services"

	"github.com/gorilla/mux"
)

// RegisterPlayerRoutes sets up routes for player operations under /api/players
func RegisterPlayerRoutes(r *mux.Router, playerService *services.PlayerService, directory *services.DirectoryService) {
	controller := controllers.NewPlayerController(playerService, directory)

	playerRouter := r.PathPrefix("/api/players").Subrouter()

	playerRouter.HandleFunc("/leaderboard", controller.Leaderboard).Methods("GET")
	playerRouter.HandleFunc("/register", controller.Register).Methods("POST")
	playerRouter.HandleFunc("/seed-demo", controller.SeedDemoPlayers).Methods("POST")
	playerRouter.HandleFunc("/{playerId}", controller.GetPlayer).Methods("GET")
}
