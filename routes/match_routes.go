package routes

import (
	"arena_server/controllers"
	"arena_server/services"

	"github.com/gorilla/mux"
)

// RegisterMatchRoutes sets up routes for match operations under /api/matches
func RegisterMatchRoutes(r *mux.Router, matchService *services.MatchService, directory *services.DirectoryService) {
	controller := controllers.NewMatchController(matchService, directory)

	matchRouter := r.PathPrefix("/api/matches").Subrouter()

	matchRouter.HandleFunc("", controller.ListMatches).Methods("GET")
	matchRouter.HandleFunc("/{matchId}", controller.GetMatch).Methods("GET")
	matchRouter.HandleFunc("/{matchId}/scores", controller.SubmitScores).Methods("POST")
	matchRouter.HandleFunc("/{matchId}/confirm", controller.Confirm).Methods("POST")
	matchRouter.HandleFunc("/{matchId}/complete", controller.Complete).Methods("POST")
	matchRouter.HandleFunc("/{matchId}/evidence", controller.AttachEvidence).Methods("POST")
}
