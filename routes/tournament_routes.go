package routes

import (
	"arena_server/controllers"
	"arena_server/services"

	"github.com/gorilla/mux"
)

// RegisterTournamentRoutes sets up routes for bracket operations under /api/tournaments
func RegisterTournamentRoutes(r *mux.Router, tournamentService *services.TournamentService, directory *services.DirectoryService) {
	controller := controllers.NewTournamentController(tournamentService, directory)

	tournamentRouter := r.PathPrefix("/api/tournaments").Subrouter()

	tournamentRouter.HandleFunc("", controller.ListTournaments).Methods("GET")
	tournamentRouter.HandleFunc("", controller.CreateTournament).Methods("POST")
	tournamentRouter.HandleFunc("/{tournamentId}", controller.GetTournament).Methods("GET")
	tournamentRouter.HandleFunc("/{tournamentId}", controller.DeleteTournament).Methods("DELETE")
	tournamentRouter.HandleFunc("/{tournamentId}/seed", controller.Seed).Methods("POST")
	tournamentRouter.HandleFunc("/{tournamentId}/start", controller.Start).Methods("POST")
	tournamentRouter.HandleFunc("/{tournamentId}/unseed", controller.Unseed).Methods("POST")
	tournamentRouter.HandleFunc("/{tournamentId}/advance", controller.AdvanceTeam).Methods("POST")
	tournamentRouter.HandleFunc("/{tournamentId}/matches/{matchId}/score", controller.SubmitMapScore).Methods("POST")
}
