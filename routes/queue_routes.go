package routes

import (
	"arena_server/controllers"
	"arena_server/services"

	"github.com/gorilla/mux"
)

// RegisterQueueRoutes sets up routes for queue operations under /api/queues
func RegisterQueueRoutes(r *mux.Router, queueService *services.QueueService, directory *services.DirectoryService) {
	controller := controllers.NewQueueController(queueService, directory)

	queueRouter := r.PathPrefix("/api/queues").Subrouter()

	queueRouter.HandleFunc("", controller.ListQueues).Methods("GET")
	queueRouter.HandleFunc("", controller.CreateQueue).Methods("POST")
	queueRouter.HandleFunc("/{queueId}", controller.GetQueue).Methods("GET")
	queueRouter.HandleFunc("/{queueId}", controller.DeleteQueue).Methods("DELETE")
	queueRouter.HandleFunc("/{queueId}/join", controller.Join).Methods("POST")
	queueRouter.HandleFunc("/{queueId}/leave", controller.Leave).Methods("POST")
	queueRouter.HandleFunc("/{queueId}/fill", controller.Fill).Methods("POST")
	queueRouter.HandleFunc("/{queueId}/launch", controller.Launch).Methods("POST")
}
