package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"arena_server/routes"
	"arena_server/services"
	"arena_server/socket"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Initialize DynamoDB client and service
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamoService := &services.DynamoService{Client: dynamoClient}
	log.Println("DynamoDB client initialized.")

	// Initialize the socket server and the fire-and-forget notifier
	socketServer := socket.NewSocketServer()
	notifier := services.NewNotificationService(socketServer, os.Getenv("NOTIFY_WEBHOOK_URL"))

	// The admin role set and player allow-list are configuration, resolved
	// once at startup
	directoryService := services.NewDirectoryService(
		os.Getenv("DIRECTORY_BASE_URL"),
		os.Getenv("ADMIN_ROLES"),
		os.Getenv("ADMIN_PLAYERS"),
	)

	// Initialize Services
	playerService := &services.PlayerService{Dynamo: dynamoService}
	queueService := &services.QueueService{Dynamo: dynamoService, Notifier: notifier}
	matchService := &services.MatchService{Dynamo: dynamoService, Notifier: notifier}
	tournamentService := &services.TournamentService{Dynamo: dynamoService, Notifier: notifier}

	// Set up the server port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Using server port: %s\n", port)

	// Initialize the router
	r := mux.NewRouter()

	// Register a welcome route
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Welcome to Arena")
	}).Methods("GET")

	// Register a health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		response := map[string]string{"status": "healthy"}
		json.NewEncoder(w).Encode(response)
	}).Methods("GET")

	// Mount the live-update socket endpoint
	r.Handle("/socket.io/", socketServer)

	// Register routes
	routes.RegisterPlayerRoutes(r, playerService, directoryService)
	routes.RegisterQueueRoutes(r, queueService, directoryService)
	routes.RegisterMatchRoutes(r, matchService, directoryService)
	routes.RegisterTournamentRoutes(r, tournamentService, directoryService)
	routes.RegisterS3Routes(r)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Adjust for specific domains if needed
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}
