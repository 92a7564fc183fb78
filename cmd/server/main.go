package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/ErDashrath/PragatiPath-sub000/internal/adaptive"
	"github.com/ErDashrath/PragatiPath-sub000/internal/auth"
	"github.com/ErDashrath/PragatiPath-sub000/internal/database"
	"github.com/ErDashrath/PragatiPath-sub000/internal/items"
	"github.com/ErDashrath/PragatiPath-sub000/internal/knowledge"
	"github.com/ErDashrath/PragatiPath-sub000/internal/middleware"
	"github.com/ErDashrath/PragatiPath-sub000/internal/scheduler"
	"github.com/ErDashrath/PragatiPath-sub000/internal/srs"
)

func main() {
	// Local development reads .env; deployed environments set real env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Stores
	adaptiveStore := adaptive.NewStore(db)
	itemStore := items.NewStore(db)
	cardStore := srs.NewStore(db)

	// Services
	orch := adaptive.NewOrchestrator(
		adaptiveStore, adaptiveStore, adaptiveStore, itemStore, cardStore,
		knowledge.NewTrendPredictor(), adaptive.ConfigFromEnv(),
	)
	reviewService := srs.NewService(cardStore, itemStore)

	// Handlers
	authHandler := auth.NewHandler(db)
	sessionHandler := adaptive.NewHandler(orch, adaptiveStore)
	itemHandler := items.NewHandler(itemStore)
	reviewHandler := srs.NewHandler(reviewService)

	// Background session expiry
	sweeper := scheduler.NewSweeper(orch)
	if err := sweeper.Start(); err != nil {
		log.Fatalf("Failed to start session sweeper: %v", err)
	}
	defer sweeper.Stop()

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")

	protected.HandleFunc("/subjects", itemHandler.ListSubjects).Methods("GET")
	protected.HandleFunc("/subjects/{subjectID}/chapters", itemHandler.ListChapters).Methods("GET")
	protected.HandleFunc("/items/{itemID}", itemHandler.GetItem).Methods("GET")

	protected.HandleFunc("/sessions", sessionHandler.StartSession).Methods("POST")
	protected.HandleFunc("/sessions", sessionHandler.ListSessions).Methods("GET")
	protected.HandleFunc("/sessions/{sessionID}/next", sessionHandler.NextQuestion).Methods("GET")
	protected.HandleFunc("/sessions/{sessionID}/answers", sessionHandler.SubmitAnswer).Methods("POST")
	protected.HandleFunc("/sessions/{sessionID}/summary", sessionHandler.GetSummary).Methods("GET")
	protected.HandleFunc("/sessions/{sessionID}/complete", sessionHandler.CompleteSession).Methods("POST")
	protected.HandleFunc("/profile/mastery", sessionHandler.GetMasteryProfile).Methods("GET")

	protected.HandleFunc("/reviews/due", reviewHandler.GetDueCards).Methods("GET")
	protected.HandleFunc("/reviews/stages", reviewHandler.GetStageCounts).Methods("GET")
	protected.HandleFunc("/reviews/{cardID}", reviewHandler.SubmitReview).Methods("POST")
	protected.HandleFunc("/reviews/{cardID}/reset", reviewHandler.ResetCard).Methods("POST")
	protected.HandleFunc("/reviews/{cardID}/suspend", reviewHandler.SuspendCard).Methods("POST")
	protected.HandleFunc("/reviews/{cardID}/resume", reviewHandler.ResumeCard).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
