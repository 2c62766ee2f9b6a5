package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"linguaLinkAPI/handlers"
	"linguaLinkAPI/internal/db"
	"linguaLinkAPI/middleware"
	"linguaLinkAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool        *pgxpool.Pool
	authService   *services.AuthService
	userService   *services.UserService
	friendService *services.FriendService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret := os.Getenv("JWT_SECRET_KEY")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET_KEY environment variable is not set")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.RunMigrations(ctx, dbURL); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	var err error
	dbPool, err = db.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	log.Println("Successfully connected to database")

	authService = services.NewAuthService(dbPool, jwtSecret)
	userService = services.NewUserService(dbPool)
	friendService = services.NewFriendService(dbPool)

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	authHandler := handlers.NewAuthHandler(authService, userService)
	userHandler := handlers.NewUserHandler(userService, friendService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	// Pre-seeded avatar images, referenced by numeric index from the client.
	avatarsDir := "./public/avatars"
	fs := http.FileServer(http.Dir(avatarsDir))
	r.PathPrefix("/avatars/").Handler(http.StripPrefix("/avatars/", fs))
	log.Printf("Serving avatar images from %s at /avatars/", avatarsDir)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "linguaLink-api"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Public auth routes.
	api.HandleFunc("/auth/signup", authHandler.Signup).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")

	// Everything below requires a valid session cookie.
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(authService))

	protected.HandleFunc("/auth/onboarding", authHandler.Onboarding).Methods("POST")
	protected.HandleFunc("/auth/profile", authHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/auth/me", authHandler.Me).Methods("GET")

	protected.HandleFunc("/users", userHandler.GetRecommendedUsers).Methods("GET")
	protected.HandleFunc("/users/friends", userHandler.GetMyFriends).Methods("GET")
	protected.HandleFunc("/users/friend-request/{id}", userHandler.SendFriendRequest).Methods("POST")
	protected.HandleFunc("/users/friend-request/{id}/accept", userHandler.AcceptFriendRequest).Methods("PUT")
	protected.HandleFunc("/users/friend-requests", userHandler.GetFriendRequests).Methods("GET")
	protected.HandleFunc("/users/outgoing-friend-requests", userHandler.GetOutgoingFriendRequests).Methods("GET")

	corsOrigin := os.Getenv("CORS_ORIGIN")
	if corsOrigin == "" {
		corsOrigin = "http://localhost:5173"
	}

	// The SPA sends the session cookie cross-origin, so credentials must
	// be enabled and the origin pinned.
	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{corsOrigin}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5001"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
