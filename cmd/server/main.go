package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/foodbridge/foodbridge/internal/config"
	"github.com/foodbridge/foodbridge/internal/database"
	"github.com/foodbridge/foodbridge/internal/handlers"
	"github.com/foodbridge/foodbridge/internal/jobs"
	"github.com/foodbridge/foodbridge/internal/models"
	"github.com/foodbridge/foodbridge/internal/repository"
	cronjobs "github.com/foodbridge/foodbridge/internal/scheduler"
	"github.com/foodbridge/foodbridge/internal/services"
	"github.com/foodbridge/foodbridge/internal/storage"
	"github.com/foodbridge/foodbridge/pkg/logger"
	"github.com/foodbridge/foodbridge/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger()
	logger.Log.Info("Logger initialized")

	// Connect to MongoDB
	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	// External image host
	imageStore, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatalf("Storage initialization error: %v", err)
	}

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	listingRepo := repository.NewListingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	if err := userRepo.EnsureIndexes(context.Background()); err != nil {
		log.Fatalf("Index creation error: %v", err)
	}

	// --- Services ---
	userService := services.NewUserService(userRepo, tokenRepo, notificationRepo, imageStore, cfg)
	listingService := services.NewListingService(listingRepo, userRepo, notificationRepo, imageStore)
	notificationService := services.NewNotificationService(notificationRepo)

	// --- Handlers ---
	userHandler := handlers.NewUserHandler(userService, cfg)
	listingHandler := handlers.NewListingHandler(listingService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Initialize Gorilla Mux router
	router := mux.NewRouter()

	// Public routes
	router.HandleFunc("/register", userHandler.RegisterUserHandler).Methods("POST")
	router.HandleFunc("/login", userHandler.LoginUserHandler).Methods("POST")
	router.HandleFunc("/refresh-token", userHandler.RefreshTokenHandler).Methods("POST")

	// Protected user routes
	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AuthMiddleware(cfg.JWTSecret, userService))
	secured.HandleFunc("/logout", userHandler.LogoutUserHandler).Methods("POST")
	secured.HandleFunc("/changePassword", userHandler.ChangePasswordHandler).Methods("POST")
	secured.HandleFunc("/updateDetails", userHandler.UpdateDetailsHandler).Methods("POST")
	secured.HandleFunc("/currentUser", userHandler.CurrentUserHandler).Methods("GET")
	secured.HandleFunc("/updateAvatar", userHandler.UpdateAvatarHandler).Methods("POST")
	secured.HandleFunc("/updateCoverImage", userHandler.UpdateCoverImageHandler).Methods("POST")
	secured.HandleFunc("/deleteUser", userHandler.DeleteUserHandler).Methods("DELETE")

	// Listing read routes
	secured.HandleFunc("/listings", listingHandler.GetListingsHandler).Methods("GET")
	secured.HandleFunc("/listings/{id}", listingHandler.GetListingHandler).Methods("GET")

	// Notification routes
	secured.HandleFunc("/notifications", notificationHandler.GetUserNotificationsHandler).Methods("GET")
	secured.HandleFunc("/notifications/{id}/read", notificationHandler.MarkAsReadHandler).Methods("POST")

	// Donor-only routes
	donorRoutes := router.NewRoute().Subrouter()
	donorRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret, userService))
	donorRoutes.Use(middleware.RequireRole(models.RoleDonor))
	donorRoutes.HandleFunc("/createListing", listingHandler.CreateListingHandler).Methods("POST")

	// Recipient-only routes
	recipientRoutes := router.NewRoute().Subrouter()
	recipientRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret, userService))
	recipientRoutes.Use(middleware.RequireRole(models.RoleRecipient))
	recipientRoutes.HandleFunc("/listings/{id}/claim", listingHandler.ClaimListingHandler).Methods("POST")

	// Apply middleware for logging
	router.Use(middleware.LoggingMiddleware)

	// Periodic listing expiry sweep
	sweeper := jobs.NewExpirySweeper(listingService)
	cronjobs.StartListingCronJobs(sweeper)

	// Start the HTTP server
	port := cfg.Port
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(router)

	fmt.Printf("Server running on port %s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}
