package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"skillswap/internal/adapter/api"
	"skillswap/internal/adapter/api/handler"
	apimiddleware "skillswap/internal/adapter/api/middleware"
	"skillswap/internal/adapter/api/router"
	"skillswap/internal/adapter/repository"
	"skillswap/internal/infrastructure/firebase"
	"skillswap/internal/infrastructure/websocket"
	"skillswap/internal/usecase"
	"skillswap/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opt option.ClientOption

	// Service account from environment variable (production) or file path
	// (local development).
	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if serviceAccountPath == "" {
			serviceAccountPath = "./serviceAccountKey.json"
		}

		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}

		log.Printf("Using Firebase service account from file: %s", serviceAccountPath)
		opt = option.WithCredentialsFile(serviceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	negotiationRepo := repository.NewFirestoreNegotiationRepository(firestoreClient)
	messageRepo := repository.NewFirestoreMessageRepository(firestoreClient)
	notificationRepo := repository.NewFirestoreNotificationRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)

	hub := websocket.NewHub(cfg.ClientQueueSize, cfg.AuthTimeout)
	hub.SetPresencePublisher(websocket.NewPresencePublisher(hub.Rooms(), userRepo, cfg.StoreTimeout))

	notificationUseCase := usecase.NewNotificationUseCase(notificationRepo, hub, cfg.StoreTimeout)
	messageUseCase := usecase.NewMessageUseCase(messageRepo, negotiationRepo, hub, cfg.StoreTimeout)
	negotiationUseCase := usecase.NewNegotiationUseCase(negotiationRepo, userRepo, messageUseCase, notificationUseCase, hub, cfg.StoreTimeout)

	usecase.NewRealtimeUseCase(hub, firebaseAuthClient, userRepo, negotiationUseCase, messageUseCase, notificationUseCase, cfg.StoreTimeout)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)

	healthHandler := handler.NewHealthHandler(firebaseAuthClient)
	negotiationHandler := handler.NewNegotiationHandler(negotiationUseCase)
	notificationHandler := handler.NewNotificationHandler(notificationUseCase)
	messageHandler := handler.NewMessageHandler(messageUseCase)
	websocketHandler := handler.NewWebSocketHandler(hub)

	router.Setup(e, authMiddleware, healthHandler, negotiationHandler, notificationHandler, messageHandler, websocketHandler)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
