package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gamehub-api/internal/config"
	"gamehub-api/internal/handler"
	"gamehub-api/internal/middleware"
	"gamehub-api/internal/repository"
	"gamehub-api/internal/router"
	"gamehub-api/internal/service"
	"gamehub-api/internal/session"
	"gamehub-api/internal/upload"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg := config.MustLoad()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if cfg.App.Debug {
		log.SetLevel(log.DebugLevel)
	}
	log.Printf("Starting %s %s (%s)", cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	// Open the relational store
	db, dialect, err := repository.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	log.Printf("Database initialized (driver=%s)", cfg.Database.Driver)

	userRepo := repository.NewSQLUserRepository(db, dialect)
	gameRepo := repository.NewSQLGameRepository(db, dialect)
	statRepo := repository.NewSQLStatRepository(db, dialect)
	ratingRepo := repository.NewSQLRatingRepository(db, dialect)
	commentRepo := repository.NewSQLCommentRepository(db, dialect)

	// Initialize session store based on config
	var sessions session.Store
	switch cfg.Session.Store {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.RedisAddress(),
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		})
		redisStore, err := session.NewRedisStore(client, cfg.Session.TTL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		sessions = redisStore
		log.Println("Redis session store initialized")
	default:
		sessions = session.NewMemoryStore(cfg.Session.TTL)
		log.Println("In-memory session store initialized")
	}
	defer sessions.Close()

	saver, err := upload.NewSaver(cfg.Upload.Dir, cfg.Upload.MaxGameSize, cfg.Upload.MaxImageSize)
	if err != nil {
		log.Fatalf("Failed to prepare upload directory: %v", err)
	}

	// Initialize services
	userService := service.NewUserService(userRepo, gameRepo, sessions, saver)
	gameService := service.NewGameService(gameRepo, statRepo, ratingRepo, saver)
	socialService := service.NewSocialService(gameRepo, statRepo, ratingRepo, commentRepo)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(cfg.App.Version, db)
	authHandler := handler.NewAuthHandler(userService)
	userHandler := handler.NewUserHandler(userService)
	gameHandler := handler.NewGameHandler(gameService)
	socialHandler := handler.NewSocialHandler(socialService)

	authenticator := middleware.NewAuthenticator(middleware.AuthConfig{
		UserService: userService,
	})

	r := router.New(router.Config{
		Health:        healthHandler,
		Auth:          authHandler,
		User:          userHandler,
		Game:          gameHandler,
		Social:        socialHandler,
		Authenticator: authenticator,
		UploadDir:     saver.Dir(),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
