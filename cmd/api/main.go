package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/calebhsu/prescreen/backend/internal/config"
	"github.com/calebhsu/prescreen/backend/internal/handler"
	speechModel "github.com/calebhsu/prescreen/backend/internal/model/speech"
	interviewservice "github.com/calebhsu/prescreen/backend/internal/service/interview"
	"github.com/calebhsu/prescreen/backend/internal/service/reasoning"
	"github.com/calebhsu/prescreen/backend/internal/service/speech"
	"github.com/calebhsu/prescreen/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	sessionStore, mongoClient := buildSessionStore(ctx, cfg.Mongo)
	if mongoClient != nil {
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mongoClient.Disconnect(disconnectCtx)
		}()
	}

	// Initialize the reasoning service; without credentials the interview
	// runs on the deterministic seed fallback only.
	var planner interviewservice.Planner
	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize chat model: %v", err)
		} else {
			strategy := reasoning.StrategyByName(cfg.Interview.Strategy)
			reasoningSvc, err := reasoning.NewService(ctx, chatModel, strategy)
			if err != nil {
				log.Printf("warning: failed to initialize reasoning service: %v", err)
			} else {
				planner = reasoningSvc
				log.Printf("reasoning service initialized, strategy=%s", strategy.Name())
			}
		}
	} else {
		log.Println("model credentials not configured, interviews will use seed questions only")
	}

	interviewSvc := interviewservice.NewService(sessionStore, planner, cfg.Interview.WindowSize)

	// Initialize the speech collaborators.
	var speechSvc *speech.Service
	if cfg.Speech.Enabled {
		speechSvc = speech.NewService(&speechModel.Config{
			STTURL:      cfg.Speech.STTURL,
			TTSURL:      cfg.Speech.TTSURL,
			APIKey:      cfg.Speech.APIKey,
			STTModel:    cfg.Speech.STTModel,
			TTSVoice:    cfg.Speech.TTSVoice,
			TTSSpeed:    cfg.Speech.TTSSpeed,
			ASRLanguage: cfg.Speech.ASRLanguage,
			Timeout:     cfg.Speech.Timeout,
		})
		log.Println("speech service initialized")
	} else {
		log.Println("speech endpoints not configured, audio answers disabled")
	}

	router := handler.NewRouter(interviewSvc, speechSvc)

	startServer(ctx, cfg.Server, router)
}

// buildSessionStore connects to MongoDB and wraps it with the in-memory
// fallback. When the connection cannot even be established the service
// still starts on memory alone; sessions then do not survive a restart.
func buildSessionStore(ctx context.Context, cfg config.MongoConfig) (store.Store, *mongo.Client) {
	fallback := store.NewMemoryStore()

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		log.Printf("warning: mongo connection failed, sessions held in memory only: %v", err)
		return fallback, nil
	}

	mongoStore := store.NewMongoStore(client.Database(cfg.Database))

	indexCtx, cancelIndex := context.WithTimeout(ctx, 5*time.Second)
	defer cancelIndex()
	if err := mongoStore.EnsureIndexes(indexCtx); err != nil {
		// The resilient wrapper degrades per call, so startup continues.
		log.Printf("warning: mongo unavailable at startup, will fall back at runtime: %v", err)
	}

	return store.NewResilientStore(mongoStore, fallback), client
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Pre-screening backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
