package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/Gabrielpanashe/Face-Access-System/internal/access"
	"github.com/Gabrielpanashe/Face-Access-System/internal/api"
	"github.com/Gabrielpanashe/Face-Access-System/internal/api/ws"
	"github.com/Gabrielpanashe/Face-Access-System/internal/config"
	"github.com/Gabrielpanashe/Face-Access-System/internal/models"
	"github.com/Gabrielpanashe/Face-Access-System/internal/observability"
	"github.com/Gabrielpanashe/Face-Access-System/internal/queue"
	"github.com/Gabrielpanashe/Face-Access-System/internal/storage"
	"github.com/Gabrielpanashe/Face-Access-System/internal/vision"
	"github.com/Gabrielpanashe/Face-Access-System/pkg/dto"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting face access service", "port", cfg.Server.Port)

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.InitSchema(context.Background()); err != nil {
		slog.Error("init schema", "error", err)
		os.Exit(1)
	}

	// Connect to MinIO (reference face crops)
	images, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := images.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStream(context.Background()); err != nil {
		slog.Warn("ensure nats stream", "error", err)
	}

	// WebSocket hub for the admin dashboard feed
	hub := ws.NewHub()
	go hub.Run()

	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create access event consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = consumer.ConsumeAccess(ctx, "api-dashboard", func(ctx context.Context, msg jetstream.Msg) error {
		var ev models.AccessEvent
		if err := json.Unmarshal(msg.Data(), &ev); err != nil {
			return err
		}

		evtType := "access_denied"
		switch {
		case ev.Kind == "enroll":
			evtType = "identity_enrolled"
		case ev.Status == models.AccessGranted:
			evtType = "access_granted"
		}

		hub.BroadcastEvent(&dto.WSEvent{
			Type:            evtType,
			Identity:        ev.Identity,
			Reason:          ev.Reason,
			MatchConfidence: ev.MatchConfidence,
			Timestamp:       ev.Timestamp.Format(time.RFC3339),
		})
		return nil
	})
	if err != nil {
		slog.Warn("start access event consumer", "error", err)
	}

	// ONNX Runtime environment. Models themselves load lazily on first use;
	// if the runtime is missing, every liveness check fails secure to deny.
	ort.SetSharedLibraryPath(vision.ONNXLibPath())
	if err := ort.InitializeEnvironment(); err != nil {
		slog.Warn("onnx runtime init failed, all verifications will be denied", "error", err)
	} else {
		defer ort.DestroyEnvironment()
	}

	provider := vision.NewProvider(cfg.Vision)
	defer provider.Close()

	localizer := vision.NewLocalizer(provider, cfg.Vision.CropPadding)
	liveness := vision.NewLivenessChecker(provider, cfg.Vision.LivenessThreshold)
	encoder := vision.NewEncoder(provider, localizer)

	service := access.NewService(db, localizer, liveness, encoder, images, producer, access.Config{
		MatchThreshold: cfg.Vision.MatchThreshold,
		LogDenied:      cfg.Audit.LogDenied,
	})

	router := api.NewRouter(api.RouterConfig{
		APIKey:   cfg.Server.APIKey,
		Service:  service,
		DB:       db,
		Images:   images,
		Producer: producer,
		Hub:      hub,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
