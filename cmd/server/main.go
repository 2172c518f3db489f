package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bms-ged/backend/internal/ai"
	"github.com/bms-ged/backend/internal/config"
	"github.com/bms-ged/backend/internal/db"
	httpapi "github.com/bms-ged/backend/internal/http"
	"github.com/bms-ged/backend/internal/knowledge"
	"github.com/bms-ged/backend/internal/mail"
	"github.com/bms-ged/backend/internal/models"
	"github.com/bms-ged/backend/internal/service"
	"github.com/bms-ged/backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "bms-backend").Logger()

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	// Expensive shared handles are constructed exactly once here and reused
	// across all requests.
	var aiClient ai.Client
	if cfg.AIBaseURL == "" {
		aiClient = ai.MockClient{ModelVersion: "mock-v1"}
		logger.Info().Msg("using mock AI client")
	} else {
		aiClient = ai.OpenAICompatClient{
			BaseURL:     cfg.AIBaseURL,
			APIKey:      cfg.AIAPIKey,
			Model:       cfg.AIModel,
			VisionModel: cfg.VisionModel,
			EmbedModel:  cfg.EmbedModel,
		}
	}

	var sender mail.Sender
	if cfg.MailProvider == "api" {
		sender = mail.APISender{BaseURL: cfg.MailAPIURL, APIKey: cfg.MailAPIKey, From: cfg.MailFrom}
	} else {
		sender = mail.SMTPSender{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.MailFrom,
		}
	}

	defaultResponder := models.Responder{
		ID:    cfg.DefaultResponderID,
		Name:  cfg.DefaultResponderName,
		Email: cfg.DefaultResponderEmail,
	}

	kb := knowledge.New(store.Pool, aiClient, logger)

	assigner := &service.AssignmentResolver{Roster: store, Default: defaultResponder, Logger: logger}
	pipeline := &service.Pipeline{
		Complaints: store,
		Synth:      &service.Synthesizer{Cases: kb, AI: aiClient, Logger: logger},
		Images:     &service.ImageValidator{AI: aiClient, Logger: logger},
		Assigner:   assigner,
		Notifier: &service.Notifier{
			Directory:     store,
			Notifications: store,
			Mail:          sender,
			Default:       defaultResponder,
			Logger:        logger,
		},
		Uploader: storage.HTTPUploader{BaseURL: cfg.StorageUploadURL, APIKey: cfg.StorageAPIKey},
		AI:       aiClient,
		Logger:   logger,
	}

	router := httpapi.Router(cfg, store, pipeline, kb, assigner, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
