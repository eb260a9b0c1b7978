package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/token-check-api/internal/application/checker"
	"github.com/token-check-api/internal/audit"
	"github.com/token-check-api/internal/config"
	"github.com/token-check-api/internal/infrastructure/discord"
	"github.com/token-check-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/token-check-api/internal/infrastructure/jwt"
	"github.com/token-check-api/internal/infrastructure/memstore"
	s3infra "github.com/token-check-api/internal/infrastructure/s3"
	snsinfra "github.com/token-check-api/internal/infrastructure/sns"
	"github.com/token-check-api/internal/infrastructure/webhook"
	"github.com/token-check-api/internal/metrics"
	transporthttp "github.com/token-check-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Record store: in-memory by default, DynamoDB when configured.
	var tokenRepo checker.TokenStore
	switch cfg.StoreBackend {
	case "dynamo":
		dynamoClient := dynamo.NewClient(cfg)
		dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)
		tokenRepo = dynamo.NewTokenRepo(dynamoClient, cfg.DynamoTables.CheckedTokens)
	default:
		tokenRepo = memstore.NewTokenRepo()
	}

	// Audit sinks (all optional — the pipeline runs fine without them).
	var sinks []audit.Sink
	if cfg.WebhookURL != "" {
		sinks = append(sinks, webhook.NewSink(cfg.WebhookURL, nil))
	}
	if cfg.AlertTopicARN != "" {
		if alerts, err := snsinfra.NewAlertPublisher(cfg); err == nil {
			sinks = append(sinks, alerts)
		} else {
			log.Printf("WARN: SNS alert publisher not available: %v", err)
		}
	}
	auditLog := audit.NewLogger(sinks, cfg.AuditForwardKinds, collector)

	// Batch report archive (optional).
	var archive checker.ReportArchive
	if cfg.ReportBucket != "" {
		archive = s3infra.NewReportArchive(s3infra.NewClient(cfg), cfg.ReportBucket)
	}

	// JWT provider (optional — records endpoints stay open if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	verifier := discord.NewVerifier(cfg.DiscordAPIBaseURL, &http.Client{Timeout: cfg.UpstreamTimeout})

	deps := &transporthttp.Deps{
		Verifier:    verifier,
		TokenRepo:   tokenRepo,
		Audit:       auditLog,
		Archive:     archive,
		Metrics:     collector,
		Registry:    registry,
		JWTProvider: jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		// No write timeout: a full bulk run holds the response open for
		// up to maxBulkTokens paced upstream calls.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s, store=%s)", cfg.AppPort, cfg.AppEnv, cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	auditLog.Record(context.Background(), audit.Event{
		Kind:    audit.KindInfo,
		Message: "token checker started",
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
