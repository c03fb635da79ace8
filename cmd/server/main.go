package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/newsletter-service/internal/api"
	"github.com/ignite/newsletter-service/internal/config"
	"github.com/ignite/newsletter-service/internal/domain"
	"github.com/ignite/newsletter-service/internal/repository/postgres"
	"github.com/ignite/newsletter-service/internal/sendgrid"
	"github.com/ignite/newsletter-service/internal/service/subscription"
	"github.com/ignite/newsletter-service/internal/templates"

	_ "github.com/lib/pq" // PostgreSQL driver
)

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("Failed to ping database: %v", err)
	}
	pingCancel()
	log.Println("Database connection established")

	// The sender address is configuration, but it obeys the same grammar
	// as any subscriber address. Fail fast on a bad one.
	sender, err := domain.ParseSubscriberEmail(cfg.Email.Sender)
	if err != nil {
		log.Fatalf("Invalid sender address %q: %v", cfg.Email.Sender, err)
	}

	// Load email templates
	renderer := templates.NewService()
	if err := renderer.LoadDir(cfg.Application.TemplateDir); err != nil {
		log.Fatalf("Failed to load templates from %s: %v", cfg.Application.TemplateDir, err)
	}
	log.Printf("Templates loaded from %s", cfg.Application.TemplateDir)

	// Wire the subscription workflows
	mailer := sendgrid.NewClient(cfg.Email, sender)
	repo := postgres.NewSubscriptionRepo(db)
	svc := subscription.NewService(repo, mailer, renderer, cfg.Application.BaseURL)

	server := api.NewServer(cfg.Server, svc)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
