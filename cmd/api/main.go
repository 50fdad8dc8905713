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

	"github.com/go-otp-auth/internal/config"
	"github.com/go-otp-auth/internal/infrastructure/dynamo"
	"github.com/go-otp-auth/internal/infrastructure/sms"
	"github.com/go-otp-auth/internal/infrastructure/smtp"
	transporthttp "github.com/go-otp-auth/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SMS transport: HTTP gateway by default, SNS when configured. A broken
	// SNS setup falls back to the gateway rather than failing startup.
	var smsSender sms.Sender = sms.NewGatewaySender(cfg.SMSGatewayURL)
	if cfg.SMSProvider == "sns" {
		if sender, err := sms.NewSNSSender(cfg); err == nil {
			smsSender = sender
		} else {
			log.Printf("WARN: SNS sender not available, using gateway: %v", err)
		}
	}

	deps := &transporthttp.Deps{
		UserRepo:         dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		SessionRepo:      dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		VerificationRepo: dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.VerificationCodes),
		RefreshTokenRepo: dynamo.NewRefreshTokenRepo(dynamoClient, cfg.DynamoTables.RefreshTokens),
		AttemptRepo:      dynamo.NewAttemptRepo(dynamoClient, cfg.DynamoTables.LoginAttempts),
		Mailer:           mailer,
		SMSSender:        smsSender,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

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
