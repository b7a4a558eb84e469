package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"healthcare-booking-api/internal/client"
	"healthcare-booking-api/internal/config"
	"healthcare-booking-api/internal/notifier"
	"healthcare-booking-api/internal/repository"
	"healthcare-booking-api/internal/server"
	"healthcare-booking-api/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		logrus.WithError(err).Error("failed to parse config")
		os.Exit(1)
	}

	configureLogging(&cfg.Log)

	db := client.InitDatabase(cfg.DatabaseURL)
	stripeClient := client.NewStripeClient(&cfg.Stripe)

	offerRepo := repository.NewOfferRepository(db)
	clientRepo := repository.NewClientRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	offerService := service.NewOfferService(offerRepo)
	clientService := service.NewClientService(clientRepo)
	paymentService := service.NewPaymentService(
		db, stripeClient, cfg.Stripe.Currency,
		bookingRepo,
		paymentRepo,
		webhookEventRepo,
	)
	bookingService := service.NewBookingService(
		db,
		offerRepo,
		bookingRepo,
		clientService,
		paymentService,
		notifier.NewLogNotifier(),
	)

	if cfg.Environment.Name == "development" {
		if err := offerRepo.Seed(context.Background()); err != nil {
			logrus.WithError(err).Warn("failed to seed offers")
		}
	}

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	srv := server.NewServer(offerService, bookingService, paymentService)

	logrus.WithField("addr", serverAddr).Info("starting HTTP server")
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	logrus.Info("signal received, starting graceful shutdown")

	_, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(); err != nil {
		logrus.WithError(err).Fatal("HTTP server shutdown error")
	}
}

func configureLogging(cfg *config.Log) {
	if cfg.Format == "json" {
		logrus.SetFormatter(new(logrus.JSONFormatter))
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
