package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"finrecon/internal/config"
	"finrecon/internal/email/noop"
	"finrecon/internal/email/ses"
	"finrecon/internal/handler"
	"finrecon/internal/port"
	"finrecon/internal/repository/postgres"
	"finrecon/internal/router"
	"finrecon/internal/service"
	s3storage "finrecon/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	runRepo := postgres.NewRunRepo(db)
	invoiceRepo := postgres.NewInvoiceRepo(db)
	matchResultRepo := postgres.NewMatchResultRepo(db)
	classificationRepo := postgres.NewClassificationRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize email sender
	var emailSender port.EmailSender
	if cfg.Email.Provider == "ses" {
		emailSender, err = ses.NewSESSender(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
	} else {
		emailSender = noop.NewNoopSender()
	}

	// Initialize services
	engineCfg, err := cfg.Recon.Engine()
	if err != nil {
		return fmt.Errorf("invalid reconciliation thresholds: %w", err)
	}
	reconSvc, err := service.NewReconService(runRepo, invoiceRepo, matchResultRepo, classificationRepo, engineCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize recon service: %w", err)
	}
	exportSvc := service.NewExportService(runRepo, matchResultRepo, s3Client, cfg.S3.Bucket, cfg.S3.PresignExpiry)
	resolutionSvc := service.NewResolutionService(runRepo, matchResultRepo, emailSender)

	// Initialize handlers
	runH := handler.NewRunHandler(reconSvc)
	exportH := handler.NewExportHandler(exportSvc)
	vendorH := handler.NewVendorHandler(resolutionSvc)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(runH, exportH, vendorH, healthH, cfg.CORS.AllowedOrigins)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the reconciliation queue worker
	worker := service.NewReconQueueWorker(runRepo, reconSvc, service.ReconQueueConfig{
		PollInterval: time.Duration(cfg.Worker.PollIntervalSecs) * time.Second,
		Concurrency:  cfg.Worker.Concurrency,
		RunTimeout:   time.Duration(cfg.Worker.RunTimeoutSecs) * time.Second,
	})
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Start(ctx)
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	<-workerDone

	return nil
}
