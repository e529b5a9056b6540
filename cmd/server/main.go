package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	grpcapi "branchrent-backend/internal/api/grpc"
	httpapi "branchrent-backend/internal/api/http"
	"branchrent-backend/internal/app"
	"branchrent-backend/internal/config"
	"branchrent-backend/internal/jobs"
	"branchrent-backend/internal/logger"
	"branchrent-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	withScheduler := flag.Bool("scheduler", true, "Run the expiration sweeper in-process")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting BranchRent backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "health_address", cfg.GetHealthAddress())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer a.Close()

	// HTTP API
	router := httpapi.NewRouter(a.Services, a.Tokens, httpapi.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		WebhookSecret:  cfg.Payment.WebhookSecret,
		Ping:           a.Store.Ping,
	})
	httpServer := httpapi.NewServer(cfg.GetServerAddress(), router)

	// gRPC health
	lis, err := net.Listen("tcp", cfg.GetHealthAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetHealthAddress())
		log.Fatalf("Failed to listen: %v", err)
	}
	health := grpcapi.NewHealthServer(a.Store.Ping, 10*time.Second)
	grpcServer := grpcapi.NewServer(health)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP API listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("gRPC health server listening", "address", cfg.GetHealthAddress())
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		health.Run(gctx)
		return nil
	})

	if consumer := a.PaymentConsumer(); consumer != nil {
		g.Go(func() error {
			logger.Info("Consuming payment notifications", "queue", cfg.RabbitMQ.Queue)
			return consumer.Run(gctx)
		})
	}

	if *withScheduler {
		sched, err := scheduler.NewScheduler(jobs.NewJobRunner(a.Store, a.Services.Reservations, cfg))
		if err != nil {
			logger.Error("Failed to initialize scheduler", "error", err)
			log.Fatalf("Failed to initialize scheduler: %v", err)
		}
		sched.Start()
		g.Go(func() error {
			<-gctx.Done()
			sched.Stop()
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		grpcServer.GracefulStop()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "error", err)
		log.Fatalf("Server error: %v", err)
	}
	logger.Info("Server stopped")
}
