package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/salus-hms/salus-api/internal/config"
	v1 "github.com/salus-hms/salus-api/internal/handler/v1"
	"github.com/salus-hms/salus-api/internal/service"
	"github.com/salus-hms/salus-api/internal/store"
	"github.com/salus-hms/salus-api/pkg/auth"
	"github.com/salus-hms/salus-api/pkg/logger"
	"github.com/salus-hms/salus-api/pkg/metrics"
	"github.com/salus-hms/salus-api/pkg/tracer"
)

func main() {
	// Local development convenience; absent files are fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		zlog.Fatal("initializing tracer", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			zlog.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	collector := metrics.NewCollector("salus")

	// Single process-wide store handle; read-only after construction.
	client := store.New(cfg.Store, collector)

	writer := service.NewRecordWriter(client, collector, zlog)
	notifier := service.NewSMSNotifier(client, collector, zlog)

	patients := service.NewPatientService(
		client, writer, client, client,
		client.PatientTableID(),
		collector, zlog,
	)
	appointments := service.NewAppointmentService(
		client, writer, notifier,
		client.AppointmentTableID(), client.PatientTableID(),
		collector, zlog,
	)

	sessions := auth.NewSessionManager(cfg.Admin)

	engine := v1.Router{
		Patients:     patients,
		Appointments: appointments,
		Sessions:     sessions,
		Collector:    collector,
	}.Build(cfg.App)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		zlog.Info("server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}
