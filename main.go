package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/wazadio/bot/bot/telegram"
	"github.com/wazadio/bot/pkg/monitoring"
	"github.com/wazadio/bot/shared/utils"
	v1handlers "github.com/wazadio/bot/v1/handlers"
	"github.com/wazadio/bot/v1/repository"
	v1services "github.com/wazadio/bot/v1/services"
	"gorm.io/gorm"
)

func main() {
	// Load .env file if it exists (optional - fails silently if not found)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "kick":
			os.Exit(runKick())
		default:
			fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
			os.Exit(1)
		}
	}

	runBot()
}

// runKick runs one eviction pass synchronously for operator-triggered
// maintenance and reports the result on stdout.
func runKick() int {
	config, err := NewAppConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	gormDB, err := ConnectGormDB(NewDatabaseConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "database error: %v\n", err)
		return 1
	}
	defer closeDB(gormDB)

	botClient := telegram.NewClient(config.BotToken)
	store := repository.NewGormMemberStore(gormDB)
	eviction := v1services.NewEvictionService(store, botClient, config.GroupID)

	stats, err := eviction.RunEvictionPass(context.Background(), time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "kick task failed: %v (evicted %d, failed %d)\n", err, stats.Evicted, stats.Failed)
		return 1
	}

	fmt.Printf("Kick task completed: evicted %d, failed %d\n", stats.Evicted, stats.Failed)
	return 0
}

func runBot() {
	slog.Info("Starting membership bot initialization")

	config, err := NewAppConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	gormDB, err := ConnectGormDB(NewDatabaseConfig())
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	shutdownMetrics, err := monitoring.Setup(context.Background(), monitoring.Config{
		ServiceName:   "membership-bot",
		ResourceAttrs: map[string]string{"environment": config.Environment},
	})
	if err != nil {
		slog.Error("Failed to set up metrics", "error", err)
		os.Exit(1)
	}

	botClient := telegram.NewClient(config.BotToken)
	store := repository.NewGormMemberStore(gormDB)
	admission := v1services.NewAdmissionService(store, botClient, config.GroupID)
	eviction := v1services.NewEvictionService(store, botClient, config.GroupID)

	scheduler, err := v1services.NewScheduler(eviction, config.CleaningSchedule)
	if err != nil {
		slog.Error("Invalid eviction schedule", "error", err)
		os.Exit(1)
	}

	handler := v1handlers.NewTelegramHandler(botClient, admission, config.GroupID)

	// Operational HTTP server: health and metrics only
	mux := http.NewServeMux()
	mux.Handle("/health", utils.PanicRecoveryMiddleware(healthHandler(gormDB)))
	mux.Handle("/metrics", monitoring.Handler())
	server := utils.CreateServer(utils.DefaultServerConfig(), mux)

	go func() {
		slog.Info("Operational server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Operational server failed", "error", err)
			os.Exit(1)
		}
	}()

	scheduler.Start()
	if next := scheduler.NextRunTime(); next != nil {
		slog.Info("Next eviction pass scheduled", "at", *next)
	}

	pollCtx, cancelPoll := context.WithCancel(context.Background())
	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		handler.Run(pollCtx)
	}()

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down...")

	cancelPoll()
	scheduler.Stop()

	select {
	case <-pollDone:
	case <-time.After(35 * time.Second):
		slog.Warn("Timed out waiting for update handlers to finish")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Operational server forced to shutdown", "error", err)
	}
	if err := shutdownMetrics(ctx); err != nil {
		slog.Error("Failed to shut down metrics", "error", err)
	}

	closeDB(gormDB)
	slog.Info("Membership bot exited")
}

func healthHandler(gormDB *gorm.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		type health struct {
			Status   string `json:"status"`
			Service  string `json:"service"`
			Database string `json:"database"`
			Error    string `json:"error,omitempty"`
		}

		status := health{Status: "healthy", Service: "membership-bot", Database: "connected"}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		sqlDB, err := gormDB.DB()
		if err != nil {
			status = health{Status: "unhealthy", Service: "membership-bot", Database: "unavailable", Error: err.Error()}
		} else if err := sqlDB.PingContext(ctx); err != nil {
			status = health{Status: "unhealthy", Service: "membership-bot", Database: "unreachable", Error: err.Error()}
		}

		code := http.StatusOK
		if status.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		utils.RespondWithJSON(w, code, status)
	})
}

func closeDB(gormDB *gorm.DB) {
	if sqlDB, err := gormDB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}
}
