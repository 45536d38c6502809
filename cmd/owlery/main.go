package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"github.com/T4snimul/owlery/auth"
	"github.com/T4snimul/owlery/infrastructure/ws"
	"github.com/T4snimul/owlery/internal"
	"github.com/T4snimul/owlery/observability"
	"github.com/T4snimul/owlery/repositories"
	"github.com/T4snimul/owlery/runtime"
	"github.com/T4snimul/owlery/runtime/workers"
	"github.com/T4snimul/owlery/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so every defer (database cleanup included)
// executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	maskRune, err := internal.MaskRune(config.MaskCharacter)
	if err != nil {
		return err
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Registry, repositories, orchestration
	sup := workers.NewSupervisor(log, config.RestartInterval)
	registry := runtime.NewRegistry()
	history, err := repositories.NewHistoryRepository(db, log)
	if err != nil {
		return fmt.Errorf("history repository: %w", err)
	}
	directory := repositories.NewDirectoryRepository(db)
	stats := observability.NewStatsManager(log)

	orchestrator := runtime.NewOrchestrator(log, sup, registry, history, directory, stats,
		runtime.Options{
			BufferSize:     config.BufferSize,
			ReplayLimit:    config.LimitMessages,
			MaxTextLength:  config.MaxContentLength,
			SinkTimeout:    config.SinkTimeout,
			MetricInterval: config.MetricInterval,
			MaskRune:       maskRune,
		})

	// 4. Context & signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Start the engine
	if err = orchestrator.Start(ctx); err != nil {
		return fmt.Errorf("orchestrator failed to start: %w", err)
	}

	internal.StartDebugServer(db, config.DebugPort, "/inspect", messageMapper, stats.Snapshot)

	// 6. WebSocket server
	service := services.NewOwleryService(orchestrator)
	verifier := auth.NewVerifier([]byte(config.TokenSecret))
	socket := ws.NewServer(log, service, verifier, stats,
		config.ConnectionBufferSize, config.WriteTimeout)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: socket.Handler()}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting Owlery server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	orchestrator.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

// messageMapper renders a stored message row for the debug inspector.
func messageMapper(key string, val []byte) internal.InspectRow {
	row := internal.DefaultMapper(key, val)

	var stored struct {
		Seq        uint64    `json:"seq"`
		Scope      string    `json:"scope"`
		SenderName string    `json:"sender_name"`
		Text       string    `json:"text"`
		CreatedAt  time.Time `json:"created_at"`
	}
	if err := json.Unmarshal(val, &stored); err != nil || stored.Scope == "" {
		return row
	}

	row.Type = "MESSAGE"
	row.Scope = stored.Scope
	row.EntityID = fmt.Sprintf("%d", stored.Seq)
	row.Timestamp = stored.CreatedAt.Format("15:04:05")
	row.Detail = fmt.Sprintf("%s: %s", stored.SenderName, stored.Text)
	return row
}
