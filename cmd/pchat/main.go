package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/chilledoj/pchat"
	"github.com/chilledoj/pchat/store/badgerstore"
	"github.com/chilledoj/pchat/store/memstore"
	"github.com/chilledoj/pchat/store/sqlitestore"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	slog.SetDefault(log)

	store, closeStore, err := openStore(config, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("Closing store...")
		if err := closeStore(); err != nil {
			log.Error("store close failed", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	room, err := pchat.NewRoom(context.Background(), "pchat", store, pchat.Options{
		QueueSize:         config.QueueSize,
		SendTimeout:       config.SendTimeout,
		PersistTimeout:    config.PersistTimeout,
		PingPeriod:        config.PingPeriod,
		MaxIdentityLength: config.MaxIdentityLength,
		Slogger:           log,
	})
	if err != nil {
		return fmt.Errorf("room failed to start: %w", err)
	}
	go room.Start()

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	s := http.Server{
		Addr:    address,
		Handler: newRouter(room, store, config.HistoryLimit, log),
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting server", "address", address, "store", config.StoreDriver, "at", time.Now().UTC())
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		room.Stop()
		return err
	}

	log.Info("shutting down room")
	room.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "err", err)
	}
	log.Info("Program stopped cleanly")
	return nil
}

func openStore(config Config, log *slog.Logger) (pchat.HistoryStore, func() error, error) {
	switch config.StoreDriver {
	case DriverSqlite:
		store, err := sqlitestore.Open(config.SqliteFilepath)
		if err != nil {
			return nil, nil, fmt.Errorf("database opening failed: %w", err)
		}
		return store, store.Close, nil
	case DriverMemory:
		log.Warn("using in-memory store, events will not survive a restart")
		return memstore.New(), func() error { return nil }, nil
	default:
		store, err := badgerstore.Open(config.BadgerFilepath, log)
		if err != nil {
			return nil, nil, fmt.Errorf("database opening failed: %w", err)
		}
		return store, store.Close, nil
	}
}
