package main

import (
	"fmt"
	"time"
)

type Config struct {
	Host              string        `env:"HOST,default=localhost"`
	Port              int           `env:"PORT,default=8080"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	StoreDriver       string        `env:"STORE_DRIVER,default=badger"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,default=./data/badger"`
	SqliteFilepath    string        `env:"SQLITE_FILEPATH,default=./data/pchat.db"`
	QueueSize         int           `env:"QUEUE_SIZE,default=255"`
	SendTimeout       time.Duration `env:"SEND_TIMEOUT,default=2s"`
	PersistTimeout    time.Duration `env:"PERSIST_TIMEOUT,default=5s"`
	PingPeriod        time.Duration `env:"PING_PERIOD,default=10s"`
	HistoryLimit      int           `env:"HISTORY_LIMIT,default=50"`
	MaxIdentityLength int           `env:"MAX_IDENTITY_LENGTH,default=64"`
}

const (
	DriverBadger = "badger"
	DriverSqlite = "sqlite"
	DriverMemory = "memory"
)

func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverBadger, DriverSqlite, DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of %s, %s, %s, got %q", DriverBadger, DriverSqlite, DriverMemory, c.StoreDriver)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("QUEUE_SIZE must be positive, got %d", c.QueueSize)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("HISTORY_LIMIT must be positive, got %d", c.HistoryLimit)
	}
	if c.SendTimeout <= 0 || c.PersistTimeout <= 0 || c.PingPeriod <= 0 {
		return fmt.Errorf("SEND_TIMEOUT, PERSIST_TIMEOUT and PING_PERIOD must be positive")
	}
	return nil
}
