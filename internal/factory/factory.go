package factory

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	conf "github.com/chaitanya-699/url-shortener/internal/config"
	"github.com/chaitanya-699/url-shortener/internal/domain"
	"github.com/chaitanya-699/url-shortener/internal/storage/badgerkv"
	f "github.com/chaitanya-699/url-shortener/internal/storage/file"
	"github.com/chaitanya-699/url-shortener/internal/storage/inmemory"
)

const (
	eventKey = "event"
)

// NewStorage builds the cache store the configuration asks for: a file
// journal when a file path is set, the embedded database when a directory
// is set, otherwise in-memory.
func NewStorage(conf conf.Config, logger *zap.Logger) (domain.KeyValueStore, func()) {
	if conf.FileStoragePath != "" {
		logger.Info("Using file storage", zap.String("path", conf.FileStoragePath))
		return newFileStorage(conf, logger)
	}

	if conf.BadgerPath != "" {
		logger.Info("Using embedded database storage", zap.String("path", conf.BadgerPath))
		store, err := badgerkv.New(conf.BadgerPath)

		if err != nil {
			logger.Fatal("Failed to initialize store", zap.Error(err))
		}

		return store, func() { _ = store.Close() }
	}

	logger.Info("Using in-memory storage")
	return inmemory.New(), func() {}
}

func newFileStorage(conf conf.Config, logger *zap.Logger) (domain.KeyValueStore, func()) {
	const ownerReadWritePermission os.FileMode = 0600
	file, err := os.OpenFile(conf.FileStoragePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, ownerReadWritePermission)
	if err != nil {
		logger.Fatal(err.Error(), zap.String(eventKey, "open file"))
	}

	store, err := f.New(file)
	if err != nil {
		logger.Fatal(err.Error(), zap.String(eventKey, "create storage"))
	}

	return store, func() { _ = file.Close() }
}

// NewLogger builds the production logger at the configured level.
func NewLogger(level string) (*zap.Logger, func()) {
	logger, err := newProductionLogger(level)

	if err != nil {
		panic(err)
	}

	return logger, func() { _ = logger.Sync() }
}

func newProductionLogger(level string) (*zap.Logger, error) {
	const op = "new production logger"

	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		parsed = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(parsed)
	logger, err := config.Build()

	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return logger, nil
}
