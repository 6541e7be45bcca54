package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/amqp"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/log"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/storage"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/storage/memory"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/storage/redis"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend. A broker that cannot be
// reached only disables event publication.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store storage.Backend
		err   error
	)
	switch config.Type {
	case SQLiteBackend:
		store, err = f.createSQLiteBackend(config)
	case RedisBackend:
		store, err = f.createRedisBackend(ctx, config)
	case MemoryBackend:
		store = f.createMemoryBackend(config)
	default:
		err = fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	publisher := f.createPublisher(config)

	return &BackendResult{
		Backend:   store,
		Publisher: publisher,
		Cleanup: func() error {
			var errs []error
			if publisher != nil {
				errs = append(errs, publisher.Close())
			}
			errs = append(errs, store.Close())
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (storage.Backend, error) {
	repo, err := sqlite.Open(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return repo, nil
}

func (f *DefaultFactory) createRedisBackend(ctx context.Context, config Config) (storage.Backend, error) {
	store, err := redis.Dial(ctx, config.RedisAddr, config.RedisPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis backend: %w", err)
	}
	f.logger.Info("Initialized Redis backend", "addr", config.RedisAddr, "prefix", config.RedisPrefix)
	return store, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) storage.Backend {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}
	store := memory.NewFromFiles(dataDir)
	f.logger.Info("Initialized memory backend", "data_directory", dataDir)
	return store
}

func (f *DefaultFactory) createPublisher(config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without replication", log.FieldError, err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
