package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/stephenafamo/bob"

	"github.com/carson-networks/finance-assistant/internal/config"
	"github.com/carson-networks/finance-assistant/internal/storage/memory"
	"github.com/carson-networks/finance-assistant/internal/storage/sqlconfig"
	"github.com/carson-networks/finance-assistant/internal/storage/transaction"
)

type Storage struct {
	DB           *sql.DB
	Transactions transaction.ITransactionTable

	begin func(ctx context.Context) (*Writer, error)
}

// NewStorage opens the backend selected by env.StorageBackend.
func NewStorage(env *config.Config) (*Storage, error) {
	switch env.StorageBackend {
	case config.StorageMemory:
		return NewMemoryStorage(), nil
	case config.StoragePostgres:
		db, err := sql.Open("postgres", env.PostgresURL())
		if err != nil {
			return nil, err
		}
		if env.PostgresAutoMigrate {
			if err := Migrate(db); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		return NewPostgresStorage(db), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", env.StorageBackend)
	}
}

func NewPostgresStorage(db *sql.DB) *Storage {
	bobDB := bob.NewDB(db)
	return &Storage{
		DB:           db,
		Transactions: sqlconfig.NewTransactionsTable(bobDB),
		begin: func(ctx context.Context) (*Writer, error) {
			tx, err := bobDB.BeginTx(ctx, nil)
			if err != nil {
				return nil, err
			}
			return NewWriter(tx), nil
		},
	}
}

// NewMemoryStorage keeps everything in process. Writes are applied
// immediately, so Rollback cannot undo them.
func NewMemoryStorage() *Storage {
	table := memory.NewTransactionsTable(nil)
	return &Storage{
		Transactions: table,
		begin: func(ctx context.Context) (*Writer, error) {
			return &Writer{tx: noopTx{}, Transactions: table}, nil
		},
	}
}

// Write starts a unit of work. The caller must Commit or Rollback the Writer.
func (s *Storage) Write(ctx context.Context) (*Writer, error) {
	if s.begin == nil {
		return nil, fmt.Errorf("storage: no writer configured")
	}
	return s.begin(ctx)
}

func (s *Storage) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
