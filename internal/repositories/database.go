package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/aaravmahajanofficial/cart-service/internal/config"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
)

type Repository struct {
	DB   *sql.DB
	Cart CartRepository
}

// New opens the Postgres pool through otelsql so every query becomes a span when tracing is
// enabled.
func New(cfg *config.Config) (*Repository, error) {
	db, err := otelsql.Open("postgres", cfg.Database.GetDSN(),
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return NewFromDB(db), nil
}

func NewFromDB(db *sql.DB) *Repository {
	return &Repository{
		DB:   db,
		Cart: NewCartRepo(db),
	}
}

func (r *Repository) Close() error {
	return r.DB.Close()
}
