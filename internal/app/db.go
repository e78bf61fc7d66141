package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/soinechankit/Soinech-CRM/internal/logger"
	"github.com/soinechankit/Soinech-CRM/internal/repositories"
)

// OpenDB opens the postgres pool and checks it answers.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// Migrate runs the embedded migrations. direction is up, down or status.
func Migrate(ctx context.Context, db *sql.DB, direction string, log *logger.Logger) error {
	switch direction {
	case "up":
		return repositories.RunMigrations(ctx, db, log)
	case "down":
		return repositories.RollbackMigration(ctx, db, log)
	case "status":
		return repositories.MigrationStatus(ctx, db, log)
	default:
		return fmt.Errorf("unknown migrate direction %q (up, down, status)", direction)
	}
}
