package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/splitsync/internal/migrations"
	"github.com/dmitrijs2005/splitsync/internal/repositories/archive"
	"github.com/dmitrijs2005/splitsync/internal/repositories/banking"
	"github.com/dmitrijs2005/splitsync/internal/repositories/devices"
	"github.com/dmitrijs2005/splitsync/internal/repositories/groups"
	"github.com/dmitrijs2005/splitsync/internal/repositories/idmap"
	"github.com/dmitrijs2005/splitsync/internal/repositories/metadata"
	"github.com/dmitrijs2005/splitsync/internal/repositories/payments"
	"github.com/dmitrijs2005/splitsync/internal/repositories/prefs"
	"github.com/dmitrijs2005/splitsync/internal/repositories/rates"
	"github.com/dmitrijs2005/splitsync/internal/repositories/users"

	_ "modernc.org/sqlite"
)

// Repositories bundles every repository over the one local database.
type Repositories struct {
	Users    *users.SQLiteRepository
	Groups   *groups.SQLiteRepository
	Payments *payments.SQLiteRepository
	Banking  *banking.SQLiteRepository
	Rates    *rates.SQLiteRepository
	Devices  *devices.SQLiteRepository
	Prefs    *prefs.SQLiteRepository
	Archive  *archive.SQLiteRepository
	IDMap    *idmap.SQLiteRepository
	Metadata *metadata.SQLiteRepository

	DB *sql.DB
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the local store, applies pending migrations and builds
// the repository set.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		return nil, err
	}

	return &Repositories{
		Users:    users.NewSQLiteRepository(db),
		Groups:   groups.NewSQLiteRepository(db),
		Payments: payments.NewSQLiteRepository(db),
		Banking:  banking.NewSQLiteRepository(db),
		Rates:    rates.NewSQLiteRepository(db),
		Devices:  devices.NewSQLiteRepository(db),
		Prefs:    prefs.NewSQLiteRepository(db),
		Archive:  archive.NewSQLiteRepository(db),
		IDMap:    idmap.NewSQLiteRepository(db),
		Metadata: metadata.NewSQLiteRepository(db),
		DB:       db,
	}, nil
}
