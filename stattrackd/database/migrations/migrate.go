package migrations

import (
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"golang.org/x/xerrors"
)

//go:embed *.sql
var migrations embed.FS

func setup(db *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(migrations, ".")
	if err != nil {
		return nil, xerrors.Errorf("create iofs: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, xerrors.Errorf("wrap postgres connection: %w", err)
	}

	m, err := migrate.NewWithInstance("", source, "", driver)
	if err != nil {
		return nil, xerrors.Errorf("new migrate instance: %w", err)
	}

	return m, nil
}

// Up runs all pending migrations.
func Up(db *sql.DB) error {
	m, err := setup(db)
	if err != nil {
		return xerrors.Errorf("migrate setup: %w", err)
	}

	err = m.Up()
	if err != nil {
		if xerrors.Is(err, migrate.ErrNoChange) {
			// Schema is up to date.
			return nil
		}
		return xerrors.Errorf("up: %w", err)
	}

	return nil
}

// Down rolls back all migrations.
func Down(db *sql.DB) error {
	m, err := setup(db)
	if err != nil {
		return xerrors.Errorf("migrate setup: %w", err)
	}

	err = m.Down()
	if err != nil {
		if xerrors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return xerrors.Errorf("down: %w", err)
	}

	return nil
}
