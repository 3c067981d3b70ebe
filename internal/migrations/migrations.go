// Package migrations evolves the database in two layers: goose applies the
// embedded SQL schema, and Runner rewrites stored documents once per named
// data migration.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var schemaFS embed.FS

func newProvider(db *sql.DB) (*goose.Provider, error) {
	p, err := goose.NewProvider(goose.DialectSQLite3, db, schemaFS)
	if err != nil {
		return nil, fmt.Errorf("loading schema migrations: %w", err)
	}
	return p, nil
}

// Run applies all pending schema migrations against db.
func Run(ctx context.Context, db *sql.DB) error {
	p, err := newProvider(db)
	if err != nil {
		return err
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("running schema migrations: %w", err)
	}
	return nil
}

// SchemaVersion reports the highest schema migration applied to db.
func SchemaVersion(ctx context.Context, db *sql.DB) (int64, error) {
	p, err := newProvider(db)
	if err != nil {
		return 0, err
	}
	v, err := p.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}
