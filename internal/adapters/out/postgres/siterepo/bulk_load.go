package siterepo

import (
	"context"
	"database/sql"
	"fmt"

	"fulfillment/internal/core/domain/model/site"

	"github.com/lib/pq"
)

// BulkLoad streams sites into the sites table with COPY through a temporary
// staging table, then upserts them by id. With replace set, rows missing from
// sites are deleted in the same transaction. db must use the lib/pq driver.
func BulkLoad(ctx context.Context, db *sql.DB, sites []site.Site, replace bool) (int, error) {
	for _, s := range sites {
		if err := s.Validate(); err != nil {
			return 0, err
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx,
		`CREATE TEMP TABLE sites_staging (LIKE sites INCLUDING DEFAULTS) ON COMMIT DROP`); err != nil {
		return 0, fmt.Errorf("create staging table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("sites_staging", "id", "name", "kind", "x", "y"))
	if err != nil {
		return 0, fmt.Errorf("prepare copy: %w", err)
	}

	for _, s := range sites {
		dto := fromDomain(s)
		if _, err = stmt.ExecContext(ctx, dto.ID.String(), dto.Name, dto.Kind, dto.X, dto.Y); err != nil {
			_ = stmt.Close()
			return 0, fmt.Errorf("copy site %q: %w", dto.Name, err)
		}
	}
	if _, err = stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return 0, fmt.Errorf("flush copy: %w", err)
	}
	if err = stmt.Close(); err != nil {
		return 0, err
	}

	if replace {
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM sites WHERE id NOT IN (SELECT id FROM sites_staging)`); err != nil {
			return 0, fmt.Errorf("delete stale sites: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO sites (id, name, kind, x, y)
		SELECT id, name, kind, x, y FROM sites_staging
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, kind = EXCLUDED.kind, x = EXCLUDED.x, y = EXCLUDED.y`)
	if err != nil {
		return 0, fmt.Errorf("upsert sites: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	return int(n), err
}
