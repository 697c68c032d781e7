package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SourceStore provides methods to interact with catalog sources in the database.
type SourceStore struct {
	db *DB
}

// NewSourceStore creates a new SourceStore.
func NewSourceStore(db *DB) *SourceStore {
	return &SourceStore{db: db}
}

const sourceColumns = `id, name, url, scope, provider, frequency_seconds, is_enabled,
	http_etag, last_fetched_at, created_at, updated_at`

func scanSource(scanner interface{ Scan(...any) error }, src *CatalogSource) error {
	return scanner.Scan(
		&src.ID, &src.Name, &src.URL, &src.Scope, &src.Provider, &src.FrequencySeconds, &src.IsEnabled,
		&src.HTTPEtag, &src.LastFetchedAt, &src.CreatedAt, &src.UpdatedAt,
	)
}

// CreateSource adds a new catalog source.
func (s *SourceStore) CreateSource(ctx context.Context, src *CatalogSource) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO catalog_sources (name, url, scope, provider, frequency_seconds, is_enabled)
		VALUES (?, ?, ?, ?, ?, ?)`,
		src.Name, src.URL, src.Scope, src.Provider, src.FrequencySeconds, src.IsEnabled)
	if err != nil {
		return 0, fmt.Errorf("CreateSource exec: %w", err)
	}
	return res.LastInsertId()
}

// GetSourceByID returns the source with id, or nil if it does not exist.
func (s *SourceStore) GetSourceByID(ctx context.Context, id int64) (*CatalogSource, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sourceColumns+` FROM catalog_sources WHERE id = ?`, id)
	src := &CatalogSource{}
	if err := scanSource(row, src); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("GetSourceByID scan: %w", err)
	}
	return src, nil
}

// ListSources returns every source ordered by ID.
func (s *SourceStore) ListSources(ctx context.Context) ([]*CatalogSource, error) {
	return s.query(ctx, "ListSources", `SELECT `+sourceColumns+` FROM catalog_sources ORDER BY id`)
}

// GetEnabledSources returns the sources the scheduler should refresh.
func (s *SourceStore) GetEnabledSources(ctx context.Context) ([]*CatalogSource, error) {
	return s.query(ctx, "GetEnabledSources", `SELECT `+sourceColumns+` FROM catalog_sources WHERE is_enabled = TRUE ORDER BY id`)
}

func (s *SourceStore) query(ctx context.Context, op, query string, args ...any) ([]*CatalogSource, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", op, err)
	}
	defer rows.Close()

	var sources []*CatalogSource
	for rows.Next() {
		src := &CatalogSource{}
		if err := scanSource(rows, src); err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows error: %w", op, err)
	}
	return sources, nil
}

// SetSourceEnabled toggles whether a source is refreshed.
func (s *SourceStore) SetSourceEnabled(ctx context.Context, id int64, enabled bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE catalog_sources SET is_enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, enabled, id)
	if err != nil {
		return fmt.Errorf("SetSourceEnabled exec: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("SetSourceEnabled: source %d: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateSourceFetched records a completed fetch. A nil etag keeps the stored one.
func (s *SourceStore) UpdateSourceFetched(ctx context.Context, id int64, etag *string, fetchedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE catalog_sources
		SET http_etag = COALESCE(?, http_etag), last_fetched_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, etag, fetchedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("UpdateSourceFetched exec: %w", err)
	}
	return nil
}

// DeleteSource removes a source. Emotes it produced are kept but detached.
func (s *SourceStore) DeleteSource(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM catalog_sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("DeleteSource exec: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("DeleteSource: source %d: %w", id, ErrNotFound)
	}
	return nil
}
