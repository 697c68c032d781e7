package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/haytac/chat-tokenizer/internal/emote"
)

// ErrNotFound is returned by mutating store methods when the target row is missing.
var ErrNotFound = errors.New("not found")

// EmoteStore provides methods to interact with emotes in the database.
type EmoteStore struct {
	db *DB
}

// NewEmoteStore creates a new EmoteStore.
func NewEmoteStore(db *DB) *EmoteStore {
	return &EmoteStore{db: db}
}

const emoteColumns = `id, scope, name, emote_id, flags, cheer_amount, cheer_color, provider,
	source_id, created_at, updated_at`

const upsertEmote = `
	INSERT INTO emotes (scope, name, emote_id, flags, cheer_amount, cheer_color, provider, source_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (scope, name) DO UPDATE SET
		emote_id = excluded.emote_id,
		flags = excluded.flags,
		cheer_amount = excluded.cheer_amount,
		cheer_color = excluded.cheer_color,
		provider = excluded.provider,
		source_id = excluded.source_id,
		updated_at = CURRENT_TIMESTAMP
	RETURNING id`

func scanEmote(scanner interface{ Scan(...any) error }, e *Emote) error {
	return scanner.Scan(
		&e.ID, &e.Scope, &e.Name, &e.EmoteID, &e.Flags, &e.CheerAmount, &e.CheerColor, &e.Provider,
		&e.SourceID, &e.CreatedAt, &e.UpdatedAt,
	)
}

// UpsertEmote inserts e or replaces the emote with the same scope and name.
func (s *EmoteStore) UpsertEmote(ctx context.Context, e *Emote) (int64, error) {
	if e.Name == "" {
		return 0, errors.New("UpsertEmote: emote name is empty")
	}
	var id int64
	err := s.db.QueryRowContext(ctx, upsertEmote,
		e.Scope, e.Name, e.EmoteID, e.Flags, e.CheerAmount, e.CheerColor, e.Provider, e.SourceID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("UpsertEmote exec: %w", err)
	}
	return id, nil
}

// ReplaceSource atomically swaps every emote produced by sourceID for descs.
// It returns the number of emotes written.
func (s *EmoteStore) ReplaceSource(ctx context.Context, sourceID int64, scope string, descs []*emote.Descriptor) (int, error) {
	n, err := s.replace(ctx, `DELETE FROM emotes WHERE source_id = ?`, []any{sourceID}, scope, &sourceID, descs)
	if err != nil {
		return 0, fmt.Errorf("ReplaceSource: %w", err)
	}
	log.Debug().Int64("source_id", sourceID).Str("scope", scope).Int("emotes", n).Msg("Replaced catalog emotes")
	return n, nil
}

// ReplaceScope atomically swaps the manually managed emotes of scope for descs.
// Emotes owned by a catalog source are left alone unless descs redefines them.
func (s *EmoteStore) ReplaceScope(ctx context.Context, scope string, descs []*emote.Descriptor) (int, error) {
	n, err := s.replace(ctx, `DELETE FROM emotes WHERE scope = ? AND source_id IS NULL`, []any{scope}, scope, nil, descs)
	if err != nil {
		return 0, fmt.Errorf("ReplaceScope: %w", err)
	}
	log.Debug().Str("scope", scope).Int("emotes", n).Msg("Replaced manual emotes")
	return n, nil
}

func (s *EmoteStore) replace(ctx context.Context, deleteQuery string, deleteArgs []any, scope string, sourceID *int64, descs []*emote.Descriptor) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return 0, fmt.Errorf("delete: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertEmote)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, d := range descs {
		if d == nil || d.Name == "" {
			continue
		}
		e := EmoteFromDescriptor(scope, d, sourceID)
		var id int64
		if err := stmt.QueryRowContext(ctx,
			e.Scope, e.Name, e.EmoteID, e.Flags, e.CheerAmount, e.CheerColor, e.Provider, e.SourceID).Scan(&id); err != nil {
			return 0, fmt.Errorf("upsert %q: %w", d.Name, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return written, nil
}

// ListByScope returns the emotes of one scope ordered by name.
func (s *EmoteStore) ListByScope(ctx context.Context, scope string) ([]*Emote, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+emoteColumns+` FROM emotes WHERE scope = ? ORDER BY name`, scope)
	if err != nil {
		return nil, fmt.Errorf("ListByScope query: %w", err)
	}
	defer rows.Close()

	var emotes []*Emote
	for rows.Next() {
		e := &Emote{}
		if err := scanEmote(rows, e); err != nil {
			return nil, fmt.Errorf("ListByScope scan: %w", err)
		}
		emotes = append(emotes, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByScope rows error: %w", err)
	}
	return emotes, nil
}

// ListScopes returns every distinct scope with at least one emote.
func (s *EmoteStore) ListScopes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT scope FROM emotes ORDER BY scope`)
	if err != nil {
		return nil, fmt.Errorf("ListScopes query: %w", err)
	}
	defer rows.Close()

	var scopes []string
	for rows.Next() {
		var scope string
		if err := rows.Scan(&scope); err != nil {
			return nil, fmt.Errorf("ListScopes scan: %w", err)
		}
		scopes = append(scopes, scope)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListScopes rows error: %w", err)
	}
	return scopes, nil
}

// LoadMap returns the emotes of scope as a lookup map.
func (s *EmoteStore) LoadMap(ctx context.Context, scope string) (emote.Map, error) {
	rows, err := s.ListByScope(ctx, scope)
	if err != nil {
		return nil, err
	}
	descs := make([]*emote.Descriptor, 0, len(rows))
	for _, e := range rows {
		descs = append(descs, e.Descriptor())
	}
	return emote.NewMap(descs...), nil
}

// ChannelLoader returns an emote.Loader that reads channel scopes from the store.
func (s *EmoteStore) ChannelLoader(timeout time.Duration) emote.Loader {
	return func(channelID string) (emote.Map, error) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return s.LoadMap(ctx, channelID)
	}
}

// DeleteEmote removes the emote called name from scope.
func (s *EmoteStore) DeleteEmote(ctx context.Context, scope, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM emotes WHERE scope = ? AND name = ?`, scope, name)
	if err != nil {
		return fmt.Errorf("DeleteEmote exec: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("DeleteEmote %q in scope %q: %w", name, scope, ErrNotFound)
	}
	return nil
}
