// Package pg — альтернативный бэкенд хранилища доступа поверх Postgres.
// Одна таблица identities с колонкой state: запись физически не может
// оказаться в двух состояниях сразу. Транзакция БД заменяет
// write-temp-then-rename файлового бэкенда.
package pg

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/train-status-bot/internal/domain/access"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

func (s *Store) Get(ctx context.Context, id string) (*access.Identity, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT name, handle, state FROM identities WHERE id = $1
	`, id)

	var (
		name   string
		handle *string
		state  string
	)
	if err := row.Scan(&name, &handle, &state); err != nil {
		if err == pgx.ErrNoRows {
			return nil, access.ErrNotFound
		}
		return nil, err
	}
	ident := &access.Identity{ID: id, Profile: access.Profile{Name: name}, State: access.State(state)}
	if handle != nil {
		ident.Profile.Handle = *handle
	}
	return ident, nil
}

func (s *Store) UpsertPending(ctx context.Context, id string, p access.Profile) (access.State, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO identities (id, name, handle, state)
		VALUES ($1, $2, NULLIF($3, ''), 'pending')
		ON CONFLICT (id) DO NOTHING
	`, id, p.Name, p.Handle)
	if err != nil {
		return "", err
	}

	var state string
	if err := s.pool.QueryRow(ctx, `SELECT state FROM identities WHERE id = $1`, id).Scan(&state); err != nil {
		return "", err
	}
	return access.State(state), nil
}

func (s *Store) Move(ctx context.Context, id string, from, to access.State) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE identities SET state = $3, updated_at = now()
		WHERE id = $1 AND state = $2
	`, id, string(from), string(to))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var cur string
	err = s.pool.QueryRow(ctx, `SELECT state FROM identities WHERE id = $1`, id).Scan(&cur)
	if err == pgx.ErrNoRows {
		return access.ErrNotFound
	}
	if err != nil {
		return err
	}
	return access.ErrStateMismatch
}

func (s *Store) Upsert(ctx context.Context, id string, p access.Profile, st access.State) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO identities (id, name, handle, state)
		VALUES ($1, $2, NULLIF($3, ''), $4)
		ON CONFLICT (id) DO UPDATE SET
			name       = EXCLUDED.name,
			handle     = EXCLUDED.handle,
			state      = EXCLUDED.state,
			updated_at = now()
	`, id, p.Name, p.Handle, string(st))
	return err
}

func (s *Store) RemoveAll(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM identities WHERE id = $1`, id)
	return err
}

func (s *Store) Snapshot(ctx context.Context, st access.State) ([]access.Identity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, handle FROM identities WHERE state = $1 ORDER BY seq
	`, string(st))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []access.Identity
	for rows.Next() {
		var (
			id     string
			name   string
			handle *string
		)
		if err := rows.Scan(&id, &name, &handle); err != nil {
			return nil, err
		}
		ident := access.Identity{ID: id, Profile: access.Profile{Name: name}, State: st}
		if handle != nil {
			ident.Profile.Handle = *handle
		}
		out = append(out, ident)
	}
	return out, rows.Err()
}

func (s *Store) AddRecipient(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO recipients (id) VALUES ($1)
		ON CONFLICT (id) DO NOTHING
	`, id)
	return err
}

func (s *Store) Recipients(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM recipients ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
