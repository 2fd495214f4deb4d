// Package postgres stores profiles, prompt responses, blocks and weekly match records in
// PostgreSQL through sqlx.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/imadgeboyega/kiekky-weekly/internal/matching"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

type Repository struct {
	db *sqlx.DB
}

var _ matching.Repository = (*Repository)(nil)

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Migrate applies the schema. Every statement is idempotent.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

func (r *Repository) ListRespondents(ctx context.Context, promptKey string) ([]string, error) {
	var ids []string
	query := `SELECT user_id FROM prompt_responses WHERE prompt_key = $1 ORDER BY user_id`
	if err := r.db.SelectContext(ctx, &ids, query, promptKey); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *Repository) LoadProfilesAndPreferences(ctx context.Context, ids []string) (map[string]matching.UserData, error) {
	out := make(map[string]matching.UserData, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var profiles []profileRow
	query := `
        SELECT user_id, gender, birth_date, year, school, majors, interests, clubs
        FROM profiles
        WHERE user_id = ANY($1)
    `
	if err := r.db.SelectContext(ctx, &profiles, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("selecting profiles: %w", err)
	}

	var prefs []preferencesRow
	query = `
        SELECT user_id, genders, min_age, max_age, years, excluded_schools, excluded_majors
        FROM preferences
        WHERE user_id = ANY($1)
    `
	if err := r.db.SelectContext(ctx, &prefs, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("selecting preferences: %w", err)
	}

	for i := range profiles {
		data := out[profiles[i].UserID]
		data.Profile = profiles[i].toProfile()
		out[profiles[i].UserID] = data
	}
	for i := range prefs {
		data := out[prefs[i].UserID]
		data.Preferences = prefs[i].toPreferences()
		out[prefs[i].UserID] = data
	}
	return out, nil
}

func (r *Repository) LoadHistory(ctx context.Context, ids []string, excludePromptKey string) (map[string]matching.KeySet, error) {
	out := make(map[string]matching.KeySet, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []matchRow
	query := `
        SELECT user_id, prompt_key, matches, revealed, created_at, updated_at
        FROM weekly_matches
        WHERE user_id = ANY($1) AND prompt_key <> $2
    `
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids), excludePromptKey); err != nil {
		return nil, err
	}

	for _, row := range rows {
		set, ok := out[row.UserID]
		if !ok {
			set = make(matching.KeySet)
			out[row.UserID] = set
		}
		for _, partner := range row.Matches {
			set.Add(partner)
		}
	}
	return out, nil
}

func (r *Repository) LoadBlocks(ctx context.Context, ids []string) (map[string]matching.KeySet, error) {
	if len(ids) == 0 {
		return map[string]matching.KeySet{}, nil
	}

	var rows []blockRow
	query := `
        SELECT blocker_id, blocked_id
        FROM blocks
        WHERE blocker_id = ANY($1) OR blocked_id = ANY($1)
    `
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, err
	}
	return expandBlocks(rows, matching.NewKeySet(ids...)), nil
}

func (r *Repository) WriteMatchRecord(ctx context.Context, owner, promptKey string, partners []string, mode matching.WriteMode) error {
	if mode == matching.WriteAppend {
		return r.appendMatchRecord(ctx, owner, promptKey, partners)
	}

	record := matching.NewMatchRecord(owner, promptKey, nil)
	record.Append(partners...)

	query := `
        INSERT INTO weekly_matches (user_id, prompt_key, matches, revealed)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id, prompt_key) DO UPDATE
        SET matches = EXCLUDED.matches, revealed = EXCLUDED.revealed, updated_at = CURRENT_TIMESTAMP
    `
	_, err := r.db.ExecContext(ctx, query, owner, promptKey, pq.Array(record.Matches), pq.Array(record.Revealed))
	return err
}

func (r *Repository) appendMatchRecord(ctx context.Context, owner, promptKey string, partners []string) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		insert := `
            INSERT INTO weekly_matches (user_id, prompt_key)
            VALUES ($1, $2)
            ON CONFLICT (user_id, prompt_key) DO NOTHING
        `
		if _, err := tx.ExecContext(ctx, insert, owner, promptKey); err != nil {
			return err
		}

		record, err := selectForUpdate(ctx, tx, owner, promptKey)
		if err != nil {
			return err
		}
		if record.Append(partners...) == 0 {
			return nil
		}
		return saveRecord(ctx, tx, record)
	})
}

func (r *Repository) GetMatchRecord(ctx context.Context, owner, promptKey string) (*matching.MatchRecord, error) {
	var row matchRow
	query := `
        SELECT user_id, prompt_key, matches, revealed, created_at, updated_at
        FROM weekly_matches
        WHERE user_id = $1 AND prompt_key = $2
    `
	err := r.db.GetContext(ctx, &row, query, owner, promptKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, matching.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toRecord(), nil
}

func (r *Repository) ListMatchRecords(ctx context.Context, promptKey string) ([]*matching.MatchRecord, error) {
	var rows []matchRow
	query := `
        SELECT user_id, prompt_key, matches, revealed, created_at, updated_at
        FROM weekly_matches
        WHERE prompt_key = $1
        ORDER BY user_id
    `
	if err := r.db.SelectContext(ctx, &rows, query, promptKey); err != nil {
		return nil, err
	}

	records := make([]*matching.MatchRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].toRecord()
	}
	return records, nil
}

// UpdateMatchRecord locks the row with SELECT ... FOR UPDATE for the duration of fn.
func (r *Repository) UpdateMatchRecord(ctx context.Context, owner, promptKey string, fn func(*matching.MatchRecord) error) (*matching.MatchRecord, error) {
	var updated *matching.MatchRecord
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		record, err := selectForUpdate(ctx, tx, owner, promptKey)
		if err != nil {
			return err
		}
		if err := fn(record); err != nil {
			return err
		}
		if err := saveRecord(ctx, tx, record); err != nil {
			return err
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Repository) DeleteMatchRecord(ctx context.Context, owner, promptKey string) error {
	query := `DELETE FROM weekly_matches WHERE user_id = $1 AND prompt_key = $2`
	_, err := r.db.ExecContext(ctx, query, owner, promptKey)
	return err
}

func (r *Repository) withTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func selectForUpdate(ctx context.Context, tx *sqlx.Tx, owner, promptKey string) (*matching.MatchRecord, error) {
	var row matchRow
	query := `
        SELECT user_id, prompt_key, matches, revealed, created_at, updated_at
        FROM weekly_matches
        WHERE user_id = $1 AND prompt_key = $2
        FOR UPDATE
    `
	err := tx.GetContext(ctx, &row, query, owner, promptKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, matching.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toRecord(), nil
}

func saveRecord(ctx context.Context, tx *sqlx.Tx, record *matching.MatchRecord) error {
	query := `
        UPDATE weekly_matches
        SET matches = $3, revealed = $4, updated_at = CURRENT_TIMESTAMP
        WHERE user_id = $1 AND prompt_key = $2
        RETURNING updated_at
    `
	return tx.QueryRowxContext(ctx, query,
		record.UserID, record.PromptKey, pq.Array(record.Matches), pq.Array(record.Revealed),
	).Scan(&record.UpdatedAt)
}
