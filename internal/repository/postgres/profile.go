package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ndanilin/linkpage-server/internal/model"
)

var _ model.ProfileStore = (*ProfileRepository)(nil)

// ProfileRepository stores one JSON record per username. View/click counters
// live in dedicated columns beside the record so they can be bumped with a
// single atomic UPDATE that cannot clobber concurrent record saves.
type ProfileRepository struct {
	db *Connection
}

func NewProfileRepository(db *Connection) *ProfileRepository {
	return &ProfileRepository{
		db: db,
	}
}

func (r *ProfileRepository) Get(ctx context.Context, username string) (model.ProfileRecord, error) {
	username = model.NormalizeUsername(username)

	const query = `SELECT record, views, clicks, link_clicks FROM profiles WHERE username = $1`

	var (
		recordJSON     []byte
		views, clicks  int64
		linkClicksJSON []byte
	)
	err := r.db.QueryRow(ctx, query, username).Scan(&recordJSON, &views, &clicks, &linkClicksJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ProfileRecord{}, model.ErrNotFound
		}
		return model.ProfileRecord{}, fmt.Errorf("failed to get profile: %w", err)
	}

	var record model.ProfileRecord
	if err := json.Unmarshal(recordJSON, &record); err != nil {
		return model.ProfileRecord{}, fmt.Errorf("failed to decode profile record: %w", err)
	}

	linkClicks := map[string]int64{}
	if len(linkClicksJSON) > 0 {
		if err := json.Unmarshal(linkClicksJSON, &linkClicks); err != nil {
			return model.ProfileRecord{}, fmt.Errorf("failed to decode link clicks: %w", err)
		}
	}

	record = model.Normalize(record, username)
	record.Stats = model.Stats{Views: views, Clicks: clicks, LinkClicks: linkClicks}

	return record, nil
}

func (r *ProfileRepository) Save(ctx context.Context, username string, record model.ProfileRecord) error {
	username = model.NormalizeUsername(username)

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode profile record: %w", err)
	}

	// Counters are intentionally left untouched on conflict; views and
	// clicks accumulated between load and save survive the overwrite.
	const query = `
		INSERT INTO profiles (username, record)
		VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE
		SET record = EXCLUDED.record, updated_at = NOW()`

	if _, err := r.db.Exec(ctx, query, username, recordJSON); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) IncrementView(ctx context.Context, username string) error {
	username = model.NormalizeUsername(username)

	const query = `UPDATE profiles SET views = views + 1, updated_at = NOW() WHERE username = $1`

	cmd, err := r.db.Exec(ctx, query, username)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *ProfileRepository) IncrementClick(ctx context.Context, username string, linkID string) error {
	username = model.NormalizeUsername(username)

	const query = `
		UPDATE profiles
		SET clicks = clicks + 1,
		    link_clicks = jsonb_set(link_clicks, ARRAY[$2], to_jsonb(COALESCE((link_clicks->>$2)::bigint, 0) + 1)),
		    updated_at = NOW()
		WHERE username = $1`

	cmd, err := r.db.Exec(ctx, query, username, linkID)
	if err != nil {
		return fmt.Errorf("failed to increment clicks: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
