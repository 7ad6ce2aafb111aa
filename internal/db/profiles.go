package db

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/content-studio/internal/types"
)

var profileColumns = []string{"id", "display_name", "bio", "default_tone", "preferences", "created_at", "updated_at"}

// GetProfile returns the profile of a user, or nil when none exists.
func (db *DB) GetProfile(ctx context.Context, userID uuid.UUID) (*types.Profile, error) {
	query, args, err := getProfileQuery(userID)
	if err != nil {
		return nil, err
	}
	profile, err := scanProfile(db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// UpsertProfile creates or replaces the profile of a user and returns the stored row.
func (db *DB) UpsertProfile(ctx context.Context, userID uuid.UUID, req *types.UpsertProfileRequest) (*types.Profile, error) {
	query, args, err := upsertProfileQuery(userID, req)
	if err != nil {
		return nil, err
	}
	profile, err := scanProfile(db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	return profile, nil
}

func getProfileQuery(userID uuid.UUID) (string, []any, error) {
	return psql.Select(profileColumns...).
		From("profiles").
		Where(sq.Eq{"id": userID}).
		ToSql()
}

func upsertProfileQuery(userID uuid.UUID, req *types.UpsertProfileRequest) (string, []any, error) {
	prefs := req.Preferences
	if prefs == nil {
		prefs = map[string]string{}
	}
	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal preferences: %w", err)
	}

	return psql.Insert("profiles").
		Columns("id", "display_name", "bio", "default_tone", "preferences").
		Values(userID, req.DisplayName, req.Bio, req.DefaultTone, prefsJSON).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			bio = EXCLUDED.bio,
			default_tone = EXCLUDED.default_tone,
			preferences = EXCLUDED.preferences,
			updated_at = NOW()
		RETURNING id, display_name, bio, default_tone, preferences, created_at, updated_at`).
		ToSql()
}

func scanProfile(row pgx.Row) (*types.Profile, error) {
	var p types.Profile
	var prefs []byte
	if err := row.Scan(&p.ID, &p.DisplayName, &p.Bio, &p.DefaultTone, &prefs, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Preferences = map[string]string{}
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &p.Preferences); err != nil {
			return nil, fmt.Errorf("failed to decode preferences: %w", err)
		}
	}
	return &p, nil
}
