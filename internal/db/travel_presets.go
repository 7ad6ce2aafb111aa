package db

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/jonathan/content-studio/internal/types"
)

// ListTravelPresets returns the shared presets plus those owned by userID, oldest first.
// A nil userID returns only shared presets.
func (db *DB) ListTravelPresets(ctx context.Context, userID *uuid.UUID) ([]types.TravelPreset, error) {
	query, args, err := listTravelPresetsQuery(userID)
	if err != nil {
		return nil, err
	}
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list travel presets: %w", err)
	}
	defer rows.Close()

	var presets []types.TravelPreset
	for rows.Next() {
		var p types.TravelPreset
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Destination, &p.Days, &p.Budget, &p.Interests, &p.Tone, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan travel preset: %w", err)
		}
		presets = append(presets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list travel presets: %w", err)
	}
	return presets, nil
}

// CreateTravelPreset inserts p, assigning an id when it has none, and fills CreatedAt.
func (db *DB) CreateTravelPreset(ctx context.Context, p *types.TravelPreset) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	query, args, err := createTravelPresetQuery(p)
	if err != nil {
		return err
	}
	if err := db.pool.QueryRow(ctx, query, args...).Scan(&p.CreatedAt); err != nil {
		return fmt.Errorf("failed to create travel preset: %w", err)
	}
	return nil
}

func listTravelPresetsQuery(userID *uuid.UUID) (string, []any, error) {
	var owner sq.Sqlizer = sq.Eq{"user_id": nil}
	if userID != nil {
		owner = sq.Or{sq.Eq{"user_id": nil}, sq.Eq{"user_id": *userID}}
	}
	return psql.Select("id", "user_id", "name", "destination", "days", "budget", "interests", "tone", "created_at").
		From("travel_presets").
		Where(owner).
		OrderBy("created_at ASC", "name ASC").
		ToSql()
}

func createTravelPresetQuery(p *types.TravelPreset) (string, []any, error) {
	interests := p.Interests
	if interests == nil {
		interests = []string{}
	}
	return psql.Insert("travel_presets").
		Columns("id", "user_id", "name", "destination", "days", "budget", "interests", "tone").
		Values(p.ID, p.UserID, p.Name, p.Destination, p.Days, p.Budget, interests, p.Tone).
		Suffix("RETURNING created_at").
		ToSql()
}
