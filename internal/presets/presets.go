// Package presets serves travel article presets: built-in defaults shipped with the binary
// plus presets users have saved.
package presets

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/content-studio/internal/config"
	"github.com/jonathan/content-studio/internal/types"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// builtInNamespace seeds the stable ids of built-in presets.
var builtInNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("content-studio/travel-presets"))

// Store persists user presets.
type Store interface {
	ListTravelPresets(ctx context.Context, userID *uuid.UUID) ([]types.TravelPreset, error)
	CreateTravelPreset(ctx context.Context, p *types.TravelPreset) error
}

// ConflictError is returned when a preset name is already taken by a built-in preset.
type ConflictError struct {
	Name string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("preset name %q is reserved by a built-in preset", e.Name)
}

var (
	defaultsOnce sync.Once
	defaults     []types.TravelPreset
	defaultsErr  error
)

// Defaults returns the built-in presets.
func Defaults() ([]types.TravelPreset, error) {
	defaultsOnce.Do(func() {
		defaults, defaultsErr = ParseDefaults(defaultsYAML)
	})
	if defaultsErr != nil {
		return nil, defaultsErr
	}
	out := make([]types.TravelPreset, len(defaults))
	copy(out, defaults)
	return out, nil
}

// ParseDefaults decodes and validates a YAML list of presets and marks them built in.
func ParseDefaults(data []byte) ([]types.TravelPreset, error) {
	var parsed []types.TravelPreset
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse preset defaults: %w", err)
	}
	seen := make(map[string]bool, len(parsed))
	for i := range parsed {
		p := &parsed[i]
		p.Name = strings.TrimSpace(p.Name)
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("invalid built-in preset %q: %w", p.Name, err)
		}
		key := nameKey(p.Name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate built-in preset %q", p.Name)
		}
		seen[key] = true
		p.ID = uuid.NewSHA1(builtInNamespace, []byte(key))
		p.BuiltIn = true
	}
	return parsed, nil
}

// Service lists and saves presets.
type Service struct {
	// Store is nil when no database is configured.
	Store  Store
	Logger zerolog.Logger
	now    func() time.Time
}

// NewService creates a Service. store may be nil.
func NewService(store Store, logger zerolog.Logger) *Service {
	return &Service{Store: store, Logger: logger, now: time.Now}
}

// List returns the built-in presets followed by stored presets visible to userID.
// A stored preset with the same name as a built-in replaces it in place.
func (s *Service) List(ctx context.Context, userID *uuid.UUID) ([]types.TravelPreset, error) {
	builtIn, err := Defaults()
	if err != nil {
		return nil, err
	}
	if s.Store == nil {
		return builtIn, nil
	}
	stored, err := s.Store.ListTravelPresets(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Merge(builtIn, stored), nil
}

// Merge combines built-in and stored presets.
func Merge(builtIn, stored []types.TravelPreset) []types.TravelPreset {
	out := make([]types.TravelPreset, len(builtIn), len(builtIn)+len(stored))
	copy(out, builtIn)
	index := make(map[string]int, len(out))
	for i, p := range out {
		index[nameKey(p.Name)] = i
	}
	for _, p := range stored {
		key := nameKey(p.Name)
		if i, ok := index[key]; ok && out[i].BuiltIn {
			out[i] = p
			continue
		}
		index[key] = len(out)
		out = append(out, p)
	}
	return out
}

// Create saves a preset owned by userID.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, p types.TravelPreset) (*types.TravelPreset, error) {
	if s.Store == nil {
		return nil, &config.MissingKeyError{Feature: "travel presets", EnvVar: "SUPABASE_DB_URL"}
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Destination = strings.TrimSpace(p.Destination)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	builtIn, err := Defaults()
	if err != nil {
		return nil, err
	}
	for _, d := range builtIn {
		if nameKey(d.Name) == nameKey(p.Name) {
			return nil, &ConflictError{Name: p.Name}
		}
	}

	p.ID = uuid.New()
	p.UserID = &userID
	p.BuiltIn = false
	p.CreatedAt = s.now().UTC()
	if err := s.Store.CreateTravelPreset(ctx, &p); err != nil {
		return nil, err
	}
	s.Logger.Info().Str("preset_id", p.ID.String()).Str("user_id", userID.String()).Msg("travel preset created")
	return &p, nil
}

func nameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
