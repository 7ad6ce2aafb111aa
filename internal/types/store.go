//nolint:revive // types is a standard Go package name pattern
package types

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var errNoRecipeInput = errors.New("one of recipeIds, recipes or description is required")

// Recipe is a record from the Airtable recipe table.
type Recipe struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Cuisine      string   `json:"cuisine,omitempty"`
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	PrepMinutes  int      `json:"prepMinutes,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`
}

// FindRecipesRequest is the body of POST /api/findRecipes.
type FindRecipesRequest struct {
	Query      string `json:"query" validate:"required,min=2,max=200"`
	Cuisine    string `json:"cuisine" validate:"max=100"`
	MaxResults int    `json:"maxResults" validate:"gte=0,lte=50"`
}

// Validate checks field constraints.
func (r *FindRecipesRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// FindRecipesResponse is the body returned by POST /api/findRecipes.
type FindRecipesResponse struct {
	Recipes []Recipe `json:"recipes"`
	Count   int      `json:"count"`
}

// GenerateRecipeRequest is the body of POST /api/generate-recipe.
type GenerateRecipeRequest struct {
	RecipeIDs   []string `json:"recipeIds" validate:"max=5,dive,required"`
	Recipes     []Recipe `json:"recipes" validate:"max=5"`
	Style       string   `json:"style" validate:"max=200"`
	Servings    int      `json:"servings" validate:"gte=0,lte=50"`
	Dietary     []string `json:"dietary" validate:"max=10,dive,max=50"`
	Description string   `json:"description" validate:"max=2000"`
}

// Validate checks field constraints. At least one recipe source is required.
func (r *GenerateRecipeRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return err
	}
	if len(r.RecipeIDs) == 0 && len(r.Recipes) == 0 && r.Description == "" {
		return errNoRecipeInput
	}
	return nil
}

// GenerateRecipeResponse is the body returned by POST /api/generate-recipe.
type GenerateRecipeResponse struct {
	Content string   `json:"content"`
	Recipes []Recipe `json:"recipes"`
}

// TravelPreset is a saved travel article configuration.
type TravelPreset struct {
	ID          uuid.UUID  `json:"id"`
	UserID      *uuid.UUID `json:"userId,omitempty"`
	Name        string     `json:"name" yaml:"name" validate:"required,max=100"`
	Destination string     `json:"destination" yaml:"destination" validate:"required,max=200"`
	Days        int        `json:"days" yaml:"days" validate:"gte=1,lte=60"`
	Budget      string     `json:"budget" yaml:"budget" validate:"omitempty,oneof=budget moderate luxury"`
	Interests   []string   `json:"interests" yaml:"interests" validate:"max=20,dive,max=50"`
	Tone        string     `json:"tone,omitempty" yaml:"tone" validate:"max=100"`
	BuiltIn     bool       `json:"builtIn"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Validate checks field constraints.
func (p *TravelPreset) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

// Profile is a user profile row from the Supabase profiles table.
type Profile struct {
	ID          uuid.UUID         `json:"id"`
	DisplayName string            `json:"displayName"`
	Bio         string            `json:"bio,omitempty"`
	DefaultTone string            `json:"defaultTone,omitempty"`
	Preferences map[string]string `json:"preferences"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// UpsertProfileRequest is the body of POST /api/profiles.
type UpsertProfileRequest struct {
	DisplayName string            `json:"displayName" validate:"required,min=1,max=100"`
	Bio         string            `json:"bio" validate:"max=2000"`
	DefaultTone string            `json:"defaultTone" validate:"max=100"`
	Preferences map[string]string `json:"preferences" validate:"max=50"`
}

// Validate checks field constraints.
func (r *UpsertProfileRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
