package airtable

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jonathan/content-studio/internal/types"
)

// Recipe table column names.
const (
	FieldName         = "Name"
	FieldCuisine      = "Cuisine"
	FieldIngredients  = "Ingredients"
	FieldInstructions = "Instructions"
	FieldTags         = "Tags"
	FieldPrepMinutes  = "Prep Minutes"
	FieldImage        = "Image"
)

// SearchRecipes returns recipes whose name, ingredients or tags contain query,
// optionally restricted to one cuisine.
func (c *Client) SearchRecipes(ctx context.Context, query, cuisine string, maxRecords int) ([]types.Recipe, error) {
	records, err := c.List(ctx, ListOptions{
		Formula:    RecipeFormula(query, cuisine),
		MaxRecords: maxRecords,
		SortField:  FieldName,
	})
	if err != nil {
		return nil, err
	}
	recipes := make([]types.Recipe, 0, len(records))
	for _, r := range records {
		recipes = append(recipes, RecipeFromRecord(r))
	}
	return recipes, nil
}

// GetRecipe returns one recipe by record id.
func (c *Client) GetRecipe(ctx context.Context, id string) (*types.Recipe, error) {
	record, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	recipe := RecipeFromRecord(*record)
	return &recipe, nil
}

// RecipeFormula builds a case-insensitive filterByFormula expression.
func RecipeFormula(query, cuisine string) string {
	var clauses []string
	if q := strings.TrimSpace(query); q != "" {
		haystack := fmt.Sprintf("LOWER({%s} & \" \" & {%s} & \" \" & {%s})", FieldName, FieldIngredients, FieldTags)
		clauses = append(clauses, fmt.Sprintf("SEARCH(%s, %s)", quote(strings.ToLower(q)), haystack))
	}
	if c := strings.TrimSpace(cuisine); c != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER({%s}) = %s", FieldCuisine, quote(strings.ToLower(c))))
	}
	switch len(clauses) {
	case 0:
		return ""
	case 1:
		return clauses[0]
	default:
		return "AND(" + strings.Join(clauses, ", ") + ")"
	}
}

// quote renders s as a formula string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// RecipeFromRecord maps a table row onto a Recipe. Ingredients and tags may be stored
// as arrays or as newline/comma separated text.
func RecipeFromRecord(r Record) types.Recipe {
	return types.Recipe{
		ID:           r.ID,
		Name:         stringField(r.Fields[FieldName]),
		Cuisine:      stringField(r.Fields[FieldCuisine]),
		Ingredients:  listField(r.Fields[FieldIngredients], "\n"),
		Instructions: stringField(r.Fields[FieldInstructions]),
		Tags:         listField(r.Fields[FieldTags], ","),
		PrepMinutes:  intField(r.Fields[FieldPrepMinutes]),
		ImageURL:     attachmentURL(r.Fields[FieldImage]),
	}
}

func stringField(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		if len(t) > 0 {
			return stringField(t[0])
		}
	}
	return ""
}

func listField(v any, sep string) []string {
	var parts []string
	switch t := v.(type) {
	case string:
		parts = strings.Split(t, sep)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(p), "-*•"))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intField(v any) int {
	switch t := v.(type) {
	case float64:
		return int(math.Round(t))
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err == nil {
			return n
		}
	}
	return 0
}

// attachmentURL reads the first URL of an attachment field or a plain URL string.
func attachmentURL(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				if u, ok := m["url"].(string); ok && u != "" {
					return u
				}
			}
		}
	}
	return ""
}
