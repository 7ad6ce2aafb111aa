package server

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/content-studio/internal/airtable"
	"github.com/jonathan/content-studio/internal/config"
	"github.com/jonathan/content-studio/internal/generation"
	"github.com/jonathan/content-studio/internal/llm"
	"github.com/jonathan/content-studio/internal/news"
	"github.com/jonathan/content-studio/internal/presets"
	"github.com/jonathan/content-studio/internal/recipes"
	"github.com/jonathan/content-studio/internal/review"
)

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "query", Message: "too short"}
	assert.Equal(t, "validation error: query - too short", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))

	noField := &ErrValidation{Message: "one of recipeIds, recipes or description is required"}
	assert.Equal(t, "validation error: one of recipeIds, recipes or description is required", noField.Error())
}

func TestErrNotFound(t *testing.T) {
	err := &ErrNotFound{Resource: "profile"}
	assert.Equal(t, "profile not found", err.Error())
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "validation", err: &ErrValidation{Field: "body", Message: "bad"}, expected: http.StatusBadRequest},
		{name: "unsupported request", err: &news.UnsupportedRequestError{Providers: []string{"serpapi"}}, expected: http.StatusBadRequest},
		{name: "not found", err: &ErrNotFound{Resource: "profile"}, expected: http.StatusNotFound},
		{name: "unknown recipes", err: &recipes.NotFoundError{IDs: []string{"rec1"}}, expected: http.StatusNotFound},
		{name: "preset conflict", err: &presets.ConflictError{Name: "Lisbon"}, expected: http.StatusConflict},
		{name: "missing key", err: &config.MissingKeyError{Feature: "recipes", EnvVar: "AIRTABLE_API_KEY"}, expected: http.StatusInternalServerError},
		{name: "no providers", err: &news.NoProvidersError{}, expected: http.StatusInternalServerError},
		{name: "verification", err: &generation.VerificationError{Condition: generation.ConditionWordCount}, expected: http.StatusInternalServerError},
		{name: "upstream", err: &news.UpstreamError{Provider: "newsapi", StatusCode: 500}, expected: http.StatusBadGateway},
		{name: "all failed", err: &news.AllFailedError{Attempted: 2, First: assert.AnError}, expected: http.StatusBadGateway},
		{name: "airtable", err: &airtable.Error{StatusCode: 503}, expected: http.StatusBadGateway},
		{name: "llm", err: &llm.Error{Provider: "openai", Message: "boom"}, expected: http.StatusBadGateway},
		{name: "incomplete review", err: &review.IncompleteError{Missing: []int{2}}, expected: http.StatusBadGateway},
		{name: "wrapped llm", err: fmt.Errorf("draft: %w", &llm.Error{Provider: "gemini"}), expected: http.StatusBadGateway},
		{name: "deadline", err: fmt.Errorf("search: %w", context.DeadlineExceeded), expected: http.StatusGatewayTimeout},
		{name: "llm timeout", err: &llm.Error{Provider: "gemini", Message: "request failed", Cause: context.DeadlineExceeded}, expected: http.StatusGatewayTimeout},
		{name: "upstream timeout", err: fmt.Errorf("newsapi: %w", &news.UpstreamError{Provider: "newsapi", Cause: context.DeadlineExceeded}), expected: http.StatusGatewayTimeout},
		{name: "unknown", err: assert.AnError, expected: http.StatusInternalServerError},
		{name: "nil", err: nil, expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	missing := &config.MissingKeyError{Feature: "recipes", EnvVar: "AIRTABLE_API_KEY"}
	assert.Equal(t, missing.Error(), publicMessage(missing, http.StatusInternalServerError))

	secret := fmt.Errorf("pq: password authentication failed for user postgres")
	assert.Equal(t, "internal server error", publicMessage(secret, http.StatusInternalServerError))

	assert.Equal(t, "upstream request timed out", publicMessage(context.DeadlineExceeded, http.StatusGatewayTimeout))

	upstream := &news.UpstreamError{Provider: "serpapi", StatusCode: 429}
	assert.Equal(t, upstream.Error(), publicMessage(upstream, http.StatusBadGateway))
}

func TestValidationError(t *testing.T) {
	type body struct {
		Query string `validate:"required"`
	}
	err := validator.New().Struct(&body{})

	converted := validationError(err)
	var ve *ErrValidation
	assert.ErrorAs(t, converted, &ve)
	assert.Equal(t, "body.Query", ve.Field)
	assert.Contains(t, ve.Message, "required")

	plain := validationError(assert.AnError)
	assert.ErrorAs(t, plain, &ve)
	assert.Empty(t, ve.Field)
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(plain))
}
