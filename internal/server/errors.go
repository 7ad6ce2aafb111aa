package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/content-studio/internal/airtable"
	"github.com/jonathan/content-studio/internal/config"
	"github.com/jonathan/content-studio/internal/generation"
	"github.com/jonathan/content-studio/internal/llm"
	"github.com/jonathan/content-studio/internal/news"
	"github.com/jonathan/content-studio/internal/presets"
	"github.com/jonathan/content-studio/internal/recipes"
	"github.com/jonathan/content-studio/internal/review"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotFound indicates a missing resource
type ErrNotFound struct {
	Resource string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation   *ErrValidation
		fieldErrs    validator.ValidationErrors
		notFound     *ErrNotFound
		missingKey   *config.MissingKeyError
		unsupported  *news.UnsupportedRequestError
		noProviders  *news.NoProvidersError
		upstream     *news.UpstreamError
		allFailed    *news.AllFailedError
		airtableErr  *airtable.Error
		llmErr       *llm.Error
		incomplete   *review.IncompleteError
		verification *generation.VerificationError
		noRecipes    *recipes.NotFoundError
		conflict     *presets.ConflictError
	)

	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &validation), errors.As(err, &fieldErrs), errors.As(err, &unsupported):
		return http.StatusBadRequest
	case errors.As(err, &notFound), errors.As(err, &noRecipes):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &missingKey), errors.As(err, &noProviders), errors.As(err, &verification):
		return http.StatusInternalServerError
	case errors.As(err, &upstream), errors.As(err, &allFailed), errors.As(err, &airtableErr),
		errors.As(err, &llmErr), errors.As(err, &incomplete):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the error text sent to clients. Unclassified errors are not exposed.
func publicMessage(err error, status int) string {
	if status == http.StatusInternalServerError {
		var (
			missingKey   *config.MissingKeyError
			noProviders  *news.NoProvidersError
			verification *generation.VerificationError
		)
		if !errors.As(err, &missingKey) && !errors.As(err, &noProviders) && !errors.As(err, &verification) {
			return "internal server error"
		}
	}
	if status == http.StatusGatewayTimeout {
		return "upstream request timed out"
	}
	return err.Error()
}

// validationError wraps request validation failures so they map to 400.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ErrValidation{Field: fe.Namespace(), Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag())}
	}
	return &ErrValidation{Message: err.Error()}
}
