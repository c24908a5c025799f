package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/tasktalk-api/internal/api/shared"
	"github.com/phrazzld/tasktalk-api/internal/classify"
	"github.com/phrazzld/tasktalk-api/internal/domain"
)

// pathID parses a positive integer path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return 0, domain.NewValidationError(name, "is required", domain.ErrInvalidID)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(name, "must be a positive integer", domain.ErrInvalidID)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer", domain.ErrValidation)
	}
	return n, nil
}

// respondWithPipelineError writes err. Failures from the pipeline were
// already logged at its boundary.
func respondWithPipelineError(w http.ResponseWriter, r *http.Request, err error) {
	var f *classify.Failure
	if errors.As(err, &f) {
		shared.RespondWithFailure(w, r, f)
		return
	}
	shared.RespondWithError(w, r, err)
}
