package shared

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/phrazzld/tasktalk-api/internal/classify"
	"github.com/phrazzld/tasktalk-api/internal/platform/logger"
	"github.com/phrazzld/tasktalk-api/internal/redact"
)

// StatusError is the status field of every error body.
const StatusError = "error"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Status  string        `json:"status"`
	Kind    classify.Kind `json:"kind"`
	Error   string        `json:"error"`
	Hint    string        `json:"hint"`
	Detail  string        `json:"detail,omitempty"`
	TraceID string        `json:"trace_id,omitempty"`
}

// RespondWithJSON writes data as JSON with the given status code.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

// RespondWithFailure writes a classified failure. The status code follows
// the failure kind.
func RespondWithFailure(w http.ResponseWriter, r *http.Request, f *classify.Failure) {
	RespondWithJSON(w, r, classify.HTTPStatus(f.Kind), ErrorResponse{
		Status:  StatusError,
		Kind:    f.Kind,
		Error:   f.Message,
		Hint:    f.Hint,
		Detail:  f.Detail,
		TraceID: GetTraceID(r.Context()),
	})
}

// RespondWithError classifies err, logs it redacted and writes the failure.
// Unexpected kinds log at ERROR, expected ones at DEBUG.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	f := classify.New(err)

	level := slog.LevelDebug
	if !classify.Expected(f.Kind) {
		level = slog.LevelError
	}
	logger.FromContext(r.Context()).LogAttrs(r.Context(), level, "API error response",
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.String("kind", string(f.Kind)),
		slog.Int("status_code", classify.HTTPStatus(f.Kind)),
		slog.String("error", redact.Error(err)))

	RespondWithFailure(w, r, f)
}
