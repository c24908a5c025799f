package classify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/tasktalk-api/internal/domain"
	"github.com/phrazzld/tasktalk-api/internal/redact"
	"github.com/phrazzld/tasktalk-api/internal/service/auth"
	"github.com/phrazzld/tasktalk-api/internal/store"
	"github.com/phrazzld/tasktalk-api/internal/understanding"
)

// Kind is a member of the closed failure taxonomy.
type Kind string

// The taxonomy. Unknown is the fallback for anything unrecognised.
const (
	Unauthorized         Kind = "unauthorized"
	Forbidden            Kind = "forbidden"
	NotFound             Kind = "not_found"
	InvalidInput         Kind = "invalid_input"
	StorageError         Kind = "storage_error"
	ExternalServiceError Kind = "external_service_error"
	Unknown              Kind = "unknown"
)

// Kinds lists every member of the taxonomy.
var Kinds = []Kind{Unauthorized, Forbidden, NotFound, InvalidInput, StorageError, ExternalServiceError, Unknown}

type signature struct {
	kind    Kind
	needles []string
}

// signatures are checked in order.
var signatures = []signature{
	{Forbidden, []string{"forbidden", "unauthorized access", "permission denied", "access denied"}},
	{Unauthorized, []string{"unauthorized", "invalid token", "expired token", "token has expired", "token is missing", "unauthenticated", "authentication"}},
	{NotFound, []string{"not found", "does not exist", "no rows"}},
	{InvalidInput, []string{"invalid", "validation", "malformed", "bad request"}},
	{StorageError, []string{"database", "sql", "postgres", "pgx", "storage", "transaction"}},
	{ExternalServiceError, []string{"openai", "gpt", "gemini", "genai", "language model", "understanding service", "llm"}},
}

var messages = map[Kind]string{
	Unauthorized:         "Please log in to continue.",
	Forbidden:            "You don't have permission to perform this action.",
	NotFound:             "The requested resource was not found.",
	InvalidInput:         "Please check your input and try again.",
	StorageError:         "A database error occurred. Please try again later.",
	ExternalServiceError: "AI processing failed. Please try again.",
	Unknown:              "An unexpected error occurred. Please try again.",
}

var hints = map[Kind]string{
	Unauthorized:         "Try logging in again.",
	Forbidden:            "Contact support if you believe you should have access.",
	NotFound:             "Verify the resource exists and try again.",
	InvalidInput:         "Review the input format and constraints.",
	StorageError:         "Wait a moment and try again.",
	ExternalServiceError: "Try rephrasing your request.",
	Unknown:              "Contact support if the problem persists.",
}

var statuses = map[Kind]int{
	Unauthorized:         http.StatusUnauthorized,
	Forbidden:            http.StatusForbidden,
	NotFound:             http.StatusNotFound,
	InvalidInput:         http.StatusBadRequest,
	StorageError:         http.StatusServiceUnavailable,
	ExternalServiceError: http.StatusBadGateway,
	Unknown:              http.StatusInternalServerError,
}

// Failure is a classified error.
//
// Detail is a redacted description of the raw error, safe to show a caller.
// It is always empty for Unknown.
type Failure struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Hint    string `json:"hint"`
	Detail  string `json:"detail,omitempty"`
}

// Error implements error so a Failure can travel through error returns.
func (f *Failure) Error() string {
	if f.Detail != "" {
		return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
	}
	return string(f.Kind)
}

// Classify maps err to a Kind. A nil error is Unknown.
func Classify(err error) (kind Kind) {
	defer func() {
		if recover() != nil {
			kind = Unknown
		}
	}()
	if err == nil {
		return Unknown
	}
	if k, ok := classifyTyped(err); ok {
		return k
	}
	return ClassifyText(err.Error())
}

// ClassifyText applies the substring signatures to text.
func ClassifyText(text string) Kind {
	lower := strings.ToLower(text)
	for _, sig := range signatures {
		for _, needle := range sig.needles {
			if strings.Contains(lower, needle) {
				return sig.kind
			}
		}
	}
	return Unknown
}

func classifyTyped(err error) (Kind, bool) {
	var failure *Failure
	var validation *domain.ValidationError
	var storeErr *store.StoreError

	switch {
	case errors.As(err, &failure):
		return failure.Kind, true
	case errors.Is(err, auth.ErrForbidden), errors.Is(err, domain.ErrUnauthorized):
		return Forbidden, true
	case auth.IsCredentialError(err):
		return Unauthorized, true
	case store.IsNotFoundError(err):
		return NotFound, true
	case errors.As(err, &validation), errors.Is(err, domain.ErrValidation), errors.Is(err, store.ErrInvalidEntity):
		return InvalidInput, true
	case errors.Is(err, understanding.ErrServiceFailure):
		return ExternalServiceError, true
	case errors.As(err, &storeErr), errors.Is(err, store.ErrTransactionFailed),
		errors.Is(err, store.ErrUpdateFailed), errors.Is(err, store.ErrDeleteFailed):
		return StorageError, true
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		// Store timeouts arrive wrapped in a StoreError and match above.
		return ExternalServiceError, true
	}
	return Unknown, false
}

// Describe returns the user-facing message for k.
func Describe(k Kind) string {
	if m, ok := messages[k]; ok {
		return m
	}
	return messages[Unknown]
}

// RecoveryHint returns a suggestion for what the caller can do next.
func RecoveryHint(k Kind) string {
	if h, ok := hints[k]; ok {
		return h
	}
	return hints[Unknown]
}

// HTTPStatus maps k to a response status code.
func HTTPStatus(k Kind) int {
	if s, ok := statuses[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Expected reports whether k is a normal client-side outcome rather than a
// fault worth logging at error level.
func Expected(k Kind) bool {
	switch k {
	case Unauthorized, Forbidden, NotFound, InvalidInput:
		return true
	default:
		return false
	}
}

// New classifies err into a Failure. An existing *Failure is returned as is.
func New(err error) *Failure {
	var existing *Failure
	if errors.As(err, &existing) {
		return existing
	}
	kind := Classify(err)
	f := &Failure{Kind: kind, Message: Describe(kind), Hint: RecoveryHint(kind)}
	if kind != Unknown {
		f.Detail = safeDetail(err)
	}
	return f
}

// Of builds a Failure of the given kind with an optional safe detail.
func Of(kind Kind, detail string) *Failure {
	f := &Failure{Kind: kind, Message: Describe(kind), Hint: RecoveryHint(kind)}
	if kind != Unknown {
		f.Detail = redact.String(detail)
	}
	return f
}

func safeDetail(err error) (detail string) {
	defer func() {
		if recover() != nil {
			detail = ""
		}
	}()
	return redact.Error(err)
}
