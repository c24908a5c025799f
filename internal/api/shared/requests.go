package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/tasktalk-api/internal/domain"
)

// maxBodyBytes bounds request bodies; a message is at most 4000 characters.
const maxBodyBytes = 64 << 10

var validate = validator.New()

// DecodeJSON decodes the request body into v. Decoding failures are
// validation errors.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("body", "is required", domain.ErrValidation)
		}
		return domain.NewValidationError("body", "is not valid JSON", domain.ErrValidation)
	}
	return nil
}

// ValidateRequest checks v's validate tags and reports the first failing
// field as a domain validation error.
func ValidateRequest(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return domain.NewValidationError(
			strings.ToLower(fe.Field()),
			fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
			domain.ErrValidation)
	}
	return domain.NewValidationError("body", "is invalid", domain.ErrValidation)
}
