package understanding

import (
	"errors"
	"fmt"
)

// ErrServiceFailure is the root of every understanding service error, so
// callers can classify any provider failure with a single errors.Is check.
var ErrServiceFailure = errors.New("language understanding service failed")

// Common errors returned by Service implementations.
var (
	// ErrInvalidResponse is returned when the response is empty or malformed.
	ErrInvalidResponse = fmt.Errorf("%w: invalid response from language model", ErrServiceFailure)

	// ErrContentBlocked is returned when the provider refuses the content.
	ErrContentBlocked = fmt.Errorf("%w: content blocked by language model safety filters", ErrServiceFailure)

	// ErrTransientFailure is returned when retries are exhausted or interrupted.
	ErrTransientFailure = fmt.Errorf("%w: transient error", ErrServiceFailure)

	// ErrInvalidConfig is returned when an adapter cannot be constructed.
	ErrInvalidConfig = fmt.Errorf("%w: invalid configuration", ErrServiceFailure)
)
