package auth

import "errors"

// Common authentication service errors
var (
	// ErrMissingToken indicates no credential was supplied.
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrMalformedCredential indicates the credential does not use the Bearer scheme.
	ErrMalformedCredential = errors.New("malformed authorization header")

	// ErrInvalidToken indicates the token format is invalid or signature doesn't match
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid indicates the token is not yet valid (nbf claim in the future)
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrForbidden indicates a valid principal addressed another owner's resources.
	ErrForbidden = errors.New("forbidden: principal does not match owner")
)

// IsCredentialError reports whether err is any failure to establish a principal.
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrMalformedCredential) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrTokenNotYetValid)
}
