// Package common holds the error taxonomy shared by the server, the API client
// and the search controller.
package common

import "errors"

var (
	// ErrNotFound: no matching cards, or no such user.
	ErrNotFound = errors.New("not found")

	// ErrConflict: the username is already taken.
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized: bad credentials or an invalid token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUpstreamUnavailable: the card catalog could not be reached or answered garbage.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrValidation: malformed input.
	ErrValidation = errors.New("validation error")

	ErrForbidden = errors.New("forbidden")
)
