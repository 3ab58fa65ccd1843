package api

import "errors"

var (
	// ErrUnavailable covers network failures and non-2xx responses while
	// fetching protected bytes or talking to the API.
	ErrUnavailable = errors.New("resource unavailable")

	// ErrUnauthorized is returned after a 401; the session has already been
	// expired by the time the caller sees it.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRejected marks validation failures on stage/replace, whether
	// detected locally or reported by the server.
	ErrRejected = errors.New("upload rejected")
)
