// Package httpapi is the thin HTTP surface mapping each external
// operation onto the core engine packages: apply, schema, bid, store,
// system, and graph. No business logic lives here — every handler
// decodes a request, calls into the core, and re-encodes the result.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/stigctl/engine/bid"
	"github.com/stigctl/engine/id"
	"github.com/stigctl/engine/schema"
	"github.com/stigctl/engine/store"
)

// statusFor maps a core error to the HTTP status its kind implies:
// parse/validation/evaluation errors are always client errors; storage
// NotFound/AlreadyExists are client errors; anything else is a 500.
func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return http.StatusConflict
	}

	var idErr *id.ParseError
	var schemaErr *schema.ValidationError
	var lexErr *bid.LexError
	var parseErr *bid.ParseError
	var evalErr *bid.EvalError
	switch {
	case errors.As(err, &idErr),
		errors.As(err, &schemaErr),
		errors.As(err, &lexErr),
		errors.As(err, &parseErr),
		errors.As(err, &evalErr):
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}
