// Package api holds the JSON envelope, pagination, and typed request
// payloads shared by the HTTP handlers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/folio/folio/internal/core/store"
	errwrap "github.com/folio/folio/internal/errors"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// Envelope is the success body: {ok:true, data, meta?}.
type Envelope struct {
	OK   bool           `json:"ok"`
	Data any            `json:"data"`
	Meta map[string]any `json:"meta,omitempty"`
}

// Respond writes data in the success envelope with the given status.
func Respond(w http.ResponseWriter, status int, data any, meta map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{OK: true, Data: data, Meta: meta})
}

// OK writes data with HTTP 200.
func OK(w http.ResponseWriter, data any, meta map[string]any) {
	Respond(w, http.StatusOK, data, meta)
}

// Decode reads a JSON body into dst. An empty body leaves dst untouched so
// that payload validation reports the missing fields.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errwrap.NewValidationError("Request body is too large.", nil)
		}
		return errwrap.NewValidationError("Invalid JSON body.", nil)
	}
	return nil
}

// StoreError maps store sentinels to envelope errors. resource names the
// entity in caller-facing messages ("Project", "Setting").
func StoreError(ctx context.Context, err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return errwrap.WrapNotFound(ctx, err, resource+" not found.")
	case errors.Is(err, store.ErrConflict):
		return errwrap.WrapConflict(ctx, err, resource+" already exists.")
	default:
		return errwrap.WrapInternal(ctx, err, "Database operation failed.")
	}
}
