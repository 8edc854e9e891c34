package api

import (
	"errors"
	"net/http"

	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/backend"
	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/repository"
	service "github.com/ckwame-jpg/fantasy-tool/internal/app"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/draft"
)

// Sentinel kinds for API errors.
var (
	ErrServe      = errors.New("api serve failed")
	ErrBadRequest = errors.New("bad request")
)

// Error tags a failure with the handler operation that produced it.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Kind != nil:
		return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	var out []error
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error { return &Error{Op: op, Kind: kind} }

// Wrap attaches op to err.
func Wrap(op string, err error) error { return &Error{Op: op, Err: err} }

// WrapKind attaches op and kind to err.
func WrapKind(op string, kind, err error) error { return &Error{Op: op, Kind: kind, Err: err} }

// classify maps an error to a status code and a stable error code for the body.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, draft.ErrUnknownPlayer):
		return http.StatusNotFound, "unknown_player"
	case errors.Is(err, draft.ErrNotDrafted):
		return http.StatusNotFound, "not_drafted"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, draft.ErrAlreadyDrafted):
		return http.StatusConflict, "already_drafted"
	case errors.Is(err, service.ErrNotConfigured):
		return http.StatusNotImplemented, "not_configured"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "not_started"
	case errors.Is(err, backend.ErrCircuitOpen), errors.Is(err, backend.ErrUpstream):
		return http.StatusBadGateway, "upstream_error"
	}
	return http.StatusInternalServerError, "internal_error"
}

// fail writes err with the status it classifies to.
func fail(w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, code, WrapKind(op, ErrServe, err))
		return
	}
	writeError(w, status, code, Wrap(op, err))
}
