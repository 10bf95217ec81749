package api

import (
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/merch/internal/app"
	"github.com/okian/merch/internal/domain/analytics"
	"github.com/okian/merch/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrInvalidBody  = errors.New("invalid request body")
	ErrMissingField = errors.New("missing field")

	errMissingProduct = errors.New("product_name is required")
)

// Error annotates an error with the handler operation that produced it.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Kind != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap annotates err with op. A nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// NewKind returns an error of the given kind raised by op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind annotates err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// statusFor maps an error onto an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrUnknownTouchpoint):
		return http.StatusNotFound, "unknown_touchpoint"
	case errors.Is(err, service.ErrOverrideNotFound):
		return http.StatusNotFound, "override_not_found"
	case errors.Is(err, analytics.ErrNoPerformanceData):
		return http.StatusNotFound, "no_performance_data"
	case errors.Is(err, service.ErrOverridesDisabled):
		return http.StatusConflict, "overrides_disabled"
	case errors.Is(err, service.ErrCatalogNotLoaded):
		return http.StatusServiceUnavailable, "catalog_not_loaded"
	case errors.Is(err, service.ErrInvalidPosition):
		return http.StatusBadRequest, "invalid_position"
	case errors.Is(err, service.ErrInvalidBoost):
		return http.StatusBadRequest, "invalid_boost"
	case errors.Is(err, model.ErrInvalidWeights):
		return http.StatusBadRequest, "invalid_weights"
	case errors.Is(err, ErrInvalidBody), errors.Is(err, ErrMissingField), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
