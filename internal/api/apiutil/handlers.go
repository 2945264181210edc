package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/codr1/quickcourt/internal/api/authz"
	"github.com/codr1/quickcourt/internal/apperr"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// HandlerError carries an explicit status for errors that are not part of the
// domain taxonomy (malformed bodies, rate limits).
type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// DecodeJSON reads a single JSON object into dst and runs its validate tags.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return HandlerError{Status: http.StatusBadRequest, Message: "missing request body"}
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return HandlerError{Status: http.StatusBadRequest, Message: fmt.Sprintf("invalid JSON body: %v", err), Err: apperr.ErrInvalidInput}
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return HandlerError{Status: http.StatusBadRequest, Message: "invalid JSON body", Err: apperr.ErrInvalidInput}
	}
	return Validate(dst)
}

// Validate runs struct validation and reports the first failing field.
func Validate(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperr.Field(fe.Field(), describe(fe))
	}
	return fmt.Errorf("validate request: %w", err)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "datetime":
		return "must match " + fe.Param()
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// StatusFor maps an error onto an HTTP status and a stable error code.
func StatusFor(err error) (int, string) {
	var herr HandlerError
	if errors.As(err, &herr) && herr.Status != 0 {
		return herr.Status, codeForStatus(herr.Status)
	}
	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, authz.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, apperr.ErrInvalidInterval):
		return http.StatusBadRequest, "invalid_interval"
	case errors.Is(err, apperr.ErrPaymentFailed):
		return http.StatusPaymentRequired, "payment_failed"
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperr.ErrSlotUnavailable):
		return http.StatusConflict, "slot_unavailable"
	case errors.Is(err, apperr.ErrCancellationWindowClosed):
		return http.StatusConflict, "cancellation_window_closed"
	case errors.Is(err, apperr.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, apperr.ErrOutOfOperatingHours):
		return http.StatusUnprocessableEntity, "out_of_operating_hours"
	case errors.Is(err, apperr.ErrVenueNotBookable):
		return http.StatusUnprocessableEntity, "venue_not_bookable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_input"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusNotFound:
		return "not_found"
	default:
		return strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "_")
	}
}

// WriteError writes err as an ErrorResponse. Internal failures are logged and
// their details withheld from the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := StatusFor(err)
	resp := ErrorResponse{Error: err.Error(), Code: code}

	var fe apperr.FieldError
	if errors.As(err, &fe) {
		resp.Field = fe.Field
	}

	logger := log.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		resp.Error = "internal server error"
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("Request rejected")
	}

	if werr := WriteJSON(w, status, resp); werr != nil {
		logger.Error().Err(werr).Msg("Failed to write error response")
	}
}

// RequireRole writes 401/403 and returns false when the principal lacks every role.
func RequireRole(w http.ResponseWriter, r *http.Request, roles ...string) (*authz.AuthUser, bool) {
	user, err := authz.RequireRole(r.Context(), roles...)
	if err != nil {
		logDenied(r, user, err)
		WriteError(w, r, err)
		return nil, false
	}
	return user, true
}

// RequireVenueOwner writes 401/403 unless the principal owns the venue or is an admin.
func RequireVenueOwner(w http.ResponseWriter, r *http.Request, ownerID int64) (*authz.AuthUser, bool) {
	user, err := authz.RequireVenueOwner(r.Context(), ownerID)
	if err != nil {
		logDenied(r, user, err)
		WriteError(w, r, err)
		return nil, false
	}
	return user, true
}

func logDenied(r *http.Request, user *authz.AuthUser, err error) {
	logEvent := log.Ctx(r.Context()).Warn().Str("path", r.URL.Path)
	if user != nil {
		logEvent = logEvent.Int64("user_id", user.ID).Str("role", user.Role)
	}
	if errors.Is(err, authz.ErrUnauthenticated) {
		logEvent.Msg("Access denied: unauthenticated")
		return
	}
	logEvent.Msg("Access denied: forbidden")
}
