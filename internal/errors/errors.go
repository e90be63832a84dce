package errors

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrClientNotFound is returned when a legacy client account does not exist.
	ErrClientNotFound = errors.New("client not found")
	// ErrPatientNotFound is returned when a patient does not exist.
	ErrPatientNotFound = errors.New("patient not found")
	// ErrDoctorNotFound is returned when an attending or admitting doctor does not exist.
	ErrDoctorNotFound = errors.New("doctor not found")
	// ErrRoomNotFound is returned when a room does not exist.
	ErrRoomNotFound = errors.New("room not found")
	// ErrSoaNotFound is returned when a statement of account does not exist
	// or its public token does not resolve.
	ErrSoaNotFound = errors.New("statement of account not found")
	// ErrSoaLinkMissing is returned when a statement has no public link.
	ErrSoaLinkMissing = errors.New("statement of account has no public link")

	// ErrCannotDeleteSelf is returned when a user tries to delete their own account.
	ErrCannotDeleteSelf = errors.New("You cannot delete your own account.")
	// ErrCannotDeleteAdmin is returned when an admin account is targeted for deletion.
	ErrCannotDeleteAdmin = errors.New("Admin users cannot be deleted.")

	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailNotVerified is returned when an unverified account signs in.
	ErrEmailNotVerified = errors.New("email address is not verified")
	// ErrInvalidRefreshToken is returned when refresh token is invalid or expired.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	// ErrUnauthenticated is returned when no valid principal is present.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the principal's role is not allowed.
	ErrForbidden = errors.New("This action is unauthorized.")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     map[string]string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:  e.Message,
		Code:   e.Code,
		Fields: e.Fields,
	}
}

// ValidationError carries one message per offending input field.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return strings.Join(parts, " ")
}

// Add records a message for field unless one is already present.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// Empty reports whether no field failed.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// FromValidator translates validator.ValidationErrors into a ValidationError.
// Non-validation errors are returned unchanged.
func FromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Add(fe.Field(), messageFor(fe))
	}
	return out
}

// FieldName reports the wire name of a struct field: its json tag, then its
// form tag, then the Go name.
func FieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

func messageFor(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", field)
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("The %s field must not be greater than %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s.", field, fe.Param())
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("The %s field must be at least %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("The %s field confirmation does not match.", strings.ToLower(fe.Param()))
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", field)
	case "gt", "gte":
		return fmt.Sprintf("The %s field must be at least %s.", field, fe.Param())
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return &HTTPError{
			StatusCode: http.StatusUnprocessableEntity,
			Message:    "The given data was invalid.",
			Code:       "VALIDATION_ERROR",
			Fields:     verr.Fields,
		}
	}

	switch {
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrClientNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "CLIENT_NOT_FOUND")
	case errors.Is(err, ErrPatientNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "PATIENT_NOT_FOUND")
	case errors.Is(err, ErrDoctorNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "DOCTOR_NOT_FOUND")
	case errors.Is(err, ErrRoomNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "ROOM_NOT_FOUND")
	case errors.Is(err, ErrSoaNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "SOA_NOT_FOUND")
	case errors.Is(err, ErrSoaLinkMissing):
		return NewHTTPError(http.StatusNotFound, err.Error(), "SOA_LINK_MISSING")
	case errors.Is(err, ErrCannotDeleteSelf):
		return NewHTTPError(http.StatusConflict, err.Error(), "CANNOT_DELETE_SELF")
	case errors.Is(err, ErrCannotDeleteAdmin):
		return NewHTTPError(http.StatusConflict, err.Error(), "CANNOT_DELETE_ADMIN")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrEmailNotVerified):
		return NewHTTPError(http.StatusForbidden, err.Error(), "EMAIL_NOT_VERIFIED")
	case errors.Is(err, ErrInvalidRefreshToken):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_REFRESH_TOKEN")
	case errors.Is(err, ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
