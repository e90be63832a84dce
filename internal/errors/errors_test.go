package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", ErrPatientNotFound, http.StatusNotFound, "PATIENT_NOT_FOUND"},
		{"wrapped not found", fmt.Errorf("load: %w", ErrSoaNotFound), http.StatusNotFound, "SOA_NOT_FOUND"},
		{"delete self", ErrCannotDeleteSelf, http.StatusConflict, "CANNOT_DELETE_SELF"},
		{"delete admin", ErrCannotDeleteAdmin, http.StatusConflict, "CANNOT_DELETE_ADMIN"},
		{"unverified", ErrEmailNotVerified, http.StatusForbidden, "EMAIL_NOT_VERIFIED"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"unauthenticated", ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"validation", NewValidationError("email", "taken"), http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, got.StatusCode)
			assert.Equal(t, tt.wantCode, got.Code)
		})
	}
}

func TestMapErrorToHTTP_InternalMessageHidden(t *testing.T) {
	got := MapErrorToHTTP(fmt.Errorf("dial tcp 10.0.0.1:3306: refused"))
	assert.Equal(t, "internal server error", got.ToErrorResponse().Error)
}

type signup struct {
	Name     string `json:"name" validate:"required,max=5"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Confirm  string `json:"password_confirmation" validate:"eqfield=Password"`
}

func TestFromValidator(t *testing.T) {
	v := validator.New()
	v.RegisterTagNameFunc(FieldName)

	err := FromValidator(v.Struct(signup{Name: "toolong", Email: "nope", Password: "short", Confirm: "other"}))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "The name field must not be greater than 5 characters.", verr.Fields["name"])
	assert.Equal(t, "The email field must be a valid email address.", verr.Fields["email"])
	assert.Equal(t, "The password field must be at least 8 characters.", verr.Fields["password"])
	assert.Contains(t, verr.Fields, "password_confirmation")
}

func TestFromValidator_PassThrough(t *testing.T) {
	plain := fmt.Errorf("bind failed")
	assert.Equal(t, plain, FromValidator(plain))
}

func TestValidationError_Add(t *testing.T) {
	verr := &ValidationError{}
	assert.True(t, verr.Empty())
	verr.Add("email", "first")
	verr.Add("email", "second")
	assert.Equal(t, "first", verr.Fields["email"])
	assert.False(t, verr.Empty())
}
