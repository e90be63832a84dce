package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	_ "acemc/docs"
	"acemc/internal/config"
	"acemc/internal/db/dbtest"
	"acemc/internal/mail"
	"acemc/internal/model"
	"acemc/internal/repository"
	"acemc/internal/storage"
)

const testPassword = "password123"

type discardMailer struct{}

func (discardMailer) Enqueue(context.Context, mail.Message) error { return nil }

type testApp struct {
	e    *echo.Echo
	db   *gorm.DB
	disk *storage.Disk
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := &config.Config{
		Env:           "development",
		JWTSecret:     "router-test-secret",
		PublicBaseURL: "https://acemc.test",
		CORSOrigins:   []string{"http://localhost:3000"},
	}
	app := &testApp{e: echo.New(), db: dbtest.New(t), disk: storage.NewDisk(afero.NewMemMapFs())}
	h, sec := Build(cfg, app.db, nil, app.disk, discardMailer{})
	Register(app.e, cfg, zerolog.Nop(), app.disk, sec, h)
	return app
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func (a *testApp) user(t *testing.T, email string, role model.Role, verified bool) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.User{Name: strings.Split(email, "@")[0], Email: email, PasswordHash: string(hash), Role: role}
	if verified {
		now := time.Now()
		u.EmailVerifiedAt = &now
	}
	require.NoError(t, repository.NewUserRepository(a.db).Create(context.Background(), u))
	return u
}

func (a *testApp) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) json(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return a.do(req, token)
}

func (a *testApp) login(t *testing.T, email string) string {
	t.Helper()
	rec := a.json(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.AccessToken)
	return out.AccessToken
}

func TestSwaggerDocumentListsRoutes(t *testing.T) {
	app := newTestApp(t)

	rec := app.json(http.MethodGet, "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		Paths map[string]map[string]interface{} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	for _, route := range []string{"/auth/login", "/admin/users/{id}", "/admitting/patients", "/billing/patient-soa/{id}/qr", "/soa/view/{token}"} {
		assert.Contains(t, doc.Paths, route)
	}
	assert.Contains(t, doc.Paths["/billing/patient-soa"], "post")
}

func TestRoleGates(t *testing.T) {
	app := newTestApp(t)
	app.user(t, "billing@acemc.test", model.RoleBilling, true)
	app.user(t, "pending@acemc.test", model.RoleBilling, false)
	billing := app.login(t, "billing@acemc.test")

	assert.Equal(t, http.StatusUnauthorized, app.json(http.MethodGet, "/admin/users", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, app.json(http.MethodGet, "/admin/users", "not-a-jwt", nil).Code)
	assert.Equal(t, http.StatusForbidden, app.json(http.MethodGet, "/admin/users", billing, nil).Code)
	assert.Equal(t, http.StatusForbidden, app.json(http.MethodGet, "/admitting/patients", billing, nil).Code)
	assert.Equal(t, http.StatusOK, app.json(http.MethodGet, "/billing/dashboard", billing, nil).Code)

	rec := app.json(http.MethodGet, "/dashboard", billing, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/billing/dashboard", rec.Header().Get(echo.HeaderLocation))

	rec = app.json(http.MethodPost, "/auth/login", "", map[string]string{"email": "pending@acemc.test", "password": testPassword})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "EMAIL_NOT_VERIFIED")

	rec = app.json(http.MethodPost, "/auth/login", "", map[string]string{"email": "billing@acemc.test", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserManagementScenario(t *testing.T) {
	app := newTestApp(t)
	admin := app.user(t, "admin@acemc.test", model.RoleAdmin, true)
	token := app.login(t, "admin@acemc.test")

	rec := app.json(http.MethodPost, "/admin/users", token, map[string]string{
		"name":                  "Jane",
		"email":                 "jane@x.com",
		"password":              "password123",
		"password_confirmation": "password123",
		"role":                  "billing",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Message string     `json:"message"`
		Data    model.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "User created successfully.", created.Message)
	assert.NotNil(t, created.Data.EmailVerifiedAt)

	rec = app.json(http.MethodPost, "/admin/users", token, map[string]string{
		"name": "Jane Again", "email": "jane@x.com", "password": "password123",
		"password_confirmation": "password123", "role": "billing",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email"`)

	rec = app.json(http.MethodPost, "/admin/users", token, map[string]string{
		"name": "Bad", "email": "bad@x.com", "password": "password123",
		"password_confirmation": "password123", "role": "client",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role"`)

	rec = app.json(http.MethodPut, "/admin/users/"+itoa(created.Data.ID), token, map[string]string{
		"name": "Jane", "email": "jane@x.com", "role": "admitting",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.json(http.MethodGet, "/admin/activity-logs?model=User", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var idx struct {
		Logs repository.Page[model.ActivityLog] `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &idx))
	require.Len(t, idx.Logs.Data, 2)
	updated, createdLog := idx.Logs.Data[0], idx.Logs.Data[1]
	assert.Equal(t, model.ActionCreated, createdLog.Action)
	require.NotNil(t, createdLog.ModelID)
	assert.Equal(t, created.Data.ID, *createdLog.ModelID)
	assert.Equal(t, model.ActionUpdated, updated.Action)
	assert.Equal(t, "billing", updated.Properties["old"].(map[string]interface{})["role"])
	assert.Equal(t, "admitting", updated.Properties["new"].(map[string]interface{})["role"])

	rec = app.json(http.MethodDelete, "/admin/users/"+itoa(admin.ID), token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "You cannot delete your own account.")

	assert.Equal(t, http.StatusNotFound, app.json(http.MethodGet, "/admin/users/abc", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, app.json(http.MethodGet, "/admin/clients/"+itoa(admin.ID), token, nil).Code)
}

func TestLoginNavigationAndLogout(t *testing.T) {
	app := newTestApp(t)
	app.user(t, "admitting@acemc.test", model.RoleAdmitting, true)

	rec := app.json(http.MethodPost, "/auth/login", "", map[string]string{"email": "admitting@acemc.test", "password": testPassword})
	require.Equal(t, http.StatusOK, rec.Code)
	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		Home         string `json:"home"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tokens))
	assert.Equal(t, "/admitting/dashboard", tokens.Home)

	rec = app.json(http.MethodGet, "/me/navigation", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/admitting/rooms")

	rec = app.json(http.MethodPost, "/auth/logout", tokens.AccessToken, map[string]string{"refresh_token": tokens.RefreshToken})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProfileEmailChangeKeepsAccess(t *testing.T) {
	app := newTestApp(t)
	admin := app.user(t, "admin@acemc.test", model.RoleAdmin, true)
	token := app.login(t, "admin@acemc.test")

	rec := app.json(http.MethodPut, "/settings/profile", token, map[string]string{"name": "Admin", "email": "chief@acemc.test"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.json(http.MethodGet, "/admin/users", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	fresh := app.login(t, "chief@acemc.test")
	assert.Equal(t, http.StatusOK, app.json(http.MethodGet, "/admin/dashboard", fresh, nil).Code)

	reloaded, err := repository.NewUserRepository(app.db).FindByID(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "chief@acemc.test", reloaded.Email)
	assert.True(t, reloaded.Verified())
}

func TestSoaUploadAndPublicView(t *testing.T) {
	app := newTestApp(t)
	app.user(t, "billing@acemc.test", model.RoleBilling, true)
	token := app.login(t, "billing@acemc.test")

	patient := &model.Patient{FirstName: "Juan", LastName: "Dela Cruz"}
	require.NoError(t, repository.NewPatientRepository(app.db).Create(context.Background(), patient))

	pdf := []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("patient_id", itoa(patient.ID)))
	require.NoError(t, w.WriteField("amount", "1500.75"))
	require.NoError(t, w.WriteField("generate_link", "1"))
	part, err := w.CreateFormFile("soa_attach", "statement.pdf")
	require.NoError(t, err)
	_, err = part.Write(pdf)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/billing/patient-soa", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := app.do(req, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Message string `json:"message"`
		Data    struct {
			ID       uint   `json:"id"`
			SoaLink  string `json:"soa_link"`
			FileType string `json:"file_type"`
			FileURL  string `json:"file_url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Patient SOA created successfully.", created.Message)
	assert.Equal(t, "pdf", created.Data.FileType)
	require.True(t, strings.HasPrefix(created.Data.SoaLink, "https://acemc.test/soa/view/"))
	viewPath := strings.TrimPrefix(created.Data.SoaLink, "https://acemc.test")

	rec = app.json(http.MethodGet, viewPath, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Juan Dela Cruz")

	rec = app.json(http.MethodGet, created.Data.FileURL, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pdf, rec.Body.Bytes())

	rec = app.json(http.MethodGet, "/billing/patient-soa/"+itoa(created.Data.ID)+"/qr", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))

	rec = app.json(http.MethodPost, "/billing/patient-soa/"+itoa(created.Data.ID)+"/link", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, app.json(http.MethodGet, viewPath, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, app.json(http.MethodGet, "/soa/view/unknown", "", nil).Code)
}
