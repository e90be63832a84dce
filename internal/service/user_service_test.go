package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"acemc/internal/audit"
	"acemc/internal/db/dbtest"
	apperrors "acemc/internal/errors"
	"acemc/internal/mail"
	"acemc/internal/model"
	"acemc/internal/repository"
)

// captureMailer records queued messages instead of delivering them.
type captureMailer struct {
	sent []mail.Message
}

func (c *captureMailer) Enqueue(_ context.Context, msg mail.Message) error {
	c.sent = append(c.sent, msg)
	return nil
}

type userFixture struct {
	db      *gorm.DB
	users   repository.UserRepository
	logs    repository.ActivityLogRepository
	mailer  *captureMailer
	service UserService
	admin   *model.User
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	db := dbtest.New(t)
	f := &userFixture{
		db:     db,
		users:  repository.NewUserRepository(db),
		logs:   repository.NewActivityLogRepository(db),
		mailer: &captureMailer{},
	}
	f.service = NewUserService(f.users, nil, audit.NewRecorder(f.logs), f.mailer)
	f.admin = &model.User{Name: "Admin", Email: "admin@acemc.test", PasswordHash: "x", Role: model.RoleAdmin}
	require.NoError(t, f.users.Create(context.Background(), f.admin))
	return f
}

func (f *userFixture) actor() audit.Actor {
	return audit.Actor{UserID: f.admin.ID, IP: "127.0.0.1", UserAgent: "go-test"}
}

func TestUserService_CreateAuditsAndHashes(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	user, err := f.service.CreateUser(ctx, f.actor(), CreateUserInput{
		Name:                 "Jane",
		Email:                "jane@acemc.test",
		Password:             "password123",
		PasswordConfirmation: "password123",
		Role:                 "billing",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleBilling, user.Role)
	assert.True(t, user.Verified())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))

	page, err := f.logs.List(ctx, repository.ActivityLogFilter{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	entry := page.Data[0]
	assert.Equal(t, model.ActionCreated, entry.Action)
	assert.Equal(t, "User", entry.Model)
	assert.Equal(t, "Created new user: Jane (billing)", entry.Description)
	assert.Equal(t, f.admin.ID, entry.UserID)
	assert.Equal(t, "127.0.0.1", entry.IPAddress)
	require.NotNil(t, entry.ModelID)
	assert.Equal(t, user.ID, *entry.ModelID)
	assert.Equal(t, "jane@acemc.test", entry.Properties["user"].(map[string]interface{})["email"])
}

func TestUserService_CreateRejectsTakenEmail(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.service.CreateUser(context.Background(), f.actor(), CreateUserInput{
		Name:     "Other Admin",
		Email:    "ADMIN@acemc.test",
		Password: "password123",
		Role:     "admitting",
	})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "The email has already been taken.", verr.Fields["email"])
}

func TestUserService_UpdateRecordsOldAndNew(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	user, err := f.service.CreateUser(ctx, f.actor(), CreateUserInput{
		Name: "Jane", Email: "jane@acemc.test", Password: "password123", PasswordConfirmation: "password123", Role: "billing",
	})
	require.NoError(t, err)

	updated, err := f.service.UpdateUser(ctx, f.actor(), user.ID, UpdateUserInput{Name: "Jane D", Email: "jane@acemc.test", Role: "admitting"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmitting, updated.Role)

	page, err := f.logs.List(ctx, repository.ActivityLogFilter{Action: model.ActionUpdated})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Updated user: Jane D", page.Data[0].Description)
	assert.Equal(t, "billing", page.Data[0].Properties["old"].(map[string]interface{})["role"])
	assert.Equal(t, "admitting", page.Data[0].Properties["new"].(map[string]interface{})["role"])
}

func TestUserService_DeleteRules(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	other := &model.User{Name: "Second Admin", Email: "admin2@acemc.test", PasswordHash: "x", Role: model.RoleAdmin}
	require.NoError(t, f.users.Create(ctx, other))
	staff := &model.User{Name: "Staff", Email: "staff@acemc.test", PasswordHash: "x", Role: model.RoleAdmitting}
	require.NoError(t, f.users.Create(ctx, staff))

	assert.ErrorIs(t, f.service.DeleteUser(ctx, f.actor(), f.admin.ID), apperrors.ErrCannotDeleteSelf)
	assert.ErrorIs(t, f.service.DeleteUser(ctx, f.actor(), other.ID), apperrors.ErrCannotDeleteAdmin)
	assert.ErrorIs(t, f.service.DeleteUser(ctx, f.actor(), 999), apperrors.ErrUserNotFound)

	require.NoError(t, f.service.DeleteUser(ctx, f.actor(), staff.ID))
	_, err := f.users.FindByID(ctx, staff.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	page, err := f.logs.List(ctx, repository.ActivityLogFilter{Action: model.ActionDeleted})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Deleted user: Staff (admitting)", page.Data[0].Description)
}

func TestUserService_ResetPasswordQueuesMail(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	staff := &model.User{Name: "Staff", Email: "staff@acemc.test", PasswordHash: "x", Role: model.RoleBilling}
	require.NoError(t, f.users.Create(ctx, staff))

	require.NoError(t, f.service.ResetPassword(ctx, f.actor(), staff.ID))

	require.Len(t, f.mailer.sent, 1)
	msg := f.mailer.sent[0]
	assert.Equal(t, "staff@acemc.test", msg.To)
	assert.Equal(t, mail.NewPasswordSubject, msg.Subject)

	reloaded, err := f.users.FindByID(ctx, staff.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "x", reloaded.PasswordHash)

	page, err := f.logs.List(ctx, repository.ActivityLogFilter{Action: model.ActionPasswordReset})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Password reset and sent to: Staff (staff@acemc.test)", page.Data[0].Description)
}

func TestUserService_ListExcludesAdmins(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	require.NoError(t, f.users.Create(ctx, &model.User{Name: "Staff", Email: "staff@acemc.test", PasswordHash: "x", Role: model.RoleBilling}))

	page, err := f.service.ListUsers(ctx, UserListQuery{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Staff", page.Data[0].Name)
	assert.Equal(t, repository.UsersPerPage, page.PerPage)
}

func TestUserService_Clients(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	client := &model.User{Name: "Legacy Client", Email: "client@acemc.test", PasswordHash: "x", Role: model.RoleClient}
	require.NoError(t, f.users.Create(ctx, client))

	page, err := f.service.ListClients(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)

	got, err := f.service.GetClient(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, client.Email, got.Email)

	_, err = f.service.GetClient(ctx, f.admin.ID)
	assert.ErrorIs(t, err, apperrors.ErrClientNotFound)
}

func TestUserService_ChangePassword(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	user, err := f.service.CreateUser(ctx, f.actor(), CreateUserInput{
		Name: "Jane", Email: "jane@acemc.test", Password: "password123", PasswordConfirmation: "password123", Role: "billing",
	})
	require.NoError(t, err)

	err = f.service.ChangePassword(ctx, user.ID, ChangePasswordInput{CurrentPassword: "wrong", Password: "newpassword", PasswordConfirmation: "newpassword"})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "current_password")

	require.NoError(t, f.service.ChangePassword(ctx, user.ID, ChangePasswordInput{CurrentPassword: "password123", Password: "newpassword", PasswordConfirmation: "newpassword"}))
	reloaded, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(reloaded.PasswordHash), []byte("newpassword")))
}

func TestUserService_UpdateProfileKeepsVerification(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	user, err := f.service.CreateUser(ctx, f.actor(), CreateUserInput{
		Name: "Jane", Email: "jane@acemc.test", Password: "password123", PasswordConfirmation: "password123", Role: "billing",
	})
	require.NoError(t, err)

	same, err := f.service.UpdateProfile(ctx, user.ID, UpdateProfileInput{Name: "Jane R", Email: "jane@acemc.test"})
	require.NoError(t, err)
	assert.True(t, same.Verified())

	moved, err := f.service.UpdateProfile(ctx, user.ID, UpdateProfileInput{Name: "Jane R", Email: "jane.r@acemc.test"})
	require.NoError(t, err)
	assert.True(t, moved.Verified())

	reloaded, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane.r@acemc.test", reloaded.Email)
	assert.NotNil(t, reloaded.EmailVerifiedAt)
}

func TestUserService_GetUserMapsNotFound(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindByID", mock.Anything, uint(42)).Return(nil, gorm.ErrRecordNotFound)

	_, err := NewUserService(repo, nil, audit.NewRecorder(nil), &captureMailer{}).GetUser(context.Background(), 42)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	repo.AssertExpectations(t)
}

func TestGeneratePassword(t *testing.T) {
	a, err := GeneratePassword(12)
	require.NoError(t, err)
	b, err := GeneratePassword(12)
	require.NoError(t, err)

	assert.Len(t, a, 12)
	assert.NotEqual(t, a, b)
	for _, r := range a {
		assert.Contains(t, passwordAlphabet, string(r))
	}
}
