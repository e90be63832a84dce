package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"acemc/internal/audit"
	"acemc/internal/cache"
	apperrors "acemc/internal/errors"
	"acemc/internal/mail"
	"acemc/internal/model"
	"acemc/internal/repository"
)

const (
	userCacheTTL          = 5 * time.Minute
	bcryptCost            = 10
	generatedPasswordSize = 12
	passwordAlphabet      = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
)

// CreateUserInput is the payload for creating a staff account.
type CreateUserInput struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"eqfield=Password"`
	Role                 string `json:"role" validate:"required,oneof=admin billing admitting"`
}

// UpdateUserInput is the payload for editing a staff account.
type UpdateUserInput struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
	Role  string `json:"role" validate:"required,oneof=admin billing admitting"`
}

// UpdateProfileInput is the payload for a user editing their own profile.
type UpdateProfileInput struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
}

// ChangePasswordInput is the payload for a user changing their own password.
type ChangePasswordInput struct {
	CurrentPassword      string `json:"current_password" validate:"required"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"eqfield=Password"`
}

// UserListQuery filters the admin user listing.
type UserListQuery struct {
	Search string `query:"search"`
	Role   string `query:"role"`
	Page   int    `query:"page"`
}

// UserService exposes staff account operations.
type UserService interface {
	GetUser(ctx context.Context, id uint) (*model.User, error)
	ListUsers(ctx context.Context, q UserListQuery) (*repository.Page[model.User], error)
	CreateUser(ctx context.Context, actor audit.Actor, in CreateUserInput) (*model.User, error)
	UpdateUser(ctx context.Context, actor audit.Actor, id uint, in UpdateUserInput) (*model.User, error)
	DeleteUser(ctx context.Context, actor audit.Actor, id uint) error
	ResetPassword(ctx context.Context, actor audit.Actor, id uint) error
	ListClients(ctx context.Context, search string, page int) (*repository.Page[model.User], error)
	GetClient(ctx context.Context, id uint) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*model.User, error)
	ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) error
}

type userService struct {
	repo     repository.UserRepository
	cache    *cache.Client
	recorder audit.Recorder
	mailer   mail.Enqueuer
	now      func() time.Time
}

// NewUserService builds a UserService with repository, cache, audit recorder and mail queue.
func NewUserService(repo repository.UserRepository, cache *cache.Client, recorder audit.Recorder, mailer mail.Enqueuer) UserService {
	return &userService{
		repo:     repo,
		cache:    cache,
		recorder: recorder,
		mailer:   mailer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *userService) cacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func (s *userService) forget(ctx context.Context, id uint) {
	_ = s.cache.Delete(ctx, s.cacheKey(id))
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) && cached.ID == id {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound)
	}
	_ = s.cache.SetJSON(ctx, s.cacheKey(id), user, userCacheTTL)
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, q UserListQuery) (*repository.Page[model.User], error) {
	filter := repository.UserFilter{
		Search:       q.Search,
		ExcludeRoles: []model.Role{model.RoleAdmin},
		Page:         q.Page,
		PerPage:      repository.UsersPerPage,
	}
	if role, err := model.ParseRole(q.Role); err == nil {
		filter.Role = role
	}
	return s.repo.List(ctx, filter)
}

func (s *userService) ensureEmailFree(ctx context.Context, email string, exceptID uint) error {
	taken, err := s.repo.EmailTaken(ctx, email, exceptID)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return apperrors.NewValidationError("email", "The email has already been taken.")
	}
	return nil
}

func (s *userService) CreateUser(ctx context.Context, actor audit.Actor, in CreateUserInput) (*model.User, error) {
	role, err := model.ParseRole(in.Role)
	if err != nil {
		return nil, apperrors.NewValidationError("role", "The selected role is invalid.")
	}
	if err := s.ensureEmailFree(ctx, in.Email, 0); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	verifiedAt := s.now()
	user := &model.User{
		Name:            in.Name,
		Email:           in.Email,
		PasswordHash:    string(hash),
		Role:            role,
		EmailVerifiedAt: &verifiedAt,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.NewValidationError("email", "The email has already been taken.")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.recorder.Record(ctx, actor, audit.Entry{
		Action:      model.ActionCreated,
		Model:       "User",
		ModelID:     user.ID,
		Description: fmt.Sprintf("Created new user: %s (%s)", user.Name, user.Role),
		Properties:  map[string]interface{}{"user": user.Snapshot()},
	})
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor audit.Actor, id uint, in UpdateUserInput) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound)
	}
	role, err := model.ParseRole(in.Role)
	if err != nil {
		return nil, apperrors.NewValidationError("role", "The selected role is invalid.")
	}
	if err := s.ensureEmailFree(ctx, in.Email, id); err != nil {
		return nil, err
	}

	old := user.Snapshot()
	user.Name = in.Name
	user.Email = in.Email
	user.Role = role
	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.NewValidationError("email", "The email has already been taken.")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.forget(ctx, id)

	s.recorder.Record(ctx, actor, audit.Entry{
		Action:      model.ActionUpdated,
		Model:       "User",
		ModelID:     user.ID,
		Description: fmt.Sprintf("Updated user: %s", user.Name),
		Properties:  map[string]interface{}{"old": old, "new": user.Snapshot()},
	})
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, actor audit.Actor, id uint) error {
	if actor.UserID == id {
		return apperrors.ErrCannotDeleteSelf
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound(err, apperrors.ErrUserNotFound)
	}
	if user.Role == model.RoleAdmin {
		return apperrors.ErrCannotDeleteAdmin
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.forget(ctx, id)

	s.recorder.Record(ctx, actor, audit.Entry{
		Action:      model.ActionDeleted,
		Model:       "User",
		ModelID:     id,
		Description: fmt.Sprintf("Deleted user: %s (%s)", user.Name, user.Role),
		Properties:  map[string]interface{}{"user": user.Snapshot()},
	})
	return nil
}

func (s *userService) ResetPassword(ctx context.Context, actor audit.Actor, id uint) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound(err, apperrors.ErrUserNotFound)
	}

	password, err := GeneratePassword(generatedPasswordSize)
	if err != nil {
		return fmt.Errorf("generate password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	msg, err := mail.NewPasswordMessage(user.Name, user.Email, password, s.now().Year())
	if err != nil {
		return fmt.Errorf("render password mail: %w", err)
	}

	user.PasswordHash = string(hash)
	if err := s.repo.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.forget(ctx, id)
	if err := s.mailer.Enqueue(ctx, msg); err != nil {
		return fmt.Errorf("queue password mail: %w", err)
	}

	s.recorder.Record(ctx, actor, audit.Entry{
		Action:      model.ActionPasswordReset,
		Model:       "User",
		ModelID:     user.ID,
		Description: fmt.Sprintf("Password reset and sent to: %s (%s)", user.Name, user.Email),
		Properties:  map[string]interface{}{"user": map[string]interface{}{"name": user.Name, "email": user.Email}},
	})
	return nil
}

func (s *userService) ListClients(ctx context.Context, search string, page int) (*repository.Page[model.User], error) {
	return s.repo.List(ctx, repository.UserFilter{
		Search:  search,
		Role:    model.RoleClient,
		Page:    page,
		PerPage: repository.ClientsPerPage,
	})
}

func (s *userService) GetClient(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrClientNotFound)
	}
	if user.Role != model.RoleClient {
		return nil, apperrors.ErrClientNotFound
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound)
	}
	if err := s.ensureEmailFree(ctx, in.Email, userID); err != nil {
		return nil, err
	}
	user.Name = in.Name
	user.Email = in.Email
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	s.forget(ctx, userID)
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return notFound(err, apperrors.ErrUserNotFound)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)) != nil {
		return apperrors.NewValidationError("current_password", "The password is incorrect.")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	if err := s.repo.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.forget(ctx, userID)
	return nil
}

// GeneratePassword returns a random password of n characters drawn from an
// alphabet without look-alike characters.
func GeneratePassword(n int) (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = passwordAlphabet[idx.Int64()]
	}
	return string(out), nil
}

// notFound maps gorm.ErrRecordNotFound to the given domain error.
func notFound(err, domain error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain
	}
	return err
}
