package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"acemc/internal/auth"
	apperrors "acemc/internal/errors"
	"acemc/internal/model"
	"acemc/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	args := m.Called(ctx, email, exceptID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, filter repository.UserFilter) (*repository.Page[model.User], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Page[model.User]), args.Error(1)
}

func (m *MockUserRepository) ListActors(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserRepository) CountByRole(ctx context.Context, roles ...model.Role) (int64, error) {
	args := m.Called(ctx, roles)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) CountVerified(ctx context.Context, roles ...model.Role) (int64, error) {
	args := m.Called(ctx, roles)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) CountCreatedBetween(ctx context.Context, from, to time.Time, roles ...model.Role) (int64, error) {
	args := m.Called(ctx, from, to, roles)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) Recent(ctx context.Context, limit int, roles ...model.Role) ([]model.User, error) {
	args := m.Called(ctx, limit, roles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID uint, email string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, userID, email, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) GetRefreshToken(ctx context.Context, tokenID string) (uint, string, error) {
	args := m.Called(ctx, tokenID)
	return args.Get(0).(uint), args.String(1), args.Error(2)
}

func (m *MockTokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockTokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func staffUser(t *testing.T, password string, verified bool) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{
		ID:           7,
		Name:         "Billing Staff",
		Email:        "billing@acemc.test",
		PasswordHash: string(hash),
		Role:         model.RoleBilling,
	}
	if verified {
		now := time.Now()
		user.EmailVerifiedAt = &now
	}
	return user
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*testing.T, *MockUserRepository, *MockTokenStore)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "billing@acemc.test",
			password: "password123",
			setupMock: func(t *testing.T, mRepo *MockUserRepository, mToken *MockTokenStore) {
				mRepo.On("FindByEmail", mock.Anything, "billing@acemc.test").Return(staffUser(t, "password123", true), nil)
				mToken.On("StoreRefreshToken", mock.Anything, mock.Anything, uint(7), "billing@acemc.test", auth.RefreshTokenExpiry).Return(nil)
			},
		},
		{
			name:     "invalid credentials - user not found",
			email:    "notfound@acemc.test",
			password: "password123",
			setupMock: func(t *testing.T, mRepo *MockUserRepository, mToken *MockTokenStore) {
				mRepo.On("FindByEmail", mock.Anything, "notfound@acemc.test").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "invalid credentials - wrong password",
			email:    "billing@acemc.test",
			password: "nope",
			setupMock: func(t *testing.T, mRepo *MockUserRepository, mToken *MockTokenStore) {
				mRepo.On("FindByEmail", mock.Anything, "billing@acemc.test").Return(staffUser(t, "password123", true), nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "unverified email",
			email:    "billing@acemc.test",
			password: "password123",
			setupMock: func(t *testing.T, mRepo *MockUserRepository, mToken *MockTokenStore) {
				mRepo.On("FindByEmail", mock.Anything, "billing@acemc.test").Return(staffUser(t, "password123", false), nil)
			},
			expectedError: apperrors.ErrEmailNotVerified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			mockTokenStore := new(MockTokenStore)
			tt.setupMock(t, mockRepo, mockTokenStore)

			jwtService := auth.NewJWTService("test-secret")
			service := NewAuthService(mockRepo, jwtService, mockTokenStore)

			accessToken, refreshToken, user, err := service.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, accessToken)
				assert.Empty(t, refreshToken)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, accessToken)
				assert.NotEmpty(t, refreshToken)
				require.NotNil(t, user)

				claims, err := jwtService.ValidateToken(accessToken)
				require.NoError(t, err)
				assert.Equal(t, model.RoleBilling, claims.Role)
				assert.Equal(t, auth.TokenTypeAccess, claims.TokenType)
			}

			mockRepo.AssertExpectations(t)
			mockTokenStore.AssertExpectations(t)
		})
	}
}

func TestAuthService_RefreshToken(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")
	user := staffUser(t, "password123", true)
	tokenID, refresh, err := jwtService.GenerateRefreshToken(user)
	require.NoError(t, err)

	t.Run("issues access token with current role", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockTokenStore := new(MockTokenStore)
		promoted := *user
		promoted.Role = model.RoleAdmin
		mockTokenStore.On("GetRefreshToken", mock.Anything, tokenID).Return(user.ID, user.Email, nil)
		mockRepo.On("FindByID", mock.Anything, user.ID).Return(&promoted, nil)

		access, err := NewAuthService(mockRepo, jwtService, mockTokenStore).RefreshToken(context.Background(), refresh)
		require.NoError(t, err)

		claims, err := jwtService.ValidateToken(access)
		require.NoError(t, err)
		assert.Equal(t, model.RoleAdmin, claims.Role)
	})

	t.Run("revoked token", func(t *testing.T) {
		mockTokenStore := new(MockTokenStore)
		mockTokenStore.On("GetRefreshToken", mock.Anything, tokenID).Return(uint(0), "", auth.ErrRefreshTokenNotFound)

		_, err := NewAuthService(new(MockUserRepository), jwtService, mockTokenStore).RefreshToken(context.Background(), refresh)
		assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
	})

	t.Run("access token is not accepted", func(t *testing.T) {
		access, err := jwtService.GenerateAccessToken(user)
		require.NoError(t, err)

		_, err = NewAuthService(new(MockUserRepository), jwtService, new(MockTokenStore)).RefreshToken(context.Background(), access)
		assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
	})
}

func TestAuthService_Logout(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")
	user := staffUser(t, "password123", true)
	tokenID, refresh, err := jwtService.GenerateRefreshToken(user)
	require.NoError(t, err)
	access, err := jwtService.GenerateAccessToken(user)
	require.NoError(t, err)
	accessClaims, err := jwtService.ValidateToken(access)
	require.NoError(t, err)

	mockTokenStore := new(MockTokenStore)
	mockTokenStore.On("DeleteRefreshToken", mock.Anything, tokenID).Return(nil).Once()
	mockTokenStore.On("BlacklistAccessToken", mock.Anything, accessClaims.ID, mock.MatchedBy(func(ttl time.Duration) bool {
		return ttl > 0 && ttl <= auth.AccessTokenExpiry
	})).Return(nil).Once()

	err = NewAuthService(new(MockUserRepository), jwtService, mockTokenStore).Logout(context.Background(), refresh, accessClaims)
	require.NoError(t, err)
	mockTokenStore.AssertExpectations(t)

	err = NewAuthService(new(MockUserRepository), jwtService, new(MockTokenStore)).Logout(context.Background(), "garbage", nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}
