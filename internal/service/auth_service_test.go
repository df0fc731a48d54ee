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

	"taskapi/internal/auth"
	apperrors "taskapi/internal/errors"
	"taskapi/internal/model"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
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

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) DeleteNonSuperusers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID uint, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, userID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) GetRefreshToken(ctx context.Context, tokenID string) (uint, error) {
	args := m.Called(ctx, tokenID)
	return args.Get(0).(uint), args.Error(1)
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

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret", 0, 0)
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		username      string
		email         string
		setupMock     func(*MockUserRepository)
		expectedError string
	}{
		{
			name:     "successful registration",
			username: "alice",
			email:    "alice@example.com",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "alice").Return(nil, gorm.ErrRecordNotFound)
				m.On("FindByEmail", mock.Anything, "alice@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
		},
		{
			name:     "username taken",
			username: "alice",
			email:    "other@example.com",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "alice").Return(&model.User{ID: 7, Username: "alice"}, nil)
			},
			expectedError: "A user with that username already exists.",
		},
		{
			name:     "email taken",
			username: "bob",
			email:    "alice@example.com",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "bob").Return(nil, gorm.ErrRecordNotFound)
				m.On("FindByEmail", mock.Anything, "alice@example.com").Return(&model.User{ID: 7, Email: "alice@example.com"}, nil)
			},
			expectedError: "user with this email already exists.",
		},
		{
			name:     "race on unique index",
			username: "carol",
			email:    "carol@example.com",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "carol").Return(nil, gorm.ErrRecordNotFound)
				m.On("FindByEmail", mock.Anything, "carol@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(gorm.ErrDuplicatedKey)
			},
			expectedError: "a user with that username or email already exists.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			service := NewAuthService(mockRepo, newTestJWTService(), new(MockTokenStore))
			user, err := service.Register(context.Background(), tt.username, tt.email, "password123")

			if tt.expectedError != "" {
				var conflict *apperrors.ConflictError
				require.ErrorAs(t, err, &conflict)
				assert.Equal(t, tt.expectedError, conflict.Message)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.username, user.Username)
				assert.False(t, user.IsStaff)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_CreateSuperuser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByUsername", mock.Anything, "root").Return(nil, gorm.ErrRecordNotFound)
	mockRepo.On("FindByEmail", mock.Anything, "root@example.com").Return(nil, gorm.ErrRecordNotFound)
	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.IsStaff && u.IsSuperuser
	})).Return(nil)

	service := NewAuthService(mockRepo, newTestJWTService(), new(MockTokenStore))
	user, err := service.CreateSuperuser(context.Background(), "root", "root@example.com", "s3cret")

	require.NoError(t, err)
	assert.True(t, user.IsSuperuser)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name          string
		username      string
		password      string
		setupMock     func(*MockUserRepository, *MockTokenStore)
		expectedError error
	}{
		{
			name:     "successful login",
			username: "alice",
			password: "password123",
			setupMock: func(mRepo *MockUserRepository, mToken *MockTokenStore) {
				mRepo.On("FindByUsername", mock.Anything, "alice").Return(&model.User{
					ID:           42,
					Username:     "alice",
					PasswordHash: string(hashedPassword),
				}, nil)
				mToken.On("StoreRefreshToken", mock.Anything, mock.AnythingOfType("string"), uint(42), auth.DefaultRefreshTokenExpiry).Return(nil)
			},
		},
		{
			name:     "unknown user",
			username: "nobody",
			password: "password123",
			setupMock: func(mRepo *MockUserRepository, mToken *MockTokenStore) {
				mRepo.On("FindByUsername", mock.Anything, "nobody").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			username: "alice",
			password: "nope",
			setupMock: func(mRepo *MockUserRepository, mToken *MockTokenStore) {
				mRepo.On("FindByUsername", mock.Anything, "alice").Return(&model.User{
					ID:           42,
					Username:     "alice",
					PasswordHash: string(hashedPassword),
				}, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			mockTokenStore := new(MockTokenStore)
			tt.setupMock(mockRepo, mockTokenStore)

			service := NewAuthService(mockRepo, newTestJWTService(), mockTokenStore)
			accessToken, refreshToken, user, err := service.Login(context.Background(), tt.username, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, accessToken)
				assert.Empty(t, refreshToken)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, accessToken)
				assert.NotEmpty(t, refreshToken)
				assert.Equal(t, tt.username, user.Username)
			}

			mockRepo.AssertExpectations(t)
			mockTokenStore.AssertExpectations(t)
		})
	}
}

func TestAuthService_RefreshToken(t *testing.T) {
	jwtService := newTestJWTService()
	user := &model.User{ID: 42, Username: "alice"}
	tokenID, refreshToken, err := jwtService.GenerateRefreshToken(user)
	require.NoError(t, err)

	t.Run("issues a new access token", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockTokenStore := new(MockTokenStore)
		mockTokenStore.On("GetRefreshToken", mock.Anything, tokenID).Return(uint(42), nil)
		mockRepo.On("FindByID", mock.Anything, uint(42)).Return(user, nil)

		service := NewAuthService(mockRepo, jwtService, mockTokenStore)
		accessToken, err := service.RefreshToken(context.Background(), refreshToken)

		require.NoError(t, err)
		claims, err := jwtService.ValidateAccessToken(accessToken)
		require.NoError(t, err)
		assert.Equal(t, uint(42), claims.UserID)
	})

	t.Run("revoked token", func(t *testing.T) {
		mockTokenStore := new(MockTokenStore)
		mockTokenStore.On("GetRefreshToken", mock.Anything, tokenID).Return(uint(0), auth.ErrRefreshTokenNotFound)

		service := NewAuthService(new(MockUserRepository), jwtService, mockTokenStore)
		_, err := service.RefreshToken(context.Background(), refreshToken)
		assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
	})

	t.Run("token store unavailable", func(t *testing.T) {
		mockTokenStore := new(MockTokenStore)
		mockTokenStore.On("GetRefreshToken", mock.Anything, tokenID).Return(uint(0), assert.AnError)

		service := NewAuthService(new(MockUserRepository), jwtService, mockTokenStore)
		_, err := service.RefreshToken(context.Background(), refreshToken)
		assert.ErrorIs(t, err, assert.AnError)
		assert.NotErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
	})

	t.Run("deleted user", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockTokenStore := new(MockTokenStore)
		mockTokenStore.On("GetRefreshToken", mock.Anything, tokenID).Return(uint(42), nil)
		mockRepo.On("FindByID", mock.Anything, uint(42)).Return(nil, gorm.ErrRecordNotFound)

		service := NewAuthService(mockRepo, jwtService, mockTokenStore)
		_, err := service.RefreshToken(context.Background(), refreshToken)
		assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		accessToken, err := jwtService.GenerateAccessToken(user)
		require.NoError(t, err)

		service := NewAuthService(new(MockUserRepository), jwtService, new(MockTokenStore))
		_, err = service.RefreshToken(context.Background(), accessToken)
		assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
	})
}

func TestAuthService_Logout(t *testing.T) {
	jwtService := newTestJWTService()
	user := &model.User{ID: 42, Username: "alice"}
	refreshID, refreshToken, err := jwtService.GenerateRefreshToken(user)
	require.NoError(t, err)
	accessToken, err := jwtService.GenerateAccessToken(user)
	require.NoError(t, err)
	access, err := jwtService.ValidateAccessToken(accessToken)
	require.NoError(t, err)

	mockTokenStore := new(MockTokenStore)
	mockTokenStore.On("DeleteRefreshToken", mock.Anything, refreshID).Return(nil)
	mockTokenStore.On("BlacklistAccessToken", mock.Anything, access.ID, mock.MatchedBy(func(ttl time.Duration) bool {
		return ttl > 0 && ttl <= auth.DefaultAccessTokenExpiry
	})).Return(nil)

	service := NewAuthService(new(MockUserRepository), jwtService, mockTokenStore)
	require.NoError(t, service.Logout(context.Background(), refreshToken, access))
	mockTokenStore.AssertExpectations(t)

	other := &auth.Claims{UserID: 99}
	err = service.Logout(context.Background(), refreshToken, other)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

func TestAuthService_LogoutSurfacesStoreFailures(t *testing.T) {
	jwtService := newTestJWTService()
	user := &model.User{ID: 42, Username: "alice"}
	refreshID, refreshToken, err := jwtService.GenerateRefreshToken(user)
	require.NoError(t, err)
	accessToken, err := jwtService.GenerateAccessToken(user)
	require.NoError(t, err)
	access, err := jwtService.ValidateAccessToken(accessToken)
	require.NoError(t, err)

	t.Run("refresh token not deleted", func(t *testing.T) {
		mockTokenStore := new(MockTokenStore)
		mockTokenStore.On("DeleteRefreshToken", mock.Anything, refreshID).Return(assert.AnError)

		service := NewAuthService(new(MockUserRepository), jwtService, mockTokenStore)
		err := service.Logout(context.Background(), refreshToken, access)
		assert.ErrorIs(t, err, assert.AnError)
		mockTokenStore.AssertNotCalled(t, "BlacklistAccessToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("access token not blacklisted", func(t *testing.T) {
		mockTokenStore := new(MockTokenStore)
		mockTokenStore.On("DeleteRefreshToken", mock.Anything, refreshID).Return(nil)
		mockTokenStore.On("BlacklistAccessToken", mock.Anything, access.ID, mock.Anything).Return(assert.AnError)

		service := NewAuthService(new(MockUserRepository), jwtService, mockTokenStore)
		err := service.Logout(context.Background(), refreshToken, access)
		assert.ErrorIs(t, err, assert.AnError)
	})
}
