package services_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"testing"

	"taskapi/internal/apperror"
	"taskapi/internal/config"
	"taskapi/internal/models"
	"taskapi/internal/repositories"
	"taskapi/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func defaultIdentity(t *testing.T) config.IdentityConfig {
	t.Helper()
	v := config.New()
	v.Set("jwt.secretkey", testJWTSecret)
	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	return cfg.Identity
}

var notFound = fmt.Errorf("user: %w", repositories.ErrNotFound)

func reasonsOf(t *testing.T, err error) []string {
	t.Helper()
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected *apperror.AppError, got %v", err)
	return appErr.Messages
}

func TestAuthService_RegisterUser(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, newTokenService(60), defaultIdentity(t))
	req := models.RegisterRequest{Username: "testuser", Email: "test@example.com", Password: "Passw0rd!"}

	// Test successful registration
	mockRepo.On("GetByUsername", ctx, req.Username).Return(nil, notFound).Once()
	mockRepo.On("GetByEmail", ctx, req.Email).Return(nil, notFound).Once()
	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Username == "testuser" && u.Email == "test@example.com" &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("Passw0rd!")) == nil
	})).Return(nil).Once()

	err := authService.RegisterUser(ctx, req)
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)

	// Test username already taken
	mockRepo.On("GetByUsername", ctx, req.Username).Return(&models.User{ID: "1"}, nil).Once()
	err = authService.RegisterUser(ctx, req)
	assert.True(t, apperror.IsType(err, apperror.DomainError))
	assert.Equal(t, []string{services.DuplicateIdentityReason}, reasonsOf(t, err))
	mockRepo.AssertExpectations(t)

	// Test email already registered gives the same reason
	mockRepo.On("GetByUsername", ctx, req.Username).Return(nil, notFound).Once()
	mockRepo.On("GetByEmail", ctx, req.Email).Return(&models.User{ID: "1"}, nil).Once()
	err = authService.RegisterUser(ctx, req)
	assert.Equal(t, []string{services.DuplicateIdentityReason}, reasonsOf(t, err))
	mockRepo.AssertExpectations(t)

	mockRepo.AssertNumberOfCalls(t, "Create", 1)
}

func TestAuthService_RegisterUser_EmailPolicyOff(t *testing.T) {
	ctx := context.Background()
	identity := defaultIdentity(t)
	identity.RequireUniqueEmail = false
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, newTokenService(60), identity)

	mockRepo.On("GetByUsername", ctx, "second").Return(nil, notFound).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil).Once()

	err := authService.RegisterUser(ctx, models.RegisterRequest{Username: "second", Email: "shared@example.com", Password: "Passw0rd!"})
	assert.NoError(t, err)
	mockRepo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterUser_Policy(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, newTokenService(60), defaultIdentity(t))

	mockRepo.On("GetByUsername", ctx, "bad user").Return(nil, notFound).Once()
	mockRepo.On("GetByEmail", ctx, "bad@example.com").Return(nil, notFound).Once()

	err := authService.RegisterUser(ctx, models.RegisterRequest{Username: "bad user", Email: "bad@example.com", Password: "abc"})
	assert.Equal(t, []string{
		"Username 'bad user' is invalid, can only contain letters or digits.",
		"Passwords must be at least 6 characters.",
		"Passwords must have at least one non alphanumeric character.",
		"Passwords must have at least one digit ('0'-'9').",
		"Passwords must have at least one uppercase ('A'-'Z').",
	}, reasonsOf(t, err))
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_RegisterUser_PasswordLengthCountsCharacters(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, newTokenService(60), defaultIdentity(t))

	mockRepo.On("GetByUsername", ctx, "nunez").Return(nil, notFound).Once()
	mockRepo.On("GetByEmail", ctx, "nunez@example.com").Return(nil, notFound).Once()

	// Five characters, six bytes.
	err := authService.RegisterUser(ctx, models.RegisterRequest{Username: "nunez", Email: "nunez@example.com", Password: "ñA1!a"})
	assert.Contains(t, reasonsOf(t, err), "Passwords must be at least 6 characters.")
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_RegisterUser_StoreRace(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, newTokenService(60), defaultIdentity(t))

	mockRepo.On("GetByUsername", ctx, "racer").Return(nil, notFound).Once()
	mockRepo.On("GetByEmail", ctx, "racer@example.com").Return(nil, notFound).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(fmt.Errorf("insert: %w", repositories.ErrDuplicate)).Once()

	err := authService.RegisterUser(ctx, models.RegisterRequest{Username: "racer", Email: "racer@example.com", Password: "Passw0rd!"})
	assert.True(t, apperror.IsType(err, apperror.DomainError))
	assert.Equal(t, []string{services.DuplicateIdentityReason}, reasonsOf(t, err))
}

func TestAuthService_LoginUser(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	tokens := newTokenService(60)
	authService := services.NewAuthService(mockRepo, tokens, defaultIdentity(t))

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.MinCost)
	user := &models.User{ID: "user-123", Username: "testuser", Email: "test@example.com", PasswordHash: string(hashedPassword)}

	// Test successful login
	mockRepo.On("GetByUsername", ctx, "testuser").Return(user, nil).Once()
	token, err := authService.LoginUser(ctx, "testuser", "Passw0rd!")
	require.NoError(t, err)
	principal, err := tokens.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "testuser", principal.Username)

	// The token names the stored account, whatever the case typed at login
	mockRepo.On("GetByUsername", ctx, "TestUser").Return(user, nil).Once()
	token, err = authService.LoginUser(ctx, "TestUser", "Passw0rd!")
	require.NoError(t, err)
	principal, err = tokens.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "testuser", principal.Username)

	// Test invalid credentials (wrong password)
	mockRepo.On("GetByUsername", ctx, "testuser").Return(user, nil).Once()
	_, wrongPassword := authService.LoginUser(ctx, "testuser", "wrongpassword")
	assert.True(t, apperror.IsType(wrongPassword, apperror.UnauthorizedError))

	// Test invalid credentials (user not found)
	mockRepo.On("GetByUsername", ctx, "nonexistentuser").Return(nil, notFound).Once()
	_, unknownUser := authService.LoginUser(ctx, "nonexistentuser", "Passw0rd!")
	assert.True(t, apperror.IsType(unknownUser, apperror.UnauthorizedError))
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error(), "both failures look the same")

	// Test store failure
	mockRepo.On("GetByUsername", ctx, "testuser").Return(nil, errors.New("connection refused")).Once()
	_, err = authService.LoginUser(ctx, "testuser", "Passw0rd!")
	assert.True(t, apperror.IsType(err, apperror.InternalError))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_DeleteUser(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, newTokenService(60), defaultIdentity(t))

	mockRepo.On("GetByID", ctx, "user-123").Return(&models.User{ID: "user-123"}, nil).Once()
	mockRepo.On("Delete", ctx, "user-123").Return(nil).Once()
	assert.NoError(t, authService.DeleteUser(ctx, "user-123"))

	mockRepo.On("GetByID", ctx, "missing").Return(nil, notFound).Once()
	err := authService.DeleteUser(ctx, "missing")
	assert.True(t, apperror.IsType(err, apperror.NotFoundError))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ListUsers(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, newTokenService(60), defaultIdentity(t))

	mockRepo.On("GetAll", ctx).Return([]models.User{
		{ID: "1", Username: "ana", Email: "ana@example.com", PasswordHash: "secret-hash-1"},
		{ID: "2", Username: "luis", Email: "luis@example.com", PasswordHash: "secret-hash-2"},
	}, nil).Once()

	users, err := authService.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.UserSummary{
		{ID: "1", Username: "ana", Email: "ana@example.com"},
		{ID: "2", Username: "luis", Email: "luis@example.com"},
	}, users)
	mockRepo.AssertExpectations(t)
}
