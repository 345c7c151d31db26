package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"lapak/internal/identity"
	"lapak/internal/models"
	"lapak/internal/repositories"
	"lapak/internal/services"
	"lapak/pkg/events"
)

const testJWTSecret = "test_jwt_secret"

// MockUserRepository is a testify mock of repositories.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateProfile(id string, upd models.ProfileUpdate) (*models.User, error) {
	args := m.Called(id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockPublisher is a testify mock of events.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(routingKey string, payload interface{}) error {
	args := m.Called(routingKey, payload)
	return args.Error(0)
}

// fakeVerifier is a canned identity.Verifier for Google login tests.
type fakeVerifier struct {
	profile *identity.Profile
	err     error
}

func (f *fakeVerifier) Verify(ctx context.Context, rawIDToken string) (*identity.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func hashOf(t *testing.T, password string) *string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	assert.NoError(t, err)
	s := string(hashed)
	return &s
}

func TestAuthService_Signup(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockPub := new(MockPublisher)
	authService := services.NewAuthService(mockRepo, nil, mockPub, testJWTSecret)

	mockRepo.On("GetByEmail", "new@example.com").Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("Create", mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "new@example.com" && u.Name == "New User" && u.HasPassword()
	})).Return(nil).Once()
	mockPub.On("Publish", events.UserRegistered, mock.Anything).Return(nil).Once()

	token, user, err := authService.Signup("New User", "New@Example.com", "password123")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "new@example.com", user.Email)
	// Stored credential is a hash, not the plaintext.
	assert.NotEqual(t, "password123", *user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte("password123")))
	mockRepo.AssertExpectations(t)
	mockPub.AssertExpectations(t)

	// The issued token authenticates as the created user.
	userID, err := authService.VerifyToken(token)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestAuthService_Signup_DuplicateEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, nil, nil, testJWTSecret)

	existing := &models.User{ID: "user-1", Email: "taken@example.com"}
	mockRepo.On("GetByEmail", "taken@example.com").Return(existing, nil).Once()

	_, _, err := authService.Signup("Someone", "Taken@Example.COM", "password123")
	assert.ErrorIs(t, err, repositories.ErrDuplicateEmail)
	mockRepo.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestAuthService_Login(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, nil, nil, testJWTSecret)

	user := &models.User{
		ID:       "user-123",
		Name:     "Test User",
		Email:    "test@example.com",
		Password: hashOf(t, "password123"),
	}

	// Successful login issues a token for the right user.
	mockRepo.On("GetByEmail", "test@example.com").Return(user, nil).Once()
	token, got, err := authService.Login("test@example.com", "password123")
	assert.NoError(t, err)
	assert.Equal(t, "user-123", got.ID)

	userID, err := authService.VerifyToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", userID)

	// Wrong password and unknown email return the same generic error.
	mockRepo.On("GetByEmail", "test@example.com").Return(user, nil).Once()
	_, _, err = authService.Login("test@example.com", "wrongpassword")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	mockRepo.On("GetByEmail", "nobody@example.com").Return(nil, repositories.ErrNotFound).Once()
	_, _, err = authService.Login("nobody@example.com", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	mockRepo.AssertExpectations(t)
}

func TestAuthService_Login_GoogleOnlyAccount(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, nil, nil, testJWTSecret)

	googleID := "google-sub-1"
	user := &models.User{
		ID:       "user-g",
		Email:    "gonly@example.com",
		GoogleID: &googleID,
	}
	mockRepo.On("GetByEmail", "gonly@example.com").Return(user, nil).Once()

	_, _, err := authService.Login("gonly@example.com", "whatever")
	assert.ErrorIs(t, err, services.ErrNoPassword)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_VerifyToken(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), nil, nil, testJWTSecret)

	token, err := authService.IssueToken("user-123")
	assert.NoError(t, err)

	userID, err := authService.VerifyToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", userID)

	// Tampered token.
	_, err = authService.VerifyToken(token[:len(token)-2] + "xx")
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	// Garbage token.
	_, err = authService.VerifyToken("not.a.token")
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	// Token signed with a different key.
	otherService := services.NewAuthService(new(MockUserRepository), nil, nil, "another_secret")
	foreign, err := otherService.IssueToken("user-123")
	assert.NoError(t, err)
	_, err = authService.VerifyToken(foreign)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	// Expired token.
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, services.Claims{
		UserID: "user-123",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	expiredString, err := expired.SignedString([]byte(testJWTSecret))
	assert.NoError(t, err)
	_, err = authService.VerifyToken(expiredString)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestAuthService_VerifyToken_NeverCrossesUsers(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), nil, nil, testJWTSecret)

	tokenA, err := authService.IssueToken("user-a")
	assert.NoError(t, err)
	tokenB, err := authService.IssueToken("user-b")
	assert.NoError(t, err)

	idA, err := authService.VerifyToken(tokenA)
	assert.NoError(t, err)
	idB, err := authService.VerifyToken(tokenB)
	assert.NoError(t, err)
	assert.Equal(t, "user-a", idA)
	assert.Equal(t, "user-b", idB)
	assert.NotEqual(t, idA, idB)
}

func TestAuthService_MissingSecret(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), nil, nil, "")

	_, err := authService.IssueToken("user-123")
	assert.ErrorIs(t, err, services.ErrMisconfigured)

	_, err = authService.VerifyToken("anything")
	assert.ErrorIs(t, err, services.ErrMisconfigured)
}

func TestAuthService_ChangePassword(t *testing.T) {
	// In-memory repository so the stored hash can be observed across calls.
	repo := repositories.NewMockUserRepository()
	authService := services.NewAuthService(repo, nil, nil, testJWTSecret)

	_, user, err := authService.Signup("Test User", "change@example.com", "oldpassword")
	assert.NoError(t, err)

	// Wrong old password leaves the stored hash unchanged.
	err = authService.ChangePassword(user.ID, "wrongold", "newpassword")
	assert.ErrorIs(t, err, services.ErrWrongOldPassword)
	_, _, err = authService.Login("change@example.com", "oldpassword")
	assert.NoError(t, err)

	// Correct old password swaps the credential.
	err = authService.ChangePassword(user.ID, "oldpassword", "newpassword")
	assert.NoError(t, err)

	_, _, err = authService.Login("change@example.com", "oldpassword")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	_, _, err = authService.Login("change@example.com", "newpassword")
	assert.NoError(t, err)
}

func TestAuthService_ChangePassword_GoogleOnlyAccount(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, nil, nil, testJWTSecret)

	googleID := "google-sub-2"
	user := &models.User{ID: "user-g", Email: "gonly@example.com", GoogleID: &googleID}
	mockRepo.On("GetByID", "user-g").Return(user, nil).Once()

	err := authService.ChangePassword("user-g", "old", "new")
	assert.ErrorIs(t, err, services.ErrNoPassword)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestAuthService_LoginWithGoogle_NewUser(t *testing.T) {
	repo := repositories.NewMockUserRepository()
	verifier := &fakeVerifier{profile: &identity.Profile{
		SubjectID: "sub-1",
		Email:     "google@example.com",
		Name:      "Google User",
		Picture:   "https://example.com/p.png",
	}}
	authService := services.NewAuthService(repo, verifier, nil, testJWTSecret)

	token, user, err := authService.LoginWithGoogle(context.Background(), "valid-id-token")
	assert.NoError(t, err)
	assert.Equal(t, "google@example.com", user.Email)
	assert.False(t, user.HasPassword())
	assert.NotNil(t, user.GoogleID)
	assert.Equal(t, "sub-1", *user.GoogleID)

	userID, err := authService.VerifyToken(token)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	// The passwordless account cannot log in with a password.
	_, _, err = authService.Login("google@example.com", "anything")
	assert.ErrorIs(t, err, services.ErrNoPassword)
}

func TestAuthService_LoginWithGoogle_RefreshesProfile(t *testing.T) {
	repo := repositories.NewMockUserRepository()
	verifier := &fakeVerifier{profile: &identity.Profile{
		SubjectID: "sub-2",
		Email:     "refresh@example.com",
		Name:      "Old Name",
	}}
	authService := services.NewAuthService(repo, verifier, nil, testJWTSecret)

	_, first, err := authService.LoginWithGoogle(context.Background(), "valid-id-token")
	assert.NoError(t, err)

	verifier.profile.Name = "New Name"
	verifier.profile.Picture = "https://example.com/new.png"

	_, second, err := authService.LoginWithGoogle(context.Background(), "valid-id-token")
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "New Name", second.Name)
	assert.NotNil(t, second.Picture)
	assert.Equal(t, "https://example.com/new.png", *second.Picture)
}

func TestAuthService_LoginWithGoogle_InvalidAssertion(t *testing.T) {
	repo := repositories.NewMockUserRepository()
	verifier := &fakeVerifier{err: identity.ErrInvalidAssertion}
	authService := services.NewAuthService(repo, verifier, nil, testJWTSecret)

	_, _, err := authService.LoginWithGoogle(context.Background(), "bad-token")
	assert.ErrorIs(t, err, identity.ErrInvalidAssertion)
}

func TestAuthService_LoginWithGoogle_Disabled(t *testing.T) {
	authService := services.NewAuthService(repositories.NewMockUserRepository(), nil, nil, testJWTSecret)

	_, _, err := authService.LoginWithGoogle(context.Background(), "token")
	assert.True(t, errors.Is(err, services.ErrGoogleDisabled))
}
