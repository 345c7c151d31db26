package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"lapak/internal/identity"
	"lapak/internal/models"
	"lapak/internal/repositories"
	"lapak/pkg/events"
)

// Errors returned by the auth flow. Handlers map these onto status codes;
// ErrInvalidCredentials deliberately covers both "unknown email" and "wrong
// password" so responses never reveal whether an account exists.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoPassword         = errors.New("this account uses Google login only")
	ErrWrongOldPassword   = errors.New("old password is incorrect")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrMisconfigured      = errors.New("server misconfiguration: JWT secret missing")
	ErrGoogleDisabled     = errors.New("google login is not configured")
)

const tokenTTL = 7 * 24 * time.Hour

// Claims is the JWT payload: the bearer's user ID plus the registered
// expiry/issued-at set.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// AuthService handles credential verification, token issuance/verification
// and profile management.
type AuthService struct {
	userRepo  repositories.UserRepository
	verifier  identity.Verifier // nil disables Google login
	publisher events.Publisher  // nil disables event publication
	jwtSecret []byte
}

// NewAuthService creates a new AuthService. verifier and publisher may be
// nil when the corresponding integration is not configured.
func NewAuthService(userRepo repositories.UserRepository, verifier identity.Verifier, publisher events.Publisher, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		verifier:  verifier,
		publisher: publisher,
		jwtSecret: []byte(jwtSecret),
	}
}

// Signup registers a new user with a bcrypt-hashed password and returns a
// fresh token alongside the created user.
func (s *AuthService) Signup(name, email, password string) (string, *models.User, error) {
	email = strings.ToLower(email)

	// Friendly pre-check; the store's unique index is what actually closes
	// the race between concurrent identical signups.
	if _, err := s.userRepo.GetByEmail(email); err == nil {
		return "", nil, repositories.ErrDuplicateEmail
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return "", nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hash := string(hashed)

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: &hash,
	}
	if err := s.userRepo.Create(user); err != nil {
		return "", nil, err
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return "", nil, err
	}

	s.publishRegistered(user)
	return token, user, nil
}

// Login verifies an email/password pair and returns a fresh token. An
// account created through Google login with no local password fails with
// ErrNoPassword rather than ErrInvalidCredentials.
func (s *AuthService) Login(email, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !user.HasPassword() {
		return "", nil, ErrNoPassword
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// LoginWithGoogle verifies a Google-issued ID token, then finds or creates
// the matching account. First-time logins create a passwordless user;
// repeat logins refresh name and picture when Google reports new values.
func (s *AuthService) LoginWithGoogle(ctx context.Context, idToken string) (string, *models.User, error) {
	if s.verifier == nil {
		return "", nil, ErrGoogleDisabled
	}

	profile, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return "", nil, err
	}

	user, err := s.userRepo.GetByEmail(profile.Email)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		user = &models.User{
			Name:     profile.Name,
			Email:    profile.Email,
			GoogleID: &profile.SubjectID,
		}
		if profile.Picture != "" {
			user.Picture = &profile.Picture
		}
		if err := s.userRepo.Create(user); err != nil {
			return "", nil, err
		}
		s.publishRegistered(user)
	case err != nil:
		return "", nil, err
	default:
		changed := false
		if profile.Name != "" && user.Name != profile.Name {
			user.Name = profile.Name
			changed = true
		}
		if profile.Picture != "" && (user.Picture == nil || *user.Picture != profile.Picture) {
			user.Picture = &profile.Picture
			changed = true
		}
		if user.GoogleID == nil {
			user.GoogleID = &profile.SubjectID
			changed = true
		}
		if changed {
			if err := s.userRepo.Update(user); err != nil {
				return "", nil, err
			}
		}
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Profile returns the user record for the given ID.
func (s *AuthService) Profile(userID string) (*models.User, error) {
	return s.userRepo.GetByID(userID)
}

// UpdateProfile applies the allow-listed partial update.
func (s *AuthService) UpdateProfile(userID string, upd models.ProfileUpdate) (*models.User, error) {
	return s.userRepo.UpdateProfile(userID, upd)
}

// ChangePassword swaps the stored hash after verifying the old password.
// The stored hash is left untouched on any failure.
func (s *AuthService) ChangePassword(userID, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}

	if !user.HasPassword() {
		return ErrNoPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(oldPassword)); err != nil {
		return ErrWrongOldPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	hash := string(hashed)
	user.Password = &hash
	return s.userRepo.Update(user)
}

// IssueToken signs a token carrying the user ID, valid for seven days.
func (s *AuthService) IssueToken(userID string) (string, error) {
	if len(s.jwtSecret) == 0 {
		return "", ErrMisconfigured
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks signature and expiry and returns the embedded user ID.
// Expired and malformed tokens both come back as ErrInvalidToken so callers
// can't tell them apart, but the concrete cause is logged.
func (s *AuthService) VerifyToken(tokenString string) (string, error) {
	if len(s.jwtSecret) == 0 {
		return "", ErrMisconfigured
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			log.Printf("Token verification failed: expired: %v", err)
		} else {
			log.Printf("Token verification failed: %v", err)
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

func (s *AuthService) publishRegistered(user *models.User) {
	if s.publisher == nil {
		return
	}
	payload := map[string]interface{}{
		"userId": user.ID,
		"email":  user.Email,
		"name":   user.Name,
	}
	if err := s.publisher.Publish(events.UserRegistered, payload); err != nil {
		log.Printf("Warning: failed to publish %s event for user %s: %v", events.UserRegistered, user.ID, err)
	}
}
