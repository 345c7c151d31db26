package repositories

import (
	"errors"

	"lapak/internal/models"
)

// Sentinel errors shared by all repository implementations. Services branch
// on these with errors.Is instead of matching error strings.
var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository defines the interface for user data access. Email lookups
// are case-insensitive: implementations normalize addresses to lowercase.
type UserRepository interface {
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	// Update persists the full user record. Used for password changes and
	// for refreshing name/picture after a Google login.
	Update(user *models.User) error
	// UpdateProfile applies the allow-listed partial update and returns the
	// updated user. Returns ErrDuplicateEmail if the new email belongs to a
	// different user.
	UpdateProfile(id string, upd models.ProfileUpdate) (*models.User, error)
}
