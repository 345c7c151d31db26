package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lapak/internal/models"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database. The email's unique index is the
// source of truth for duplicates: a concurrent signup that slips past the
// handler's pre-check still loses here and surfaces as ErrDuplicateEmail.
func (r *GORMUserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.Email = strings.ToLower(user.Email)
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by their email, case-insensitively.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "email = ?", strings.ToLower(email)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}
	return &user, nil
}

// Update persists the full user record.
func (r *GORMUserRepository) Update(user *models.User) error {
	res := r.db.Save(user)
	if res.Error != nil {
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProfile applies the allow-listed partial update to the user with the
// given ID and returns the updated record. An email change is checked for
// uniqueness excluding the user themselves before the update runs; the
// unique index backstops the check under concurrency.
func (r *GORMUserRepository) UpdateProfile(id string, upd models.ProfileUpdate) (*models.User, error) {
	fields := map[string]interface{}{}
	if upd.Name != nil {
		fields["name"] = *upd.Name
	}
	if upd.StoreName != nil {
		fields["store_name"] = *upd.StoreName
	}
	if upd.OwnerName != nil {
		fields["owner_name"] = *upd.OwnerName
	}
	if upd.StoreType != nil {
		fields["store_type"] = *upd.StoreType
	}
	if upd.Phone != nil {
		fields["phone"] = *upd.Phone
	}
	if upd.Email != nil {
		email := strings.ToLower(*upd.Email)
		var count int64
		if err := r.db.Model(&models.User{}).
			Where("email = ? AND id <> ?", email, id).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
		}
		if count > 0 {
			return nil, ErrDuplicateEmail
		}
		fields["email"] = email
	}

	if len(fields) > 0 {
		res := r.db.Model(&models.User{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return nil, ErrDuplicateEmail
			}
			return nil, fmt.Errorf("failed to update profile: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}

	return r.GetByID(id)
}
