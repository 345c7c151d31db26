package models

import "time"

// User represents an account on the platform. Password and GoogleID are
// pointers because an account created through Google login carries no local
// password credential, and a password-only account has no Google identity.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name      string    `json:"name" gorm:"type:varchar(100)" validate:"required,max=100"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password  *string   `json:"-" gorm:"type:varchar(255)"` // bcrypt hash, never serialized
	GoogleID  *string   `json:"-" gorm:"index;type:varchar(64)"`
	Picture   *string   `json:"picture"`
	StoreName string    `json:"storeName" gorm:"type:varchar(100);default:''"`
	OwnerName string    `json:"ownerName" gorm:"type:varchar(100);default:''"`
	StoreType string    `json:"storeType" gorm:"type:varchar(100);default:''"`
	Phone     string    `json:"phone" gorm:"type:varchar(32);default:''"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasPassword reports whether the account carries a local password
// credential. Google-only accounts cannot use the password login or
// change-password paths.
func (u *User) HasPassword() bool {
	return u.Password != nil && *u.Password != ""
}

// ProfileUpdate is the allow-listed set of fields a user may change on their
// own profile. Nil fields are left untouched; handlers reject unknown keys
// when decoding into it.
type ProfileUpdate struct {
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	StoreName *string `json:"storeName"`
	OwnerName *string `json:"ownerName"`
	StoreType *string `json:"storeType"`
	Phone     *string `json:"phone"`
}

// Empty reports whether the update carries no fields at all.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.Email == nil && p.StoreName == nil &&
		p.OwnerName == nil && p.StoreType == nil && p.Phone == nil
}
