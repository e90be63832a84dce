package model

import "time"

// User is a staff account.
type User struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	Name            string     `json:"name" gorm:"size:255;not null"`
	Email           string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	PasswordHash    string     `json:"-" gorm:"column:password;size:255;not null"`
	Role            Role       `json:"role" gorm:"type:varchar(20);index;not null"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Verified reports whether the user's email has been confirmed.
func (u *User) Verified() bool {
	return u.EmailVerifiedAt != nil
}

// Snapshot is the subset of fields recorded in activity log properties.
func (u *User) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"name":  u.Name,
		"email": u.Email,
		"role":  string(u.Role),
	}
}
