package model

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions.
const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionDeleted       = "deleted"
	ActionPasswordReset = "password_reset"
)

// ActivityLog is an append-only record of a mutation performed by a user.
type ActivityLog struct {
	ID          uint              `json:"id" gorm:"primaryKey"`
	UserID      uint              `json:"user_id" gorm:"index;not null"`
	User        *User             `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Action      string            `json:"action" gorm:"size:50;index;not null"`
	Model       string            `json:"model" gorm:"size:100;index"`
	ModelID     *uint             `json:"model_id"`
	Description string            `json:"description" gorm:"type:text"`
	Properties  datatypes.JSONMap `json:"properties" gorm:"type:json"`
	IPAddress   string            `json:"ip_address" gorm:"size:45"`
	UserAgent   string            `json:"user_agent" gorm:"type:text"`
	CreatedAt   time.Time         `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
