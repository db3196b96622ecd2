package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleProducer = "producer"
	RoleSupplier = "supplier"
	RoleAdmin    = "admin"
)

// User represents a marketplace account (producer, supplier or admin)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Auth0ID   string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Company   string         `gorm:"not null;default:''" json:"company"`
	Role      string         `gorm:"not null;default:'producer'" json:"role"` // "producer", "supplier" or "admin"
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsValidRole reports whether role is one the marketplace knows about
func IsValidRole(role string) bool {
	switch role {
	case RoleProducer, RoleSupplier, RoleAdmin:
		return true
	}
	return false
}
