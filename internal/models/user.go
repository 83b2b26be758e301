package models

import "gorm.io/gorm"

// Roles a user can hold. New accounts start unverified and are promoted
// to RoleUser once they prove control of their email address. RoleAdmin
// is only ever assigned out-of-band.
const (
	RoleUnverified = "unverified"
	RoleUser       = "user"
	RoleAdmin      = "admin"
)

// User represents a customer account.
type User struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name       string `json:"name" gorm:"type:varchar(100)" validate:"required,min=2,max=100"`
	Email      string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password   string `gorm:"type:varchar(255)" validate:"required,min=6"` // No json tag for security
	Role       string `json:"role" gorm:"type:varchar(20);default:unverified"`
	Phone      string `json:"phone,omitempty" gorm:"type:varchar(30)"`
	Address    string `json:"address,omitempty" gorm:"type:varchar(255)"`
	Bio        string `json:"bio,omitempty" gorm:"type:varchar(500)"`
	gorm.Model        // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
