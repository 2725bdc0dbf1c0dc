package Models

import (
	"gorm.io/gorm"
)

// Permission levels, higher includes lower.
const (
	PermissionViewer = 1
	PermissionEditor = 2
	PermissionAdmin  = 3
)

type User struct {
	gorm.Model
	Name       string `json:"name" gorm:"size:255;not null"`
	Email      string `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Password   []byte `json:"-"`
	Permission int    `json:"permission" gorm:"not null"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	Permission int    `json:"permission" validate:"required,oneof=1 2 3"`
}
