package models

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account (PostgreSQL). Its identity on the socket and in
// notifications is the decimal ID.
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
	Email       string    `json:"email" gorm:"uniqueIndex"`
	Role        string    `json:"role" gorm:"size:20;default:user"`
	Suspended   bool      `json:"suspended" gorm:"default:false"`
	FirebaseUID *string   `json:"-" gorm:"uniqueIndex"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserCompact is the minimal display shape attached to notifications.
type UserCompact struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Identity returns the user's identity string.
func (u *User) Identity() string {
	return strconv.FormatUint(uint64(u.ID), 10)
}

// ToCompact returns the display fields of u.
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:          u.Identity(),
		Name:        u.Name,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

// Label is the name shown in notification titles.
func (u *User) Label() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Name != "" {
		return u.Name
	}
	return "someone"
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the identity string of the authenticated user.
func (c *JwtCustomClaims) Identity() string {
	return strconv.FormatUint(uint64(c.UserID), 10)
}

// UpdateProfileRequest defines the request body for updating one's own profile
type UpdateProfileRequest struct {
	Name        string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,min=1,max=100"`
	AvatarURL   string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}
