package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Username      string    `gorm:"size:100;not null" json:"username"`
	Email         string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password      string    `gorm:"size:100;not null" json:"-"`
	Role          UserRole  `gorm:"size:20;default:'student'" json:"role"`
	EmailVerified bool      `gorm:"default:false" json:"emailVerified"`
	LastLogin     time.Time `json:"lastLogin"`
	LastSeen      time.Time `json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == Admin
}
