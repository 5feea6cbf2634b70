package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmailVerification 邮箱验证令牌
type EmailVerification struct {
	BaseModel
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Token     string    `gorm:"size:36;uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	Verified  bool      `gorm:"default:false" json:"verified"`
}

func (EmailVerification) TableName() string {
	return "email_verifications"
}

func (v *EmailVerification) BeforeCreate(tx *gorm.DB) error {
	if v.Token == "" {
		v.Token = uuid.New().String()
	}
	return nil
}

// PasswordResetToken 密码重置令牌，一次性使用
type PasswordResetToken struct {
	BaseModel
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Token     string    `gorm:"size:36;uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	Used      bool      `gorm:"default:false" json:"used"`
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

func (t *PasswordResetToken) BeforeCreate(tx *gorm.DB) error {
	if t.Token == "" {
		t.Token = uuid.New().String()
	}
	return nil
}
