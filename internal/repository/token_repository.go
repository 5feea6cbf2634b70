package repository

import (
	"coding_quiz_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

// TokenRepository 管理邮箱验证与密码重置两类一次性令牌
type TokenRepository struct {
	DB *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

func (r *TokenRepository) CreateEmailVerification(userID uint, ttl time.Duration) (*model.EmailVerification, error) {
	// 旧的未验证令牌作废
	if err := r.DB.Unscoped().Where("user_id = ? AND verified = ?", userID, false).Delete(&model.EmailVerification{}).Error; err != nil {
		return nil, err
	}
	v := &model.EmailVerification{
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := r.DB.Create(v).Error; err != nil {
		return nil, err
	}
	return v, nil
}

func (r *TokenRepository) FindEmailVerification(token string) (*model.EmailVerification, error) {
	var v model.EmailVerification
	err := r.DB.Where("token = ?", token).First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *TokenRepository) MarkVerified(id uint) error {
	return r.DB.Model(&model.EmailVerification{}).Where("id = ?", id).Update("verified", true).Error
}

func (r *TokenRepository) CreatePasswordReset(userID uint, ttl time.Duration) (*model.PasswordResetToken, error) {
	if err := r.DB.Unscoped().Where("user_id = ? AND used = ?", userID, false).Delete(&model.PasswordResetToken{}).Error; err != nil {
		return nil, err
	}
	t := &model.PasswordResetToken{
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := r.DB.Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TokenRepository) FindPasswordReset(token string) (*model.PasswordResetToken, error) {
	var t model.PasswordResetToken
	err := r.DB.Where("token = ?", token).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TokenRepository) MarkUsed(id uint) error {
	return r.DB.Model(&model.PasswordResetToken{}).Where("id = ?", id).Update("used", true).Error
}
