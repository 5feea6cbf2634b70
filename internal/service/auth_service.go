package service

import (
	"coding_quiz_backend/internal/config"
	"coding_quiz_backend/internal/model"
	"coding_quiz_backend/internal/repository"
	"coding_quiz_backend/internal/util"
	"coding_quiz_backend/pkg/logger"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	emailVerificationTTL = 24 * time.Hour
	passwordResetTTL     = time.Hour
)

// AuthService 注册登录与账号生命周期
type AuthService struct {
	UserRepo  *repository.UserRepository
	TokenRepo *repository.TokenRepository
	Mail      *MailService
	Config    *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, tokenRepo *repository.TokenRepository, mail *MailService, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo:  userRepo,
		TokenRepo: tokenRepo,
		Mail:      mail,
		Config:    cfg,
	}
}

// Register 创建账号并发送验证邮件，邮件失败不影响注册
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	if _, err := s.UserRepo.FindByEmail(email); err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
		Role:     model.Student,
	}
	if err := s.UserRepo.Create(user); err != nil {
		return nil, err
	}

	if s.Mail.Enabled() {
		if v, err := s.TokenRepo.CreateEmailVerification(user.ID, emailVerificationTTL); err != nil {
			logger.Log.Error("failed to create verification token",
				zap.Uint("userID", user.ID), zap.Error(err))
		} else if err := s.Mail.SendVerification(ctx, user.Email, v.Token); err != nil {
			logger.Log.Error("failed to send verification email",
				zap.Uint("userID", user.ID), zap.Error(err))
		}
	}

	return user, nil
}

// Login 校验凭据并签发 JWT
func (s *AuthService) Login(email, password string) (string, *model.User, error) {
	user, err := s.UserRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, util.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, util.ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(user, s.Config.JWT.Secret, s.Config.JWT.ExpireTime)
	if err != nil {
		return "", nil, err
	}

	if err := s.UserRepo.UpdateLastLogin(user.ID); err != nil {
		logger.Log.Warn("failed to record last login", zap.Uint("userID", user.ID), zap.Error(err))
	}
	return token, user, nil
}

// VerifyEmail 校验并消费邮箱验证令牌
func (s *AuthService) VerifyEmail(token string) error {
	v, err := s.TokenRepo.FindEmailVerification(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrTokenExpired
		}
		return err
	}
	if v.Verified || time.Now().After(v.ExpiresAt) {
		return util.ErrTokenExpired
	}
	if err := s.TokenRepo.MarkVerified(v.ID); err != nil {
		return err
	}
	return s.UserRepo.MarkEmailVerified(v.UserID)
}

// ResendVerification 重发验证邮件
func (s *AuthService) ResendVerification(ctx context.Context, userID uint) error {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrUserNotFound
		}
		return err
	}
	if user.EmailVerified {
		return nil
	}
	v, err := s.TokenRepo.CreateEmailVerification(user.ID, emailVerificationTTL)
	if err != nil {
		return err
	}
	return s.Mail.SendVerification(ctx, user.Email, v.Token)
}

// RequestPasswordReset 发送找回密码邮件
// 为避免邮箱探测，账号不存在时同样静默返回成功
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.UserRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	t, err := s.TokenRepo.CreatePasswordReset(user.ID, passwordResetTTL)
	if err != nil {
		return err
	}
	return s.Mail.SendPasswordReset(ctx, user.Email, t.Token)
}

// ResetPassword 用重置令牌设置新密码
func (s *AuthService) ResetPassword(token, newPassword string) error {
	t, err := s.TokenRepo.FindPasswordReset(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrTokenExpired
		}
		return err
	}
	if t.Used || time.Now().After(t.ExpiresAt) {
		return util.ErrTokenExpired
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.UserRepo.UpdatePassword(t.UserID, string(hashed)); err != nil {
		return err
	}
	return s.TokenRepo.MarkUsed(t.ID)
}

// ChangePassword 登录态下修改密码，需要校验旧密码
func (s *AuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrUserNotFound
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return util.ErrInvalidCredentials
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.UserRepo.UpdatePassword(userID, string(hashed))
}

// DeleteAccount 注销账号，校验密码后连同作答数据一并删除
func (s *AuthService) DeleteAccount(userID uint, password string) error {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrUserNotFound
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return util.ErrInvalidCredentials
	}
	return s.UserRepo.DeleteWithData(userID)
}

// GetProfile 当前用户信息
func (s *AuthService) GetProfile(userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
