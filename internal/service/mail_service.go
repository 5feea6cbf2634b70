package service

import (
	"bytes"
	"coding_quiz_backend/internal/config"
	"coding_quiz_backend/pkg/logger"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// MailService 通过 SendGrid 的 HTTP API 发送验证与找回密码邮件
type MailService struct {
	Config *config.MailConfig
	Site   *config.SiteConfig
	client *http.Client
}

func NewMailService(cfg *config.Config) *MailService {
	return &MailService{
		Config: &cfg.Mail,
		Site:   &cfg.Site,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled 未配置 API key 时邮件功能整体关闭
func (s *MailService) Enabled() bool {
	return strings.TrimSpace(s.Config.APIKey) != ""
}

type mailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type mailPersonalization struct {
	To []mailAddress `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailPayload struct {
	Personalizations []mailPersonalization `json:"personalizations"`
	From             mailAddress           `json:"from"`
	Subject          string                `json:"subject"`
	Content          []mailContent         `json:"content"`
}

func (s *MailService) send(ctx context.Context, to, subject, htmlBody string) error {
	if !s.Enabled() {
		logger.Log.Warn("mail service disabled, skipping email", zap.String("to", to))
		return nil
	}

	baseURL := strings.TrimRight(s.Config.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.sendgrid.com"
	}

	payload := mailPayload{
		Personalizations: []mailPersonalization{{To: []mailAddress{{Email: to}}}},
		From:             mailAddress{Email: s.Config.FromEmail, Name: s.Config.FromName},
		Subject:          subject,
		Content:          []mailContent{{Type: "text/html", Value: htmlBody}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.Config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("mail send failed: status=%d body=%s", resp.StatusCode, string(detail))
	}
	return nil
}

// SendVerification 发送邮箱验证邮件
func (s *MailService) SendVerification(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", strings.TrimRight(s.Site.BaseURL, "/"), token)
	body := fmt.Sprintf(`<p>%s에 가입해 주셔서 감사합니다.</p>
<p>아래 링크를 클릭해 이메일 인증을 완료해 주세요. 링크는 24시간 동안 유효합니다.</p>
<p><a href="%s">이메일 인증하기</a></p>`, s.Site.Name, link)
	return s.send(ctx, to, fmt.Sprintf("[%s] 이메일 인증", s.Site.Name), body)
}

// SendPasswordReset 发送重置密码邮件
func (s *MailService) SendPasswordReset(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.Site.BaseURL, "/"), token)
	body := fmt.Sprintf(`<p>비밀번호 재설정을 요청하셨습니다.</p>
<p>아래 링크를 클릭해 새 비밀번호를 설정해 주세요. 링크는 1시간 동안 유효합니다.</p>
<p><a href="%s">비밀번호 재설정</a></p>
<p>본인이 요청하지 않았다면 이 메일을 무시하셔도 됩니다.</p>`, link)
	return s.send(ctx, to, fmt.Sprintf("[%s] 비밀번호 재설정", s.Site.Name), body)
}
