package service

import (
	"fmt"
	"time"

	"finplan/config"

	"gopkg.in/gomail.v2"
)

// EmailService 邮件服务
type EmailService struct {
	cfg *config.EmailConfig
	ttl time.Duration
}

// NewEmailService 创建邮件服务，ttl 为验证码有效期（写入邮件正文）
func NewEmailService(cfg *config.EmailConfig, ttl time.Duration) *EmailService {
	return &EmailService{cfg: cfg, ttl: ttl}
}

// SendLoginCode 发送登录验证码
func (s *EmailService) SendLoginCode(toEmail, name, code string) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("serviço de e-mail desativado, configure FINPLAN_EMAIL_ENABLED=true")
	}
	subject := "[FinPlan] Seu código de acesso"
	body := s.generateCodeEmailBody(name, code, "entrar na sua conta")
	return s.sendEmail(toEmail, subject, body)
}

// SendPasswordResetCode 发送密码重置验证码
func (s *EmailService) SendPasswordResetCode(toEmail, name, code string) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("serviço de e-mail desativado, configure FINPLAN_EMAIL_ENABLED=true")
	}
	subject := "[FinPlan] Redefinição de senha"
	body := s.generateCodeEmailBody(name, code, "redefinir sua senha")
	return s.sendEmail(toEmail, subject, body)
}

// generateCodeEmailBody 生成验证码邮件内容
func (s *EmailService) generateCodeEmailBody(name, code, purpose string) string {
	minutes := int(s.ttl / time.Minute)
	if minutes <= 0 {
		minutes = 10
	}
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
        .header { background: linear-gradient(135deg, #10b981, #059669); color: white; padding: 30px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 40px 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 20px; }
        .code-box { background: linear-gradient(135deg, #f0fdf4, #dcfce7); border: 2px dashed #10b981; border-radius: 12px; padding: 30px; text-align: center; margin: 30px 0; }
        .code { font-size: 36px; font-weight: bold; color: #059669; letter-spacing: 8px; font-family: 'Courier New', monospace; }
        .warning { background: #fff3cd; border-left: 4px solid #ffc107; padding: 15px; margin: 20px 0; border-radius: 4px; }
        .warning p { margin: 0; color: #856404; font-size: 14px; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>💰 FinPlan</h1>
        </div>
        <div class="content">
            <p>Olá, <strong>%s</strong>!</p>
            <p>Use o código abaixo para %s:</p>
            <div class="code-box">
                <span class="code">%s</span>
            </div>
            <div class="warning">
                <p>⚠️ Este código expira em <strong>%d minutos</strong>.</p>
                <p>⚠️ Se você não fez esta solicitação, ignore este e-mail.</p>
            </div>
        </div>
        <div class="footer">
            <p>Este e-mail foi enviado automaticamente, não responda.</p>
            <p>© FinPlan - seu planejamento financeiro pessoal</p>
        </div>
    </div>
</body>
</html>
`, name, purpose, code, minutes)
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("falha ao enviar e-mail: %w", err)
	}

	return nil
}
