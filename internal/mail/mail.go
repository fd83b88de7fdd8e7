package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"net/smtp"
	"time"

	html "github.com/gofiber/template/html/v2"
	"github.com/jordan-wright/email"

	"babashop/internal/config"
	"babashop/internal/domain"
	applog "babashop/internal/log"
)

//go:embed templates/*.html
var templatesFS embed.FS

// OTP is the data rendered into a one-time-code email.
type OTP struct {
	To      string
	Name    string
	Code    string
	Kind    domain.OTPType
	Expires time.Duration
}

type Sender interface {
	SendOTP(ctx context.Context, msg OTP) error
}

// Renderer turns an OTP into subject and HTML body using the embedded templates.
type Renderer struct {
	views *html.Engine
}

func NewRenderer() (*Renderer, error) {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("load mail templates: %w", err)
	}
	return &Renderer{views: engine}, nil
}

func (r *Renderer) Render(msg OTP) (subject string, body []byte, err error) {
	name, subject := "otp_register", "Verify your BABA Shoes Shop account"
	if msg.Kind == domain.OTPReset {
		name, subject = "otp_reset", "Your BABA Shoes Shop password reset code"
	}
	var buf bytes.Buffer
	err = r.views.Render(&buf, name, map[string]any{
		"Name":    msg.Name,
		"Email":   msg.To,
		"Code":    msg.Code,
		"Minutes": int(msg.Expires.Minutes()),
	})
	return subject, buf.Bytes(), err
}

// SMTPSender delivers mail through an SMTP relay.
type SMTPSender struct {
	cfg      config.SMTP
	renderer *Renderer
}

func NewSMTPSender(cfg config.SMTP) (*SMTPSender, error) {
	r, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	return &SMTPSender{cfg: cfg, renderer: r}, nil
}

func (s *SMTPSender) SendOTP(ctx context.Context, msg OTP) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject, body, err := s.renderer.Render(msg)
	if err != nil {
		return err
	}
	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = []string{msg.To}
	e.Subject = subject
	e.HTML = body
	e.Text = []byte(fmt.Sprintf("Your code is %s. It expires in %d minutes.", msg.Code, int(msg.Expires.Minutes())))

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := e.Send(fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port), auth); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	return nil
}

// LogSender is used when no SMTP relay is configured. Codes are only visible at debug level.
type LogSender struct{}

func (LogSender) SendOTP(_ context.Context, msg OTP) error {
	applog.Logger().Info().Str("to", msg.To).Str("kind", string(msg.Kind)).Msg("mail.otp.skipped")
	applog.Logger().Debug().Str("to", msg.To).Str("code", msg.Code).Msg("mail.otp.code")
	return nil
}
