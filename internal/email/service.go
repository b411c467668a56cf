package email

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/clinicare-api/internal/config"
)

type Service interface {
	SendCredentials(ctx context.Context, to, name, password string) error
	SendPasswordReset(ctx context.Context, to, token string) error
	SendAppointmentBooked(ctx context.Context, to string, notice AppointmentNotice) error
	SendCustom(ctx context.Context, to, subject, content string) error
}

// AppointmentNotice is the data rendered into a booking confirmation.
type AppointmentNotice struct {
	PatientName string
	DoctorName  string
	ClinicName  string
	Date        string
	StartTime   string
}

// Dialer is the part of gomail.Dialer used to deliver messages.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	dialer   Dialer
	from     string
	loginURL string
}

func NewSMTPService(cfg config.SMTPConfig) Service {
	return NewService(gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password), cfg.From, cfg.LoginURL)
}

func NewService(dialer Dialer, from, loginURL string) Service {
	return &smtpService{dialer: dialer, from: from, loginURL: loginURL}
}

func (s *smtpService) SendCredentials(ctx context.Context, to, name, password string) error {
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>An account has been created for you.</p>"+
			"<p>Email: <b>%s</b><br>Password: <b>%s</b></p>"+
			"<p>Sign in at <a href=\"%s\">%s</a> and change your password.</p>",
		name, to, password, s.loginURL, s.loginURL,
	)
	return s.send(ctx, to, "Your clinic account", body)
}

func (s *smtpService) SendPasswordReset(ctx context.Context, to, token string) error {
	body := fmt.Sprintf(
		"<p>A password reset was requested for your account.</p>"+
			"<p>Reset token: <b>%s</b></p><p>The token expires in one hour.</p>",
		token,
	)
	return s.send(ctx, to, "Password reset", body)
}

func (s *smtpService) SendAppointmentBooked(ctx context.Context, to string, n AppointmentNotice) error {
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your appointment with %s at %s is booked for %s at %s.</p>",
		n.PatientName, n.DoctorName, n.ClinicName, n.Date, n.StartTime,
	)
	return s.send(ctx, to, "Appointment confirmed", body)
}

func (s *smtpService) SendCustom(ctx context.Context, to, subject, content string) error {
	return s.send(ctx, to, subject, content)
}

func (s *smtpService) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		log.Error().Err(err).Str("to", to).Str("subject", subject).Msg("failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}
	log.Debug().Str("to", to).Str("subject", subject).Msg("email sent")
	return nil
}
