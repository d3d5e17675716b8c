package services

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"coffeescraper/config"

	"github.com/jordan-wright/email"
)

const smtpsPort = "465"

const defaultAlertMessage = "De laagste prijs is sinds gisteren met meer dan {limit} gedaald."

// SendFunc delivers a composed mail over implicit TLS.
type SendFunc func(mail *email.Email, addr string, auth smtp.Auth, tlsConfig *tls.Config) error

// AlertService mails the configured recipients when the price dropped.
type AlertService struct {
	secrets config.SMTPSecrets
	alert   config.AlertConfig
	dryRun  bool
	send    SendFunc
}

func NewAlertService(secrets config.SMTPSecrets, alert config.AlertConfig, dryRun bool) *AlertService {
	return &AlertService{
		secrets: secrets,
		alert:   alert,
		dryRun:  dryRun,
		send: func(mail *email.Email, addr string, auth smtp.Auth, tlsConfig *tls.Config) error {
			return mail.SendWithTLS(addr, auth, tlsConfig)
		},
	}
}

// WithSender replaces how composed mails are delivered.
func (s *AlertService) WithSender(send SendFunc) *AlertService {
	return &AlertService{secrets: s.secrets, alert: s.alert, dryRun: s.dryRun, send: send}
}

// ShouldAlert reports whether difference is a drop of at least the limit.
func (s *AlertService) ShouldAlert(difference float64) bool {
	return difference <= -s.alert.Limit
}

// Message returns the alert body with {limit} filled in.
func (s *AlertService) Message() string {
	message, ok := config.SecretFile(s.secrets.MessageFile)
	if !ok {
		slog.Warn("alert message secret missing, using default text", "path", s.secrets.MessageFile)
		message = defaultAlertMessage
	}
	return strings.ReplaceAll(message, "{limit}", strconv.FormatFloat(s.alert.Limit, 'f', -1, 64))
}

// SendAlert mails the alert. Nothing is sent in dry run mode.
func (s *AlertService) SendAlert() error {
	message := s.Message()

	if s.dryRun {
		slog.Info("alert mail skipped", "recipients", s.alert.Recipients, "message", message)
		return nil
	}

	if s.alert.Sender == "" {
		return fmt.Errorf("no alert sender configured")
	}
	if len(s.alert.Recipients) == 0 {
		return fmt.Errorf("no alert recipients configured")
	}

	user, ok := config.Secret(s.secrets.UserFile)
	if !ok {
		return fmt.Errorf("smtp user secret %s is missing", s.secrets.UserFile)
	}
	password, ok := config.Secret(s.secrets.PasswordFile)
	if !ok {
		return fmt.Errorf("smtp password secret %s is missing", s.secrets.PasswordFile)
	}
	host, ok := config.Secret(s.secrets.HostFile)
	if !ok || host == "" {
		return fmt.Errorf("smtp host secret %s is missing", s.secrets.HostFile)
	}

	mail := email.NewEmail()
	mail.From = s.alert.Sender
	mail.To = s.alert.Recipients
	mail.Subject = s.alert.Subject
	mail.Text = []byte(message)

	addr := net.JoinHostPort(host, smtpsPort)
	auth := smtp.PlainAuth("", user, password, host)
	if err := s.send(mail, addr, auth, &tls.Config{ServerName: host}); err != nil {
		return fmt.Errorf("send alert via %s: %w", addr, err)
	}

	slog.Info("alert mail sent", "subject", s.alert.Subject, "recipients", s.alert.Recipients)
	return nil
}
