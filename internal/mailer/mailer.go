package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/logger"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Config holds SMTP credentials. An empty Host disables delivery.
type Config struct {
	Host     string
	Port     int
	From     string
	Password string
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends catalog notifications over SMTP.
type SMTPMailer struct {
	from   string
	dialer dialer
	logger *logger.Logger
}

func NewSMTPMailer(cfg Config, log *logger.Logger) *SMTPMailer {
	m := &SMTPMailer{from: cfg.From, logger: log.Named("SMTPMailer")}
	if cfg.Host != "" {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.From, cfg.Password)
	} else {
		m.logger.Warn("SMTP host not configured, notification emails are disabled")
	}
	return m
}

// Enabled reports whether the mailer has somewhere to deliver to.
func (m *SMTPMailer) Enabled() bool { return m.dialer != nil }

func listingCreatedMessage(from, toEmail, listingAddress string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", "New Listing Created")
	msg.SetBody("text/plain", fmt.Sprintf("Your listing at '%s' has been created successfully.", listingAddress))
	return msg
}

func (m *SMTPMailer) SendListingCreatedEmail(ctx context.Context, toEmail, listingAddress string) error {
	if toEmail == "" {
		return errors.New("recipient email is empty")
	}
	if !m.Enabled() {
		m.logger.Debug("Skipping listing created email", zap.String("address", listingAddress))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(listingCreatedMessage(m.from, toEmail, listingAddress)); err != nil {
		m.logger.Error("Failed to send listing created email", zap.Error(err))
		return fmt.Errorf("send listing created email: %w", err)
	}
	m.logger.Info("Listing created email sent", zap.String("address", listingAddress))
	return nil
}
