//go:build integration

package mailer

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/logger"
	"github.com/joho/godotenv"
)

func TestMain(m *testing.M) {
	_ = godotenv.Load("../../.env")
	os.Exit(m.Run())
}

func TestSendListingCreatedEmail_Integration(t *testing.T) {
	to := os.Getenv("TEST_RECEIVER_EMAIL")
	if to == "" || os.Getenv("SMTP_HOST") == "" {
		t.Skip("TEST_RECEIVER_EMAIL or SMTP_HOST not set")
	}
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if port == 0 {
		port = 587
	}
	m := NewSMTPMailer(Config{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		From:     os.Getenv("SMTP_EMAIL"),
		Password: os.Getenv("SMTP_PASSWORD"),
	}, logger.NewNop())

	if err := m.SendListingCreatedEmail(context.Background(), to, "Integration Test Listing"); err != nil {
		t.Errorf("failed to send email: %v", err)
	}
}
