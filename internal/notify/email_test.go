package notify

import (
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/Dan9191/finhealth/internal/config"
	"github.com/Dan9191/finhealth/internal/defusal"
	"github.com/Dan9191/finhealth/internal/health"
	"github.com/Dan9191/finhealth/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSender(sendErr error) (*Sender, *[]*email.Email, *string) {
	var sent []*email.Email
	var addr string
	s := NewSender(&config.Config{SMTPHost: "mail", SMTPPort: "2525", SenderEmail: "noreply@test"}, logrus.New())
	s.send = func(e *email.Email, a string, auth smtp.Auth) error {
		sent = append(sent, e)
		addr = a
		return sendErr
	}
	return s, &sent, &addr
}

var user = &models.User{Email: "anna@example.com", Username: "Anna", Currency: "INR"}

func TestSendBombAlert(t *testing.T) {
	s, sent, addr := newTestSender(nil)

	err := s.SendBombAlert(user, []defusal.Plan{{
		BombName:  "Wedding",
		SIPAmount: 20000,
		Shortfall: 5000,
		DefuseBy:  time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)

	require.Len(t, *sent, 1)
	e := (*sent)[0]
	assert.Equal(t, "mail:2525", *addr)
	assert.Equal(t, []string{"anna@example.com"}, e.To)
	assert.Equal(t, "Upcoming expense at risk", e.Subject)
	assert.Contains(t, string(e.Text), "Wedding: 20000.00 INR needed each month, 5000.00 INR short (save by 2026-12-01)")
}

func TestSendHealthAlert(t *testing.T) {
	s, sent, _ := newTestSender(nil)
	remaining := -1500.0

	err := s.SendHealthAlert(user, health.Report{Remaining: &remaining, Category: health.CategoryWorrisome})
	require.NoError(t, err)

	require.Len(t, *sent, 1)
	assert.Contains(t, string((*sent)[0].Text), "exceed your income by 1500.00 INR")
}

func TestSend_Error(t *testing.T) {
	s, _, _ := newTestSender(errors.New("smtp down"))

	err := s.SendBombAlert(user, nil)
	assert.ErrorContains(t, err, "failed to send email")
}
