package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/Dan9191/finhealth/internal/config"
	"github.com/Dan9191/finhealth/internal/defusal"
	"github.com/Dan9191/finhealth/internal/health"
	"github.com/Dan9191/finhealth/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send:   (*email.Email).Send,
	}
}

// SendBombAlert tells a user that some future bombs cannot be funded
func (s *Sender) SendBombAlert(user *models.User, plans []defusal.Plan) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", user.Username)
	b.WriteString("The following upcoming expenses cannot be funded by their deadline, even after pausing investments or selling vested shares:\n\n")
	for _, p := range plans {
		fmt.Fprintf(&b, "- %s: %.2f %s needed each month, %.2f %s short (save by %s)\n",
			p.BombName, p.SIPAmount, user.Currency, p.Shortfall, user.Currency, p.DefuseBy.Format("2006-01-02"))
	}
	b.WriteString("\nConsider moving the due date or lowering the target amount.\n")

	return s.deliver(user.Email, "Upcoming expense at risk", b.String())
}

// SendHealthAlert tells a user their monthly outflow exceeds their income
func (s *Sender) SendHealthAlert(user *models.User, report health.Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", user.Username)
	if report.Remaining != nil {
		fmt.Fprintf(&b, "Your monthly obligations exceed your income by %.2f %s.\n", -*report.Remaining, user.Currency)
	}
	fmt.Fprintf(&b, "Income: %.2f\nOutflow: %.2f\n", report.Breakdown.Income, report.Breakdown.Outflow)

	return s.deliver(user.Email, "Your financial health is worrisome", b.String())
}

func (s *Sender) deliver(to, subject, body string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body + "\nBest regards,\nFinHealth")

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
