package email

import (
	"fmt"
	"net/smtp"

	"github.com/ccpp/planner-service/internal/config"
	"github.com/ccpp/planner-service/internal/planner"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendActionReminder sends a reminder for a single plan action, either
// upcoming or overdue.
func (s *Sender) SendActionReminder(to, username string, action planner.PlanAction, isOverdue bool) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	if isOverdue {
		e.Subject = "Overdue Card Payment Notification"
	} else {
		e.Subject = "Upcoming Card Payment Reminder"
	}

	body := fmt.Sprintf("Dear %s,\n\n", username)
	amount := float64(action.AmountCents) / 100
	if isOverdue {
		body += fmt.Sprintf(
			"Your payment of %.2f USD toward %s was due on %s and is now overdue.\n"+
				"Please make the payment as soon as possible to avoid late fees.\n",
			amount, action.CardName, action.TargetDate,
		)
	} else if action.ActionType == planner.ActionBeforeStatementClose {
		body += fmt.Sprintf(
			"A payment of %.2f USD toward %s is planned before its statement closes on %s.\n"+
				"Paying before the close date keeps reported utilization down.\n",
			amount, action.CardName, action.TargetDate,
		)
	} else {
		body += fmt.Sprintf(
			"This is a reminder that your payment of %.2f USD toward %s is due on %s.\n"+
				"Please ensure sufficient funds are available.\n",
			amount, action.CardName, action.TargetDate,
		)
	}
	body += "\nBest regards,\nPayment Planner"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
