package email

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements Sender over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendWelcomeEmail(ctx context.Context, toEmail, name string) error {
	content, err := renderEmailTemplate("welcome.html", welcomeEmailData{
		baseEmailData: baseEmailData{
			Title:   "Welcome to Kejani",
			Heading: "Welcome to Kejani",
		},
		Name: name,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectWelcome, content)
}

func (s *SMTPSender) SendBookingRequestedEmail(ctx context.Context, toEmail, clientName, scheduledDate string) error {
	content, err := renderEmailTemplate("booking_requested.html", bookingEmailData{
		baseEmailData: baseEmailData{
			Title:   "New viewing request",
			Heading: "New viewing request",
		},
		ClientName:    clientName,
		ScheduledDate: scheduledDate,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectBookingRequested, content)
}

func (s *SMTPSender) SendBookingStatusEmail(ctx context.Context, toEmail, status, scheduledDate string) error {
	subject := fmt.Sprintf(subjectBookingStatusFmt, status)
	content, err := renderEmailTemplate("booking_status.html", bookingEmailData{
		baseEmailData: baseEmailData{
			Title:   "Viewing update",
			Heading: "Viewing update",
		},
		Status:        status,
		ScheduledDate: scheduledDate,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendBookingReminderEmail(ctx context.Context, toEmail, scheduledDate string) error {
	content, err := renderEmailTemplate("booking_reminder.html", bookingEmailData{
		baseEmailData: baseEmailData{
			Title:   "Viewing reminder",
			Heading: "Your viewing is coming up",
		},
		ScheduledDate: scheduledDate,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectBookingReminder, content)
}

func (s *SMTPSender) SendPaymentReceiptEmail(ctx context.Context, toEmail, receiptNumber string, amountCents int64) error {
	content, err := renderEmailTemplate("payment_receipt.html", paymentReceiptEmailData{
		baseEmailData: baseEmailData{
			Title:   "Payment received",
			Heading: "Payment received",
		},
		ReceiptNumber:   receiptNumber,
		AmountFormatted: formatCurrencyKES(amountCents),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectPaymentReceipt, content)
}

func (s *SMTPSender) SendAgentVerifiedEmail(ctx context.Context, toEmail, agentName string) error {
	content, err := renderEmailTemplate("agent_verified.html", agentVerifiedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Your agent profile is verified",
			Heading: "You are now a verified agent",
		},
		AgentName: agentName,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectAgentVerified, content)
}

func (s *SMTPSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return s.send(ctx, toEmail, subject, htmlContent)
}

var _ Sender = (*SMTPSender)(nil)
