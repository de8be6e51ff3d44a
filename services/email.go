package services

import (
	"fmt"

	"github.com/Abat-Hospital-Project/data-analyzer-backend/config"
	"gopkg.in/gomail.v2"
)

// Message is one outbound email, queued through the Dispatcher.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a single message. Satisfied by Mailer and by test fakes.
type Sender interface {
	Send(msg Message) error
}

// Mailer sends mail over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		from:   cfg.MailFrom,
	}
}

func (m *Mailer) Send(msg Message) error {
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.Body)

	return m.dialer.DialAndSend(gm)
}

// VerificationEmail carries the six-digit code a new registrant must
// present to verify their address.
func VerificationEmail(to, code string) Message {
	body := fmt.Sprintf(`<h1>Welcome!</h1>
		<p>Your verification code is:</p>
		<h2>%s</h2>
		<p>The code expires in one hour.</p>`, code)

	return Message{To: to, Subject: "Verify your email", Body: body}
}

// PasswordResetEmail carries the reset link for a forgotten password.
func PasswordResetEmail(to, appURL, token string) Message {
	link := appURL + "/reset-password?token=" + token
	body := fmt.Sprintf(`<h1>Password Reset Request</h1>
		<p>You requested a password reset. Click the link below to set a new password:</p>
		<a href="%s">Reset Password</a>
		<p>If you did not request this, please ignore this email.</p>`, link)

	return Message{To: to, Subject: "Reset your password", Body: body}
}

// PasswordChangedEmail confirms that a reset completed.
func PasswordChangedEmail(to string) Message {
	body := `<h1>Password Changed</h1>
		<p>Your password was just changed. If this was not you, contact support immediately.</p>`

	return Message{To: to, Subject: "Your password was changed", Body: body}
}
