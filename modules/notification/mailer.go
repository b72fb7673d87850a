package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/go-mail/mail/v2"
)

// sendAttempts is how many times a message is dialed before giving up.
const sendAttempts = 3

// Mailer delivers reminder emails.
type Mailer interface {
	SendReminder(to string, data ReminderEmail) error
}

// ReminderEmail is the template data of a due reminder.
type ReminderEmail struct {
	Name    string
	Title   string
	DueDate time.Time
}

// SMTPConfig configures outgoing mail. An empty Host disables email.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

// Enabled reports whether a mail server is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

var reminderTemplate = template.Must(template.New("reminder").Parse(`
{{define "subject"}}Reminder: "{{.Title}}" is due soon{{end}}

{{define "plainBody"}}Hi {{.Name}},

Your task "{{.Title}}" is due on {{.DueDate.Format "Mon, 02 Jan 2006 15:04 MST"}}.

Open your task list to review it.
{{end}}

{{define "htmlBody"}}<!doctype html>
<html>
<body>
<p>Hi {{.Name}},</p>
<p>Your task <strong>{{.Title}}</strong> is due on {{.DueDate.Format "Mon, 02 Jan 2006 15:04 MST"}}.</p>
<p>Open your task list to review it.</p>
</body>
</html>
{{end}}
`))

// SMTPMailer sends mail through an SMTP server.
type SMTPMailer struct {
	dialer *mail.Dialer
	sender string
}

// NewSMTPMailer creates a mailer for the configured server.
func NewSMTPMailer(config SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: mail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		sender: config.Sender,
	}
}

// SendReminder renders the reminder template and sends it, retrying failed dials.
func (m *SMTPMailer) SendReminder(to string, data ReminderEmail) error {
	msg, err := m.render(to, reminderTemplate, data)
	if err != nil {
		return err
	}

	for i := 0; i < sendAttempts; i++ {
		if err = m.dialer.DialAndSend(msg); err == nil {
			return nil
		}
	}
	return fmt.Errorf("failed to send mail after %d attempts: %w", sendAttempts, err)
}

func (m *SMTPMailer) render(to string, tmpl *template.Template, data any) (*mail.Message, error) {
	var subject, plainBody, htmlBody bytes.Buffer
	if err := tmpl.ExecuteTemplate(&subject, "subject", data); err != nil {
		return nil, fmt.Errorf("failed to render subject: %w", err)
	}
	if err := tmpl.ExecuteTemplate(&plainBody, "plainBody", data); err != nil {
		return nil, fmt.Errorf("failed to render plain body: %w", err)
	}
	if err := tmpl.ExecuteTemplate(&htmlBody, "htmlBody", data); err != nil {
		return nil, fmt.Errorf("failed to render html body: %w", err)
	}

	msg := mail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/plain", plainBody.String())
	msg.AddAlternative("text/html", htmlBody.String())
	return msg, nil
}
