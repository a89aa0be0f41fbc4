package email

import (
	"fmt"
	"net/smtp"
	"sync"
)

// Mailer sends emails.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     string
	From     string
	Username string
	Password string
}

type mailer struct {
	cfg Config
}

func NewMailer(cfg Config) Mailer {
	return &mailer{cfg: cfg}
}

func (m *mailer) SendEmail(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		m.cfg.From, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg))
}

// RecordedMessage is one email captured by the recording mailer.
type RecordedMessage struct {
	To      string
	Subject string
	Body    string
}

// RecordingMailer captures emails in memory for tests.
type RecordingMailer struct {
	mu       sync.Mutex
	messages []RecordedMessage
}

func NewRecordingMailer() *RecordingMailer {
	return &RecordingMailer{}
}

func (r *RecordingMailer) SendEmail(to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, RecordedMessage{To: to, Subject: subject, Body: body})
	return nil
}

func (r *RecordingMailer) Messages() []RecordedMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedMessage, len(r.messages))
	copy(out, r.messages)
	return out
}
