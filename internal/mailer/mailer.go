package mailer

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config holds the SMTP connection settings.
type Config struct {
	Host        string
	Port        int
	UseTLS      bool
	SenderEmail string
	SenderName  string
	Password    string
	AuthType    string // "plain" or "login"
}

// Mailer delivers report emails over SMTP.
type Mailer struct {
	cfg    Config
	logger *zap.Logger

	now func() time.Time
}

func New(cfg Config, logger *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, logger: logger, now: time.Now}
}

// Configured reports whether enough settings are present to attempt a
// delivery. Send fails fast on the same checks.
func (m *Mailer) Configured() bool {
	return m.validate() == nil
}

func (m *Mailer) validate() error {
	if m.cfg.Host == "" {
		return fmt.Errorf("smtp host not set")
	}
	if m.cfg.Port <= 0 {
		return fmt.Errorf("smtp port not set")
	}
	if !strings.Contains(m.cfg.SenderEmail, "@") {
		return fmt.Errorf("sender email %q is not a valid address", m.cfg.SenderEmail)
	}
	if m.cfg.Password == "" {
		return fmt.Errorf("smtp password not set")
	}
	return nil
}

// SendReport wraps a generated report body and mails it. The subject
// carries the job name and today's date.
func (m *Mailer) SendReport(jobName, reportKind string, recipients []string, html string) error {
	subject := fmt.Sprintf("%s - %s", jobName, m.now().Format("2006-01-02"))
	body := m.wrapReport(html)
	if err := m.Send(recipients, subject, body); err != nil {
		return fmt.Errorf("send %s report: %w", reportKind, err)
	}
	m.logger.Info("Report email sent",
		zap.String("job", jobName),
		zap.String("kind", reportKind),
		zap.Int("recipients", len(recipients)))
	return nil
}

// Test sends a self-addressed message to verify the SMTP settings.
func (m *Mailer) Test() error {
	if err := m.validate(); err != nil {
		return err
	}
	body := m.wrapReport("<p>This is a test message confirming email delivery is working.</p>")
	return m.Send([]string{m.cfg.SenderEmail}, "Email Configuration Test", body)
}

func (m *Mailer) wrapReport(html string) string {
	return fmt.Sprintf(`<html><body>
%s
<p style="color: #888; font-size: 12px;">Generated on %s</p>
</body></html>`, html, m.now().Format("2006-01-02 15:04:05"))
}

// Send delivers one HTML email to every recipient in a single SMTP
// session.
func (m *Mailer) Send(recipients []string, subject, htmlBody string) error {
	if err := m.validate(); err != nil {
		return err
	}
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	from := m.cfg.SenderEmail
	if m.cfg.SenderName != "" {
		from = fmt.Sprintf("%s <%s>", m.cfg.SenderName, m.cfg.SenderEmail)
	}

	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", strings.Join(recipients, ", ")),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}
	message := strings.Join(headers, "\r\n") + "\r\n\r\n" + htmlBody

	client, err := m.dial()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := m.authenticate(client); err != nil {
		return err
	}

	if err := client.Mail(m.cfg.SenderEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, to := range recipients {
		if err := client.Rcpt(to); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", to, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to initiate data transfer: %w", err)
	}
	if _, err := w.Write([]byte(message)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data transfer: %w", err)
	}

	return client.Quit()
}

func (m *Mailer) dial() (*smtp.Client, error) {
	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)
	tlsConfig := &tls.Config{ServerName: m.cfg.Host}

	// Port 465 expects an implicit TLS session; everything else dials
	// plain and upgrades with STARTTLS when enabled.
	if m.cfg.UseTLS && m.cfg.Port == 465 {
		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to connect via SMTPS: %w", err)
		}
		client, err := smtp.NewClient(conn, m.cfg.Host)
		if err != nil {
			return nil, fmt.Errorf("failed to create SMTP client: %w", err)
		}
		return client, nil
	}

	client, err := smtp.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	if m.cfg.UseTLS {
		if err := client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to start TLS: %w", err)
		}
	}
	return client, nil
}

func (m *Mailer) authenticate(client *smtp.Client) error {
	var auth smtp.Auth
	switch strings.ToLower(strings.TrimSpace(m.cfg.AuthType)) {
	case "login":
		auth = &loginAuth{username: m.cfg.SenderEmail, password: m.cfg.Password}
	default:
		auth = smtp.PlainAuth("", m.cfg.SenderEmail, m.cfg.Password, m.cfg.Host)
	}
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	return nil
}

// loginAuth implements SMTP LOGIN authentication
type loginAuth struct {
	username, password string
}

func (a *loginAuth) Start(_ *smtp.ServerInfo) (string, []byte, error) {
	return "LOGIN", []byte{}, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if more {
		switch string(fromServer) {
		case "Username:":
			return []byte(a.username), nil
		case "Password:":
			return []byte(a.password), nil
		default:
			return nil, fmt.Errorf("unexpected server challenge: %s", fromServer)
		}
	}
	return nil, nil
}
