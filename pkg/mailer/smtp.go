package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime/multipart"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

// SMTP submits mail over implicit TLS with PLAIN auth.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the sender, bare or with a display name. Empty means Username.
	From string
	// TLSConfig overrides the default TLS settings (tests use it to trust a
	// local server).
	TLSConfig *tls.Config
}

func NewSMTP(host string, port int, username, password, from string) *SMTP {
	return &SMTP{Host: host, Port: port, Username: username, Password: password, From: from}
}

// Sender returns the From header value and the envelope address.
func (s *SMTP) Sender() (header, envelope string, err error) {
	from := s.From
	if from == "" {
		from = s.Username
	}
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return "", "", fmt.Errorf("smtp sender %q: %w", from, err)
	}
	return addr.String(), addr.Address, nil
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	header, envelope, err := s.Sender()
	if err != nil {
		return err
	}
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	tlsCfg := s.TLSConfig
	if tlsCfg == nil {
		tlsCfg = &tls.Config{ServerName: s.Host, MinVersion: tls.VersionTLS12}
	}

	dialer := &tls.Dialer{NetDialer: &net.Dialer{Timeout: 10 * time.Second}, Config: tlsCfg}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	client, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = client.Close() }()

	if s.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", s.Username, s.Password, s.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(envelope); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	body, err := buildMIME(header, msg)
	if err != nil {
		_ = w.Close()
		return err
	}
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}
	return client.Quit()
}

// buildMIME renders a text message, or multipart/alternative when HTML is set.
func buildMIME(from string, msg Message) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")

	if msg.HTML == "" {
		b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
		b.WriteString(msg.Text)
		return []byte(b.String()), nil
	}

	var parts strings.Builder
	mw := multipart.NewWriter(&parts)
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())
	for _, p := range []struct{ ctype, body string }{
		{"text/plain; charset=\"utf-8\"", msg.Text},
		{"text/html; charset=\"utf-8\"", msg.HTML},
	} {
		pw, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {p.ctype}})
		if err != nil {
			return nil, err
		}
		if _, err := pw.Write([]byte(p.body)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	b.WriteString(parts.String())
	return []byte(b.String()), nil
}

var _ Transport = (*SMTP)(nil)
