package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

// smtpTransport dials a new connection for every attempt so a connection
// left in a bad state by a failed attempt is never reused.
type smtpTransport struct {
	host        string
	port        int
	username    string
	password    string
	dialTimeout time.Duration
}

func (t *smtpTransport) Send(ctx context.Context, from string, to []string, msg []byte) error {
	addr := net.JoinHostPort(t.host, strconv.Itoa(t.port))

	dialer := &net.Dialer{Timeout: t.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// Tie the connection lifetime to ctx; net/smtp itself ignores contexts.
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	var c *smtp.Client
	if t.port == 465 {
		tlsConn := tls.Client(conn, &tls.Config{ServerName: t.host, MinVersion: tls.VersionTLS12})
		c, err = smtp.NewClient(tlsConn, t.host)
	} else {
		c, err = smtp.NewClient(conn, t.host)
	}
	if err != nil {
		return fmt.Errorf("create SMTP client: %w", err)
	}
	defer func() { _ = c.Close() }()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: t.host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("start TLS: %w", err)
		}
	}

	if err := c.Auth(smtp.PlainAuth("", t.username, t.password, t.host)); err != nil {
		return fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	if err := c.Mail(from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("set recipient: %w", err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("start message: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close message: %w", err)
	}

	// The message is accepted once Data is closed.
	_ = c.Quit()
	return nil
}
