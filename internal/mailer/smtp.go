// Package mailer dispatches transactional mail over SMTP.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/shopmate/shopmate/internal/config"
	"github.com/sirupsen/logrus"
)

// ErrTimeout is returned when the SMTP server did not accept the
// message within the configured send timeout.
var ErrTimeout = errors.New("mail dispatch timed out")

type Mailer struct {
	cfg    config.SMTPConfig
	logger *logrus.Logger
}

func New(cfg config.SMTPConfig, logger *logrus.Logger) *Mailer {
	return &Mailer{
		cfg:    cfg,
		logger: logger,
	}
}

// Send delivers a single HTML message. The context deadline bounds the
// whole exchange; a slow server fails with ErrTimeout instead of
// stalling the caller.
func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.SendTimeout)
		defer cancel()
	}

	message := buildMessage(m.cfg.From, to, subject, htmlBody)
	fromAddr := parseAddress(m.cfg.From)

	client, err := m.connect(ctx)
	if err != nil {
		return m.classify(err)
	}
	defer client.Close()

	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return m.classify(err)
		}
	}
	if err := client.Mail(fromAddr); err != nil {
		return m.classify(err)
	}
	if err := client.Rcpt(to); err != nil {
		return m.classify(err)
	}
	writer, err := client.Data()
	if err != nil {
		return m.classify(err)
	}
	if _, err := writer.Write([]byte(message)); err != nil {
		_ = writer.Close()
		return m.classify(err)
	}
	if err := writer.Close(); err != nil {
		return m.classify(err)
	}

	m.logger.WithField("to", to).Info("Mail dispatched")
	return client.Quit()
}

// connect dials the SMTP server under the context deadline. Port 465
// speaks implicit TLS, everything else upgrades via STARTTLS when the
// server offers it.
func (m *Mailer) connect(ctx context.Context) (*smtp.Client, error) {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if m.cfg.Port == 465 {
		conn = tls.Client(conn, &tls.Config{ServerName: m.cfg.Host})
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if m.cfg.Port != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
				_ = client.Close()
				return nil, err
			}
		}
	}

	return client, nil
}

func (m *Mailer) classify(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		m.logger.WithError(err).Error("Mail dispatch timed out")
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	m.logger.WithError(err).Error("Mail dispatch failed")
	return fmt.Errorf("mail dispatch failed: %w", err)
}

func buildMessage(from, to, subject, htmlBody string) string {
	headers := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"Date: " + time.Now().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=utf-8",
		"",
		htmlBody,
	}
	return strings.Join(headers, "\r\n")
}

func parseAddress(from string) string {
	start := strings.Index(from, "<")
	end := strings.Index(from, ">")
	if start >= 0 && end > start {
		return strings.TrimSpace(from[start+1 : end])
	}
	return strings.TrimSpace(from)
}
