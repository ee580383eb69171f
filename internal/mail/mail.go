// Package mail provides folio.Mailer implementations.
package mail

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"folio/internal/config"
	"folio/internal/folio"
)

// NewMailerFromConfig creates a folio.Mailer based on the mail config type.
func NewMailerFromConfig(cfg config.MailConfig, logger folio.Logger) (folio.Mailer, error) {
	switch cfg.Type {
	case "log", "":
		return NewLogMailer(logger), nil
	case "memory":
		return NewMemoryMailer(), nil
	case "smtp":
		if cfg.Host == "" {
			return nil, fmt.Errorf("smtp mailer requires host to be set")
		}
		if cfg.From == "" {
			return nil, fmt.Errorf("smtp mailer requires from to be set")
		}
		return NewSMTPMailer(cfg), nil
	default:
		return nil, fmt.Errorf("unknown mail type: %s", cfg.Type)
	}
}

// LogMailer writes messages to the log instead of delivering them. It is the
// default for local installs without an SMTP relay.
type LogMailer struct {
	logger folio.Logger
}

func NewLogMailer(logger folio.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg folio.Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	m.logger.Info("mail not delivered (log mailer)", "to", strings.Join(msg.To, ","), "subject", msg.Subject, "body", msg.Body)
	return nil
}

// MemoryMailer records sent messages. Fail makes every subsequent Send
// return the given error.
type MemoryMailer struct {
	mu   sync.Mutex
	sent []folio.Message
	fail error
}

func NewMemoryMailer() *MemoryMailer {
	return &MemoryMailer{}
}

func (m *MemoryMailer) Send(_ context.Context, msg folio.Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Fail sets the error returned by Send. nil restores delivery.
func (m *MemoryMailer) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// Sent returns a copy of the delivered messages in send order.
func (m *MemoryMailer) Sent() []folio.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]folio.Message(nil), m.sent...)
}

func validate(msg folio.Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}
	for _, to := range msg.To {
		if strings.ContainsAny(to, "\r\n") {
			return fmt.Errorf("invalid recipient %q", to)
		}
	}
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("subject must be a single line")
	}
	return nil
}

// dateHeader formats t for the Date header.
func dateHeader(t time.Time) string {
	return t.Format(time.RFC1123Z)
}

var (
	_ folio.Mailer = (*LogMailer)(nil)
	_ folio.Mailer = (*MemoryMailer)(nil)
	_ folio.Mailer = (*SMTPMailer)(nil)
)
