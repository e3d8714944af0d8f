// Package mail delivers rendered status digests.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	gomail "github.com/wneessen/go-mail"

	"github.com/fillip1984/inveniam/config"
)

// ErrInvalidMessage is returned for messages missing a recipient or subject.
var ErrInvalidMessage = errors.New("invalid mail message")

const (
	defaultTimeout = 30 * time.Second
	// maxRetained bounds the copies a LogMailer keeps.
	maxRetained = 100
)

// Message is a single HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

func (m Message) validate() error {
	if err := gomail.NewMsg().To(m.To); err != nil {
		return fmt.Errorf("%w: recipient %q: %v", ErrInvalidMessage, m.To, err)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	}
	return nil
}

// Mailer sends messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP mailer when a host is configured, otherwise a mailer
// that only logs.
func New(cfg config.Mail, logger types.Logger) Mailer {
	if cfg.Host == "" {
		return NewLogMailer(logger)
	}
	return NewSMTPMailer(cfg)
}

// SMTPMailer sends mail through an SMTP relay, upgrading to TLS when offered.
type SMTPMailer struct {
	host    string
	from    string
	timeout time.Duration
	options []gomail.Option
	send    func(ctx context.Context, msg *gomail.Msg) error
}

// NewSMTPMailer creates a mailer for the configured relay.
func NewSMTPMailer(cfg config.Mail) *SMTPMailer {
	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	m := &SMTPMailer{
		host:    cfg.Host,
		from:    cfg.From,
		timeout: timeout,
		options: []gomail.Option{
			gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
			gomail.WithPort(cfg.Port),
			gomail.WithTimeout(timeout),
		},
	}
	if cfg.Username != "" {
		m.options = append(m.options,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	m.send = m.dialAndSend
	return m
}

// Send delivers msg. It returns when the relay answers, the mailer timeout
// elapses or ctx is done, whichever comes first.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	out, err := m.compose(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- m.send(ctx, out)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to send mail to %s: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to send mail to %s: %w", msg.To, ctx.Err())
	}
}

// dialAndSend uses a fresh client per message; a client holds one connection.
func (m *SMTPMailer) dialAndSend(ctx context.Context, msg *gomail.Msg) error {
	client, err := gomail.NewClient(m.host, m.options...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

func (m *SMTPMailer) compose(msg Message) (*gomail.Msg, error) {
	out := gomail.NewMsg()
	if err := out.From(m.from); err != nil {
		return nil, fmt.Errorf("%w: sender %q: %v", ErrInvalidMessage, m.from, err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("%w: recipient %q: %v", ErrInvalidMessage, msg.To, err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	return out, nil
}

// LogMailer logs messages instead of sending them. It is used when no SMTP
// relay is configured and by tests, and keeps the most recent copies.
type LogMailer struct {
	logger types.Logger

	mu   sync.Mutex
	sent []Message
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger types.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs msg and keeps a copy.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	m.mu.Lock()
	if len(m.sent) == maxRetained {
		copy(m.sent, m.sent[1:])
		m.sent = m.sent[:maxRetained-1]
	}
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	m.logger.Info("Mail not sent, no SMTP host configured", "to", msg.To, "subject", msg.Subject)
	return nil
}

// Sent returns the retained messages, oldest first.
func (m *LogMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
