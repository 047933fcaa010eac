package email

import (
	"context"
	"errors"
	"strings"
)

// Message is a mail ready for a Sender. HTMLBody is optional and is sent as
// an alternative part next to TextBody.
type Message struct {
	To       []string `json:"to"`
	Subject  string   `json:"subject"`
	TextBody string   `json:"text_body"`
	HTMLBody string   `json:"html_body,omitempty"`
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var ErrNoRecipients = errors.New("email: no recipients")

// Validate trims recipients and rejects messages nobody would receive.
func (m *Message) Validate() error {
	to := m.To[:0]
	for _, addr := range m.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	m.To = to
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	return nil
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }
