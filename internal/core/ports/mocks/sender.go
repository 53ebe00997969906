package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/lueurxax/chat-digest-bot/internal/core/ports"
)

// SentMessage is one recorded SendText call.
type SentMessage struct {
	ChatID int64
	Text   string
	Mode   ports.FormatMode
}

// Sender records outgoing messages in order.
type Sender struct {
	mu   sync.Mutex
	sent []SentMessage

	// FailOn makes SendText fail for texts containing this substring.
	FailOn string
}

// NewSender creates a recording sender.
func NewSender() *Sender {
	return &Sender{}
}

// SendText records the message.
func (s *Sender) SendText(_ context.Context, chatID int64, text string, mode ports.FormatMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailOn != "" && strings.Contains(text, s.FailOn) {
		return ErrSendFailed
	}

	s.sent = append(s.sent, SentMessage{ChatID: chatID, Text: text, Mode: mode})

	return nil
}

// Sent returns a copy of all recorded messages.
func (s *Sender) Sent() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SentMessage(nil), s.sent...)
}

// SentWithMode returns recorded messages sent with the given mode.
func (s *Sender) SentWithMode(mode ports.FormatMode) []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []SentMessage

	for _, m := range s.sent {
		if m.Mode == mode {
			out = append(out, m)
		}
	}

	return out
}
