package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EmailMessage is a mailbox message enriched with its risk assessment.
// The natural key is (UserID, GmailID).
type EmailMessage struct {
	ID          uuid.UUID `json:"id"`
	GmailID     string    `json:"gmail_id"`
	GmailEmail  string    `json:"gmail_email"`
	UserID      string    `json:"user_id"`
	Subject     string    `json:"subject"`
	FromHeader  string    `json:"from"`
	FromEmail   string    `json:"from_email"`
	CharColor   string    `json:"char_color"`
	Snippet     string    `json:"snippet"`
	Body        string    `json:"body"`
	TimestampMs int64     `json:"timestamp"`
	SavedAt     time.Time `json:"saved_at"`

	RiskAssessment
}

// MailboxAccount is a linked mail provider account
type MailboxAccount struct {
	UserID       string    `json:"user_id"`
	GmailEmail   string    `json:"gmail_email"`
	RefreshToken string    `json:"-"`
	ConnectedAt  time.Time `json:"connected_at"`
}

// MessagePart is one node of a provider-native multi-part body tree.
// Data carries base64url-encoded content.
type MessagePart struct {
	MimeType string            `json:"mimeType"`
	Data     string            `json:"data,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
	Parts    []*MessagePart    `json:"parts,omitempty"`
}

// ProviderMessage is a message document as returned by the mail provider
type ProviderMessage struct {
	ID           string       `json:"id"`
	Snippet      string       `json:"snippet"`
	InternalDate int64        `json:"internalDate"`
	Payload      *MessagePart `json:"payload"`
}

// Header returns a top-level header value, matched case-insensitively as mail headers are
func (m *ProviderMessage) Header(name string) string {
	if m.Payload == nil {
		return ""
	}
	if v, ok := m.Payload.Headers[name]; ok {
		return v
	}
	for k, v := range m.Payload.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
