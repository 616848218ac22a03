package models

import (
	"time"

	"github.com/google/uuid"
)

// SMSMessage is a device SMS record enriched with its risk assessment.
// The natural key is (UserID, Address, DateMs).
type SMSMessage struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Address   string    `json:"address"`
	Body      string    `json:"body"`
	DateMs    int64     `json:"date_ms"`
	Type      string    `json:"type"` // inbox, sent, ...
	CharColor string    `json:"char_color"`
	SavedAt   time.Time `json:"saved_at"`

	RiskAssessment
}

// RawSMS is an SMS as pushed by the device reader
type RawSMS struct {
	Address string `json:"address" validate:"required"`
	Body    string `json:"body"`
	DateMs  int64  `json:"date_ms"`
	Type    string `json:"type"`
}
