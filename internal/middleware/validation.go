package middleware

import (
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/capitalize-ai/callcenter-agent/internal/errs"
)

// maxMessageLength bounds an inbound user message.
const maxMessageLength = 2000

// ValidateMessageContent validates an inbound user message.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errs.Validation("message cannot be empty")
	}
	if len(content) > maxMessageLength {
		return errs.Validation("message exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errs.Validation("message must be valid UTF-8")
	}
	return nil
}

// ValidateSessionID validates a session id.
func ValidateSessionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errs.Validation("invalid session ID format")
	}
	return nil
}

// ValidateSatisfactionScore validates a feedback score.
func ValidateSatisfactionScore(score float64) error {
	if score < 1 || score > 5 {
		return errs.Validation("satisfaction score must be between 1 and 5")
	}
	return nil
}
