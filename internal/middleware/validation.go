package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
)

// maxMessageBytes bounds inbound chat message size.
const maxMessageBytes = 100000

// ValidateMessageContent validates message content.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("message cannot be empty")
	}
	if len(content) > maxMessageBytes {
		return errors.New("message exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("message must be valid UTF-8")
	}
	return nil
}

// ValidateConversationID validates a conversation ID.
func ValidateConversationID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid conversation ID format")
	}
	return nil
}
