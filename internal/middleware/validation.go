package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hexchat/chat-sync/internal/model"
)

// ValidateThreadID validates a locally generated thread id. Ids are opaque
// caller-chosen strings (typically millisecond timestamps), so only shape is
// checked; uniqueness stays the caller's responsibility.
func ValidateThreadID(id string) error {
	if len(id) == 0 {
		return errors.New("thread id cannot be empty")
	}
	if len(id) > 64 {
		return errors.New("thread id exceeds maximum length")
	}
	for _, r := range id {
		if r == '/' || r == '.' || r == ' ' {
			return errors.New("thread id contains invalid characters")
		}
	}
	return nil
}

// ValidateShareUUID validates a public share identifier.
func ValidateShareUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid share identifier format")
	}
	return nil
}

// ValidateTitle validates a thread title.
func ValidateTitle(title string) error {
	if len(title) == 0 {
		return errors.New("title cannot be empty")
	}
	if len(title) > 256 {
		return errors.New("title exceeds maximum length")
	}
	if !utf8.ValidString(title) {
		return errors.New("title must be valid UTF-8")
	}
	return nil
}

// ValidateMessages validates a message sequence before it touches the store.
func ValidateMessages(messages []model.Message) error {
	if messages == nil {
		return errors.New("messages array is required")
	}
	for _, m := range messages {
		if !m.Role.Valid() {
			return errors.New("message role must be user or bot")
		}
		if !utf8.ValidString(m.Text) {
			return errors.New("message text must be valid UTF-8")
		}
		if len(m.Text) > 100000 {
			return errors.New("message text exceeds maximum length")
		}
	}
	return nil
}
