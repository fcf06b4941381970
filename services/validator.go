package services

import (
	"fmt"
	"member-chat/domain"
	"member-chat/errors"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// MaxEmojiBytes bounds a reaction key.
const MaxEmojiBytes = 16

func ValidateCreateGroup(cmd domain.CreateGroupCommand) error {
	if strings.TrimSpace(cmd.Name) == "" {
		return errors.ErrEmptyRoomName
	}
	return check(cmd)
}

func ValidateSend(cmd domain.SendMessageCommand) error {
	if domain.IsBlank(cmd.Content) && len(cmd.Attachments) == 0 {
		return errors.ErrEmptyMessage
	}
	return check(cmd)
}

func ValidateReport(cmd domain.ReportCommand) error {
	if cmd.ReportedMessageID == nil && cmd.ReportedUserID == nil {
		return fmt.Errorf("%w: a message or a user must be reported", errors.ErrInvalidReport)
	}
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidReport, err)
	}
	return nil
}

// ValidateUserIDs rejects blank ids and ids holding the storage key separator.
func ValidateUserIDs(ids ...string) error {
	for _, id := range ids {
		if !domain.ValidUserID(id) {
			return fmt.Errorf("%w: %q", errors.ErrInvalidUserID, id)
		}
	}
	return nil
}

func ValidateUpload(cmd domain.UploadCommand) error {
	return check(cmd)
}

// ValidateEmoji accepts any non-empty key of at most MaxEmojiBytes bytes
// without whitespace.
func ValidateEmoji(emoji string) error {
	if emoji == "" || len(emoji) > MaxEmojiBytes || strings.IndexFunc(emoji, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q", errors.ErrInvalidEmoji, emoji)
	}
	return nil
}

func check(cmd any) error {
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	return nil
}
