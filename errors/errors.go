package errors

import (
	stderrors "errors"
	"fmt"
)

// Kinds. Every error returned by a chat operation wraps exactly one of them,
// so callers only need errors.Is against a kind to choose a response.
var (
	ErrValidation    = fmt.Errorf("validation failed")
	ErrAuthorization = fmt.Errorf("not authorized")
	ErrNotConnected  = fmt.Errorf("users are not connected")
	ErrBlocked       = fmt.Errorf("users have blocked each other")
	ErrCapacity      = fmt.Errorf("room capacity exceeded")
	ErrNotFound      = fmt.Errorf("not found")
	ErrTransient     = fmt.Errorf("temporary failure, retry later")
)

var (
	ErrEmptyMessage          = fmt.Errorf("%w: message has no content and no attachment", ErrValidation)
	ErrContentTooLong        = fmt.Errorf("%w: message content is too long", ErrValidation)
	ErrEmptyRoomName         = fmt.Errorf("%w: room name is empty", ErrValidation)
	ErrInvalidEmoji          = fmt.Errorf("%w: invalid emoji", ErrValidation)
	ErrMessageDeleted        = fmt.Errorf("%w: message has been deleted", ErrValidation)
	ErrNotAGroup             = fmt.Errorf("%w: operation only allowed on group rooms", ErrValidation)
	ErrInvalidUserID         = fmt.Errorf("%w: invalid user id", ErrValidation)
	ErrSelfAction            = fmt.Errorf("%w: cannot target yourself", ErrValidation)
	ErrInvalidReport         = fmt.Errorf("%w: invalid report", ErrValidation)
	ErrAttachmentTooLarge    = fmt.Errorf("%w: attachment is too large", ErrValidation)
	ErrUnsupportedAttachment = fmt.Errorf("%w: unsupported attachment type", ErrValidation)
	ErrTooManyAttachments    = fmt.Errorf("%w: too many attachments", ErrValidation)
	ErrGroupTooLarge         = fmt.Errorf("%w: group has too many members", ErrValidation)

	ErrNotAMember   = fmt.Errorf("%w: not an active member of the room", ErrAuthorization)
	ErrNotRoomAdmin = fmt.Errorf("%w: room admin required", ErrAuthorization)
	ErrNotSender    = fmt.Errorf("%w: only the sender can do this", ErrAuthorization)
	ErrNotModerator = fmt.Errorf("%w: moderator capability required", ErrAuthorization)
	ErrNotEditable  = fmt.Errorf("%w: message can no longer be edited", ErrAuthorization)

	ErrRoomNotFound       = fmt.Errorf("room %w", ErrNotFound)
	ErrMembershipNotFound = fmt.Errorf("membership %w", ErrNotFound)
	ErrMessageNotFound    = fmt.Errorf("message %w", ErrNotFound)
	ErrReportNotFound     = fmt.Errorf("report %w", ErrNotFound)

	ErrInvalidToken     = fmt.Errorf("invalid or expired token")
	ErrMissingIdentity  = fmt.Errorf("caller identity is missing")
	ErrInvalidCursor    = fmt.Errorf("%w: invalid cursor", ErrValidation)
	ErrInvalidPayload   = fmt.Errorf("invalid payload")
	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrEmptyWords       = fmt.Errorf("no words have been found")
	ErrUnknownBackend   = fmt.Errorf("unknown presence backend")
	ErrSignatureInvalid = fmt.Errorf("signed url is invalid")
	ErrSinkClosed       = fmt.Errorf("sink is closed")
)

// Transient wraps a storage or network failure so it is reported as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

// Is and As re-export the standard helpers so callers importing this package
// under the name "errors" keep them at hand.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }
