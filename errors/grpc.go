package errors

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MapToGRPCError converts a chat error into a gRPC status.
// Policy and validation failures keep their user-facing text, anything
// unclassified is hidden behind a generic Internal error.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(code(err), UserMessage(err))
}

func code(err error) codes.Code {
	switch {
	case Is(err, ErrValidation):
		return codes.InvalidArgument
	case Is(err, ErrAuthorization):
		return codes.PermissionDenied
	case Is(err, ErrNotConnected), Is(err, ErrBlocked):
		return codes.FailedPrecondition
	case Is(err, ErrCapacity):
		return codes.ResourceExhausted
	case Is(err, ErrNotFound):
		return codes.NotFound
	case Is(err, ErrTransient):
		return codes.Unavailable
	case Is(err, ErrInvalidToken), Is(err, ErrMissingIdentity):
		return codes.Unauthenticated
	default:
		return codes.Internal
	}
}

// UserMessage renders err in a form that can be shown to a member.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case Is(err, ErrEmptyMessage):
		return "Write something or attach a file before sending."
	case Is(err, ErrAttachmentTooLarge):
		return "This file is too large. Attachments are limited to 6 MB."
	case Is(err, ErrUnsupportedAttachment):
		return "This file type is not supported."
	case Is(err, ErrTooManyAttachments):
		return "You can attach up to 5 files per message."
	case Is(err, ErrValidation):
		return err.Error()
	case Is(err, ErrNotAMember):
		return "You are no longer a member of this conversation."
	case Is(err, ErrAuthorization):
		return "You are not allowed to do that."
	case Is(err, ErrNotConnected):
		return "You can only message people you are connected with."
	case Is(err, ErrBlocked):
		return "You can't message this person."
	case Is(err, ErrCapacity):
		return "Groups are limited to 100 members."
	case Is(err, ErrNotFound):
		return "This conversation or message no longer exists."
	case Is(err, ErrTransient):
		return "Something went wrong, please try again."
	case Is(err, ErrInvalidToken), Is(err, ErrMissingIdentity):
		return "Please sign in again."
	default:
		return "Something went wrong."
	}
}
