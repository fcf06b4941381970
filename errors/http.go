package errors

import "net/http"

// HTTPStatus is the HTTP counterpart of MapToGRPCError, used by the
// websocket handshake before the connection is upgraded.
func HTTPStatus(err error) int {
	switch {
	case Is(err, ErrValidation):
		return http.StatusBadRequest
	case Is(err, ErrInvalidToken), Is(err, ErrMissingIdentity):
		return http.StatusUnauthorized
	case Is(err, ErrAuthorization), Is(err, ErrBlocked):
		return http.StatusForbidden
	case Is(err, ErrNotFound):
		return http.StatusNotFound
	case Is(err, ErrNotConnected):
		return http.StatusPreconditionFailed
	case Is(err, ErrCapacity):
		return http.StatusTooManyRequests
	case Is(err, ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
