package service

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrConfiguration       = errors.New("instagram credentials are not configured")
	ErrImageNotAccessible  = errors.New("image is not accessible")
	ErrInvalidToken        = errors.New("instagram access token is invalid")
	ErrPlatformRejected    = errors.New("instagram rejected the request")
	ErrContainerProcessing = errors.New("instagram could not process the media container")

	ErrPostNotFound   = errors.New("scheduled post not found")
	ErrPostNotPending = errors.New("scheduled post is not pending")
	ErrInvalidInput   = errors.New("invalid input")

	// ErrNotRecorded means the publish outcome could not be written back to
	// the queue row. The post may already be live on Instagram.
	ErrNotRecorded = errors.New("publish result not recorded")
)

const invalidTokenGuidance = "Instagram access token is invalid or expired. Update the stored Instagram credentials and try again."

// PublishError is a failure of one publish attempt. Kind is one of the
// sentinel errors above, so callers can match it with errors.Is.
type PublishError struct {
	Kind   error
	Status int
	Detail string
}

func (e *PublishError) Error() string {
	if e.Kind == ErrInvalidToken {
		return invalidTokenGuidance
	}
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *PublishError) Unwrap() error { return e.Kind }

func newPublishError(kind error, status int, format string, args ...any) *PublishError {
	return &PublishError{Kind: kind, Status: status, Detail: fmt.Sprintf(format, args...)}
}

// ErrorCode returns a stable machine readable code for err.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return "configuration_error"
	case errors.Is(err, ErrImageNotAccessible):
		return "image_not_accessible"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrPlatformRejected):
		return "platform_rejected"
	case errors.Is(err, ErrContainerProcessing):
		return "container_processing_error"
	case errors.Is(err, ErrPostNotFound):
		return "not_found"
	case errors.Is(err, ErrPostNotPending):
		return "not_pending"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotRecorded):
		return "not_recorded"
	default:
		return "internal_error"
	}
}

// HTTPStatus maps a publish failure to the status returned by the API.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrImageNotAccessible), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrPostNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPostNotPending):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrPlatformRejected), errors.Is(err, ErrContainerProcessing):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
