package instagram

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMissingConfig   = errors.New("instagram: app id and redirect uri must be configured")
	ErrNotConnected    = errors.New("instagram: no account connected")
	ErrImageRequired   = errors.New("instagram: image required")
	ErrCaptionRequired = errors.New("instagram: caption required")
)

// User facing messages
const (
	msgTokenExchangeFailed = "Token exchange failed"
	msgNoPages             = "No Facebook Pages found. Your Instagram must be linked to a Facebook Page."
	msgNoBusinessAccount   = "No Instagram Business account linked to your Facebook Page. Please convert your Instagram to a Business or Creator account."
	msgAccessDenied        = "Authorization was cancelled"
	msgMissingCallback     = "Missing code or state in callback"

	MsgNotConnected        = "No Instagram account connected."
	MsgNotConnectedPost    = "No Instagram account connected. Please connect first."
	MsgDisconnected        = "Instagram account disconnected successfully."
	MsgImageRequired       = "Instagram requires an image for every post. Please attach an image."
	MsgCaptionRequired     = "Field required: text"
	MsgPosted              = "Posted to Instagram successfully!"
	MsgBodyTooLarge        = "Request body too large"
	msgUploadRejected      = "Failed to upload image to temporary hosting."
	msgContainerFallback   = "Failed to create media container"
	msgPublishFallback     = "Failed to publish post"
	msgContainerPrefix     = "Instagram API error: "
	msgPublishPrefix       = "Instagram publish error: "
	msgUploadFailurePrefix = "Failed to upload image: "
)

// Stage names the publish step that failed
type Stage string

const (
	StageUpload    Stage = "upload"
	StageContainer Stage = "container"
	StagePublish   Stage = "publish"
)

// PublishError is a failed publish step. Message is safe to show to the user.
type PublishError struct {
	Stage   Stage
	Message string
	Err     error
}

func (e *PublishError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("instagram: %s failed: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("instagram: %s failed: %s", e.Stage, e.Message)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// HTTPStatus is the response status for the failed stage
func (e *PublishError) HTTPStatus() int {
	if e.Stage == StageUpload {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// connectError aborts the callback with a message for the frontend
type connectError struct {
	message string
	err     error
}

func (e *connectError) Error() string {
	if e.err != nil {
		return e.message + ": " + e.err.Error()
	}
	return e.message
}

func (e *connectError) Unwrap() error {
	return e.err
}
