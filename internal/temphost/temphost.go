// Package temphost uploads images to a public temporary file host so the Graph API
// can fetch them by URL.
package temphost

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/brizzai/social-connect/internal/logger"
	"github.com/brizzai/social-connect/internal/requester"
	"go.uber.org/zap"
)

const (
	statusSuccess      = "success"
	defaultContentType = "image/jpeg"
	directSegment      = "/dl/"
)

// UploadError reports any failure to obtain a public URL for an upload
type UploadError struct {
	Reason string
	// Rejected is set when the host answered but did not report success
	Rejected bool
	Err      error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("temphost: %s: %v", e.Reason, e.Err)
	}
	return "temphost: " + e.Reason
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

type uploadResponse struct {
	Status string `json:"status"`
	Data   struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Client uploads to a tmpfiles.org compatible endpoint
type Client struct {
	uploadURL string
	requester *requester.HTTPRequester
}

// NewClient creates an upload client for uploadURL
func NewClient(uploadURL string, r *requester.HTTPRequester) *Client {
	if r == nil {
		r = requester.NewHTTPRequester(0)
	}
	return &Client{uploadURL: uploadURL, requester: r}
}

// Upload stores data and returns its direct download URL.
func (c *Client) Upload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if contentType == "" {
		contentType = defaultContentType
	}

	resp, err := c.requester.Do(ctx, &requester.Request{
		Method: http.MethodPost,
		URL:    c.uploadURL,
		File: &requester.FilePart{
			FieldName:   "file",
			FileName:    filename,
			ContentType: contentType,
			Data:        data,
		},
	})
	if err != nil {
		return "", &UploadError{Reason: "upload request failed", Err: err}
	}

	var out uploadResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return "", &UploadError{Reason: "unexpected upload response", Err: err}
	}
	logger.Debug("temp host upload response",
		zap.Int("status_code", resp.StatusCode),
		zap.String("status", out.Status),
		zap.String("url", out.Data.URL),
	)

	if out.Status != statusSuccess {
		return "", &UploadError{Reason: fmt.Sprintf("upload status %q", out.Status), Rejected: true}
	}
	if out.Data.URL == "" {
		return "", &UploadError{Reason: "upload response missing url"}
	}

	direct, err := DirectURL(out.Data.URL)
	if err != nil {
		return "", &UploadError{Reason: "unexpected upload url", Err: err}
	}
	return direct, nil
}

// DirectURL rewrites a share URL such as https://tmpfiles.org/12345/image.jpg into its
// direct download form https://tmpfiles.org/dl/12345/image.jpg.
func DirectURL(shareURL string) (string, error) {
	schemeEnd := strings.Index(shareURL, "://")
	if schemeEnd < 0 {
		return "", fmt.Errorf("url %q has no scheme", shareURL)
	}
	rest := shareURL[schemeEnd+3:]
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return "", fmt.Errorf("url %q has no path", shareURL)
	}
	host, path := rest[:slash], rest[slash:]
	if strings.HasPrefix(path, directSegment) {
		return shareURL, nil
	}
	return shareURL[:schemeEnd+3] + host + directSegment + strings.TrimPrefix(path, "/"), nil
}
