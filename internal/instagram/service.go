// Package instagram connects Instagram business accounts through the Facebook Graph
// API and publishes image posts to them.
package instagram

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/brizzai/social-connect/internal/config"
	"github.com/brizzai/social-connect/internal/graph"
	"github.com/brizzai/social-connect/internal/logger"
	"github.com/brizzai/social-connect/internal/store"
	"github.com/brizzai/social-connect/internal/temphost"
	"go.uber.org/zap"
)

// GraphAPI is the subset of the Graph API client the service depends on
type GraphAPI interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*graph.Token, error)
	ExchangeLongLived(ctx context.Context, shortToken string) (*graph.Token, error)
	ListPages(ctx context.Context, userToken string) ([]graph.Page, error)
	BusinessAccount(ctx context.Context, pageID, pageToken string) (*graph.AccountRef, error)
	Username(ctx context.Context, igUserID, token string) (string, error)
	CreateContainer(ctx context.Context, igUserID, token, imageURL, caption string) (string, error)
	PublishContainer(ctx context.Context, igUserID, token, creationID string) (string, error)
}

// Uploader makes image bytes publicly fetchable and returns the direct URL
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

// CredentialStore persists one credential per provider and owner
type CredentialStore interface {
	Upsert(ctx context.Context, in store.Credential) (store.Credential, error)
	Get(ctx context.Context, provider store.Provider, owner string) (store.Credential, error)
	Delete(ctx context.Context, provider store.Provider, owner string) error
}

// Service implements the connect, status, disconnect and publish flows
type Service struct {
	cfg         config.InstagramConfig
	frontendURL string
	graph       GraphAPI
	uploader    Uploader
	store       CredentialStore
}

func NewService(cfg *config.Config, g GraphAPI, u Uploader, s CredentialStore) *Service {
	return &Service{
		cfg:         cfg.Instagram,
		frontendURL: cfg.FrontendURL,
		graph:       g,
		uploader:    u,
		store:       s,
	}
}

// AuthURL returns the consent dialog URL. The owner identity is carried verbatim as state.
func (s *Service) AuthURL(owner string) (string, error) {
	if s.cfg.AppID == "" || s.cfg.RedirectURI == "" {
		return "", ErrMissingConfig
	}
	authURL := s.graph.AuthCodeURL(owner)
	logger.Debug("Built Instagram consent URL", zap.String("owner", owner))
	return authURL, nil
}

// CallbackParams are the query parameters of the provider redirect
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// Callback completes the connection and returns the frontend URL to redirect to.
// It never fails: every error, including a panic, becomes an error redirect.
func (s *Service) Callback(ctx context.Context, params CallbackParams) (redirect string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Instagram callback panicked", zap.Any("panic", r))
			redirect = s.errorRedirect(fmt.Sprint(r))
		}
	}()

	if params.Error != "" {
		msg := params.ErrorDescription
		if msg == "" {
			msg = msgAccessDenied
		}
		logger.Warn("Instagram authorization denied",
			zap.String("error", params.Error),
			zap.String("description", params.ErrorDescription),
		)
		return s.errorRedirect(msg)
	}
	if params.Code == "" || params.State == "" {
		logger.Warn("Instagram callback missing parameters",
			zap.Bool("has_code", params.Code != ""),
			zap.Bool("has_state", params.State != ""),
		)
		return s.errorRedirect(msgMissingCallback)
	}

	if err := s.connect(ctx, params.Code, params.State); err != nil {
		logger.Error("Instagram callback failed", zap.String("owner", params.State), zap.Error(err))
		return s.errorRedirect(userMessage(err))
	}
	return s.redirect(url.Values{"instagram": {"success"}})
}

func (s *Service) connect(ctx context.Context, code, owner string) error {
	log := logger.With(zap.String("owner", owner))
	log.Info("Instagram callback received", logger.Secret("code", code))

	short, err := s.graph.ExchangeCode(ctx, code)
	if err != nil {
		return exchangeFailure(err)
	}
	log.Info("Short-lived token obtained", logger.Secret("token", short.AccessToken))

	userToken := short.AccessToken
	long, err := s.graph.ExchangeLongLived(ctx, short.AccessToken)
	if err == nil && long.AccessToken != "" {
		userToken = long.AccessToken
	} else {
		// Degrade to the short-lived token
		log.Warn("Long-lived token exchange failed, using short-lived token", zap.Error(err))
	}
	log.Info("Long-lived token exchange done", zap.Bool("long_lived", userToken != short.AccessToken))

	pages, err := s.graph.ListPages(ctx, userToken)
	if err != nil {
		return err
	}
	log.Info("Pages listed", zap.Int("count", len(pages)))
	if len(pages) == 0 {
		return &connectError{message: msgNoPages}
	}

	page := pages[0]
	log.Info("Using first page", zap.String("page_id", page.ID), zap.String("page_name", page.Name))

	account, err := s.graph.BusinessAccount(ctx, page.ID, page.AccessToken)
	if err != nil {
		return err
	}
	if account == nil {
		return &connectError{message: msgNoBusinessAccount}
	}
	log.Info("Business account resolved", zap.String("ig_user_id", account.ID))

	username, err := s.graph.Username(ctx, account.ID, page.AccessToken)
	if err != nil {
		log.Warn("Username lookup failed", zap.String("ig_user_id", account.ID), zap.Error(err))
		username = ""
	}

	// The page token carries the Instagram permissions
	if _, err := s.store.Upsert(ctx, store.Credential{
		Provider:       store.ProviderInstagram,
		OwnerIdentity:  owner,
		ProviderUserID: account.ID,
		AccessToken:    page.AccessToken,
		DisplayName:    username,
	}); err != nil {
		return err
	}
	log.Info("Instagram connected", zap.String("username", username), zap.String("ig_user_id", account.ID))
	return nil
}

// Status reports whether owner has a connected account
type Status struct {
	Connected bool   `json:"connected"`
	Username  string `json:"username,omitempty"`
}

func (s *Service) Status(ctx context.Context, owner string) (Status, error) {
	cred, err := s.store.Get(ctx, store.ProviderInstagram, owner)
	if errors.Is(err, store.ErrNotFound) {
		return Status{Connected: false}, nil
	}
	if err != nil {
		return Status{}, err
	}
	return Status{Connected: true, Username: cred.DisplayName}, nil
}

// Disconnect removes the stored credential, or returns ErrNotConnected
func (s *Service) Disconnect(ctx context.Context, owner string) error {
	err := s.store.Delete(ctx, store.ProviderInstagram, owner)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotConnected
	}
	if err != nil {
		return err
	}
	logger.Info("Instagram disconnected", zap.String("owner", owner))
	return nil
}

// Image is an attached image file
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Post is a publish request
type Post struct {
	Caption string
	Image   *Image
}

// PostResult is the outcome of a successful publish
type PostResult struct {
	Message string `json:"message"`
	PostID  string `json:"post_id"`
}

// Publish hosts the image publicly, stages a media container and publishes it.
// Preconditions are checked before any outbound call, in order: caption, connection, image.
func (s *Service) Publish(ctx context.Context, owner string, post Post) (*PostResult, error) {
	if strings.TrimSpace(post.Caption) == "" {
		return nil, ErrCaptionRequired
	}

	cred, err := s.store.Get(ctx, store.ProviderInstagram, owner)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotConnected
	}
	if err != nil {
		return nil, err
	}

	if post.Image == nil || post.Image.Filename == "" {
		return nil, ErrImageRequired
	}

	log := logger.With(zap.String("owner", owner), zap.String("ig_user_id", cred.ProviderUserID))

	imageURL, err := s.uploader.Upload(ctx, post.Image.Filename, post.Image.ContentType, post.Image.Data)
	if err != nil {
		return nil, uploadFailure(err)
	}
	log.Info("Image hosted", zap.String("image_url", imageURL), zap.Int("bytes", len(post.Image.Data)))

	creationID, err := s.graph.CreateContainer(ctx, cred.ProviderUserID, cred.AccessToken, imageURL, post.Caption)
	if err != nil {
		return nil, graphFailure(StageContainer, msgContainerPrefix, msgContainerFallback, err)
	}
	log.Info("Media container created", zap.String("creation_id", creationID))

	mediaID, err := s.graph.PublishContainer(ctx, cred.ProviderUserID, cred.AccessToken, creationID)
	if err != nil {
		return nil, graphFailure(StagePublish, msgPublishPrefix, msgPublishFallback, err)
	}
	log.Info("Media published", zap.String("post_id", mediaID))

	return &PostResult{Message: MsgPosted, PostID: mediaID}, nil
}

func (s *Service) errorRedirect(message string) string {
	return s.redirect(url.Values{"instagram": {"error"}, "message": {message}})
}

// redirect appends params to the frontend URL, instagram first, spaces as %20
func (s *Service) redirect(params url.Values) string {
	var b strings.Builder
	b.WriteString(s.frontendURL)
	sep := "?"
	if strings.Contains(s.frontendURL, "?") {
		sep = "&"
	}
	for _, key := range []string{"instagram", "message"} {
		v, ok := params[key]
		if !ok {
			continue
		}
		b.WriteString(sep)
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(escape(v[0]))
		sep = "&"
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// userMessage extracts the text shown to the user from a callback failure
func userMessage(err error) string {
	var ce *connectError
	if errors.As(err, &ce) {
		return ce.message
	}
	var apiErr *graph.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

func exchangeFailure(err error) error {
	var apiErr *graph.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = msgTokenExchangeFailed
		}
		return &connectError{message: msg, err: err}
	}
	return err
}

func uploadFailure(err error) error {
	var uploadErr *temphost.UploadError
	if errors.As(err, &uploadErr) && uploadErr.Rejected {
		return &PublishError{Stage: StageUpload, Message: msgUploadRejected, Err: err}
	}
	return &PublishError{Stage: StageUpload, Message: msgUploadFailurePrefix + err.Error(), Err: err}
}

// graphFailure turns a provider answer without an id into a PublishError. Transport
// failures are returned as is.
func graphFailure(stage Stage, prefix, fallback string, err error) error {
	var apiErr *graph.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return &PublishError{Stage: stage, Message: prefix + apiErr.Message, Err: err}
	case errors.As(err, &apiErr), errors.Is(err, graph.ErrEmptyResult):
		return &PublishError{Stage: stage, Message: prefix + fallback, Err: err}
	default:
		return fmt.Errorf("instagram %s: %w", stage, err)
	}
}
