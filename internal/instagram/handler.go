package instagram

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/brizzai/social-connect/internal/auth"
	"github.com/brizzai/social-connect/internal/config"
	"github.com/brizzai/social-connect/internal/logger"
	"github.com/brizzai/social-connect/internal/utils"
	"go.uber.org/zap"
)

const (
	fieldCaption = "text"
	fieldImage   = "image"
)

// Handler exposes the service over REST
type Handler struct {
	svc          *Service
	maxMemory    int64
	maxBodyBytes int64
}

func NewHandler(svc *Service, cfg *config.Config) *Handler {
	maxMemory := cfg.Upload.MaxMemory
	if maxMemory <= 0 {
		maxMemory = 32 << 20
	}
	maxBodyBytes := cfg.Upload.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = 16 << 20
	}
	return &Handler{svc: svc, maxMemory: maxMemory, maxBodyBytes: maxBodyBytes}
}

// RegisterRoutes mounts the /instagram routes. Every route except the provider
// callback is wrapped in authenticate.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, authenticate func(http.Handler) http.Handler) {
	mux.Handle("GET /instagram/login", authenticate(http.HandlerFunc(h.HandleLogin)))
	mux.HandleFunc("GET /instagram/callback", h.HandleCallback)
	mux.Handle("GET /instagram/status", authenticate(http.HandlerFunc(h.HandleStatus)))
	mux.Handle("DELETE /instagram/disconnect", authenticate(http.HandlerFunc(h.HandleDisconnect)))
	mux.Handle("POST /instagram/post", authenticate(http.HandlerFunc(h.HandlePost)))
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		utils.WriteDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	authURL, err := h.svc.AuthURL(owner)
	if err != nil {
		logger.Error("Cannot build Instagram consent URL", zap.Error(err))
		utils.WriteDetail(w, http.StatusInternalServerError, "Instagram integration is not configured")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"auth_url": authURL})
}

func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target := h.svc.Callback(r.Context(), CallbackParams{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	})
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		utils.WriteDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	status, err := h.svc.Status(r.Context(), owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		utils.WriteDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := h.svc.Disconnect(r.Context(), owner); err != nil {
		if errors.Is(err, ErrNotConnected) {
			utils.WriteDetail(w, http.StatusNotFound, MsgNotConnected)
			return
		}
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": MsgDisconnected})
}

func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		utils.WriteDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			writeFormError(w, err)
			return
		}
		if err := r.ParseForm(); err != nil {
			writeFormError(w, err)
			return
		}
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	captions, ok := r.PostForm[fieldCaption]
	if !ok || strings.TrimSpace(captions[0]) == "" {
		utils.WriteDetail(w, http.StatusUnprocessableEntity, MsgCaptionRequired)
		return
	}

	image, err := readImage(r)
	if err != nil {
		logger.Warn("Cannot read attached image", zap.Error(err))
		utils.WriteDetail(w, http.StatusBadRequest, "Invalid image attachment")
		return
	}

	result, err := h.svc.Publish(r.Context(), owner, Post{Caption: captions[0], Image: image})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

func writeFormError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		logger.Warn("Rejected oversized post body", zap.Int64("limit", tooLarge.Limit))
		utils.WriteDetail(w, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
		return
	}
	utils.WriteDetail(w, http.StatusBadRequest, "Invalid form body")
}

// readImage returns the attached image, or nil when none was sent
func readImage(r *http.Request) (*Image, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile(fieldImage)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &Image{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// ErrorDetail maps a service error to a response status and a user facing message.
// ok is false for unexpected errors.
func ErrorDetail(err error) (status int, detail string, ok bool) {
	var publishErr *PublishError
	switch {
	case errors.Is(err, ErrCaptionRequired):
		return http.StatusUnprocessableEntity, MsgCaptionRequired, true
	case errors.Is(err, ErrNotConnected):
		return http.StatusNotFound, MsgNotConnectedPost, true
	case errors.Is(err, ErrImageRequired):
		return http.StatusBadRequest, MsgImageRequired, true
	case errors.As(err, &publishErr):
		return publishErr.HTTPStatus(), publishErr.Message, true
	default:
		return http.StatusInternalServerError, "Internal Server Error", false
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	status, detail, ok := ErrorDetail(err)
	if ok {
		logger.Warn("Instagram request rejected", zap.Int("status", status), zap.Error(err))
	} else {
		logger.Error("Instagram request failed", zap.Error(err))
	}
	utils.WriteDetail(w, status, detail)
}
