package blobstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	dErrors "coopreg/pkg/domain-errors"
	"coopreg/pkg/platform/httputil"
	request "coopreg/pkg/platform/middleware/request"
	"coopreg/pkg/platform/sentinel"
	"coopreg/pkg/platform/validation"
)

// Store is the blob collaborator surface the HTTP routes need.
type Store interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
	Resolve(ctx context.Context, ref string) (string, error)
	Open(ctx context.Context, ref string) (*Blob, error)
}

// Handler serves evidence uploads and downloads.
type Handler struct {
	store    Store
	logger   *slog.Logger
	maxBytes int64
}

// UploadResponse is returned by POST /uploads.
type UploadResponse struct {
	Reference   string `json:"reference"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

func NewHandler(store Store, logger *slog.Logger, maxBytes int64) *Handler {
	return &Handler{store: store, logger: logger, maxBytes: maxBytes}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/uploads", h.handleUpload)
	r.Get("/blobs/{reference}", h.handleDownload)
}

// handleUpload stores the raw request body. The content type is sniffed
// from the bytes rather than trusted from the header.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, dErrors.Newf(dErrors.CodeValidation, "file exceeds %d bytes", h.maxBytes))
			return
		}
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid upload body"))
		return
	}
	if len(data) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "file is empty"))
		return
	}

	contentType := http.DetectContentType(data)
	if _, ok := AllowedContentTypes[contentType]; !ok {
		h.logger.WarnContext(ctx, "rejected upload content type",
			"content_type", contentType,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeValidation, "file type %s is not allowed", contentType))
		return
	}

	ref, err := h.store.Upload(ctx, data, contentType)
	if err != nil {
		h.logger.ErrorContext(ctx, "blob upload failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeDependency, "failed to store file"))
		return
	}
	url, err := h.store.Resolve(ctx, ref)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeDependency, "failed to resolve stored file"))
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, UploadResponse{
		Reference:   ref,
		URL:         url,
		ContentType: contentType,
		Size:        len(data),
	})
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ref, err := validation.Reference("reference", chi.URLParam(r, "reference"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	blob, err := h.store.Open(ctx, ref)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "file not found"))
			return
		}
		h.logger.ErrorContext(ctx, "blob download failed",
			"error", err,
			"request_id", request.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeDependency, "failed to load file"))
		return
	}

	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Data)
}
