package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coopreg/internal/registration/models"
	"coopreg/internal/registration/service"
	id "coopreg/pkg/domain"
	dErrors "coopreg/pkg/domain-errors"
	"coopreg/pkg/platform/httputil"
	"coopreg/pkg/requestcontext"
)

type Service interface {
	Submit(ctx context.Context, cmd service.SubmitCommand) (*models.RegistrationView, error)
	Get(ctx context.Context, registrationID id.RegistrationID) (*models.RegistrationView, error)
	ListAll(ctx context.Context) ([]*models.RegistrationView, error)
	SetStatus(ctx context.Context, registrationID id.RegistrationID, approved bool) (*models.StatusChange, error)
	Delete(ctx context.Context, registrationID id.RegistrationID) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/registrations", h.HandleList)
	r.Get("/admin/registrations/{id}", h.HandleGet)
	r.Put("/admin/registrations/{id}/status", h.HandleSetStatus)
	r.Delete("/admin/registrations/{id}", h.HandleDelete)
}

// RegisterPublic mounts the applicant-facing submission route.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/registrations", h.HandleSubmit)
}

type listResponse struct {
	Registrations []*models.RegistrationView `json:"registrations"`
	Total         int                        `json:"total"`
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SubmitRegistrationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	view, err := h.service.Submit(ctx, req.Command())
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to submit registration", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, view)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.service.ListAll(ctx)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to list registrations", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Registrations: list, Total: len(list)})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	registrationID, ok := h.parseID(w, r)
	if !ok {
		return
	}
	view, err := h.service.Get(ctx, registrationID)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to get registration", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	registrationID, ok := h.parseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetStatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	change, err := h.service.SetStatus(ctx, registrationID, *req.Approved)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to set registration status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, change)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	registrationID, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, registrationID); err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to delete registration", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (id.RegistrationID, bool) {
	registrationID, err := id.ParseRegistrationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, dErrors.Message(err)))
		return registrationID, false
	}
	return registrationID, true
}
