package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coopreg/internal/cooperative/models"
	"coopreg/internal/cooperative/service"
	id "coopreg/pkg/domain"
	dErrors "coopreg/pkg/domain-errors"
	"coopreg/pkg/platform/httputil"
	"coopreg/pkg/requestcontext"
)

// Service is the cooperative lifecycle surface the routes call.
type Service interface {
	Create(ctx context.Context, name string) (*models.Cooperative, error)
	Get(ctx context.Context, cooperativeID id.CooperativeID) (*models.CooperativeView, error)
	ListAll(ctx context.Context) ([]*models.CooperativeView, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.CooperativeView, error)
	Update(ctx context.Context, cooperativeID id.CooperativeID, cmd service.UpdateCommand) (*models.CooperativeView, error)
	Activate(ctx context.Context, cooperativeID id.CooperativeID, cmd service.ActivateCommand) (*models.CooperativeView, error)
	SetStatus(ctx context.Context, cooperativeID id.CooperativeID, status models.Status) (*models.CooperativeView, error)
	Delete(ctx context.Context, cooperativeID id.CooperativeID) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// RegisterAdmin mounts the administrative routes. The caller guards them.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/cooperatives", h.HandleCreate)
	r.Get("/admin/cooperatives", h.HandleList)
	r.Get("/admin/cooperatives/{id}", h.HandleGet)
	r.Patch("/admin/cooperatives/{id}", h.HandleUpdate)
	r.Put("/admin/cooperatives/{id}/status", h.HandleSetStatus)
	r.Delete("/admin/cooperatives/{id}", h.HandleDelete)
}

// RegisterPublic mounts the self-service and directory routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/cooperatives", h.HandleListActive)
	r.Post("/cooperatives/{id}/activate", h.HandleActivate)
}

type listResponse struct {
	Cooperatives []*models.CooperativeView `json:"cooperatives"`
	Total        int                       `json:"total"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateCooperativeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	c, err := h.service.Create(ctx, req.Name)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to create cooperative", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		list []*models.CooperativeView
		err  error
	)
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, perr := models.ParseStatus(raw)
		if perr != nil {
			httputil.WriteError(w, perr)
			return
		}
		list, err = h.service.ListByStatus(ctx, status)
	} else {
		list, err = h.service.ListAll(ctx)
	}
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to list cooperatives", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Cooperatives: list, Total: len(list)})
}

func (h *Handler) HandleListActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.service.ListByStatus(ctx, models.StatusActive)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to list active cooperatives", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Cooperatives: list, Total: len(list)})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cooperativeID, ok := h.parseID(w, r)
	if !ok {
		return
	}
	view, err := h.service.Get(ctx, cooperativeID)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to get cooperative", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cooperativeID, ok := h.parseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateCooperativeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	view, err := h.service.Update(ctx, cooperativeID, req.Command())
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to update cooperative", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cooperativeID, ok := h.parseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ActivateCooperativeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	view, err := h.service.Activate(ctx, cooperativeID, req.Command())
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to activate cooperative", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cooperativeID, ok := h.parseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetStatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	view, err := h.service.SetStatus(ctx, cooperativeID, req.status)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to set cooperative status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cooperativeID, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, cooperativeID); err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to delete cooperative", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (id.CooperativeID, bool) {
	cooperativeID, err := id.ParseCooperativeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, dErrors.Message(err)))
		return cooperativeID, false
	}
	return cooperativeID, true
}
