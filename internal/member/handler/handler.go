package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coopreg/internal/member/models"
	"coopreg/internal/member/service"
	id "coopreg/pkg/domain"
	dErrors "coopreg/pkg/domain-errors"
	"coopreg/pkg/platform/httputil"
	"coopreg/pkg/requestcontext"
)

type Service interface {
	Create(ctx context.Context, cmd service.CreateCommand) (*models.Member, error)
	Get(ctx context.Context, memberID id.MemberID) (*models.Member, error)
	ListAll(ctx context.Context) ([]*models.Member, error)
	Update(ctx context.Context, memberID id.MemberID, cmd service.UpdateCommand) (*models.Member, error)
	Delete(ctx context.Context, memberID id.MemberID) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// RegisterAdmin mounts the member directory routes. All of them are
// administrative.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/members", h.HandleCreate)
	r.Get("/admin/members", h.HandleList)
	r.Get("/admin/members/{id}", h.HandleGet)
	r.Patch("/admin/members/{id}", h.HandleUpdate)
	r.Delete("/admin/members/{id}", h.HandleDelete)
}

type listResponse struct {
	Members []*models.Member `json:"members"`
	Total   int              `json:"total"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateMemberRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	m, err := h.service.Create(ctx, req.Command())
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to create member", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.service.ListAll(ctx)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to list members", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Members: list, Total: len(list)})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, ok := h.parseID(w, r)
	if !ok {
		return
	}
	m, err := h.service.Get(ctx, memberID)
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to get member", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, ok := h.parseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateMemberRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	m, err := h.service.Update(ctx, memberID, req.Command())
	if err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to update member", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, memberID); err != nil {
		httputil.WriteServiceError(ctx, w, h.logger, "failed to delete member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (id.MemberID, bool) {
	memberID, err := id.ParseMemberID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, dErrors.Message(err)))
		return memberID, false
	}
	return memberID, true
}
