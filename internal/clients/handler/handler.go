package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"clientele/internal/clients/models"
	id "clientele/pkg/domain"
	dErrors "clientele/pkg/domain-errors"
	"clientele/pkg/platform/httputil"
	"clientele/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/clients-mocks.go -package=mocks Service

// Service defines the client operations the HTTP boundary needs.
type Service interface {
	Create(ctx context.Context, actor string, req *models.CreateClientRequest) (*models.Client, error)
	List(ctx context.Context, req *models.ListClientsRequest) (*models.ListResult, error)
	Get(ctx context.Context, clientID string) (*models.Client, error)
	Update(ctx context.Context, actor string, req *models.UpdateClientRequest) (*models.Client, error)
	Delete(ctx context.Context, actor string, clientID string) error
}

// Handler wires client endpoints to the client service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts client endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/internal/client", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}

// HandleCreate handles POST /internal/client.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.CreateClientRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	client, err := h.service.Create(ctx, actorFrom(ctx), req)
	if err != nil {
		h.logFailure(ctx, "create client failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, client, nil)
}

// HandleList handles GET /internal/client?status=&page=&page_size=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	req := &models.ListClientsRequest{
		Status:   q.Get("status"),
		Page:     q.Get("page"),
		PageSize: firstNonEmpty(q.Get("page_size"), q.Get("pageSize")),
	}

	result, err := h.service.List(ctx, req)
	if err != nil {
		h.logFailure(ctx, "list clients failed", err)
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(result.Total))
	w.Header().Set("X-Page-Count", strconv.Itoa(result.PageCount()))
	httputil.WriteSuccess(w, http.StatusOK, result, nil)
}

// HandleGet handles GET /internal/client/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	client, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.logFailure(ctx, "get client failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, client, nil)
}

// HandleUpdate handles PUT /internal/client/{id}. The path id wins over any
// id in the body.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.UpdateClientRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	req.ID = chi.URLParam(r, "id")

	client, err := h.service.Update(ctx, actorFrom(ctx), req)
	if err != nil {
		h.logFailure(ctx, "update client failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, client, nil)
}

type deleteResponse struct {
	Success bool `json:"success"`
}

// HandleDelete handles DELETE /internal/client/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Delete(ctx, actorFrom(ctx), chi.URLParam(r, "id")); err != nil {
		h.logFailure(ctx, "delete client failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, deleteResponse{Success: true}, nil)
}

// logFailure logs caller mistakes at warn and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeValidation, dErrors.CodeBadRequest, dErrors.CodeNotFound, dErrors.CodeConflict:
		h.logger.WarnContext(ctx, msg, attrs...)
	default:
		h.logger.ErrorContext(ctx, msg, attrs...)
	}
}

// actorFrom falls back to the system actor for anonymous requests.
func actorFrom(ctx context.Context) string {
	if actor := requestcontext.Actor(ctx); actor != "" {
		return actor
	}
	return id.SystemActor
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
