package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "usagecli/internal/errors"
	"usagecli/internal/identity"
)

// IdentityHandler serves identity resolution over the cache.
type IdentityHandler struct {
	cache    *identity.Cache
	validate *validator.Validate
	logger   *slog.Logger
}

// NewIdentityHandler creates a new identity handler.
func NewIdentityHandler(cache *identity.Cache, logger *slog.Logger) *IdentityHandler {
	return &IdentityHandler{
		cache:    cache,
		validate: validator.New(),
		logger:   logger.With(slog.String("handler", "identity")),
	}
}

// Get handles GET /api/identities/{id}
func (h *IdentityHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrValidation("id", "user id is required")))
		return
	}
	render.JSON(w, r, h.cache.Get(r.Context(), userID))
}

// bulkRequest is the body of a bulk resolution call.
type bulkRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1,dive,required"`
}

// Bulk handles POST /api/identities/bulk
func (h *IdentityHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.InvalidRequestWithError(err)))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrValidation("user_ids", err.Error())))
		return
	}
	render.JSON(w, r, h.cache.BulkGet(r.Context(), req.UserIDs))
}

// Search handles GET /api/identities/search?username=...
func (h *IdentityHandler) Search(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrValidation("username", "username is required")))
		return
	}
	rec, found := h.cache.SearchByUsername(r.Context(), username)
	if !found {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.NotFoundError("user")))
		return
	}
	render.JSON(w, r, rec)
}

// Stats handles GET /api/identities/stats
func (h *IdentityHandler) Stats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.cache.CacheStats())
}
