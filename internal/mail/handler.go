// AngelaMos | 2026
// handler.go

package mail

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/cosmicteams/cosmic-backend/internal/core"
	"github.com/cosmicteams/cosmic-backend/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/mail", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/", h.Send)
		r.Get("/inbox", h.Inbox)
		r.Get("/sent", h.Sent)
		r.Get("/unread-count", h.UnreadCount)
		r.Get("/{id}", h.Get)
		r.Delete("/{id}", h.Delete)
	})
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req SendMailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	m, err := h.service.Send(r.Context(), userID, req.RecipientID, req.Subject, req.Body)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToMailResponse(m))
}

func (h *Handler) Inbox(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	f := InboxFilters{Type: r.URL.Query().Get("type")}

	if v := r.URL.Query().Get("unread"); v != "" {
		unread, err := strconv.ParseBool(v)
		if err != nil {
			core.BadRequest(w, "invalid unread filter")
			return
		}
		f.Unread = &unread
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			core.BadRequest(w, "invalid limit")
			return
		}
		f.Limit = limit
	}

	msgs, err := h.service.Inbox(r.Context(), userID, f)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToMailListResponse(msgs))
}

func (h *Handler) Sent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			core.BadRequest(w, "invalid limit")
			return
		}
		limit = n
	}

	msgs, err := h.service.Sent(r.Context(), userID, limit)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToMailListResponse(msgs))
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	count, err := h.service.CountUnread(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, UnreadCountResponse{Count: count})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	m, err := h.service.Get(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "message")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToMailResponse(m))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id, userID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "message")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}
