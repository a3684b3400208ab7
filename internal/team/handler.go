// AngelaMos | 2026
// handler.go

package team

import (
	"context"
	"encoding/json"
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
	r.Route("/teams", func(r chi.Router) {
		r.Get("/", h.ListTeams)
		r.Get("/{teamID}", h.GetTeam)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Post("/", h.CreateTeam)
			r.Get("/me", h.GetMyTeam)
			r.Put("/{teamID}", h.UpdateTeam)
			r.Delete("/{teamID}", h.DeleteTeam)
			r.Post("/{teamID}/disband", h.DisbandTeam)
			r.Post("/{teamID}/leave", h.LeaveTeam)
			r.Post("/{teamID}/invitations", h.InviteUser)
			r.Post("/{teamID}/transfer/{userID}", h.TransferLeadership)
			r.Delete("/{teamID}/members/{userID}", h.KickMember)
			r.Post("/{teamID}/members/{userID}/promote", h.PromoteMember)
			r.Post("/{teamID}/members/{userID}/demote", h.DemoteMember)
		})
	})

	r.Route("/invitations", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/{mailID}/accept", h.AcceptInvitation)
		r.Post("/{mailID}/decline", h.DeclineInvitation)
	})
}

func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	t, err := h.service.CreateTeam(r.Context(), userID, middleware.IsAdmin(r.Context()), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToTeamResponse(t))
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	params := ListTeamsParams{Search: r.URL.Query().Get("search")}
	params.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	params.PageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	params.Normalize()

	teams, total, err := h.service.ListTeams(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	out := make([]TeamSummaryResponse, 0, len(teams))
	for _, t := range teams {
		out = append(out, ToTeamSummaryResponse(t))
	}

	core.Paginated(w, out, params.Page, params.PageSize, total)
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	t, members, err := h.service.GetTeam(r.Context(), chi.URLParam(r, "teamID"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToTeamDetailResponse(t, members))
}

func (h *Handler) GetMyTeam(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	t, members, err := h.service.GetMyTeam(r.Context(), userID)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	if t == nil {
		core.OK(w, map[string]any{"team": nil})
		return
	}

	core.OK(w, ToTeamDetailResponse(t, members))
}

func (h *Handler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	teamID := chi.URLParam(r, "teamID")

	var req UpdateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	t, err := h.service.UpdateTeam(
		r.Context(), teamID, userID, middleware.IsAdmin(r.Context()), req,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToTeamResponse(t))
}

func (h *Handler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	teamID := chi.URLParam(r, "teamID")

	if err := h.service.DeleteTeam(
		r.Context(), teamID, userID, middleware.IsAdmin(r.Context()),
	); err != nil {
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) DisbandTeam(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	teamID := chi.URLParam(r, "teamID")

	if err := h.service.DisbandTeam(
		r.Context(), teamID, userID, middleware.IsAdmin(r.Context()),
	); err != nil {
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) LeaveTeam(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	teamID := chi.URLParam(r, "teamID")

	if err := h.service.LeaveTeam(r.Context(), teamID, userID); err != nil {
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) InviteUser(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	teamID := chi.URLParam(r, "teamID")

	var req InviteUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	mailID, err := h.service.InviteUser(
		r.Context(), teamID, req.UserID, userID, middleware.IsAdmin(r.Context()),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, InvitationResponse{MailID: mailID})
}

func (h *Handler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	mailID := chi.URLParam(r, "mailID")

	t, err := h.service.AcceptInvitation(r.Context(), mailID, userID)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToTeamResponse(t))
}

func (h *Handler) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	mailID := chi.URLParam(r, "mailID")

	if err := h.service.DeclineInvitation(r.Context(), mailID, userID); err != nil {
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) TransferLeadership(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	teamID := chi.URLParam(r, "teamID")
	targetID := chi.URLParam(r, "userID")

	if err := h.service.TransferLeadership(
		r.Context(), teamID, targetID, actorID, middleware.IsAdmin(r.Context()),
	); err != nil {
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) KickMember(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	teamID := chi.URLParam(r, "teamID")
	targetID := chi.URLParam(r, "userID")

	if err := h.service.KickMember(
		r.Context(), teamID, targetID, actorID, middleware.IsAdmin(r.Context()),
	); err != nil {
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) PromoteMember(w http.ResponseWriter, r *http.Request) {
	h.setRole(w, r, (*Service).PromoteMember)
}

func (h *Handler) DemoteMember(w http.ResponseWriter, r *http.Request) {
	h.setRole(w, r, (*Service).DemoteMember)
}

func (h *Handler) setRole(
	w http.ResponseWriter,
	r *http.Request,
	op func(*Service, context.Context, string, string, string, bool) error,
) {
	actorID := middleware.GetUserID(r.Context())
	teamID := chi.URLParam(r, "teamID")
	targetID := chi.URLParam(r, "userID")

	if err := op(
		h.service, r.Context(), teamID, targetID, actorID, middleware.IsAdmin(r.Context()),
	); err != nil {
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}
