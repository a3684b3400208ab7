// AngelaMos | 2026
// handler.go

package tier

import (
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
	r.Route("/tiers", func(r chi.Router) {
		r.Get("/", h.ListTiers)
		r.Get("/skills", h.ListSkillTypes)
		r.Get("/distribution", h.TierCounts)
		r.Get("/progression/{tierName}", h.ProgressionPath)
		r.Get("/leaderboards", h.AllLeaderboards)
		r.Get("/leaderboards/{skillCode}", h.SkillLeaderboard)
		r.Get("/users/{userID}/skills", h.UserSkills)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Get("/me/skills", h.MySkills)
			r.Put("/me/skills", h.BulkSetMySkills)
			r.Put("/me/skills/{skillCode}", h.SetMySkill)
			r.Get("/me/rank/{skillCode}", h.MyRank)
			r.Get("/me/recommendations", h.MyRecommendations)
		})
	})
}

func (h *Handler) ListTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.service.ListTiers(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	out := make([]TierResponse, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, ToTierResponse(t))
	}

	core.OK(w, out)
}

func (h *Handler) ListSkillTypes(w http.ResponseWriter, r *http.Request) {
	skills, err := h.service.ListSkillTypes(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	out := make([]SkillTypeResponse, 0, len(skills))
	for _, s := range skills {
		out = append(out, ToSkillTypeResponse(s))
	}

	core.OK(w, out)
}

func (h *Handler) TierCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.GetTierCounts(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, counts)
}

func (h *Handler) ProgressionPath(w http.ResponseWriter, r *http.Request) {
	path, err := h.service.GetProgressionPath(r.Context(), chi.URLParam(r, "tierName"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, path)
}

func (h *Handler) AllLeaderboards(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit")

	boards, err := h.service.GetAllLeaderboards(r.Context(), limit)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	out := make(map[string]LeaderboardResponse, len(boards))
	for code, board := range boards {
		out[code] = ToLeaderboardResponse(board.Skill, board.Entries)
	}

	core.OK(w, out)
}

func (h *Handler) SkillLeaderboard(w http.ResponseWriter, r *http.Request) {
	skillCode := chi.URLParam(r, "skillCode")
	limit := queryInt(r, "limit")

	board, err := h.service.GetSkillLeaderboard(r.Context(), skillCode, limit)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToLeaderboardResponse(board.Skill, board.Entries))
}

func (h *Handler) UserSkills(w http.ResponseWriter, r *http.Request) {
	h.writeUserSkills(w, r, chi.URLParam(r, "userID"))
}

func (h *Handler) MySkills(w http.ResponseWriter, r *http.Request) {
	h.writeUserSkills(w, r, middleware.GetUserID(r.Context()))
}

func (h *Handler) writeUserSkills(
	w http.ResponseWriter,
	r *http.Request,
	userID string,
) {
	entries, err := h.service.GetUserSkills(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	out := make([]UserSkillResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ToUserSkillResponse(e))
	}

	core.OK(w, out)
}

func (h *Handler) SetMySkill(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	skillCode := chi.URLParam(r, "skillCode")

	var req SetUserSkillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if _, err := h.service.SetUserSkill(
		r.Context(), userID, skillCode, req.Tier, req.Notes,
	); err != nil {
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) BulkSetMySkills(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req BulkSetUserSkillsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	outcomes, err := h.service.BulkSetUserSkills(r.Context(), userID, req.Skills)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, outcomes)
}

func (h *Handler) MyRank(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	skillCode := chi.URLParam(r, "skillCode")

	rank, err := h.service.GetUserTierRank(r.Context(), userID, skillCode)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	if rank == nil {
		core.OK(w, map[string]any{"ranked": false})
		return
	}

	core.OK(w, rank)
}

func (h *Handler) MyRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	recs, err := h.service.GetTierRecommendations(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, recs)
}

func queryInt(r *http.Request, key string) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
