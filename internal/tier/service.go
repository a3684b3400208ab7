// AngelaMos | 2026
// service.go

package tier

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/cosmicteams/cosmic-backend/internal/core"
)

var tierTextPattern = regexp.MustCompile(`^(LT|HT)[1-5]$`)

func unknownSkillError(code string) error {
	return core.NewAppError(
		core.ErrInvalidInput,
		fmt.Sprintf("unknown skill %q", code),
		http.StatusBadRequest,
		"UNKNOWN_SKILL",
	)
}

func unknownTierError(name string) error {
	return core.NewAppError(
		core.ErrInvalidInput,
		fmt.Sprintf("unknown tier %q", name),
		http.StatusBadRequest,
		"UNKNOWN_TIER",
	)
}

type Service struct {
	repo         Repository
	defaultLimit int
}

func NewService(repo Repository, defaultLimit int) *Service {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &Service{repo: repo, defaultLimit: defaultLimit}
}

func (s *Service) ListSkillTypes(ctx context.Context) ([]SkillType, error) {
	return s.repo.ListSkillTypes(ctx)
}

func (s *Service) ListTiers(ctx context.Context) ([]Tier, error) {
	return s.repo.ListTiers(ctx)
}

// UserSkillEntry is one row of a user's full skill sheet. Tier is nil for
// skills the user has never been ranked in.
type UserSkillEntry struct {
	Skill SkillType
	Tier  *Tier
	Notes string
}

// GetUserSkills returns one entry per catalog skill in catalog order,
// whether or not the user has a stored row for it.
func (s *Service) GetUserSkills(
	ctx context.Context,
	userID string,
) ([]UserSkillEntry, error) {
	skills, err := s.repo.ListSkillTypes(ctx)
	if err != nil {
		return nil, err
	}

	tiersByID, err := s.tiersByID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListUserSkills(ctx, userID)
	if err != nil {
		return nil, err
	}

	bySkillType := make(map[string]UserSkill, len(rows))
	for _, row := range rows {
		bySkillType[row.SkillTypeID] = row
	}

	entries := make([]UserSkillEntry, 0, len(skills))
	for _, skill := range skills {
		entry := UserSkillEntry{Skill: skill}
		if row, ok := bySkillType[skill.ID]; ok {
			entry.Notes = row.Notes
			if row.TierID != nil {
				if t, ok := tiersByID[*row.TierID]; ok {
					entry.Tier = &t
				}
			}
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// SetUserSkill upserts the user's tier for one skill. An empty tierName
// clears the tier but keeps the row and updates its notes.
func (s *Service) SetUserSkill(
	ctx context.Context,
	userID, skillCode, tierName, notes string,
) (*UserSkill, error) {
	skill, err := s.repo.GetSkillTypeByCode(ctx, skillCode)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, unknownSkillError(skillCode)
		}
		return nil, err
	}

	var tierID *string
	if tierName != "" {
		t, err := s.repo.GetTierByName(ctx, tierName)
		if err != nil {
			if core.IsNotFound(err) {
				return nil, unknownTierError(tierName)
			}
			return nil, err
		}
		tierID = &t.ID
	}

	us := &UserSkill{
		ID:          uuid.New().String(),
		UserID:      userID,
		SkillTypeID: skill.ID,
		TierID:      tierID,
		Notes:       notes,
	}

	if err := s.repo.UpsertUserSkill(ctx, us); err != nil {
		return nil, err
	}

	return us, nil
}

type BulkOutcome struct {
	SkillCode string `json:"skill_code"`
	Tier      string `json:"tier,omitempty"`
	Cleared   bool   `json:"cleared,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BulkSetUserSkills applies raw tier text per skill. Text that does not
// look like a tier after trimming and uppercasing clears the skill
// instead of failing, and one bad skill code does not block the rest.
func (s *Service) BulkSetUserSkills(
	ctx context.Context,
	userID string,
	entries map[string]string,
) ([]BulkOutcome, error) {
	codes := make([]string, 0, len(entries))
	for code := range entries {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	outcomes := make([]BulkOutcome, 0, len(codes))
	for _, code := range codes {
		tierName := strings.ToUpper(strings.TrimSpace(entries[code]))
		if !tierTextPattern.MatchString(tierName) {
			tierName = ""
		}

		outcome := BulkOutcome{SkillCode: code, Tier: tierName, Cleared: tierName == ""}
		if _, err := s.SetUserSkill(ctx, userID, code, tierName, ""); err != nil {
			if appErr, ok := core.AsAppError(err); ok {
				outcome.Error = appErr.Message
			} else {
				return nil, err
			}
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// GetSkillLeaderboard ranks every user holding a tier in the skill, best
// tier first, ties broken by username.
func (s *Service) GetSkillLeaderboard(
	ctx context.Context,
	skillCode string,
	limit int,
) (*SkillLeaderboard, error) {
	skill, err := s.repo.GetSkillTypeByCode(ctx, skillCode)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, unknownSkillError(skillCode)
		}
		return nil, err
	}

	rows, err := s.repo.ListRanked(ctx, skill.ID)
	if err != nil {
		return nil, err
	}

	sortLeaderboard(rows)

	if limit <= 0 {
		limit = s.defaultLimit
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}

	return &SkillLeaderboard{Skill: *skill, Entries: rows}, nil
}

type SkillLeaderboard struct {
	Skill   SkillType
	Entries []RankedUser
}

func (s *Service) GetAllLeaderboards(
	ctx context.Context,
	limit int,
) (map[string]SkillLeaderboard, error) {
	skills, err := s.repo.ListSkillTypes(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = s.defaultLimit
	}

	boards := make(map[string]SkillLeaderboard, len(skills))
	for _, skill := range skills {
		rows, err := s.repo.ListRanked(ctx, skill.ID)
		if err != nil {
			return nil, err
		}

		sortLeaderboard(rows)
		if len(rows) > limit {
			rows = rows[:limit]
		}

		boards[skill.Code] = SkillLeaderboard{Skill: skill, Entries: rows}
	}

	return boards, nil
}

func (s *Service) GetTierCounts(
	ctx context.Context,
) (map[string]map[string]int, error) {
	rows, err := s.repo.TierCounts(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]map[string]int)
	for _, row := range rows {
		if counts[row.SkillCode] == nil {
			counts[row.SkillCode] = make(map[string]int)
		}
		counts[row.SkillCode][row.TierName] = row.Count
	}

	return counts, nil
}

type TierRank struct {
	TierName   string `json:"tier"`
	Rank       int    `json:"rank"`
	Total      int    `json:"total"`
	Percentile int    `json:"percentile"`
}

// GetUserTierRank reports the user's standing for one skill, or nil when
// the user is unranked there. Rank counts every user at or above the
// user's tier, the user included, so rank 1 means top or tied for top.
func (s *Service) GetUserTierRank(
	ctx context.Context,
	userID, skillCode string,
) (*TierRank, error) {
	skill, err := s.repo.GetSkillTypeByCode(ctx, skillCode)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, unknownSkillError(skillCode)
		}
		return nil, err
	}

	rows, err := s.repo.ListRanked(ctx, skill.ID)
	if err != nil {
		return nil, err
	}

	var mine *RankedUser
	for i := range rows {
		if rows[i].UserID == userID {
			mine = &rows[i]
			break
		}
	}
	if mine == nil {
		return nil, nil
	}

	total := len(rows)
	rank := 0
	for i := range rows {
		if rows[i].OrderValue() >= mine.OrderValue() {
			rank++
		}
	}

	// Halves round up, so 62.5 reports as the 63rd percentile.
	percentile := 0
	if total > 0 {
		percentile = int(math.Round(float64(total-rank) / float64(total) * 100))
	}

	return &TierRank{
		TierName:   mine.TierName,
		Rank:       rank,
		Total:      total,
		Percentile: percentile,
	}, nil
}

type Recommendation struct {
	SkillCode       string `json:"skill_code"`
	SkillName       string `json:"skill_name"`
	CurrentTier     string `json:"current_tier,omitempty"`
	RecommendedTier string `json:"recommended_tier"`
	Reason          string `json:"reason"`
}

// GetTierRecommendations suggests up to three next steps. For each skill
// the user has ranked, in adjacency-table order: advance that skill one
// tier, then look at its related skills and either suggest starting them
// at LT1 or, when they trail the anchor by more than one step, advancing
// them one tier from where they are.
func (s *Service) GetTierRecommendations(
	ctx context.Context,
	userID string,
) ([]Recommendation, error) {
	skills, err := s.repo.ListSkillTypes(ctx)
	if err != nil {
		return nil, err
	}

	tiers, err := s.repo.ListTiers(ctx)
	if err != nil {
		return nil, err
	}

	tiersByID := make(map[string]Tier, len(tiers))
	tiersByOrder := make(map[int]Tier, len(tiers))
	for _, t := range tiers {
		tiersByID[t.ID] = t
		tiersByOrder[t.OrderValue()] = t
	}

	skillsByCode := make(map[string]SkillType, len(skills))
	for _, sk := range skills {
		skillsByCode[sk.Code] = sk
	}

	rows, err := s.repo.ListUserSkills(ctx, userID)
	if err != nil {
		return nil, err
	}

	rankedByCode := make(map[string]Tier)
	for _, row := range rows {
		if row.TierID == nil {
			continue
		}
		t, ok := tiersByID[*row.TierID]
		if !ok {
			continue
		}
		for _, sk := range skills {
			if sk.ID == row.SkillTypeID {
				rankedByCode[sk.Code] = t
				break
			}
		}
	}

	var recs []Recommendation
	add := func(rec Recommendation) bool {
		recs = append(recs, rec)
		return len(recs) >= 3
	}

	for _, anchor := range relatedSkills {
		current, ranked := rankedByCode[anchor.Code]
		if !ranked {
			continue
		}

		anchorSkill := skillsByCode[anchor.Code]

		if next, ok := tiersByOrder[current.OrderValue()+1]; ok {
			done := add(Recommendation{
				SkillCode:       anchor.Code,
				SkillName:       anchorSkill.Name,
				CurrentTier:     current.Name,
				RecommendedTier: next.Name,
				Reason:          fmt.Sprintf("advance %s from %s", anchorSkill.Name, current.Name),
			})
			if done {
				return recs, nil
			}
		}

		for _, relCode := range anchor.Related {
			relSkill, ok := skillsByCode[relCode]
			if !ok {
				continue
			}

			relTier, relRanked := rankedByCode[relCode]
			switch {
			case !relRanked:
				done := add(Recommendation{
					SkillCode:       relCode,
					SkillName:       relSkill.Name,
					RecommendedTier: "LT1",
					Reason: fmt.Sprintf(
						"start %s, related to %s", relSkill.Name, anchorSkill.Name,
					),
				})
				if done {
					return recs, nil
				}
			case current.OrderValue()-relTier.OrderValue() > 1:
				next, ok := tiersByOrder[relTier.OrderValue()+1]
				if !ok {
					continue
				}
				done := add(Recommendation{
					SkillCode:       relCode,
					SkillName:       relSkill.Name,
					CurrentTier:     relTier.Name,
					RecommendedTier: next.Name,
					Reason: fmt.Sprintf(
						"%s trails your %s rating", relSkill.Name, anchorSkill.Name,
					),
				})
				if done {
					return recs, nil
				}
			}
		}
	}

	return recs, nil
}

type ProgressionPath struct {
	Current   Tier   `json:"current"`
	Completed []Tier `json:"completed"`
	Upcoming  []Tier `json:"upcoming"`
	All       []Tier `json:"all"`
}

// GetProgressionPath splits the tier ladder around a given tier.
func (s *Service) GetProgressionPath(
	ctx context.Context,
	tierName string,
) (*ProgressionPath, error) {
	current, err := s.repo.GetTierByName(ctx, tierName)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, unknownTierError(tierName)
		}
		return nil, err
	}

	tiers, err := s.repo.ListTiers(ctx)
	if err != nil {
		return nil, err
	}

	path := &ProgressionPath{Current: *current, All: tiers}
	for _, t := range tiers {
		switch {
		case t.OrderValue() < current.OrderValue():
			path.Completed = append(path.Completed, t)
		case t.OrderValue() > current.OrderValue():
			path.Upcoming = append(path.Upcoming, t)
		}
	}

	return path, nil
}

// MigrateLegacyTiers backfills normalized skill rows from the flat
// per-skill columns on old user records.
func (s *Service) MigrateLegacyTiers(ctx context.Context) (int64, error) {
	return s.repo.MigrateLegacyTiers(ctx)
}

func (s *Service) tiersByID(ctx context.Context) (map[string]Tier, error) {
	tiers, err := s.repo.ListTiers(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]Tier, len(tiers))
	for _, t := range tiers {
		byID[t.ID] = t
	}

	return byID, nil
}

func sortLeaderboard(rows []RankedUser) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].OrderValue() != rows[j].OrderValue() {
			return rows[i].OrderValue() > rows[j].OrderValue()
		}
		return rows[i].Username < rows[j].Username
	})
}
