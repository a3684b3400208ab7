// AngelaMos | 2026
// dto.go

package tier

type SetUserSkillRequest struct {
	Tier  string `json:"tier"  validate:"omitempty,max=10"`
	Notes string `json:"notes" validate:"max=500"`
}

type BulkSetUserSkillsRequest struct {
	Skills map[string]string `json:"skills" validate:"required,min=1,max=20"`
}

type SkillTypeResponse struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type TierResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	ColorClass  string `json:"color_class"`
	Category    string `json:"category"`
	Level       int    `json:"level"`
	OrderValue  int    `json:"order_value"`
}

type UserSkillResponse struct {
	Skill SkillTypeResponse `json:"skill"`
	Tier  *TierResponse     `json:"tier"`
	Notes string            `json:"notes,omitempty"`
}

type LeaderboardEntryResponse struct {
	Position int    `json:"position"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Tier     string `json:"tier"`
}

type LeaderboardResponse struct {
	Skill   SkillTypeResponse          `json:"skill"`
	Entries []LeaderboardEntryResponse `json:"entries"`
}

func ToSkillTypeResponse(s SkillType) SkillTypeResponse {
	return SkillTypeResponse{
		Code:        s.Code,
		Name:        s.Name,
		Description: s.Description,
		Icon:        s.Icon,
	}
}

func ToTierResponse(t Tier) TierResponse {
	return TierResponse{
		Name:        t.Name,
		DisplayName: t.DisplayName,
		Description: t.Description,
		ColorClass:  t.ColorClass,
		Category:    t.Category,
		Level:       t.Level,
		OrderValue:  t.OrderValue(),
	}
}

func ToUserSkillResponse(e UserSkillEntry) UserSkillResponse {
	resp := UserSkillResponse{
		Skill: ToSkillTypeResponse(e.Skill),
		Notes: e.Notes,
	}
	if e.Tier != nil {
		t := ToTierResponse(*e.Tier)
		resp.Tier = &t
	}
	return resp
}

func ToLeaderboardResponse(skill SkillType, rows []RankedUser) LeaderboardResponse {
	resp := LeaderboardResponse{
		Skill:   ToSkillTypeResponse(skill),
		Entries: make([]LeaderboardEntryResponse, 0, len(rows)),
	}
	for i, row := range rows {
		resp.Entries = append(resp.Entries, LeaderboardEntryResponse{
			Position: i + 1,
			UserID:   row.UserID,
			Username: row.Username,
			Tier:     row.TierName,
		})
	}
	return resp
}
