// AngelaMos | 2026
// dto.go

package team

import (
	"time"
)

type CreateTeamRequest struct {
	Name        string `json:"name"        validate:"required,min=3,max=50"`
	Description string `json:"description" validate:"max=1000"`
	Logo        string `json:"logo"        validate:"omitempty,max=255"`
	Email       string `json:"email"       validate:"omitempty,email,max=255"`
	Discord     string `json:"discord"     validate:"omitempty,max=255"`
	Website     string `json:"website"     validate:"omitempty,url,max=255"`
	Rules       string `json:"rules"       validate:"max=5000"`
}

type UpdateTeamRequest struct {
	Name        *string `json:"name,omitempty"        validate:"omitempty,min=3,max=50"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	Logo        *string `json:"logo,omitempty"        validate:"omitempty,max=255"`
	Email       *string `json:"email,omitempty"       validate:"omitempty,email,max=255"`
	Discord     *string `json:"discord,omitempty"     validate:"omitempty,max=255"`
	Website     *string `json:"website,omitempty"     validate:"omitempty,url,max=255"`
	Rules       *string `json:"rules,omitempty"       validate:"omitempty,max=5000"`
}

func (r UpdateTeamRequest) apply(t *Team) {
	if r.Name != nil {
		t.Name = *r.Name
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	if r.Logo != nil {
		t.Logo = *r.Logo
	}
	if r.Email != nil {
		t.Email = *r.Email
	}
	if r.Discord != nil {
		t.Discord = *r.Discord
	}
	if r.Website != nil {
		t.Website = *r.Website
	}
	if r.Rules != nil {
		t.Rules = *r.Rules
	}
}

type InviteUserRequest struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
}

type TeamResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Logo        string    `json:"logo"`
	Points      int       `json:"points"`
	Email       string    `json:"email,omitempty"`
	Discord     string    `json:"discord,omitempty"`
	Website     string    `json:"website,omitempty"`
	Rules       string    `json:"rules,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type MemberResponse struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	IsLeader bool      `json:"is_leader"`
	Role     string    `json:"role"`
	Points   int       `json:"points"`
	JoinedAt time.Time `json:"joined_at"`
}

type TeamDetailResponse struct {
	TeamResponse
	Members []MemberResponse `json:"members"`
}

type TeamSummaryResponse struct {
	TeamResponse
	MemberCount    int    `json:"member_count"`
	LeaderUsername string `json:"leader_username"`
}

type InvitationResponse struct {
	MailID string `json:"mail_id"`
}

func ToTeamResponse(t *Team) TeamResponse {
	return TeamResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Logo:        t.Logo,
		Points:      t.Points,
		Email:       t.Email,
		Discord:     t.Discord,
		Website:     t.Website,
		Rules:       t.Rules,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func ToMemberResponse(m Member) MemberResponse {
	return MemberResponse{
		UserID:   m.UserID,
		Username: m.Username,
		IsLeader: m.IsLeader,
		Role:     m.Role,
		Points:   m.Points,
		JoinedAt: m.JoinedAt,
	}
}

func ToTeamDetailResponse(t *Team, members []Member) TeamDetailResponse {
	resp := TeamDetailResponse{
		TeamResponse: ToTeamResponse(t),
		Members:      make([]MemberResponse, 0, len(members)),
	}
	for _, m := range members {
		resp.Members = append(resp.Members, ToMemberResponse(m))
	}
	return resp
}

func ToTeamSummaryResponse(t TeamSummary) TeamSummaryResponse {
	return TeamSummaryResponse{
		TeamResponse:   ToTeamResponse(&t.Team),
		MemberCount:    t.MemberCount,
		LeaderUsername: t.LeaderUsername,
	}
}
