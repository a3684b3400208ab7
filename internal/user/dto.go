// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type UpdateUserRequest struct {
	Name         *string `json:"name,omitempty"          validate:"omitempty,max=100"`
	Bio          *string `json:"bio,omitempty"           validate:"omitempty,max=500"`
	Location     *string `json:"location,omitempty"      validate:"omitempty,max=100"`
	Website      *string `json:"website,omitempty"       validate:"omitempty,max=255"`
	ProfilePic   *string `json:"profile_pic,omitempty"   validate:"omitempty,max=255"`
	ProfileMusic *string `json:"profile_music,omitempty" validate:"omitempty,max=255"`
}

func (req UpdateUserRequest) apply(u *User) {
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
	}
	if req.Location != nil {
		u.Location = *req.Location
	}
	if req.Website != nil {
		u.Website = *req.Website
	}
	if req.ProfilePic != nil {
		u.ProfilePic = *req.ProfilePic
	}
	if req.ProfileMusic != nil {
		u.ProfileMusic = *req.ProfileMusic
	}
}

type UpdateUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type UpdateUserBanRequest struct {
	Banned bool `json:"banned"`
}

type UpdateTeamCreationRequest struct {
	Allowed bool `json:"allowed"`
}

type UserResponse struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Bio           string    `json:"bio"`
	Location      string    `json:"location"`
	Website       string    `json:"website"`
	ProfilePic    string    `json:"profile_pic"`
	ProfileMusic  string    `json:"profile_music"`
	Points        int       `json:"points"`
	Role          string    `json:"role"`
	CanCreateTeam bool      `json:"can_create_team"`
	IsBanned      bool      `json:"is_banned"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PublicProfileResponse omits email and moderation fields.
type PublicProfileResponse struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Name       string    `json:"name"`
	Bio        string    `json:"bio"`
	Location   string    `json:"location"`
	Website    string    `json:"website"`
	ProfilePic string    `json:"profile_pic"`
	Points     int       `json:"points"`
	CreatedAt  time.Time `json:"created_at"`
}

type FollowUserResponse struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	ProfilePic string `json:"profile_pic"`
	Points     int    `json:"points"`
}

type FollowListResponse struct {
	Users []FollowUserResponse `json:"users"`
}

type AvailabilityResponse struct {
	Available bool `json:"available"`
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
}

type ListUsersParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Role     string `json:"role"`
	Banned   *bool  `json:"banned"`
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Name:          u.Name,
		Bio:           u.Bio,
		Location:      u.Location,
		Website:       u.Website,
		ProfilePic:    u.ProfilePic,
		ProfileMusic:  u.ProfileMusic,
		Points:        u.Points,
		Role:          u.Role,
		CanCreateTeam: u.CanCreateTeam,
		IsBanned:      u.IsBanned,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func ToPublicProfileResponse(u *User) PublicProfileResponse {
	return PublicProfileResponse{
		ID:         u.ID,
		Username:   u.Username,
		Name:       u.Name,
		Bio:        u.Bio,
		Location:   u.Location,
		Website:    u.Website,
		ProfilePic: u.ProfilePic,
		Points:     u.Points,
		CreatedAt:  u.CreatedAt,
	}
}

func ToFollowUserResponses(profiles []PublicProfile) []FollowUserResponse {
	out := make([]FollowUserResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, FollowUserResponse{
			ID:         p.ID,
			Username:   p.Username,
			Name:       p.Name,
			ProfilePic: p.ProfilePic,
			Points:     p.Points,
		})
	}
	return out
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, ToUserResponse(&u))
	}
	return responses
}
