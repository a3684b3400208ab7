// AngelaMos | 2026
// entity.go

package team

import (
	"time"
)

const (
	RoleMember   = "member"
	RoleCoLeader = "co-leader"
)

type Team struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Logo        string    `db:"logo"`
	Points      int       `db:"points"`
	Email       string    `db:"email"`
	Discord     string    `db:"discord"`
	Website     string    `db:"website"`
	Rules       string    `db:"rules"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type Membership struct {
	ID       string    `db:"id"`
	TeamID   string    `db:"team_id"`
	UserID   string    `db:"user_id"`
	IsLeader bool      `db:"is_leader"`
	Role     string    `db:"role"`
	JoinedAt time.Time `db:"joined_at"`
}

// Member is a membership row joined with the member's public identity.
type Member struct {
	Membership
	Username string `db:"username"`
	Points   int    `db:"user_points"`
}

// TeamSummary is a team row with listing aggregates.
type TeamSummary struct {
	Team
	MemberCount    int    `db:"member_count"`
	LeaderUsername string `db:"leader_username"`
}
