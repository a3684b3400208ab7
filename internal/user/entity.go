// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID            string     `db:"id"`
	Username      string     `db:"username"`
	Email         string     `db:"email"`
	PasswordHash  string     `db:"password_hash"`
	Name          string     `db:"name"`
	Bio           string     `db:"bio"`
	Location      string     `db:"location"`
	Website       string     `db:"website"`
	ProfilePic    string     `db:"profile_pic"`
	ProfileMusic  string     `db:"profile_music"`
	Points        int        `db:"points"`
	Role          string     `db:"role"`
	CanCreateTeam bool       `db:"can_create_team"`
	IsBanned      bool       `db:"is_banned"`
	TokenVersion  int        `db:"token_version"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	DeletedAt     *time.Time `db:"deleted_at"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Follow links a follower to the account they follow.
type Follow struct {
	ID          string    `db:"id"`
	FollowerID  string    `db:"follower_id"`
	FollowingID string    `db:"following_id"`
	CreatedAt   time.Time `db:"created_at"`
}
