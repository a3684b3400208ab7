// AngelaMos | 2026
// entity.go

package tier

import (
	"time"
)

const (
	CategoryLower  = "LT"
	CategoryHigher = "HT"
)

type SkillType struct {
	ID          string    `db:"id"`
	Code        string    `db:"skill_code"`
	Name        string    `db:"skill_name"`
	Description string    `db:"description"`
	Icon        string    `db:"icon_path"`
	CreatedAt   time.Time `db:"created_at"`
}

type Tier struct {
	ID          string    `db:"id"`
	Name        string    `db:"tier_name"`
	Category    string    `db:"category"`
	Level       int       `db:"level"`
	DisplayName string    `db:"display_name"`
	Description string    `db:"description"`
	ColorClass  string    `db:"color_class"`
	CreatedAt   time.Time `db:"created_at"`
}

// OrderValue places all ten tiers on a single 1..10 scale so that any
// Higher tier outranks every Lower tier.
func (t Tier) OrderValue() int {
	if t.Category == CategoryHigher {
		return t.Level + 5
	}
	return t.Level
}

type UserSkill struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	SkillTypeID string    `db:"skill_type_id"`
	TierID      *string   `db:"tier_id"`
	Notes       string    `db:"notes"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// RankedUser is one leaderboard row: a user holding a non-null tier for
// a given skill.
type RankedUser struct {
	UserID       string `db:"user_id"`
	Username     string `db:"username"`
	TierName     string `db:"tier_name"`
	TierCategory string `db:"tier_category"`
	TierLevel    int    `db:"tier_level"`
}

func (r RankedUser) OrderValue() int {
	if r.TierCategory == CategoryHigher {
		return r.TierLevel + 5
	}
	return r.TierLevel
}

// relatedSkills is the fixed cross-skill adjacency table used by the
// recommendation heuristic. Slice order is the iteration order, which
// keeps recommendation output deterministic.
var relatedSkills = []struct {
	Code    string
	Related []string
}{
	{"npot", []string{"cpvp", "smp"}},
	{"cpvp", []string{"npot", "sword"}},
	{"sword", []string{"axe", "cpvp"}},
	{"axe", []string{"sword", "smp"}},
	{"smp", []string{"axe", "npot"}},
	{"uhc", []string{"sword", "axe"}},
}
