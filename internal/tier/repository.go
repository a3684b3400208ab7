// AngelaMos | 2026
// repository.go

package tier

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cosmicteams/cosmic-backend/internal/core"
)

type Repository interface {
	ListSkillTypes(ctx context.Context) ([]SkillType, error)
	ListTiers(ctx context.Context) ([]Tier, error)
	GetSkillTypeByCode(ctx context.Context, code string) (*SkillType, error)
	GetTierByName(ctx context.Context, name string) (*Tier, error)
	ListUserSkills(ctx context.Context, userID string) ([]UserSkill, error)
	UpsertUserSkill(ctx context.Context, us *UserSkill) error
	ListRanked(ctx context.Context, skillTypeID string) ([]RankedUser, error)
	TierCounts(ctx context.Context) ([]TierCount, error)
	MigrateLegacyTiers(ctx context.Context) (int64, error)
}

type TierCount struct {
	SkillCode string `db:"skill_code"`
	TierName  string `db:"tier_name"`
	Count     int    `db:"count"`
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) ListSkillTypes(ctx context.Context) ([]SkillType, error) {
	query := `
		SELECT id, skill_code, skill_name, description, icon_path, created_at
		FROM skill_types
		ORDER BY skill_name ASC`

	var skills []SkillType
	if err := r.db.SelectContext(ctx, &skills, query); err != nil {
		return nil, fmt.Errorf("list skill types: %w", err)
	}

	return skills, nil
}

func (r *repository) ListTiers(ctx context.Context) ([]Tier, error) {
	query := `
		SELECT id, tier_name, display_name, description, color_class,
			category, level, created_at
		FROM tiers
		ORDER BY CASE category WHEN 'HT' THEN level + 5 ELSE level END ASC`

	var tiers []Tier
	if err := r.db.SelectContext(ctx, &tiers, query); err != nil {
		return nil, fmt.Errorf("list tiers: %w", err)
	}

	return tiers, nil
}

func (r *repository) GetSkillTypeByCode(
	ctx context.Context,
	code string,
) (*SkillType, error) {
	query := `
		SELECT id, skill_code, skill_name, description, icon_path, created_at
		FROM skill_types
		WHERE skill_code = $1`

	var s SkillType
	err := r.db.GetContext(ctx, &s, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get skill type %q: %w", code, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get skill type: %w", err)
	}

	return &s, nil
}

func (r *repository) GetTierByName(
	ctx context.Context,
	name string,
) (*Tier, error) {
	query := `
		SELECT id, tier_name, display_name, description, color_class,
			category, level, created_at
		FROM tiers
		WHERE tier_name = $1`

	var t Tier
	err := r.db.GetContext(ctx, &t, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get tier %q: %w", name, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get tier: %w", err)
	}

	return &t, nil
}

func (r *repository) ListUserSkills(
	ctx context.Context,
	userID string,
) ([]UserSkill, error) {
	query := `
		SELECT id, user_id, skill_type_id, tier_id, notes, created_at, updated_at
		FROM user_skills
		WHERE user_id = $1`

	var rows []UserSkill
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list user skills: %w", err)
	}

	return rows, nil
}

func (r *repository) UpsertUserSkill(ctx context.Context, us *UserSkill) error {
	query := `
		INSERT INTO user_skills (id, user_id, skill_type_id, tier_id, notes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, skill_type_id) DO UPDATE
		SET tier_id = EXCLUDED.tier_id,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		us.ID,
		us.UserID,
		us.SkillTypeID,
		us.TierID,
		us.Notes,
	).Scan(&us.ID, &us.CreatedAt, &us.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert user skill: %w", err)
	}

	return nil
}

func (r *repository) ListRanked(
	ctx context.Context,
	skillTypeID string,
) ([]RankedUser, error) {
	query := `
		SELECT us.user_id, u.username,
			t.tier_name, t.category AS tier_category, t.level AS tier_level
		FROM user_skills us
		JOIN users u ON us.user_id = u.id
		JOIN tiers t ON us.tier_id = t.id
		WHERE us.skill_type_id = $1
			AND us.tier_id IS NOT NULL
			AND u.deleted_at IS NULL`

	var rows []RankedUser
	if err := r.db.SelectContext(ctx, &rows, query, skillTypeID); err != nil {
		return nil, fmt.Errorf("list ranked users: %w", err)
	}

	return rows, nil
}

func (r *repository) TierCounts(ctx context.Context) ([]TierCount, error) {
	query := `
		SELECT st.skill_code, t.tier_name, COUNT(*) AS count
		FROM user_skills us
		JOIN skill_types st ON us.skill_type_id = st.id
		JOIN tiers t ON us.tier_id = t.id
		GROUP BY st.skill_code, t.tier_name`

	var rows []TierCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("tier counts: %w", err)
	}

	return rows, nil
}

// MigrateLegacyTiers copies the flat per-skill tier columns still present
// on old user rows into normalized user_skills rows. It only fills gaps,
// so running it repeatedly is harmless.
func (r *repository) MigrateLegacyTiers(ctx context.Context) (int64, error) {
	query := `
		INSERT INTO user_skills (id, user_id, skill_type_id, tier_id, notes)
		SELECT gen_random_uuid()::text, u.id, st.id, t.id, ''
		FROM users u
		CROSS JOIN skill_types st
		JOIN tiers t ON t.tier_name = UPPER(TRIM(
			CASE st.skill_code
				WHEN 'npot' THEN u.npot_tier
				WHEN 'uhc' THEN u.uhc_tier
				WHEN 'cpvp' THEN u.cpvp_tier
				WHEN 'sword' THEN u.sword_tier
				WHEN 'axe' THEN u.axe_tier
				WHEN 'smp' THEN u.smp_tier
			END))
		WHERE u.deleted_at IS NULL
		ON CONFLICT (user_id, skill_type_id) DO UPDATE
		SET tier_id = EXCLUDED.tier_id
		WHERE user_skills.tier_id IS NULL`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("migrate legacy tiers: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("migrate legacy tiers: %w", err)
	}

	return rows, nil
}
