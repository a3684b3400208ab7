// AngelaMos | 2026
// repository.go

package team

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cosmicteams/cosmic-backend/internal/core"
)

type Repository interface {
	CreateTeam(ctx context.Context, t *Team) error
	GetTeam(ctx context.Context, id string) (*Team, error)
	GetTeamByName(ctx context.Context, name string) (*Team, error)
	UpdateTeam(ctx context.Context, t *Team) error
	DeleteTeam(ctx context.Context, id string) error
	ListTeams(ctx context.Context, params ListTeamsParams) ([]TeamSummary, int, error)

	AddMember(ctx context.Context, m *Membership) error
	GetMembership(ctx context.Context, teamID, userID string) (*Membership, error)
	GetMembershipByUser(ctx context.Context, userID string) (*Membership, error)
	ListMembers(ctx context.Context, teamID string) ([]Member, error)
	RemoveMember(ctx context.Context, teamID, userID string) error
	RemoveAllMembers(ctx context.Context, teamID string) error
	SetMemberRole(ctx context.Context, teamID, userID, role string) error
	TransferLeadership(ctx context.Context, teamID, fromUserID, toUserID string) error
	LeadsAnyTeam(ctx context.Context, userID string) (bool, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const teamColumns = `
	id, name, description, logo, points, email, discord, website, rules,
	created_at, updated_at`

func (r *repository) CreateTeam(ctx context.Context, t *Team) error {
	query := `
		INSERT INTO teams (id, name, description, logo, email, discord, website, rules)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		t.ID,
		t.Name,
		t.Description,
		t.Logo,
		t.Email,
		t.Discord,
		t.Website,
		t.Rules,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create team: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create team: %w", err)
	}

	return nil
}

func (r *repository) GetTeam(ctx context.Context, id string) (*Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`

	var t Team
	err := r.db.GetContext(ctx, &t, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get team: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}

	return &t, nil
}

func (r *repository) GetTeamByName(
	ctx context.Context,
	name string,
) (*Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE name = $1`

	var t Team
	err := r.db.GetContext(ctx, &t, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get team by name: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get team by name: %w", err)
	}

	return &t, nil
}

func (r *repository) UpdateTeam(ctx context.Context, t *Team) error {
	query := `
		UPDATE teams
		SET name = $2, description = $3, logo = $4, email = $5,
			discord = $6, website = $7, rules = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		t.ID,
		t.Name,
		t.Description,
		t.Logo,
		t.Email,
		t.Discord,
		t.Website,
		t.Rules,
	).Scan(&t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update team: %w", core.ErrNotFound)
	}
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("update team: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update team: %w", err)
	}

	return nil
}

func (r *repository) DeleteTeam(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete team: %w", core.ErrNotFound)
	}

	return nil
}

type ListTeamsParams struct {
	Page     int
	PageSize int
	Search   string
}

func (p *ListTeamsParams) Normalize() {
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

func (r *repository) ListTeams(
	ctx context.Context,
	params ListTeamsParams,
) ([]TeamSummary, int, error) {
	params.Normalize()

	where := ""
	args := []any{}
	if params.Search != "" {
		where = `WHERE t.name ILIKE '%' || $1 || '%'`
		args = append(args, escapeLike(params.Search))
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM teams t %s`, where)

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teams: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT t.id, t.name, t.description, t.logo, t.points, t.email,
			t.discord, t.website, t.rules, t.created_at, t.updated_at,
			COUNT(tm.id) AS member_count,
			COALESCE(MAX(u.username) FILTER (WHERE tm.is_leader), '') AS leader_username
		FROM teams t
		LEFT JOIN team_members tm ON tm.team_id = t.id
		LEFT JOIN users u ON u.id = tm.user_id
		%s
		GROUP BY t.id
		ORDER BY t.points DESC, t.name ASC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)

	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)

	var teams []TeamSummary
	if err := r.db.SelectContext(ctx, &teams, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teams: %w", err)
	}

	return teams, total, nil
}

func (r *repository) AddMember(ctx context.Context, m *Membership) error {
	query := `
		INSERT INTO team_members (id, team_id, user_id, is_leader, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING joined_at`

	err := r.db.QueryRowxContext(ctx, query,
		m.ID,
		m.TeamID,
		m.UserID,
		m.IsLeader,
		m.Role,
	).Scan(&m.JoinedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("add member: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("add member: %w", err)
	}

	return nil
}

func (r *repository) GetMembership(
	ctx context.Context,
	teamID, userID string,
) (*Membership, error) {
	query := `
		SELECT id, team_id, user_id, is_leader, role, joined_at
		FROM team_members
		WHERE team_id = $1 AND user_id = $2`

	var m Membership
	err := r.db.GetContext(ctx, &m, query, teamID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get membership: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}

	return &m, nil
}

// GetMembershipByUser returns any membership held by the user. Non-admin
// users hold at most one; for admins leading several teams it returns an
// arbitrary one, which callers only use as an "is affiliated" check.
func (r *repository) GetMembershipByUser(
	ctx context.Context,
	userID string,
) (*Membership, error) {
	query := `
		SELECT id, team_id, user_id, is_leader, role, joined_at
		FROM team_members
		WHERE user_id = $1
		LIMIT 1`

	var m Membership
	err := r.db.GetContext(ctx, &m, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get membership: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}

	return &m, nil
}

func (r *repository) ListMembers(
	ctx context.Context,
	teamID string,
) ([]Member, error) {
	query := `
		SELECT tm.id, tm.team_id, tm.user_id, tm.is_leader, tm.role, tm.joined_at,
			u.username, u.points AS user_points
		FROM team_members tm
		JOIN users u ON u.id = tm.user_id
		WHERE tm.team_id = $1
		ORDER BY tm.is_leader DESC, tm.joined_at ASC`

	var members []Member
	if err := r.db.SelectContext(ctx, &members, query, teamID); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	return members, nil
}

func (r *repository) RemoveMember(ctx context.Context, teamID, userID string) error {
	query := `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, teamID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("remove member: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) RemoveAllMembers(ctx context.Context, teamID string) error {
	query := `DELETE FROM team_members WHERE team_id = $1`

	if _, err := r.db.ExecContext(ctx, query, teamID); err != nil {
		return fmt.Errorf("remove all members: %w", err)
	}

	return nil
}

func (r *repository) SetMemberRole(
	ctx context.Context,
	teamID, userID, role string,
) error {
	query := `
		UPDATE team_members SET role = $3
		WHERE team_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, teamID, userID, role)
	if err != nil {
		return fmt.Errorf("set member role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set member role: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("set member role: %w", core.ErrNotFound)
	}

	return nil
}

// TransferLeadership clears the current leader flag before setting the new
// one; the partial unique index on (team_id) WHERE is_leader forbids the
// reverse order.
func (r *repository) TransferLeadership(
	ctx context.Context,
	teamID, fromUserID, toUserID string,
) error {
	demote := `
		UPDATE team_members SET is_leader = FALSE
		WHERE team_id = $1 AND user_id = $2 AND is_leader`

	result, err := r.db.ExecContext(ctx, demote, teamID, fromUserID)
	if err != nil {
		return fmt.Errorf("transfer leadership: %w", err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("transfer leadership: %w", err)
	} else if rows == 0 {
		return fmt.Errorf("transfer leadership: current leader: %w", core.ErrNotFound)
	}

	promote := `
		UPDATE team_members SET is_leader = TRUE, role = $3
		WHERE team_id = $1 AND user_id = $2`

	result, err = r.db.ExecContext(ctx, promote, teamID, toUserID, RoleMember)
	if err != nil {
		return fmt.Errorf("transfer leadership: %w", err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("transfer leadership: %w", err)
	} else if rows == 0 {
		return fmt.Errorf("transfer leadership: new leader: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) LeadsAnyTeam(ctx context.Context, userID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM team_members WHERE user_id = $1 AND is_leader
		)`

	var leads bool
	if err := r.db.GetContext(ctx, &leads, query, userID); err != nil {
		return false, fmt.Errorf("leads any team: %w", err)
	}

	return leads, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
