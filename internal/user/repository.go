// AngelaMos | 2026
// repository.go

package user

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
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByLogin(ctx context.Context, login string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	SetRole(ctx context.Context, id, role string) error
	SetTeamCreation(ctx context.Context, id string, allowed bool) error
	SetBanned(ctx context.Context, id string, banned bool) error

	AddFollow(ctx context.Context, f *Follow) error
	RemoveFollow(ctx context.Context, followerID, followingID string) error
	ListFollowers(ctx context.Context, userID string) ([]PublicProfile, error)
	ListFollowing(ctx context.Context, userID string) ([]PublicProfile, error)
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
}

// PublicProfile is the subset of a user row safe to show to anyone.
type PublicProfile struct {
	ID         string `db:"id"`
	Username   string `db:"username"`
	Name       string `db:"name"`
	ProfilePic string `db:"profile_pic"`
	Points     int    `db:"points"`
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const userColumns = `
	id, username, email, password_hash, name, bio, location, website,
	profile_pic, profile_music, points, role, can_create_team, is_banned,
	token_version, created_at, updated_at, deleted_at`

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, name, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at, token_version, can_create_team`

	err := r.db.QueryRowxContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Role,
	).Scan(
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.TokenVersion,
		&user.CanCreateTeam,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1 AND deleted_at IS NULL`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByUsername(
	ctx context.Context,
	username string,
) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = $1 AND deleted_at IS NULL`

	var user User
	err := r.db.GetContext(ctx, &user, query, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by username: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}

	return &user, nil
}

// GetByLogin matches either the username or the email address.
func (r *repository) GetByLogin(ctx context.Context, login string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE (username = $1 OR email = $2) AND deleted_at IS NULL`

	var user User
	err := r.db.GetContext(ctx, &user, query, login, strings.ToLower(login))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by login: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by login: %w", err)
	}

	return &user, nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET name = $2, bio = $3, location = $4, website = $5,
			profile_pic = $6, profile_music = $7, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		user.ID,
		user.Name,
		user.Bio,
		user.Location,
		user.Website,
		user.ProfilePic,
		user.ProfileMusic,
	).Scan(&user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	return r.execExpectingRow(ctx, "update password", query, id, passwordHash)
}

func (r *repository) IncrementTokenVersion(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	return r.execExpectingRow(ctx, "increment token version", query, id)
}

func (r *repository) SoftDelete(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	return r.execExpectingRow(ctx, "delete user", query, id)
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	conditions := []string{"deleted_at IS NULL"}
	args := []any{}
	argIdx := 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(username ILIKE '%%' || $%d || '%%' OR name ILIKE '%%' || $%d || '%%')",
			argIdx, argIdx,
		))
		args = append(args, escapeLike(params.Search))
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	if params.Banned != nil {
		conditions = append(conditions, fmt.Sprintf("is_banned = $%d", argIdx))
		args = append(args, *params.Banned)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM users WHERE %s`, where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT `+userColumns+`
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *repository) ExistsByUsername(
	ctx context.Context,
	username string,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM users WHERE username = $1 AND deleted_at IS NULL
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, username); err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}

	return exists, nil
}

func (r *repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM users WHERE email = $1 AND deleted_at IS NULL
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}

	return exists, nil
}

func (r *repository) SetRole(ctx context.Context, id, role string) error {
	query := `
		UPDATE users SET role = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	return r.execExpectingRow(ctx, "set role", query, id, role)
}

func (r *repository) SetTeamCreation(
	ctx context.Context,
	id string,
	allowed bool,
) error {
	query := `
		UPDATE users SET can_create_team = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	return r.execExpectingRow(ctx, "set team creation", query, id, allowed)
}

func (r *repository) SetBanned(ctx context.Context, id string, banned bool) error {
	query := `
		UPDATE users SET is_banned = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	return r.execExpectingRow(ctx, "set banned", query, id, banned)
}

func (r *repository) AddFollow(ctx context.Context, f *Follow) error {
	query := `
		INSERT INTO user_follows (id, follower_id, following_id)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		f.ID,
		f.FollowerID,
		f.FollowingID,
	).Scan(&f.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("add follow: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("add follow: %w", err)
	}

	return nil
}

func (r *repository) RemoveFollow(
	ctx context.Context,
	followerID, followingID string,
) error {
	query := `
		DELETE FROM user_follows
		WHERE follower_id = $1 AND following_id = $2`

	result, err := r.db.ExecContext(ctx, query, followerID, followingID)
	if err != nil {
		return fmt.Errorf("remove follow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove follow: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("remove follow: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) ListFollowers(
	ctx context.Context,
	userID string,
) ([]PublicProfile, error) {
	query := `
		SELECT u.id, u.username, u.name, u.profile_pic, u.points
		FROM user_follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.following_id = $1 AND u.deleted_at IS NULL
		ORDER BY f.created_at DESC`

	var out []PublicProfile
	if err := r.db.SelectContext(ctx, &out, query, userID); err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}

	return out, nil
}

func (r *repository) ListFollowing(
	ctx context.Context,
	userID string,
) ([]PublicProfile, error) {
	query := `
		SELECT u.id, u.username, u.name, u.profile_pic, u.points
		FROM user_follows f
		JOIN users u ON u.id = f.following_id
		WHERE f.follower_id = $1 AND u.deleted_at IS NULL
		ORDER BY f.created_at DESC`

	var out []PublicProfile
	if err := r.db.SelectContext(ctx, &out, query, userID); err != nil {
		return nil, fmt.Errorf("list following: %w", err)
	}

	return out, nil
}

func (r *repository) IsFollowing(
	ctx context.Context,
	followerID, followingID string,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM user_follows
			WHERE follower_id = $1 AND following_id = $2
		)`

	var following bool
	err := r.db.GetContext(ctx, &following, query, followerID, followingID)
	if err != nil {
		return false, fmt.Errorf("check following: %w", err)
	}

	return following, nil
}

func (r *repository) execExpectingRow(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
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
