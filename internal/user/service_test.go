// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmicteams/cosmic-backend/internal/core"
)

type fakeRepository struct {
	users   map[string]*User
	follows map[string]*Follow
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:   make(map[string]*User),
		follows: make(map[string]*Follow),
	}
}

func (f *fakeRepository) Create(_ context.Context, u *User) error {
	for _, existing := range f.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
	}
	u.CanCreateTeam = true
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeRepository) GetByID(_ context.Context, id string) (*User, error) {
	u, ok := f.users[id]
	if !ok || u.IsDeleted() {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRepository) GetByUsername(
	_ context.Context,
	username string,
) (*User, error) {
	for _, u := range f.users {
		if u.Username == username && !u.IsDeleted() {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get user by username: %w", core.ErrNotFound)
}

func (f *fakeRepository) GetByLogin(
	_ context.Context,
	login string,
) (*User, error) {
	for _, u := range f.users {
		if u.IsDeleted() {
			continue
		}
		if u.Username == login || u.Email == strings.ToLower(login) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get user by login: %w", core.ErrNotFound)
}

func (f *fakeRepository) Update(_ context.Context, u *User) error {
	stored, ok := f.users[u.ID]
	if !ok || stored.IsDeleted() {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	cp := *u
	cp.UpdatedAt = time.Now()
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeRepository) UpdatePassword(
	_ context.Context,
	id, passwordHash string,
) error {
	u, ok := f.users[id]
	if !ok || u.IsDeleted() {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeRepository) IncrementTokenVersion(
	_ context.Context,
	id string,
) error {
	u, ok := f.users[id]
	if !ok || u.IsDeleted() {
		return fmt.Errorf("increment token version: %w", core.ErrNotFound)
	}
	u.TokenVersion++
	return nil
}

func (f *fakeRepository) SoftDelete(_ context.Context, id string) error {
	u, ok := f.users[id]
	if !ok || u.IsDeleted() {
		return fmt.Errorf("delete user: %w", core.ErrNotFound)
	}
	now := time.Now()
	u.DeletedAt = &now
	return nil
}

func (f *fakeRepository) List(
	_ context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	var out []User
	for _, u := range f.users {
		if u.IsDeleted() {
			continue
		}
		if params.Role != "" && u.Role != params.Role {
			continue
		}
		if params.Banned != nil && u.IsBanned != *params.Banned {
			continue
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (f *fakeRepository) ExistsByUsername(
	_ context.Context,
	username string,
) (bool, error) {
	for _, u := range f.users {
		if u.Username == username && !u.IsDeleted() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepository) ExistsByEmail(
	_ context.Context,
	email string,
) (bool, error) {
	for _, u := range f.users {
		if u.Email == email && !u.IsDeleted() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepository) SetRole(_ context.Context, id, role string) error {
	u, ok := f.users[id]
	if !ok || u.IsDeleted() {
		return fmt.Errorf("set role: %w", core.ErrNotFound)
	}
	u.Role = role
	return nil
}

func (f *fakeRepository) SetTeamCreation(
	_ context.Context,
	id string,
	allowed bool,
) error {
	u, ok := f.users[id]
	if !ok || u.IsDeleted() {
		return fmt.Errorf("set team creation: %w", core.ErrNotFound)
	}
	u.CanCreateTeam = allowed
	return nil
}

func (f *fakeRepository) SetBanned(
	_ context.Context,
	id string,
	banned bool,
) error {
	u, ok := f.users[id]
	if !ok || u.IsDeleted() {
		return fmt.Errorf("set banned: %w", core.ErrNotFound)
	}
	u.IsBanned = banned
	return nil
}

func (f *fakeRepository) AddFollow(_ context.Context, fl *Follow) error {
	for _, existing := range f.follows {
		if existing.FollowerID == fl.FollowerID &&
			existing.FollowingID == fl.FollowingID {
			return fmt.Errorf("add follow: %w", core.ErrDuplicateKey)
		}
	}
	fl.CreatedAt = time.Now()
	cp := *fl
	f.follows[fl.ID] = &cp
	return nil
}

func (f *fakeRepository) RemoveFollow(
	_ context.Context,
	followerID, followingID string,
) error {
	for id, fl := range f.follows {
		if fl.FollowerID == followerID && fl.FollowingID == followingID {
			delete(f.follows, id)
			return nil
		}
	}
	return fmt.Errorf("remove follow: %w", core.ErrNotFound)
}

func (f *fakeRepository) ListFollowers(
	_ context.Context,
	userID string,
) ([]PublicProfile, error) {
	var out []PublicProfile
	for _, fl := range f.follows {
		if fl.FollowingID == userID {
			out = append(out, f.profile(fl.FollowerID))
		}
	}
	return out, nil
}

func (f *fakeRepository) ListFollowing(
	_ context.Context,
	userID string,
) ([]PublicProfile, error) {
	var out []PublicProfile
	for _, fl := range f.follows {
		if fl.FollowerID == userID {
			out = append(out, f.profile(fl.FollowingID))
		}
	}
	return out, nil
}

func (f *fakeRepository) IsFollowing(
	_ context.Context,
	followerID, followingID string,
) (bool, error) {
	for _, fl := range f.follows {
		if fl.FollowerID == followerID && fl.FollowingID == followingID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepository) profile(id string) PublicProfile {
	u := f.users[id]
	return PublicProfile{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Points:   u.Points,
	}
}

var _ Repository = (*fakeRepository)(nil)

func seedUser(t *testing.T, svc *Service, username string) string {
	t.Helper()
	info, err := svc.Create(
		context.Background(),
		username,
		username+"@example.com",
		"hash",
		"",
	)
	require.NoError(t, err)
	return info.ID
}

func TestCreateRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepository())

	_, err := svc.Create(ctx, "steve", "steve@example.com", "hash", "")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "steve", "other@example.com", "hash", "")
	assert.True(t, core.IsDuplicate(err))

	_, err = svc.Create(ctx, "steve2", "steve@example.com", "hash", "")
	assert.True(t, core.IsDuplicate(err))
}

func TestGetByLoginResolvesUsernameOrEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepository())
	seedUser(t, svc, "steve")

	byName, err := svc.GetByLogin(ctx, "steve")
	require.NoError(t, err)

	byEmail, err := svc.GetByLogin(ctx, "steve@example.com")
	require.NoError(t, err)
	assert.Equal(t, byName.ID, byEmail.ID)

	_, err = svc.GetByLogin(ctx, "nobody")
	assert.True(t, core.IsNotFound(err))
}

func TestUpdateUserAppliesOnlyProvidedFields(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepository())
	id := seedUser(t, svc, "steve")

	bio := "pvp main"
	updated, err := svc.UpdateUser(ctx, id, UpdateUserRequest{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "pvp main", updated.Bio)
	assert.Equal(t, "steve", updated.Username)
}

func TestUpdateUserRoleBumpsTokenVersion(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepository())
	id := seedUser(t, svc, "steve")

	updated, err := svc.UpdateUserRole(ctx, id, RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, updated.Role)
	assert.Equal(t, 1, updated.TokenVersion)

	_, err = svc.UpdateUserRole(ctx, id, "superuser")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestSetBannedGuardsAdminsAndRevokesSessions(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepository())
	adminID := seedUser(t, svc, "admin")
	userID := seedUser(t, svc, "steve")

	_, err := svc.UpdateUserRole(ctx, adminID, RoleAdmin)
	require.NoError(t, err)

	_, err = svc.SetBanned(ctx, adminID, true)
	assert.ErrorIs(t, err, core.ErrForbidden)

	banned, err := svc.SetBanned(ctx, userID, true)
	require.NoError(t, err)
	assert.True(t, banned.IsBanned)
	assert.Equal(t, 1, banned.TokenVersion)

	allowed, err := svc.CanCreateTeam(ctx, userID)
	require.NoError(t, err)
	assert.False(t, allowed)

	unbanned, err := svc.SetBanned(ctx, userID, false)
	require.NoError(t, err)
	assert.False(t, unbanned.IsBanned)
	// Unbanning does not touch sessions.
	assert.Equal(t, 1, unbanned.TokenVersion)
}

func TestSetTeamCreationGrant(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepository())
	id := seedUser(t, svc, "steve")

	allowed, err := svc.CanCreateTeam(ctx, id)
	require.NoError(t, err)
	assert.True(t, allowed)

	_, err = svc.SetTeamCreation(ctx, id, false)
	require.NoError(t, err)

	allowed, err = svc.CanCreateTeam(ctx, id)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestFollowLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepository())
	u1 := seedUser(t, svc, "steve")
	u2 := seedUser(t, svc, "alex")

	require.NoError(t, svc.FollowUser(ctx, u1, u2))

	// Re-following is a no-op, not an error.
	require.NoError(t, svc.FollowUser(ctx, u1, u2))

	following, err := svc.IsFollowing(ctx, u1, u2)
	require.NoError(t, err)
	assert.True(t, following)

	followers, err := svc.ListFollowers(ctx, u2)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "steve", followers[0].Username)

	require.NoError(t, svc.UnfollowUser(ctx, u1, u2))

	following, err = svc.IsFollowing(ctx, u1, u2)
	require.NoError(t, err)
	assert.False(t, following)

	err = svc.UnfollowUser(ctx, u1, u2)
	assert.True(t, core.IsNotFound(err))
}

func TestFollowSelfRejected(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepository())
	id := seedUser(t, svc, "steve")

	err := svc.FollowUser(ctx, id, id)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestFollowUnknownTarget(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepository())
	id := seedUser(t, svc, "steve")

	err := svc.FollowUser(ctx, id, "missing")
	assert.True(t, core.IsNotFound(err))
}

func TestCanDeleteUserRules(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepository())
	adminID := seedUser(t, svc, "admin")
	u1 := seedUser(t, svc, "steve")
	u2 := seedUser(t, svc, "alex")

	_, err := svc.UpdateUserRole(ctx, adminID, RoleAdmin)
	require.NoError(t, err)

	// Self-deletion is always allowed.
	assert.NoError(t, svc.CanDeleteUser(ctx, u1, u1))

	// Regular users cannot delete others.
	assert.ErrorIs(t, svc.CanDeleteUser(ctx, u1, u2), core.ErrForbidden)

	// Admins can delete regular users but not other admins.
	assert.NoError(t, svc.CanDeleteUser(ctx, adminID, u1))
	assert.ErrorIs(t, svc.CanDeleteUser(ctx, u2, adminID), core.ErrForbidden)
}

func TestSoftDeletedUsersDisappear(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepository())
	id := seedUser(t, svc, "steve")

	require.NoError(t, svc.DeleteMe(ctx, id))

	_, err := svc.GetMe(ctx, id)
	assert.True(t, core.IsNotFound(err))

	exists, err := svc.UsernameExists(ctx, "steve")
	require.NoError(t, err)
	assert.False(t, exists)
}
