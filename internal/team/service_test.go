// AngelaMos | 2026
// service_test.go

package team

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmicteams/cosmic-backend/internal/core"
)

type fakeRepository struct {
	teams       map[string]*Team
	memberships []*Membership
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{teams: make(map[string]*Team)}
}

func (f *fakeRepository) CreateTeam(_ context.Context, t *Team) error {
	for _, existing := range f.teams {
		if existing.Name == t.Name {
			return fmt.Errorf("create team: %w", core.ErrDuplicateKey)
		}
	}
	cp := *t
	f.teams[t.ID] = &cp
	return nil
}

func (f *fakeRepository) GetTeam(_ context.Context, id string) (*Team, error) {
	t, ok := f.teams[id]
	if !ok {
		return nil, fmt.Errorf("get team: %w", core.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (f *fakeRepository) GetTeamByName(_ context.Context, name string) (*Team, error) {
	for _, t := range f.teams {
		if t.Name == name {
			cp := *t
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get team by name: %w", core.ErrNotFound)
}

func (f *fakeRepository) UpdateTeam(_ context.Context, t *Team) error {
	existing, ok := f.teams[t.ID]
	if !ok {
		return fmt.Errorf("update team: %w", core.ErrNotFound)
	}
	for _, other := range f.teams {
		if other.ID != t.ID && other.Name == t.Name {
			return fmt.Errorf("update team: %w", core.ErrDuplicateKey)
		}
	}
	*existing = *t
	return nil
}

func (f *fakeRepository) DeleteTeam(_ context.Context, id string) error {
	if _, ok := f.teams[id]; !ok {
		return fmt.Errorf("delete team: %w", core.ErrNotFound)
	}
	delete(f.teams, id)
	return nil
}

func (f *fakeRepository) ListTeams(
	context.Context,
	ListTeamsParams,
) ([]TeamSummary, int, error) {
	var out []TeamSummary
	for _, t := range f.teams {
		out = append(out, TeamSummary{Team: *t})
	}
	return out, len(out), nil
}

func (f *fakeRepository) AddMember(_ context.Context, m *Membership) error {
	for _, existing := range f.memberships {
		if existing.TeamID == m.TeamID && existing.UserID == m.UserID {
			return fmt.Errorf("add member: %w", core.ErrDuplicateKey)
		}
	}
	cp := *m
	f.memberships = append(f.memberships, &cp)
	return nil
}

func (f *fakeRepository) GetMembership(
	_ context.Context,
	teamID, userID string,
) (*Membership, error) {
	for _, m := range f.memberships {
		if m.TeamID == teamID && m.UserID == userID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get membership: %w", core.ErrNotFound)
}

func (f *fakeRepository) GetMembershipByUser(
	_ context.Context,
	userID string,
) (*Membership, error) {
	for _, m := range f.memberships {
		if m.UserID == userID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get membership: %w", core.ErrNotFound)
}

func (f *fakeRepository) ListMembers(
	_ context.Context,
	teamID string,
) ([]Member, error) {
	var out []Member
	for _, m := range f.memberships {
		if m.TeamID == teamID {
			out = append(out, Member{Membership: *m, Username: m.UserID})
		}
	}
	return out, nil
}

func (f *fakeRepository) RemoveMember(_ context.Context, teamID, userID string) error {
	for i, m := range f.memberships {
		if m.TeamID == teamID && m.UserID == userID {
			f.memberships = append(f.memberships[:i], f.memberships[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("remove member: %w", core.ErrNotFound)
}

func (f *fakeRepository) RemoveAllMembers(_ context.Context, teamID string) error {
	kept := f.memberships[:0]
	for _, m := range f.memberships {
		if m.TeamID != teamID {
			kept = append(kept, m)
		}
	}
	f.memberships = kept
	return nil
}

func (f *fakeRepository) SetMemberRole(
	_ context.Context,
	teamID, userID, role string,
) error {
	for _, m := range f.memberships {
		if m.TeamID == teamID && m.UserID == userID {
			m.Role = role
			return nil
		}
	}
	return fmt.Errorf("set member role: %w", core.ErrNotFound)
}

func (f *fakeRepository) TransferLeadership(
	_ context.Context,
	teamID, fromUserID, toUserID string,
) error {
	for _, m := range f.memberships {
		if m.TeamID == teamID && m.UserID == fromUserID {
			m.IsLeader = false
		}
	}
	for _, m := range f.memberships {
		if m.TeamID == teamID && m.UserID == toUserID {
			m.IsLeader = true
		}
	}
	return nil
}

func (f *fakeRepository) LeadsAnyTeam(_ context.Context, userID string) (bool, error) {
	for _, m := range f.memberships {
		if m.UserID == userID && m.IsLeader {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepository) leaderCount(teamID string) int {
	count := 0
	for _, m := range f.memberships {
		if m.TeamID == teamID && m.IsLeader {
			count++
		}
	}
	return count
}

type fakeStore struct {
	repo              *fakeRepository
	serializableCalls int
}

func (s *fakeStore) Repo() Repository { return s.repo }

func (s *fakeStore) InTx(
	_ context.Context,
	fn func(Repository, core.DBTX) error,
) error {
	return fn(s.repo, nil)
}

func (s *fakeStore) InTxSerializable(
	_ context.Context,
	fn func(Repository, core.DBTX) error,
) error {
	s.serializableCalls++
	return fn(s.repo, nil)
}

type fakeInvite struct {
	teamID      string
	recipientID string
	responded   string
}

type fakeRelay struct {
	invites       map[string]*fakeInvite
	notifications []string
}

func newFakeRelay() *fakeRelay {
	return &fakeRelay{invites: make(map[string]*fakeInvite)}
}

func (r *fakeRelay) SendInvite(
	_ context.Context,
	_ core.DBTX,
	_, recipientID, teamID, _, _ string,
) (string, error) {
	id := uuid.New().String()
	r.invites[id] = &fakeInvite{teamID: teamID, recipientID: recipientID}
	return id, nil
}

func (r *fakeRelay) HasOpenInvite(
	_ context.Context,
	_ core.DBTX,
	teamID, recipientID string,
) (bool, error) {
	for _, inv := range r.invites {
		if inv.teamID == teamID && inv.recipientID == recipientID && inv.responded == "" {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRelay) GetInvite(
	_ context.Context,
	_ core.DBTX,
	mailID, recipientID string,
) (string, error) {
	inv, ok := r.invites[mailID]
	if !ok || inv.recipientID != recipientID || inv.responded != "" {
		return "", fmt.Errorf("get invitation: %w", core.ErrNotFound)
	}
	return inv.teamID, nil
}

func (r *fakeRelay) ResolveInvite(
	_ context.Context,
	_ core.DBTX,
	mailID, _, _, outcome string,
) error {
	inv, ok := r.invites[mailID]
	if !ok {
		return fmt.Errorf("resolve invitation: %w", core.ErrNotFound)
	}
	inv.responded = outcome
	return nil
}

func (r *fakeRelay) PurgeTeamInvites(
	_ context.Context,
	_ core.DBTX,
	teamID string,
) error {
	for id, inv := range r.invites {
		if inv.teamID == teamID {
			delete(r.invites, id)
		}
	}
	return nil
}

func (r *fakeRelay) NotifyDisband(
	_ context.Context,
	_, recipientID, _ string,
) error {
	r.notifications = append(r.notifications, recipientID)
	return nil
}

func (r *fakeRelay) openInvites(teamID, recipientID string) int {
	count := 0
	for _, inv := range r.invites {
		if inv.teamID == teamID && inv.recipientID == recipientID && inv.responded == "" {
			count++
		}
	}
	return count
}

type fakeDirectory struct {
	denied map[string]bool
}

func (d *fakeDirectory) CanCreateTeam(_ context.Context, userID string) (bool, error) {
	return !d.denied[userID], nil
}

func newTestService(adminMultiLead bool) (*Service, *fakeRepository, *fakeRelay) {
	repo := newFakeRepository()
	relay := newFakeRelay()
	svc := NewService(
		&fakeStore{repo: repo},
		relay,
		&fakeDirectory{denied: map[string]bool{"no-grant": true}},
		adminMultiLead,
	)
	return svc, repo, relay
}

func TestCreateTeamSingleLeader(t *testing.T) {
	svc, repo, _ := newTestService(true)
	ctx := context.Background()

	created, err := svc.CreateTeam(ctx, "u1", false, CreateTeamRequest{Name: "Orion"})
	require.NoError(t, err)

	require.Equal(t, 1, repo.leaderCount(created.ID))
	m, err := repo.GetMembership(ctx, created.ID, "u1")
	require.NoError(t, err)
	assert.True(t, m.IsLeader)

	// Same name again, from a different user, must not create anything.
	_, err = svc.CreateTeam(ctx, "u2", false, CreateTeamRequest{Name: "Orion"})
	assert.ErrorIs(t, err, ErrNameTaken)
	assert.Len(t, repo.teams, 1)
	assert.Len(t, repo.memberships, 1)
}

func TestCreateTeamWhileAlreadyLeading(t *testing.T) {
	svc, _, _ := newTestService(true)
	ctx := context.Background()

	_, err := svc.CreateTeam(ctx, "u1", false, CreateTeamRequest{Name: "Orion"})
	require.NoError(t, err)

	_, err = svc.CreateTeam(ctx, "u1", false, CreateTeamRequest{Name: "Vega"})
	assert.ErrorIs(t, err, ErrAlreadyLeadsTeam)
}

func TestCreateTeamAdminMultiLeadPolicy(t *testing.T) {
	ctx := context.Background()

	svc, repo, _ := newTestService(true)
	_, err := svc.CreateTeam(ctx, "admin", true, CreateTeamRequest{Name: "Orion"})
	require.NoError(t, err)
	_, err = svc.CreateTeam(ctx, "admin", true, CreateTeamRequest{Name: "Vega"})
	require.NoError(t, err)
	assert.Len(t, repo.teams, 2)

	strict, _, _ := newTestService(false)
	_, err = strict.CreateTeam(ctx, "admin", true, CreateTeamRequest{Name: "Orion"})
	require.NoError(t, err)
	_, err = strict.CreateTeam(ctx, "admin", true, CreateTeamRequest{Name: "Vega"})
	assert.ErrorIs(t, err, ErrAlreadyLeadsTeam)
}

func TestCreateTeamAdminMemberUnderStrictPolicy(t *testing.T) {
	ctx := context.Background()

	strict, repo, _ := newTestService(false)
	team, err := strict.CreateTeam(ctx, "leader", false, CreateTeamRequest{Name: "Orion"})
	require.NoError(t, err)
	require.NoError(t, repo.AddMember(ctx, &Membership{
		ID:     "m-admin",
		TeamID: team.ID,
		UserID: "admin",
		Role:   RoleMember,
	}))

	// Without the multi-lead policy an admin is bound by the one-team
	// rule like anyone else.
	_, err = strict.CreateTeam(ctx, "admin", true, CreateTeamRequest{Name: "Vega"})
	assert.ErrorIs(t, err, ErrAlreadyOnTeam)

	relaxed, repo2, _ := newTestService(true)
	team2, err := relaxed.CreateTeam(ctx, "leader", false, CreateTeamRequest{Name: "Orion"})
	require.NoError(t, err)
	require.NoError(t, repo2.AddMember(ctx, &Membership{
		ID:     "m-admin",
		TeamID: team2.ID,
		UserID: "admin",
		Role:   RoleMember,
	}))

	_, err = relaxed.CreateTeam(ctx, "admin", true, CreateTeamRequest{Name: "Vega"})
	assert.NoError(t, err)
}

func TestGuardedWritesRunSerializable(t *testing.T) {
	repo := newFakeRepository()
	store := &fakeStore{repo: repo}
	svc := NewService(store, newFakeRelay(), &fakeDirectory{}, true)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, "leader", false, CreateTeamRequest{Name: "Orion"})
	require.NoError(t, err)

	mailID, err := svc.InviteUser(ctx, team.ID, "u2", "leader", false)
	require.NoError(t, err)

	_, err = svc.AcceptInvitation(ctx, mailID, "u2")
	require.NoError(t, err)

	// Create, invite, and accept each check an invariant that no unique
	// index enforces, so all three must take the serializable path.
	assert.Equal(t, 3, store.serializableCalls)
}

func TestCreateTeamRequiresGrant(t *testing.T) {
	svc, _, _ := newTestService(true)

	_, err := svc.CreateTeam(
		context.Background(), "no-grant", false, CreateTeamRequest{Name: "Orion"},
	)
	assert.ErrorIs(t, err, ErrCannotCreateTeam)
}

func TestInviteUserDuplicateGuard(t *testing.T) {
	svc, _, relay := newTestService(true)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, "leader", false, CreateTeamRequest{Name: "Orion"})
	require.NoError(t, err)

	_, err = svc.InviteUser(ctx, team.ID, "u3", "leader", false)
	require.NoError(t, err)

	_, err = svc.InviteUser(ctx, team.ID, "u3", "leader", false)
	assert.ErrorIs(t, err, ErrDuplicateInvitation)

	assert.Equal(t, 1, relay.openInvites(team.ID, "u3"))
}

func TestInviteUserPermission(t *testing.T) {
	svc, _, _ := newTestService(true)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, "leader", false, CreateTeamRequest{Name: "Orion"})
	require.NoError(t, err)

	_, err = svc.InviteUser(ctx, team.ID, "u3", "stranger", false)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	// Admins may invite without being members.
	_, err = svc.InviteUser(ctx, team.ID, "u3", "some-admin", true)
	assert.NoError(t, err)
}

func TestAcceptInvitation(t *testing.T) {
	svc, repo, relay := newTestService(true)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, "leader", false, CreateTeamRequest{Name: "Orion"})
	require.NoError(t, err)

	mailID, err := svc.InviteUser(ctx, team.ID, "u2", "leader", false)
	require.NoError(t, err)

	joined, err := svc.AcceptInvitation(ctx, mailID, "u2")
	require.NoError(t, err)
	assert.Equal(t, team.ID, joined.ID)

	m, err := repo.GetMembership(ctx, team.ID, "u2")
	require.NoError(t, err)
	assert.False(t, m.IsLeader)

	assert.Equal(t, inviteAccepted, relay.invites[mailID].responded)

	// A resolved invitation cannot be replayed.
	_, err = svc.AcceptInvitation(ctx, mailID, "u2")
	assert.ErrorIs(t, err, ErrInvitationNotFound)
}

func TestAcceptInvitationSingleTeamInvariant(t *testing.T) {
	svc, repo, _ := newTestService(true)
	ctx := context.Background()

	t1, err := svc.CreateTeam(ctx, "leader1", false, CreateTeamRequest{Name: "Orion"})
	require.NoError(t, err)
	t2, err := svc.CreateTeam(ctx, "leader2", false, CreateTeamRequest{Name: "Vega"})
	require.NoError(t, err)

	mail1, err := svc.InviteUser(ctx, t1.ID, "u2", "leader1", false)
	require.NoError(t, err)
	mail2, err := svc.InviteUser(ctx, t2.ID, "u2", "leader2", false)
	require.NoError(t, err)

	_, err = svc.AcceptInvitation(ctx, mail1, "u2")
	require.NoError(t, err)

	_, err = svc.AcceptInvitation(ctx, mail2, "u2")
	assert.ErrorIs(t, err, ErrAlreadyOnTeam)

	// Membership to the first team survives untouched.
	m, err := repo.GetMembership(ctx, t1.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, t1.ID, m.TeamID)
	_, err = repo.GetMembership(ctx, t2.ID, "u2")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeclineInvitation(t *testing.T) {
	svc, repo, relay := newTestService(true)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, "leader", false, CreateTeamRequest{Name: "Orion"})
	require.NoError(t, err)

	mailID, err := svc.InviteUser(ctx, team.ID, "u2", "leader", false)
	require.NoError(t, err)

	require.NoError(t, svc.DeclineInvitation(ctx, mailID, "u2"))
	assert.Equal(t, inviteDeclined, relay.invites[mailID].responded)

	_, err = repo.GetMembership(ctx, team.ID, "u2")
	assert.ErrorIs(t, err, core.ErrNotFound)

	// Declining frees the duplicate-invitation slot.
	_, err = svc.InviteUser(ctx, team.ID, "u2", "leader", false)
	assert.NoError(t, err)
}

func TestLeaderCannotLeave(t *testing.T) {
	svc, _, _ := newTestService(true)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, "leader", false, CreateTeamRequest{Name: "Orion"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.LeaveTeam(ctx, team.ID, "leader"), ErrLeaderCannotLeave)
}

func TestKickLeaderGuard(t *testing.T) {
	svc, _, _ := newTestService(true)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, "leader", false, CreateTeamRequest{Name: "Orion"})
	require.NoError(t, err)

	err = svc.KickMember(ctx, team.ID, "leader", "leader", false)
	assert.ErrorIs(t, err, ErrCannotKickLeader)

	// Not even an admin can kick the leader.
	err = svc.KickMember(ctx, team.ID, "leader", "some-admin", true)
	assert.ErrorIs(t, err, ErrCannotKickLeader)
}

func TestKickMember(t *testing.T) {
	svc, repo, _ := newTestService(true)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, "leader", false, CreateTeamRequest{Name: "Orion"})
	require.NoError(t, err)
	joinTeam(t, svc, team.ID, "leader", "u2")

	require.NoError(t, svc.KickMember(ctx, team.ID, "u2", "leader", false))
	_, err = repo.GetMembership(ctx, team.ID, "u2")
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = svc.KickMember(ctx, team.ID, "ghost", "leader", false)
	assert.ErrorIs(t, err, ErrNotAMember)
}

func TestPromoteDemote(t *testing.T) {
	svc, repo, _ := newTestService(true)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, "leader", false, CreateTeamRequest{Name: "Orion"})
	require.NoError(t, err)
	joinTeam(t, svc, team.ID, "leader", "u2")

	require.NoError(t, svc.PromoteMember(ctx, team.ID, "u2", "leader", false))
	m, err := repo.GetMembership(ctx, team.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, RoleCoLeader, m.Role)
	assert.False(t, m.IsLeader)

	require.NoError(t, svc.DemoteMember(ctx, team.ID, "u2", "leader", false))
	m, err = repo.GetMembership(ctx, team.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, RoleMember, m.Role)

	err = svc.PromoteMember(ctx, team.ID, "leader", "leader", false)
	assert.ErrorIs(t, err, ErrAlreadyLeader)
}

func TestTransferLeadership(t *testing.T) {
	svc, repo, _ := newTestService(true)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, "leader", false, CreateTeamRequest{Name: "Orion"})
	require.NoError(t, err)
	joinTeam(t, svc, team.ID, "leader", "u2")

	require.NoError(t, svc.TransferLeadership(ctx, team.ID, "u2", "leader", false))

	assert.Equal(t, 1, repo.leaderCount(team.ID))
	m, err := repo.GetMembership(ctx, team.ID, "u2")
	require.NoError(t, err)
	assert.True(t, m.IsLeader)

	old, err := repo.GetMembership(ctx, team.ID, "leader")
	require.NoError(t, err)
	assert.False(t, old.IsLeader)
}

func TestDisbandCleanup(t *testing.T) {
	svc, repo, relay := newTestService(true)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, "leader", false, CreateTeamRequest{Name: "Orion"})
	require.NoError(t, err)
	joinTeam(t, svc, team.ID, "leader", "u2")
	joinTeam(t, svc, team.ID, "leader", "u3")

	require.NoError(t, svc.DisbandTeam(ctx, team.ID, "leader", false))

	assert.Empty(t, repo.memberships)
	_, err = repo.GetTeam(ctx, team.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	// One notification per former member, none for the actor.
	assert.ElementsMatch(t, []string{"u2", "u3"}, relay.notifications)
}

func TestDeleteTeamAtomicCleanup(t *testing.T) {
	svc, repo, relay := newTestService(true)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, "leader", false, CreateTeamRequest{Name: "Orion"})
	require.NoError(t, err)
	joinTeam(t, svc, team.ID, "leader", "u2")

	_, err = svc.InviteUser(ctx, team.ID, "u4", "leader", false)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTeam(ctx, team.ID, "leader", false))

	assert.Empty(t, repo.memberships)
	assert.Empty(t, relay.invites)
	assert.Empty(t, relay.notifications)
	_, err = repo.GetTeam(ctx, team.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func joinTeam(t *testing.T, svc *Service, teamID, leaderID, userID string) {
	t.Helper()

	mailID, err := svc.InviteUser(context.Background(), teamID, userID, leaderID, false)
	require.NoError(t, err)

	_, err = svc.AcceptInvitation(context.Background(), mailID, userID)
	require.NoError(t, err)
}
