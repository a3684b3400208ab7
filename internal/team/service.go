// AngelaMos | 2026
// service.go

package team

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cosmicteams/cosmic-backend/internal/core"
)

const (
	inviteAccepted = "accepted"
	inviteDeclined = "declined"
)

// MailRelay is the typed outbox the membership manager writes invitations
// and notifications through. Methods taking a core.DBTX run on the team
// operation's own transaction; NotifyDisband is best-effort and runs
// outside any transaction.
type MailRelay interface {
	SendInvite(
		ctx context.Context,
		db core.DBTX,
		senderID, recipientID, teamID, teamName, teamDescription string,
	) (string, error)
	HasOpenInvite(ctx context.Context, db core.DBTX, teamID, recipientID string) (bool, error)
	GetInvite(ctx context.Context, db core.DBTX, mailID, recipientID string) (string, error)
	ResolveInvite(ctx context.Context, db core.DBTX, mailID, userID, teamID, outcome string) error
	PurgeTeamInvites(ctx context.Context, db core.DBTX, teamID string) error
	NotifyDisband(ctx context.Context, actorID, recipientID, teamName string) error
}

// UserDirectory exposes the per-user grants the manager needs without
// owning user rows.
type UserDirectory interface {
	CanCreateTeam(ctx context.Context, userID string) (bool, error)
}

type Service struct {
	store Store
	relay MailRelay
	users UserDirectory

	// adminMultiLead exempts admins from the one-team-led rule. Kept as a
	// named policy switch so operators can decide rather than inheriting
	// the old implicit behavior.
	adminMultiLead bool
}

func NewService(
	store Store,
	relay MailRelay,
	users UserDirectory,
	adminMultiLead bool,
) *Service {
	return &Service{
		store:          store,
		relay:          relay,
		users:          users,
		adminMultiLead: adminMultiLead,
	}
}

func (s *Service) CreateTeam(
	ctx context.Context,
	userID string,
	isAdmin bool,
	req CreateTeamRequest,
) (*Team, error) {
	if !isAdmin {
		allowed, err := s.users.CanCreateTeam(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, ErrCannotCreateTeam
		}
	}

	t := &Team{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Logo:        req.Logo,
		Email:       req.Email,
		Discord:     req.Discord,
		Website:     req.Website,
		Rules:       req.Rules,
	}

	err := s.store.InTxSerializable(ctx, func(repo Repository, _ core.DBTX) error {
		leads, err := repo.LeadsAnyTeam(ctx, userID)
		if err != nil {
			return err
		}
		if leads && !(isAdmin && s.adminMultiLead) {
			return ErrAlreadyLeadsTeam
		}

		// The multi-lead policy exempts admins from the one-team rule;
		// without it an admin is bound like everyone else.
		if !(isAdmin && s.adminMultiLead) {
			if _, err := repo.GetMembershipByUser(ctx, userID); err == nil {
				return ErrAlreadyOnTeam
			} else if !core.IsNotFound(err) {
				return err
			}
		}

		if err := repo.CreateTeam(ctx, t); err != nil {
			if core.IsDuplicate(err) {
				return ErrNameTaken
			}
			return err
		}

		return repo.AddMember(ctx, &Membership{
			ID:       uuid.New().String(),
			TeamID:   t.ID,
			UserID:   userID,
			IsLeader: true,
			Role:     RoleMember,
		})
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}

// InviteUser issues a team invitation and returns the invitation mail id.
func (s *Service) InviteUser(
	ctx context.Context,
	teamID, recipientID, actorID string,
	actorIsAdmin bool,
) (string, error) {
	var mailID string

	err := s.store.InTxSerializable(ctx, func(repo Repository, db core.DBTX) error {
		t, err := repo.GetTeam(ctx, teamID)
		if err != nil {
			if core.IsNotFound(err) {
				return ErrTeamNotFound
			}
			return err
		}

		if err := s.requireLeaderOrAdmin(ctx, repo, teamID, actorID, actorIsAdmin); err != nil {
			return err
		}

		if _, err := repo.GetMembership(ctx, teamID, recipientID); err == nil {
			return ErrAlreadyMember
		} else if !core.IsNotFound(err) {
			return err
		}

		open, err := s.relay.HasOpenInvite(ctx, db, teamID, recipientID)
		if err != nil {
			return err
		}
		if open {
			return ErrDuplicateInvitation
		}

		mailID, err = s.relay.SendInvite(
			ctx, db, actorID, recipientID, teamID, t.Name, t.Description,
		)
		return err
	})
	if err != nil {
		return "", err
	}

	return mailID, nil
}

func (s *Service) AcceptInvitation(
	ctx context.Context,
	mailID, userID string,
) (*Team, error) {
	var joined *Team

	err := s.store.InTxSerializable(ctx, func(repo Repository, db core.DBTX) error {
		teamID, err := s.relay.GetInvite(ctx, db, mailID, userID)
		if err != nil {
			if core.IsNotFound(err) {
				return ErrInvitationNotFound
			}
			return err
		}

		if _, err := repo.GetMembershipByUser(ctx, userID); err == nil {
			return ErrAlreadyOnTeam
		} else if !core.IsNotFound(err) {
			return err
		}

		t, err := repo.GetTeam(ctx, teamID)
		if err != nil {
			if core.IsNotFound(err) {
				return ErrTeamNotFound
			}
			return err
		}

		if err := repo.AddMember(ctx, &Membership{
			ID:     uuid.New().String(),
			TeamID: teamID,
			UserID: userID,
			Role:   RoleMember,
		}); err != nil {
			if core.IsDuplicate(err) {
				return ErrAlreadyMember
			}
			return err
		}

		if err := s.relay.ResolveInvite(
			ctx, db, mailID, userID, teamID, inviteAccepted,
		); err != nil {
			return err
		}

		joined = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	return joined, nil
}

func (s *Service) DeclineInvitation(ctx context.Context, mailID, userID string) error {
	return s.store.InTx(ctx, func(_ Repository, db core.DBTX) error {
		teamID, err := s.relay.GetInvite(ctx, db, mailID, userID)
		if err != nil {
			if core.IsNotFound(err) {
				return ErrInvitationNotFound
			}
			return err
		}

		return s.relay.ResolveInvite(ctx, db, mailID, userID, teamID, inviteDeclined)
	})
}

func (s *Service) LeaveTeam(ctx context.Context, teamID, userID string) error {
	return s.store.InTx(ctx, func(repo Repository, _ core.DBTX) error {
		m, err := repo.GetMembership(ctx, teamID, userID)
		if err != nil {
			if core.IsNotFound(err) {
				return ErrNotAMember
			}
			return err
		}

		if m.IsLeader {
			return ErrLeaderCannotLeave
		}

		return repo.RemoveMember(ctx, teamID, userID)
	})
}

func (s *Service) KickMember(
	ctx context.Context,
	teamID, targetID, actorID string,
	actorIsAdmin bool,
) error {
	return s.store.InTx(ctx, func(repo Repository, _ core.DBTX) error {
		if err := s.requireLeaderOrAdmin(ctx, repo, teamID, actorID, actorIsAdmin); err != nil {
			return err
		}

		target, err := repo.GetMembership(ctx, teamID, targetID)
		if err != nil {
			if core.IsNotFound(err) {
				return ErrNotAMember
			}
			return err
		}

		if target.IsLeader {
			return ErrCannotKickLeader
		}

		return repo.RemoveMember(ctx, teamID, targetID)
	})
}

func (s *Service) PromoteMember(
	ctx context.Context,
	teamID, targetID, actorID string,
	actorIsAdmin bool,
) error {
	return s.setRole(ctx, teamID, targetID, actorID, actorIsAdmin, RoleCoLeader)
}

func (s *Service) DemoteMember(
	ctx context.Context,
	teamID, targetID, actorID string,
	actorIsAdmin bool,
) error {
	return s.setRole(ctx, teamID, targetID, actorID, actorIsAdmin, RoleMember)
}

func (s *Service) setRole(
	ctx context.Context,
	teamID, targetID, actorID string,
	actorIsAdmin bool,
	role string,
) error {
	return s.store.InTx(ctx, func(repo Repository, _ core.DBTX) error {
		if err := s.requireLeaderOrAdmin(ctx, repo, teamID, actorID, actorIsAdmin); err != nil {
			return err
		}

		target, err := repo.GetMembership(ctx, teamID, targetID)
		if err != nil {
			if core.IsNotFound(err) {
				return ErrNotAMember
			}
			return err
		}

		if target.IsLeader {
			return ErrAlreadyLeader
		}

		return repo.SetMemberRole(ctx, teamID, targetID, role)
	})
}

func (s *Service) TransferLeadership(
	ctx context.Context,
	teamID, targetID, actorID string,
	actorIsAdmin bool,
) error {
	return s.store.InTx(ctx, func(repo Repository, _ core.DBTX) error {
		leader, err := s.leaderOf(ctx, repo, teamID)
		if err != nil {
			return err
		}

		if !actorIsAdmin && leader.UserID != actorID {
			return ErrPermissionDenied
		}

		target, err := repo.GetMembership(ctx, teamID, targetID)
		if err != nil {
			if core.IsNotFound(err) {
				return ErrNotAMember
			}
			return err
		}

		if target.IsLeader {
			return ErrAlreadyLeader
		}

		return repo.TransferLeadership(ctx, teamID, leader.UserID, targetID)
	})
}

// DisbandTeam destroys the team and its memberships, then notifies former
// members. Notification failures are logged, never rolled back.
func (s *Service) DisbandTeam(
	ctx context.Context,
	teamID, actorID string,
	actorIsAdmin bool,
) error {
	var (
		disbanded *Team
		former    []Member
	)

	err := s.store.InTx(ctx, func(repo Repository, db core.DBTX) error {
		t, err := repo.GetTeam(ctx, teamID)
		if err != nil {
			if core.IsNotFound(err) {
				return ErrTeamNotFound
			}
			return err
		}

		if err := s.requireLeaderOrAdmin(ctx, repo, teamID, actorID, actorIsAdmin); err != nil {
			return err
		}

		members, err := repo.ListMembers(ctx, teamID)
		if err != nil {
			return err
		}

		if err := s.relay.PurgeTeamInvites(ctx, db, teamID); err != nil {
			return err
		}

		if err := repo.RemoveAllMembers(ctx, teamID); err != nil {
			return err
		}

		if err := repo.DeleteTeam(ctx, teamID); err != nil {
			return err
		}

		disbanded = t
		former = members
		return nil
	})
	if err != nil {
		return err
	}

	for _, m := range former {
		if m.UserID == actorID {
			continue
		}
		if err := s.relay.NotifyDisband(ctx, actorID, m.UserID, disbanded.Name); err != nil {
			slog.Warn("disband notification failed",
				"team", disbanded.Name,
				"recipient", m.UserID,
				"error", err,
			)
		}
	}

	return nil
}

// DeleteTeam removes pending invitations, memberships, and the team row as
// one atomic unit, with no notifications.
func (s *Service) DeleteTeam(
	ctx context.Context,
	teamID, actorID string,
	actorIsAdmin bool,
) error {
	return s.store.InTx(ctx, func(repo Repository, db core.DBTX) error {
		if _, err := repo.GetTeam(ctx, teamID); err != nil {
			if core.IsNotFound(err) {
				return ErrTeamNotFound
			}
			return err
		}

		if err := s.requireLeaderOrAdmin(ctx, repo, teamID, actorID, actorIsAdmin); err != nil {
			return err
		}

		if err := s.relay.PurgeTeamInvites(ctx, db, teamID); err != nil {
			return err
		}

		if err := repo.RemoveAllMembers(ctx, teamID); err != nil {
			return err
		}

		return repo.DeleteTeam(ctx, teamID)
	})
}

func (s *Service) UpdateTeam(
	ctx context.Context,
	teamID, actorID string,
	actorIsAdmin bool,
	req UpdateTeamRequest,
) (*Team, error) {
	var updated *Team

	err := s.store.InTx(ctx, func(repo Repository, _ core.DBTX) error {
		t, err := repo.GetTeam(ctx, teamID)
		if err != nil {
			if core.IsNotFound(err) {
				return ErrTeamNotFound
			}
			return err
		}

		if err := s.requireLeaderOrAdmin(ctx, repo, teamID, actorID, actorIsAdmin); err != nil {
			return err
		}

		req.apply(t)

		if err := repo.UpdateTeam(ctx, t); err != nil {
			if core.IsDuplicate(err) {
				return ErrNameTaken
			}
			return err
		}

		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *Service) GetTeam(ctx context.Context, teamID string) (*Team, []Member, error) {
	repo := s.store.Repo()

	t, err := repo.GetTeam(ctx, teamID)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, nil, ErrTeamNotFound
		}
		return nil, nil, err
	}

	members, err := repo.ListMembers(ctx, teamID)
	if err != nil {
		return nil, nil, err
	}

	return t, members, nil
}

func (s *Service) ListTeams(
	ctx context.Context,
	params ListTeamsParams,
) ([]TeamSummary, int, error) {
	return s.store.Repo().ListTeams(ctx, params)
}

func (s *Service) GetMyTeam(ctx context.Context, userID string) (*Team, []Member, error) {
	repo := s.store.Repo()

	m, err := repo.GetMembershipByUser(ctx, userID)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	return s.GetTeam(ctx, m.TeamID)
}

func (s *Service) requireLeaderOrAdmin(
	ctx context.Context,
	repo Repository,
	teamID, actorID string,
	actorIsAdmin bool,
) error {
	if actorIsAdmin {
		return nil
	}

	m, err := repo.GetMembership(ctx, teamID, actorID)
	if err != nil {
		if core.IsNotFound(err) {
			return ErrPermissionDenied
		}
		return err
	}

	if !m.IsLeader {
		return ErrPermissionDenied
	}

	return nil
}

func (s *Service) leaderOf(
	ctx context.Context,
	repo Repository,
	teamID string,
) (*Member, error) {
	members, err := repo.ListMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}

	for i := range members {
		if members[i].IsLeader {
			return &members[i], nil
		}
	}

	return nil, ErrTeamNotFound
}
