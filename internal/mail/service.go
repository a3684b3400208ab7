// AngelaMos | 2026
// service.go

package mail

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cosmicteams/cosmic-backend/internal/core"
)

type Service struct {
	repo Repository

	// repoFor builds a repository bound to a caller-supplied DBTX so relay
	// writes can join an external transaction.
	repoFor func(core.DBTX) Repository
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:    repo,
		repoFor: NewRepository,
	}
}

func (s *Service) Send(
	ctx context.Context,
	senderID, recipientID, subject, body string,
) (*Mail, error) {
	if senderID == recipientID {
		return nil, core.ValidationError("cannot send mail to yourself")
	}

	m := &Mail{
		ID:          uuid.New().String(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Subject:     subject,
		Body:        body,
		Type:        TypeMessage,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

// Get returns a message addressed to userID and marks it read.
func (s *Service) Get(ctx context.Context, id, userID string) (*Mail, error) {
	m, err := s.repo.GetForRecipient(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if !m.IsRead {
		if err := s.repo.MarkRead(ctx, id); err != nil {
			return nil, err
		}
		m.IsRead = true
	}

	return m, nil
}

func (s *Service) Inbox(
	ctx context.Context,
	userID string,
	f InboxFilters,
) ([]Mail, error) {
	return s.repo.ListInbox(ctx, userID, f)
}

func (s *Service) Sent(
	ctx context.Context,
	userID string,
	limit int,
) ([]Mail, error) {
	return s.repo.ListSent(ctx, userID, limit)
}

func (s *Service) Delete(ctx context.Context, id, userID string) error {
	return s.repo.Delete(ctx, id, userID)
}

func (s *Service) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

// Relay methods below run against a caller-supplied DBTX so team
// operations can keep invitation writes inside their own transaction.

func (s *Service) SendInvite(
	ctx context.Context,
	db core.DBTX,
	senderID, recipientID, teamID, teamName, teamDescription string,
) (string, error) {
	m := &Mail{
		ID:          uuid.New().String(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Subject:     fmt.Sprintf("Team Invitation: %s", teamName),
		Body: fmt.Sprintf(
			"You have been invited to join the team %q.\n\n%s\n\n"+
				"Accept or decline this invitation from your inbox.",
			teamName, teamDescription,
		),
		Type:      TypeTeamInvite,
		RelatedID: &teamID,
	}

	if err := s.repoFor(db).Create(ctx, m); err != nil {
		return "", err
	}

	return m.ID, nil
}

func (s *Service) HasOpenInvite(
	ctx context.Context,
	db core.DBTX,
	teamID, recipientID string,
) (bool, error) {
	_, err := s.repoFor(db).FindUnresponded(
		ctx,
		recipientID,
		TypeTeamInvite,
		teamID,
	)
	if err != nil {
		if core.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// GetInvite returns the team id of an unresponded invitation addressed to
// the given recipient.
func (s *Service) GetInvite(
	ctx context.Context,
	db core.DBTX,
	mailID, recipientID string,
) (string, error) {
	m, err := s.repoFor(db).GetUnrespondedInvite(ctx, mailID, recipientID)
	if err != nil {
		return "", err
	}

	if m.RelatedID == nil {
		return "", fmt.Errorf("invitation %s has no team: %w", mailID, core.ErrNotFound)
	}

	return *m.RelatedID, nil
}

// ResolveInvite marks the invitation read and records the outcome.
func (s *Service) ResolveInvite(
	ctx context.Context,
	db core.DBTX,
	mailID, userID, teamID, outcome string,
) error {
	repo := s.repoFor(db)

	if err := repo.MarkRead(ctx, mailID); err != nil {
		return err
	}

	return repo.CreateResponse(ctx, &InviteResponse{
		ID:       uuid.New().String(),
		MailID:   mailID,
		UserID:   userID,
		TeamID:   teamID,
		Response: outcome,
	})
}

func (s *Service) PurgeTeamInvites(
	ctx context.Context,
	db core.DBTX,
	teamID string,
) error {
	return s.repoFor(db).DeleteByTypeAndRelated(ctx, TypeTeamInvite, teamID)
}

func (s *Service) NotifyDisband(
	ctx context.Context,
	actorID, recipientID, teamName string,
) error {
	m := &Mail{
		ID:          uuid.New().String(),
		SenderID:    actorID,
		RecipientID: recipientID,
		Subject:     fmt.Sprintf("Team %s has been disbanded", teamName),
		Body: fmt.Sprintf(
			"The team %q has been disbanded by the team leader.",
			teamName,
		),
		Type: TypeSystemNotification,
	}

	return s.repo.Create(ctx, m)
}
