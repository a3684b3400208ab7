// AngelaMos | 2026
// service_test.go

package mail

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmicteams/cosmic-backend/internal/core"
)

type fakeRepository struct {
	mail      map[string]*Mail
	responses map[string]*InviteResponse
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		mail:      make(map[string]*Mail),
		responses: make(map[string]*InviteResponse),
	}
}

func (f *fakeRepository) Create(_ context.Context, m *Mail) error {
	m.CreatedAt = time.Now()
	cp := *m
	f.mail[m.ID] = &cp
	return nil
}

func (f *fakeRepository) GetForRecipient(
	_ context.Context,
	id, recipientID string,
) (*Mail, error) {
	m, ok := f.mail[id]
	if !ok || m.RecipientID != recipientID {
		return nil, fmt.Errorf("get mail: %w", core.ErrNotFound)
	}
	cp := *m
	return &cp, nil
}

func (f *fakeRepository) ListInbox(
	_ context.Context,
	recipientID string,
	filters InboxFilters,
) ([]Mail, error) {
	var out []Mail
	for _, m := range f.mail {
		if m.RecipientID != recipientID {
			continue
		}
		if filters.Type != "" && m.Type != filters.Type {
			continue
		}
		if filters.Unread != nil && m.IsRead == *filters.Unread {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeRepository) ListSent(
	_ context.Context,
	senderID string,
	_ int,
) ([]Mail, error) {
	var out []Mail
	for _, m := range f.mail {
		if m.SenderID == senderID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeRepository) MarkRead(_ context.Context, id string) error {
	m, ok := f.mail[id]
	if !ok {
		return fmt.Errorf("mark mail read: %w", core.ErrNotFound)
	}
	m.IsRead = true
	return nil
}

func (f *fakeRepository) Delete(_ context.Context, id, recipientID string) error {
	m, ok := f.mail[id]
	if !ok || m.RecipientID != recipientID {
		return fmt.Errorf("delete mail: %w", core.ErrNotFound)
	}
	delete(f.mail, id)
	return nil
}

func (f *fakeRepository) CountUnread(
	_ context.Context,
	userID string,
) (int, error) {
	count := 0
	for _, m := range f.mail {
		if m.RecipientID == userID && !m.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepository) FindUnresponded(
	_ context.Context,
	recipientID, mailType, relatedID string,
) (*Mail, error) {
	for _, m := range f.mail {
		if m.RecipientID != recipientID || m.Type != mailType {
			continue
		}
		if m.RelatedID == nil || *m.RelatedID != relatedID {
			continue
		}
		if f.hasResponse(m.ID) {
			continue
		}
		cp := *m
		return &cp, nil
	}
	return nil, fmt.Errorf("find unresponded mail: %w", core.ErrNotFound)
}

func (f *fakeRepository) GetUnrespondedInvite(
	_ context.Context,
	id, recipientID string,
) (*Mail, error) {
	m, ok := f.mail[id]
	if !ok || m.RecipientID != recipientID || m.Type != TypeTeamInvite {
		return nil, fmt.Errorf("get invitation: %w", core.ErrNotFound)
	}
	if f.hasResponse(id) {
		return nil, fmt.Errorf("get invitation: %w", core.ErrNotFound)
	}
	cp := *m
	return &cp, nil
}

func (f *fakeRepository) CreateResponse(
	_ context.Context,
	resp *InviteResponse,
) error {
	resp.RespondedAt = time.Now()
	cp := *resp
	f.responses[resp.ID] = &cp
	return nil
}

func (f *fakeRepository) DeleteByTypeAndRelated(
	_ context.Context,
	mailType, relatedID string,
) error {
	for id, m := range f.mail {
		if m.Type == mailType && m.RelatedID != nil && *m.RelatedID == relatedID {
			delete(f.mail, id)
		}
	}
	return nil
}

func (f *fakeRepository) hasResponse(mailID string) bool {
	for _, resp := range f.responses {
		if resp.MailID == mailID {
			return true
		}
	}
	return false
}

var _ Repository = (*fakeRepository)(nil)

func newTestService() (*Service, *fakeRepository) {
	repo := newFakeRepository()
	svc := NewService(repo)
	svc.repoFor = func(core.DBTX) Repository { return repo }
	return svc, repo
}

func TestSendRejectsSelfSend(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Send(context.Background(), "u1", "u1", "hi", "hello")
	require.Error(t, err)
}

func TestGetMarksRead(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	sent, err := svc.Send(ctx, "u1", "u2", "hi", "hello")
	require.NoError(t, err)

	count, err := svc.CountUnread(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := svc.Get(ctx, sent.ID, "u2")
	require.NoError(t, err)
	assert.True(t, got.IsRead)

	count, err = svc.CountUnread(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestGetDeniedForNonRecipient(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	sent, err := svc.Send(ctx, "u1", "u2", "hi", "hello")
	require.NoError(t, err)

	_, err = svc.Get(ctx, sent.ID, "u3")
	assert.True(t, core.IsNotFound(err))
}

func TestInviteLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	mailID, err := svc.SendInvite(
		ctx, nil, "leader", "u2", "t1", "Orion", "A pvp team",
	)
	require.NoError(t, err)

	open, err := svc.HasOpenInvite(ctx, nil, "t1", "u2")
	require.NoError(t, err)
	assert.True(t, open)

	teamID, err := svc.GetInvite(ctx, nil, mailID, "u2")
	require.NoError(t, err)
	assert.Equal(t, "t1", teamID)

	// Only the addressed recipient can resolve it.
	_, err = svc.GetInvite(ctx, nil, mailID, "u3")
	assert.True(t, core.IsNotFound(err))

	err = svc.ResolveInvite(ctx, nil, mailID, "u2", "t1", ResponseAccepted)
	require.NoError(t, err)

	// Resolved invitations read as gone.
	_, err = svc.GetInvite(ctx, nil, mailID, "u2")
	assert.True(t, core.IsNotFound(err))

	open, err = svc.HasOpenInvite(ctx, nil, "t1", "u2")
	require.NoError(t, err)
	assert.False(t, open)
}

func TestPurgeTeamInvites(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	_, err := svc.SendInvite(ctx, nil, "leader", "u2", "t1", "Orion", "")
	require.NoError(t, err)
	_, err = svc.SendInvite(ctx, nil, "leader", "u3", "t1", "Orion", "")
	require.NoError(t, err)
	keep, err := svc.Send(ctx, "u2", "u3", "unrelated", "keep me")
	require.NoError(t, err)

	require.NoError(t, svc.PurgeTeamInvites(ctx, nil, "t1"))

	assert.Len(t, repo.mail, 1)
	assert.Contains(t, repo.mail, keep.ID)
}

func TestDisbandNoticeReachesInbox(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	require.NoError(t, svc.NotifyDisband(ctx, "leader", "u2", "Orion"))

	inbox, err := svc.Inbox(ctx, "u2", InboxFilters{Type: TypeSystemNotification})
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Contains(t, inbox[0].Subject, "disbanded")
}
