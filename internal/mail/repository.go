// AngelaMos | 2026
// repository.go

package mail

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/cosmicteams/cosmic-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, m *Mail) error
	GetForRecipient(ctx context.Context, id, recipientID string) (*Mail, error)
	ListInbox(ctx context.Context, recipientID string, f InboxFilters) ([]Mail, error)
	ListSent(ctx context.Context, senderID string, limit int) ([]Mail, error)
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id, recipientID string) error
	CountUnread(ctx context.Context, userID string) (int, error)
	FindUnresponded(
		ctx context.Context,
		recipientID, mailType, relatedID string,
	) (*Mail, error)
	GetUnrespondedInvite(ctx context.Context, id, recipientID string) (*Mail, error)
	CreateResponse(ctx context.Context, resp *InviteResponse) error
	DeleteByTypeAndRelated(ctx context.Context, mailType, relatedID string) error
}

type InboxFilters struct {
	Type   string
	Unread *bool
	Limit  int
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const mailColumns = `
	m.id, m.sender_id, m.recipient_id, m.subject, m.body,
	m.mail_type, m.related_id, m.is_read, m.created_at,
	s.username AS sender_username,
	r.username AS recipient_username`

func (r *repository) Create(ctx context.Context, m *Mail) error {
	query := `
		INSERT INTO mail (
			id, sender_id, recipient_id, subject, body, mail_type, related_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &m.CreatedAt, query,
		m.ID,
		m.SenderID,
		m.RecipientID,
		m.Subject,
		m.Body,
		m.Type,
		m.RelatedID,
	)
	if err != nil {
		return fmt.Errorf("create mail: %w", err)
	}

	return nil
}

func (r *repository) GetForRecipient(
	ctx context.Context,
	id, recipientID string,
) (*Mail, error) {
	query := `
		SELECT ` + mailColumns + `
		FROM mail m
		JOIN users s ON m.sender_id = s.id
		JOIN users r ON m.recipient_id = r.id
		WHERE m.id = $1 AND m.recipient_id = $2`

	var m Mail
	err := r.db.GetContext(ctx, &m, query, id, recipientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get mail: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get mail: %w", err)
	}

	return &m, nil
}

func (r *repository) ListInbox(
	ctx context.Context,
	recipientID string,
	f InboxFilters,
) ([]Mail, error) {
	conditions := []string{"m.recipient_id = $1"}
	args := []any{recipientID}
	argIdx := 2

	if f.Type != "" {
		conditions = append(conditions, fmt.Sprintf("m.mail_type = $%d", argIdx))
		args = append(args, f.Type)
		argIdx++
	}

	if f.Unread != nil {
		conditions = append(conditions, fmt.Sprintf("m.is_read = $%d", argIdx))
		args = append(args, !*f.Unread)
		argIdx++
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := fmt.Sprintf(`
		SELECT `+mailColumns+`
		FROM mail m
		JOIN users s ON m.sender_id = s.id
		JOIN users r ON m.recipient_id = r.id
		WHERE %s
		ORDER BY m.created_at DESC
		LIMIT $%d`, strings.Join(conditions, " AND "), argIdx)

	args = append(args, limit)

	var msgs []Mail
	if err := r.db.SelectContext(ctx, &msgs, query, args...); err != nil {
		return nil, fmt.Errorf("list inbox: %w", err)
	}

	return msgs, nil
}

func (r *repository) ListSent(
	ctx context.Context,
	senderID string,
	limit int,
) ([]Mail, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT ` + mailColumns + `
		FROM mail m
		JOIN users s ON m.sender_id = s.id
		JOIN users r ON m.recipient_id = r.id
		WHERE m.sender_id = $1
		ORDER BY m.created_at DESC
		LIMIT $2`

	var msgs []Mail
	if err := r.db.SelectContext(ctx, &msgs, query, senderID, limit); err != nil {
		return nil, fmt.Errorf("list sent mail: %w", err)
	}

	return msgs, nil
}

func (r *repository) MarkRead(ctx context.Context, id string) error {
	query := `UPDATE mail SET is_read = TRUE WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark mail read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark mail read: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("mark mail read: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id, recipientID string) error {
	query := `DELETE FROM mail WHERE id = $1 AND recipient_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, recipientID)
	if err != nil {
		return fmt.Errorf("delete mail: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete mail: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete mail: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) CountUnread(
	ctx context.Context,
	userID string,
) (int, error) {
	query := `
		SELECT COUNT(*) FROM mail
		WHERE recipient_id = $1 AND is_read = FALSE`

	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count unread mail: %w", err)
	}

	return count, nil
}

// FindUnresponded locates an outstanding typed mail (one with no linked
// response row) for a recipient. Used for the duplicate-invitation guard.
func (r *repository) FindUnresponded(
	ctx context.Context,
	recipientID, mailType, relatedID string,
) (*Mail, error) {
	query := `
		SELECT ` + mailColumns + `
		FROM mail m
		JOIN users s ON m.sender_id = s.id
		JOIN users r ON m.recipient_id = r.id
		WHERE m.recipient_id = $1
			AND m.mail_type = $2
			AND m.related_id = $3
			AND NOT EXISTS (
				SELECT 1 FROM team_invite_responses tir
				WHERE tir.mail_id = m.id
			)`

	var m Mail
	err := r.db.GetContext(ctx, &m, query, recipientID, mailType, relatedID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find unresponded mail: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find unresponded mail: %w", err)
	}

	return &m, nil
}

// GetUnrespondedInvite fetches a team invitation addressed to recipientID
// that has not been accepted or declined yet.
func (r *repository) GetUnrespondedInvite(
	ctx context.Context,
	id, recipientID string,
) (*Mail, error) {
	query := `
		SELECT ` + mailColumns + `
		FROM mail m
		JOIN users s ON m.sender_id = s.id
		JOIN users r ON m.recipient_id = r.id
		WHERE m.id = $1
			AND m.recipient_id = $2
			AND m.mail_type = $3
			AND NOT EXISTS (
				SELECT 1 FROM team_invite_responses tir
				WHERE tir.mail_id = m.id
			)`

	var m Mail
	err := r.db.GetContext(ctx, &m, query, id, recipientID, TypeTeamInvite)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get invitation: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation: %w", err)
	}

	return &m, nil
}

func (r *repository) CreateResponse(
	ctx context.Context,
	resp *InviteResponse,
) error {
	query := `
		INSERT INTO team_invite_responses (id, mail_id, user_id, team_id, response)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING responded_at`

	err := r.db.GetContext(ctx, &resp.RespondedAt, query,
		resp.ID,
		resp.MailID,
		resp.UserID,
		resp.TeamID,
		resp.Response,
	)
	if err != nil {
		return fmt.Errorf("record invite response: %w", err)
	}

	return nil
}

func (r *repository) DeleteByTypeAndRelated(
	ctx context.Context,
	mailType, relatedID string,
) error {
	query := `DELETE FROM mail WHERE mail_type = $1 AND related_id = $2`

	if _, err := r.db.ExecContext(ctx, query, mailType, relatedID); err != nil {
		return fmt.Errorf("delete related mail: %w", err)
	}

	return nil
}
