// AngelaMos | 2026
// entity.go

package mail

import (
	"time"
)

// Mail is the single message store: user-to-user messages, team
// invitations, and system notices all live here, distinguished by Type.
type Mail struct {
	ID          string    `db:"id"`
	SenderID    string    `db:"sender_id"`
	RecipientID string    `db:"recipient_id"`
	Subject     string    `db:"subject"`
	Body        string    `db:"body"`
	Type        string    `db:"mail_type"`
	RelatedID   *string   `db:"related_id"`
	IsRead      bool      `db:"is_read"`
	CreatedAt   time.Time `db:"created_at"`

	SenderUsername    string `db:"sender_username"`
	RecipientUsername string `db:"recipient_username"`
}

const (
	TypeMessage            = "message"
	TypeTeamInvite         = "team_invite"
	TypeSystemNotification = "system_notification"
)

// InviteResponse resolves a team_invite mail. It carries the user and team
// ids directly rather than relying on a join through the mail row.
type InviteResponse struct {
	ID          string    `db:"id"`
	MailID      string    `db:"mail_id"`
	UserID      string    `db:"user_id"`
	TeamID      string    `db:"team_id"`
	Response    string    `db:"response"`
	RespondedAt time.Time `db:"responded_at"`
}

const (
	ResponseAccepted = "accepted"
	ResponseDeclined = "declined"
)
