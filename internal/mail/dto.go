// AngelaMos | 2026
// dto.go

package mail

import (
	"time"
)

type SendMailRequest struct {
	RecipientID string `json:"recipient_id" validate:"required,uuid4"`
	Subject     string `json:"subject"      validate:"required,min=1,max=200"`
	Body        string `json:"body"         validate:"required,min=1,max=5000"`
}

type MailResponse struct {
	ID                string    `json:"id"`
	SenderID          string    `json:"sender_id"`
	SenderUsername    string    `json:"sender_username"`
	RecipientID       string    `json:"recipient_id"`
	RecipientUsername string    `json:"recipient_username"`
	Subject           string    `json:"subject"`
	Body              string    `json:"body"`
	Type              string    `json:"type"`
	RelatedID         *string   `json:"related_id,omitempty"`
	IsRead            bool      `json:"is_read"`
	CreatedAt         time.Time `json:"created_at"`
}

type MailListResponse struct {
	Messages []MailResponse `json:"messages"`
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}

func ToMailResponse(m *Mail) MailResponse {
	return MailResponse{
		ID:                m.ID,
		SenderID:          m.SenderID,
		SenderUsername:    m.SenderUsername,
		RecipientID:       m.RecipientID,
		RecipientUsername: m.RecipientUsername,
		Subject:           m.Subject,
		Body:              m.Body,
		Type:              m.Type,
		RelatedID:         m.RelatedID,
		IsRead:            m.IsRead,
		CreatedAt:         m.CreatedAt,
	}
}

func ToMailListResponse(msgs []Mail) MailListResponse {
	out := MailListResponse{Messages: make([]MailResponse, 0, len(msgs))}
	for i := range msgs {
		out.Messages = append(out.Messages, ToMailResponse(&msgs[i]))
	}
	return out
}
