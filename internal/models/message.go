package models

import "time"

// Message is either a direct message (ReceiverID set) or a community
// message (CommunityID set). Exactly one target is present.
type Message struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	SenderID    uint       `gorm:"not null;index" json:"sender_id"`
	Sender      *User      `gorm:"foreignKey:SenderID" json:"-"`
	ReceiverID  *uint      `gorm:"index" json:"receiver_id"`
	Receiver    *User      `gorm:"foreignKey:ReceiverID" json:"-"`
	CommunityID *uint      `gorm:"index" json:"community_id"`
	Community   *Community `gorm:"foreignKey:CommunityID" json:"-"`
	Text        string     `gorm:"type:text;not null" json:"text"`
	IsRead      bool       `gorm:"not null;default:false" json:"is_read"`
	CreatedAt   time.Time  `gorm:"index" json:"timestamp"`
}

// MessageResponse is the serialized form of a message.
type MessageResponse struct {
	ID               uint      `json:"id"`
	SenderID         uint      `json:"sender_id"`
	SenderUsername   string    `json:"sender_username"`
	ReceiverID       *uint     `json:"receiver_id"`
	ReceiverUsername *string   `json:"receiver_username"`
	CommunityID      *uint     `json:"community_id"`
	CommunityName    *string   `json:"community_name"`
	Text             string    `json:"text"`
	Timestamp        time.Time `json:"timestamp"`
	IsRead           bool      `json:"is_read"`
}

func NewMessageResponse(m *Message) MessageResponse {
	resp := MessageResponse{
		ID:          m.ID,
		SenderID:    m.SenderID,
		ReceiverID:  m.ReceiverID,
		CommunityID: m.CommunityID,
		Text:        m.Text,
		Timestamp:   m.CreatedAt,
		IsRead:      m.IsRead,
	}
	if m.Sender != nil {
		resp.SenderUsername = m.Sender.Username
	}
	if m.Receiver != nil {
		name := m.Receiver.Username
		resp.ReceiverUsername = &name
	}
	if m.Community != nil {
		name := m.Community.Name
		resp.CommunityName = &name
	}
	return resp
}

func NewMessageResponses(messages []*Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, NewMessageResponse(m))
	}
	return out
}
