package models

import "time"

// Community is a named group of growers owned by its creator.
type Community struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	OwnerID     uint   `gorm:"not null;index" json:"owner_id"`
	Owner       *User  `gorm:"foreignKey:OwnerID" json:"-"`
	// MemberCount is not persisted; computed at query time
	MemberCount int64     `gorm:"->;-:migration" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`
}

// CommunityMembership maps users to the communities they joined.
type CommunityMembership struct {
	UserID      uint       `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserID" json:"-"`
	CommunityID uint       `gorm:"primaryKey;autoIncrement:false;index" json:"community_id"`
	Community   *Community `gorm:"foreignKey:CommunityID" json:"-"`
	JoinedAt    time.Time  `gorm:"autoCreateTime" json:"joined_at"`
}

// CommunityResponse is the serialized form of a community.
type CommunityResponse struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
	OwnerID       uint      `json:"owner_id"`
	OwnerUsername string    `json:"owner_username"`
	MemberCount   int64     `json:"member_count"`
}

func NewCommunityResponse(c *Community) CommunityResponse {
	resp := CommunityResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		OwnerID:     c.OwnerID,
		MemberCount: c.MemberCount,
	}
	if c.Owner != nil {
		resp.OwnerUsername = c.Owner.Username
	}
	return resp
}

func NewCommunityResponses(communities []*Community) []CommunityResponse {
	out := make([]CommunityResponse, 0, len(communities))
	for _, c := range communities {
		out = append(out, NewCommunityResponse(c))
	}
	return out
}
