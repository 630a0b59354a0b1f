package chat

import "time"

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionClosed SessionStatus = "closed"
)

const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Session is one continuous conversation thread for a user. It transitions
// active->closed exactly once and never reopens.
type Session struct {
	ID        uint64        `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionID string        `gorm:"type:varchar(26);uniqueIndex;not null" json:"session_id"`
	UserID    uint64        `gorm:"index;not null" json:"-"`
	Status    SessionStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`
}

func (Session) TableName() string { return "chat_sessions" }

// Message is one text unit in a session. Immutable after creation.
type Message struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string `gorm:"type:varchar(26);not null;index" json:"session_id"`
	UserID    uint64 `gorm:"not null;index" json:"-"`
	Direction string `gorm:"type:varchar(8);not null;default:in" json:"direction"`
	Body      string `gorm:"type:text;not null" json:"body"`

	// transport-level message id; indexed but deliberately not unique,
	// redeliveries create distinct rows
	WAMessageID string `gorm:"column:wa_message_id;type:varchar(128);index" json:"wa_message_id"`

	ForwardedFrom *string   `gorm:"type:varchar(32)" json:"forwarded_from,omitempty"`
	SentAt        time.Time `json:"sent_at"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Message) TableName() string { return "chat_messages" }
