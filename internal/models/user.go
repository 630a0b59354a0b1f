package models

import "time"

// User is a salesperson/operator account. Users are created administratively
// and never hard-deleted; deactivation flips Active.
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	PhoneNumber  string `gorm:"type:varchar(32);uniqueIndex;not null" json:"phone_number"`
	Username     string `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"type:varchar(128);not null" json:"-"`
	Active       bool   `gorm:"not null;default:true" json:"active"`

	// AES-256-GCM encrypted HubSpot private app token, base64-encoded.
	// Empty means the process-wide fallback token applies.
	HubSpotToken string `gorm:"column:hubspot_token;type:text" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }
