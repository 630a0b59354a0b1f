package audit

import (
	"errors"
	"time"
)

// LogType names the CRM action a Log row records.
type LogType string

const (
	LogContactAction     LogType = "contact_action"
	LogDeal              LogType = "deal"
	LogNote              LogType = "note"
	LogTask              LogType = "task"
	LogCallMeeting       LogType = "call_meeting"
	LogAssociation       LogType = "association"
	LogLead              LogType = "lead"
	LogLeadQualification LogType = "lead_qualification"
	LogDealStageUpdate   LogType = "deal_stage_update"
	LogWhatsAppMessage   LogType = "whatsapp_message"
	LogWhatsAppSend      LogType = "whatsapp_send"
)

// SyncStatus is the audit outcome of a dispatch.
type SyncStatus string

const (
	StatusPending SyncStatus = "pending"
	StatusSynced  SyncStatus = "synced"
	StatusFailed  SyncStatus = "failed"
)

var ErrInconsistentOutcome = errors.New("audit: sync status inconsistent with outcome fields")

// Log is one row per attempted CRM action. Rows are append-only except for
// the sync status transitions pending->synced, pending->failed and, via
// RetrySync, synced|failed->pending.
type Log struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	EventID string `gorm:"type:varchar(26);uniqueIndex;not null"`

	UserID    uint64  `gorm:"index;not null"`
	SessionID string  `gorm:"type:varchar(26);index"`
	MessageID *uint64 `gorm:"index"`

	LogType    LogType    `gorm:"type:varchar(32);index;not null"`
	SyncStatus SyncStatus `gorm:"type:varchar(16);index;not null"`

	HubSpotID *string    `gorm:"column:hubspot_id;type:varchar(64);index"`
	SyncError *string    `gorm:"type:text"`
	SyncedAt  *time.Time

	// business fields used only by lead/deal flows
	LeadStatus  *string `gorm:"type:varchar(16)"`
	DealStage   *string `gorm:"type:varchar(32)"`
	LeadSource  *string `gorm:"type:varchar(32)"`
	DealAmount  *string `gorm:"type:varchar(32)"`
	StageReason *string `gorm:"type:text"`

	CreatedAt time.Time
}

func (Log) TableName() string { return "crm_logs" }

// Validate enforces the outcome invariants:
// synced requires hubspot_id + synced_at and no error;
// failed requires an error and no hubspot_id/synced_at.
func (l *Log) Validate() error {
	switch l.SyncStatus {
	case StatusSynced:
		if l.HubSpotID == nil || l.SyncedAt == nil || l.SyncError != nil {
			return ErrInconsistentOutcome
		}
	case StatusFailed:
		if l.SyncError == nil || l.HubSpotID != nil || l.SyncedAt != nil {
			return ErrInconsistentOutcome
		}
	case StatusPending:
		if l.HubSpotID != nil || l.SyncedAt != nil || l.SyncError != nil {
			return ErrInconsistentOutcome
		}
	default:
		return ErrInconsistentOutcome
	}
	return nil
}

// ToDict serializes every applicable field; timestamps are ISO-8601 and
// fields that are null for this log type are omitted.
func (l *Log) ToDict() map[string]any {
	out := map[string]any{
		"id":          l.ID,
		"event_id":    l.EventID,
		"user_id":     l.UserID,
		"log_type":    string(l.LogType),
		"sync_status": string(l.SyncStatus),
		"created_at":  l.CreatedAt.UTC().Format(time.RFC3339),
	}
	if l.SessionID != "" {
		out["session_id"] = l.SessionID
	}
	if l.MessageID != nil {
		out["message_id"] = *l.MessageID
	}
	if l.HubSpotID != nil {
		out["hubspot_id"] = *l.HubSpotID
	}
	if l.SyncError != nil {
		out["sync_error"] = *l.SyncError
	}
	if l.SyncedAt != nil {
		out["synced_at"] = l.SyncedAt.UTC().Format(time.RFC3339)
	}
	if l.LeadStatus != nil {
		out["lead_status"] = *l.LeadStatus
	}
	if l.DealStage != nil {
		out["deal_stage"] = *l.DealStage
	}
	if l.LeadSource != nil {
		out["lead_source"] = *l.LeadSource
	}
	if l.DealAmount != nil {
		out["deal_amount"] = *l.DealAmount
	}
	if l.StageReason != nil {
		out["stage_reason"] = *l.StageReason
	}
	return out
}
