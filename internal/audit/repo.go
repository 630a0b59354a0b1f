package audit

import (
	"context"

	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/common"
	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// Create persists a Log after checking the outcome invariants.
// An EventID is assigned when the caller left it empty.
func (r *Repo) Create(ctx context.Context, l *Log) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if l.EventID == "" {
		id, err := common.NewULID()
		if err != nil {
			return err
		}
		l.EventID = id
	}
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *Repo) GetByID(ctx context.Context, id uint64) (*Log, error) {
	var l Log
	if err := r.db.WithContext(ctx).First(&l, id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Repo) GetByEventID(ctx context.Context, eventID string) (*Log, error) {
	var l Log
	if err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// Filter narrows List; zero values are ignored.
type Filter struct {
	UserID    uint64
	SessionID string
	MessageID uint64
	LogType   LogType
	Status    SyncStatus
	Limit     int
	BeforeID  uint64
}

// List returns logs in DESC id order (newest -> oldest).
func (r *Repo) List(ctx context.Context, f Filter) ([]Log, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	q := r.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if f.UserID > 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.SessionID != "" {
		q = q.Where("session_id = ?", f.SessionID)
	}
	if f.MessageID > 0 {
		q = q.Where("message_id = ?", f.MessageID)
	}
	if f.LogType != "" {
		q = q.Where("log_type = ?", f.LogType)
	}
	if f.Status != "" {
		q = q.Where("sync_status = ?", f.Status)
	}
	if f.BeforeID > 0 {
		q = q.Where("id < ?", f.BeforeID)
	}

	var logs []Log
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// RetrySync resets a Log to pending and clears its outcome fields. It does
// not re-invoke the CRM; a retried remote call is a new dispatch producing a
// new Log row. Idempotent: repeated calls leave the same pending state.
// Existence is checked with a read rather than RowsAffected; mysql counts
// changed rows, so a no-op update on an already-pending row reports zero.
func (r *Repo) RetrySync(ctx context.Context, id uint64) (*Log, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	err := r.db.WithContext(ctx).Model(&Log{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"sync_status": StatusPending,
			"hubspot_id":  nil,
			"sync_error":  nil,
			"synced_at":   nil,
		}).Error
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// CountByMessage reports how many audit rows reference the given message.
func (r *Repo) CountByMessage(ctx context.Context, messageID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Log{}).
		Where("message_id = ?", messageID).
		Count(&n).Error
	return n, err
}

// LatestLeadStatus returns the most recent recorded lead status for the
// contact identified by its remote id, or "" when none was recorded.
func (r *Repo) LatestLeadStatus(ctx context.Context, hubspotID string) (string, error) {
	var l Log
	err := r.db.WithContext(ctx).
		Where("hubspot_id = ? AND lead_status IS NOT NULL", hubspotID).
		Order("id DESC").
		First(&l).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", err
	}
	if l.LeadStatus == nil {
		return "", nil
	}
	return *l.LeadStatus, nil
}
