package chat

import (
	"context"
	"time"

	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/models"
	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) UserByPhone(ctx context.Context, phone string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).
		Where("phone_number = ?", phone).
		First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) CreateSession(ctx context.Context, s *Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repo) GetSessionBySessionID(ctx context.Context, sessionID string) (*Session, error) {
	var s Session
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// FindActiveSession returns the user's open session, or gorm.ErrRecordNotFound.
func (r *Repo) FindActiveSession(ctx context.Context, userID uint64) (*Session, error) {
	var s Session
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, SessionActive).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// CloseSession marks a session closed. The status predicate makes the
// close-exactly-once invariant hold at the UPDATE itself: closing an already
// closed session reports gorm.ErrRecordNotFound.
func (r *Repo) CloseSession(ctx context.Context, sessionID string) (*Session, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&Session{}).
		Where("session_id = ? AND status = ?", sessionID, SessionActive).
		Updates(map[string]any{
			"status":   SessionClosed,
			"ended_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetSessionBySessionID(ctx, sessionID)
}

func (r *Repo) InsertMessage(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// ListMessages returns messages in DESC id order (newest -> oldest).
func (r *Repo) ListMessages(ctx context.Context, sessionID string, limit int, beforeID uint64) ([]Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	q := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id DESC").
		Limit(limit)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}

	var msgs []Message
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *Repo) CountMessages(ctx context.Context, sessionID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Message{}).
		Where("session_id = ?", sessionID).
		Count(&n).Error
	return n, err
}

func (r *Repo) CountActiveSessions(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Session{}).
		Where("user_id = ? AND status = ?", userID, SessionActive).
		Count(&n).Error
	return n, err
}
