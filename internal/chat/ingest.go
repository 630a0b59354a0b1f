package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/audit"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/common"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InboundMessage is the transport event consumed by the Ingestor.
type InboundMessage struct {
	ID            string `json:"id" binding:"required"`
	From          string `json:"from" binding:"required"`
	Text          string `json:"text"`
	Timestamp     int64  `json:"timestamp"`
	ForwardedFrom string `json:"forwarded_from"`
}

// Ingestor resolves inbound WhatsApp events into sessions and messages.
// Unknown or deactivated senders are skipped, not errors.
type Ingestor struct {
	repo *Repo
	logs *audit.Repo

	// serializes find-or-create of the active session per user; closes the
	// read-then-write race within this process only
	mu        sync.Mutex
	userLocks map[uint64]*sync.Mutex
}

func NewIngestor(repo *Repo, logs *audit.Repo) *Ingestor {
	return &Ingestor{
		repo:      repo,
		logs:      logs,
		userLocks: make(map[uint64]*sync.Mutex),
	}
}

func (ing *Ingestor) lockFor(userID uint64) *sync.Mutex {
	ing.mu.Lock()
	defer ing.mu.Unlock()
	l, ok := ing.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		ing.userLocks[userID] = l
	}
	return l
}

// Ingest appends the event to the sender's active session, creating one when
// none is open, and records a whatsapp_message receipt log. A nil session and
// message with a nil error means the event was skipped.
func (ing *Ingestor) Ingest(ctx context.Context, ev InboundMessage) (*Session, *Message, error) {
	user, err := ing.repo.UserByPhone(ctx, ev.From)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Info("ingest: unknown sender, skipping",
				zap.String("from", ev.From), zap.String("wa_message_id", ev.ID))
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if !user.Active {
		logger.Info("ingest: sender deactivated, skipping",
			zap.Uint64("user_id", user.ID), zap.String("wa_message_id", ev.ID))
		return nil, nil, nil
	}

	lock := ing.lockFor(user.ID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := ing.repo.FindActiveSession(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, err
		}
		sid, err := common.NewULID()
		if err != nil {
			return nil, nil, err
		}
		sess = &Session{
			SessionID: sid,
			UserID:    user.ID,
			Status:    SessionActive,
			StartedAt: time.Now().UTC(),
		}
		if err := ing.repo.CreateSession(ctx, sess); err != nil {
			return nil, nil, err
		}
	}

	sentAt := time.Unix(ev.Timestamp, 0).UTC()
	if ev.Timestamp == 0 {
		sentAt = time.Now().UTC()
	}
	msg := &Message{
		SessionID:   sess.SessionID,
		UserID:      user.ID,
		Direction:   DirectionIn,
		Body:        ev.Text,
		WAMessageID: ev.ID,
		SentAt:      sentAt,
	}
	if ev.ForwardedFrom != "" {
		msg.ForwardedFrom = &ev.ForwardedFrom
	}
	if err := ing.repo.InsertMessage(ctx, msg); err != nil {
		return nil, nil, err
	}

	// receipt log: synced by definition, it records delivery, not a CRM write
	now := time.Now().UTC()
	waID := ev.ID
	receipt := &audit.Log{
		UserID:     user.ID,
		SessionID:  sess.SessionID,
		MessageID:  &msg.ID,
		LogType:    audit.LogWhatsAppMessage,
		SyncStatus: audit.StatusSynced,
		HubSpotID:  &waID,
		SyncedAt:   &now,
	}
	if err := ing.logs.Create(ctx, receipt); err != nil {
		return nil, nil, err
	}

	return sess, msg, nil
}

// RecordOutbound appends an outbound message to an existing session and
// writes its whatsapp_send log. sendID is the transport's id for the send.
func (ing *Ingestor) RecordOutbound(ctx context.Context, sessionID, text, sendID string) (*Message, error) {
	sess, err := ing.repo.GetSessionBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		SessionID:   sess.SessionID,
		UserID:      sess.UserID,
		Direction:   DirectionOut,
		Body:        text,
		WAMessageID: sendID,
		SentAt:      time.Now().UTC(),
	}
	if err := ing.repo.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sid := sendID
	sent := &audit.Log{
		UserID:     sess.UserID,
		SessionID:  sess.SessionID,
		MessageID:  &msg.ID,
		LogType:    audit.LogWhatsAppSend,
		SyncStatus: audit.StatusSynced,
		HubSpotID:  &sid,
		SyncedAt:   &now,
	}
	if err := ing.logs.Create(ctx, sent); err != nil {
		return nil, err
	}
	return msg, nil
}
