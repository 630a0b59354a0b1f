package dispatch

import (
	"context"
	"time"

	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/audit"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/hubspot"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/logger"
	"go.uber.org/zap"
)

// CRMCaller is the remote seam; hubspot.Client implements it.
type CRMCaller interface {
	Perform(ctx context.Context, token string, call hubspot.Call) (*hubspot.Result, error)
}

// TokenSource resolves the per-user credential; hubspot.TokenSource implements it.
type TokenSource interface {
	TokenForUser(ctx context.Context, userID uint64) (string, error)
}

// Request is one attempted CRM action plus the audit context it is logged
// under. The optional business fields are copied verbatim onto the Log.
type Request struct {
	LogType audit.LogType
	Call    hubspot.Call

	UserID    uint64
	SessionID string
	MessageID *uint64

	LeadStatus  *string
	DealStage   *string
	LeadSource  *string
	DealAmount  *string
	StageReason *string
}

// Outcome reports the dispatch result unmasked: the persisted Log, the remote
// id on success, the raw error text on failure.
type Outcome struct {
	LogID     uint64           `json:"log_id"`
	EventID   string           `json:"event_id"`
	Status    audit.SyncStatus `json:"sync_status"`
	RemoteID  string           `json:"hubspot_id,omitempty"`
	ErrorText string           `json:"sync_error,omitempty"`
}

func (o *Outcome) Synced() bool { return o != nil && o.Status == audit.StatusSynced }

// Dispatcher performs one remote CRM action and writes exactly one Log row
// per call, whatever the outcome. There is no implicit retry; a second
// attempt is a new call producing a second Log.
type Dispatcher struct {
	crm    CRMCaller
	tokens TokenSource
	logs   *audit.Repo
	events audit.EventPublisher // optional
}

func NewDispatcher(crm CRMCaller, tokens TokenSource, logs *audit.Repo, events audit.EventPublisher) *Dispatcher {
	return &Dispatcher{crm: crm, tokens: tokens, logs: logs, events: events}
}

// Dispatch runs the call and logs its outcome. Remote rejections come back
// as a failed Outcome with a nil error; local errors (missing credential,
// network, timeout) come back as a failed Outcome plus the error itself.
// The Log write is durable before Dispatch returns.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Outcome, error) {
	token, err := d.tokens.TokenForUser(ctx, req.UserID)
	if err != nil {
		out, logErr := d.writeLog(ctx, req, audit.StatusFailed, "", err.Error())
		if logErr != nil {
			return nil, logErr
		}
		return out, err
	}

	res, err := d.crm.Perform(ctx, token, req.Call)
	if err != nil {
		out, logErr := d.writeLog(ctx, req, audit.StatusFailed, "", err.Error())
		if logErr != nil {
			return nil, logErr
		}
		return out, err
	}

	if !res.OK() {
		return d.writeLog(ctx, req, audit.StatusFailed, "", res.ErrorText)
	}
	return d.writeLog(ctx, req, audit.StatusSynced, res.RemoteID, "")
}

func (d *Dispatcher) writeLog(ctx context.Context, req Request, status audit.SyncStatus, remoteID, errText string) (*Outcome, error) {
	l := &audit.Log{
		UserID:      req.UserID,
		SessionID:   req.SessionID,
		MessageID:   req.MessageID,
		LogType:     req.LogType,
		SyncStatus:  status,
		LeadStatus:  req.LeadStatus,
		DealStage:   req.DealStage,
		LeadSource:  req.LeadSource,
		DealAmount:  req.DealAmount,
		StageReason: req.StageReason,
	}
	switch status {
	case audit.StatusSynced:
		now := time.Now().UTC()
		l.HubSpotID = &remoteID
		l.SyncedAt = &now
	case audit.StatusFailed:
		l.SyncError = &errText
	}

	if err := d.logs.Create(ctx, l); err != nil {
		return nil, err
	}

	if d.events != nil {
		if err := d.events.PublishLogEvent(ctx, audit.EventFromLog(l)); err != nil {
			logger.Warn("audit event publish failed",
				zap.String("event_id", l.EventID), zap.Error(err))
		}
	}

	return &Outcome{
		LogID:     l.ID,
		EventID:   l.EventID,
		Status:    status,
		RemoteID:  remoteID,
		ErrorText: errText,
	}, nil
}

// LogTypeForObject maps a CRM object type to the log type the generic action
// endpoint records it under.
func LogTypeForObject(objectType string) audit.LogType {
	switch objectType {
	case hubspot.ObjectContacts, hubspot.ObjectCompanies:
		return audit.LogContactAction
	case hubspot.ObjectDeals:
		return audit.LogDeal
	case hubspot.ObjectNotes:
		return audit.LogNote
	case hubspot.ObjectTasks:
		return audit.LogTask
	case hubspot.ObjectCalls, hubspot.ObjectMeetings:
		return audit.LogCallMeeting
	default:
		return audit.LogAssociation
	}
}
