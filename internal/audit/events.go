package audit

import "context"

// LogEvent is the projection published for reporting consumers after a
// dispatch outcome is durable.
type LogEvent struct {
	EventID    string `json:"event_id"`
	LogType    string `json:"log_type"`
	SyncStatus string `json:"sync_status"`
	HubSpotID  string `json:"hubspot_id,omitempty"`
	UserID     uint64 `json:"user_id"`
	SessionID  string `json:"session_id,omitempty"`
}

// EventPublisher fans audit events out to external consumers. Publishing is
// best-effort; delivery failures never affect the dispatch outcome.
type EventPublisher interface {
	PublishLogEvent(ctx context.Context, ev LogEvent) error
}

// EventFromLog builds the published projection for a persisted Log.
func EventFromLog(l *Log) LogEvent {
	ev := LogEvent{
		EventID:    l.EventID,
		LogType:    string(l.LogType),
		SyncStatus: string(l.SyncStatus),
		UserID:     l.UserID,
		SessionID:  l.SessionID,
	}
	if l.HubSpotID != nil {
		ev.HubSpotID = *l.HubSpotID
	}
	return ev
}
