package leads

import (
	"context"
	"net/http"

	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/audit"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/dispatch"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/hubspot"
)

const DefaultLeadSource = "WhatsApp"

// Engine layers the lead/deal state machine on top of the dispatcher. Every
// operation is one or two independent dispatches; there is no cross-action
// transactionality, outcomes are reported separately.
type Engine struct {
	dispatcher *dispatch.Dispatcher
	logs       *audit.Repo
}

func NewEngine(d *dispatch.Dispatcher, logs *audit.Repo) *Engine {
	return &Engine{dispatcher: d, logs: logs}
}

type CreateLeadParams struct {
	Contact    hubspot.ContactProperties
	LeadSource string
	SessionID  string
	MessageID  *uint64
}

// CreateLead creates a contact with lifecyclestage=lead and records a lead
// Log with status NEW. LeadSource defaults to "WhatsApp".
func (e *Engine) CreateLead(ctx context.Context, userID uint64, p CreateLeadParams) (*dispatch.Outcome, error) {
	p.Contact.LifecycleStage = hubspot.LifecycleLead
	source := p.LeadSource
	if source == "" {
		source = DefaultLeadSource
	}
	status := LeadStatusNew

	return e.dispatcher.Dispatch(ctx, dispatch.Request{
		LogType: audit.LogLead,
		Call: hubspot.Call{
			Method:     http.MethodPost,
			ObjectType: hubspot.ObjectContacts,
			Properties: p.Contact.Map(),
		},
		UserID:     userID,
		SessionID:  p.SessionID,
		MessageID:  p.MessageID,
		LeadStatus: &status,
		LeadSource: &source,
	})
}

type QualifyParams struct {
	LeadStatus string // defaults to QUALIFIED
	CreateDeal bool
	DealName   string
	DealAmount string
	DealStage  string // defaults to appointmentscheduled
	CloseDate  string
	SessionID  string
	MessageID  *uint64
}

// QualifyResult reports the contact update and the optional deal creation
// independently; a deal failure does not roll back the qualification.
type QualifyResult struct {
	Success        bool   `json:"success"`
	ContactUpdated bool   `json:"contact_updated"`
	DealCreated    bool   `json:"deal_created"`
	DealID         string `json:"deal_id,omitempty"`

	QualificationLogID uint64 `json:"qualification_log_id,omitempty"`
	DealLogID          uint64 `json:"deal_log_id,omitempty"`
}

// QualifyLead advances the lead to the given status (QUALIFIED by default)
// by patching the contact to lifecyclestage=opportunity, and optionally
// creates an associated deal.
func (e *Engine) QualifyLead(ctx context.Context, userID uint64, leadID string, p QualifyParams) (*QualifyResult, error) {
	status := p.LeadStatus
	if status == "" {
		status = LeadStatusQualified
	}
	if !KnownLeadStatus(status) {
		return nil, ErrUnknownLeadStatus
	}

	// validate everything before the first remote call; a bad deal stage must
	// not leave the contact patched and a qualification log behind
	stage := ""
	if p.CreateDeal {
		stage = p.DealStage
		if stage == "" {
			stage = DealStageOrder[0]
		}
		if !KnownDealStage(stage) {
			return nil, ErrUnknownStage
		}
	}

	result := &QualifyResult{}

	props := hubspot.ContactProperties{
		LifecycleStage: hubspot.LifecycleOpportunity,
		LeadStatus:     status,
	}
	out, err := e.dispatcher.Dispatch(ctx, dispatch.Request{
		LogType: audit.LogLeadQualification,
		Call: hubspot.Call{
			Method:     http.MethodPatch,
			ObjectType: hubspot.ObjectContacts,
			ObjectID:   leadID,
			Properties: props.Map(),
		},
		UserID:     userID,
		SessionID:  p.SessionID,
		MessageID:  p.MessageID,
		LeadStatus: &status,
	})
	if err != nil {
		return result, err
	}
	result.QualificationLogID = out.LogID
	result.ContactUpdated = out.Synced()
	result.Success = result.ContactUpdated

	if !p.CreateDeal {
		return result, nil
	}

	dealOut, err := e.dispatcher.Dispatch(ctx, dispatch.Request{
		LogType: audit.LogDeal,
		Call: hubspot.Call{
			Method:     http.MethodPost,
			ObjectType: hubspot.ObjectDeals,
			Properties: hubspot.DealProperties{
				DealName:  p.DealName,
				Amount:    p.DealAmount,
				DealStage: stage,
				CloseDate: p.CloseDate,
			}.Map(),
			Associations: []hubspot.Association{
				{ToObjectID: leadID, TypeID: hubspot.AssocDealToContact},
			},
		},
		UserID:     userID,
		SessionID:  p.SessionID,
		MessageID:  p.MessageID,
		DealStage:  &stage,
		DealAmount: strPtr(p.DealAmount),
	})
	if err != nil {
		return result, err
	}
	result.DealLogID = dealOut.LogID
	result.DealCreated = dealOut.Synced()
	result.DealID = dealOut.RemoteID

	return result, nil
}

// StageUpdateResult is the persisted outcome of a deal-stage update.
type StageUpdateResult struct {
	NewStage string           `json:"new_stage"`
	LogID    uint64           `json:"log_id"`
	Status   audit.SyncStatus `json:"sync_status"`
}

// UpdateDealStage patches dealstage on the remote deal and records a
// deal_stage_update Log carrying the reason verbatim. Stage ordering is not
// enforced; unknown stage strings are rejected.
func (e *Engine) UpdateDealStage(ctx context.Context, userID uint64, dealID, newStage, reason string, sessionID string, messageID *uint64) (*StageUpdateResult, error) {
	if !KnownDealStage(newStage) {
		return nil, ErrUnknownStage
	}

	out, err := e.dispatcher.Dispatch(ctx, dispatch.Request{
		LogType: audit.LogDealStageUpdate,
		Call: hubspot.Call{
			Method:     http.MethodPatch,
			ObjectType: hubspot.ObjectDeals,
			ObjectID:   dealID,
			Properties: hubspot.DealProperties{DealStage: newStage}.Map(),
		},
		UserID:      userID,
		SessionID:   sessionID,
		MessageID:   messageID,
		DealStage:   &newStage,
		StageReason: strPtr(reason),
	})
	if err != nil {
		return nil, err
	}

	return &StageUpdateResult{
		NewStage: newStage,
		LogID:    out.LogID,
		Status:   out.Status,
	}, nil
}

// UpdateLeadStatus moves a lead to a new status, validating the transition
// against the last recorded status for that lead.
func (e *Engine) UpdateLeadStatus(ctx context.Context, userID uint64, leadID, newStatus, sessionID string, messageID *uint64) (*dispatch.Outcome, error) {
	if !KnownLeadStatus(newStatus) {
		return nil, ErrUnknownLeadStatus
	}

	current, err := e.logs.LatestLeadStatus(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if !CanTransitionLead(current, newStatus) {
		return nil, ErrBadTransition
	}

	props := hubspot.ContactProperties{LeadStatus: newStatus}
	return e.dispatcher.Dispatch(ctx, dispatch.Request{
		LogType: audit.LogLead,
		Call: hubspot.Call{
			Method:     http.MethodPatch,
			ObjectType: hubspot.ObjectContacts,
			ObjectID:   leadID,
			Properties: props.Map(),
		},
		UserID:     userID,
		SessionID:  sessionID,
		MessageID:  messageID,
		LeadStatus: &newStatus,
	})
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
