package leads

import (
	"context"
	"net/http"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/audit"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/dispatch"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/hubspot"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&audit.Log{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// scriptedCRM returns one queued result per call, in order.
type scriptedCRM struct {
	results []*hubspot.Result
	calls   []hubspot.Call
}

func (s *scriptedCRM) Perform(ctx context.Context, token string, call hubspot.Call) (*hubspot.Result, error) {
	_ = ctx
	_ = token
	s.calls = append(s.calls, call)
	if len(s.results) == 0 {
		return &hubspot.Result{StatusCode: 500, ErrorText: "no scripted result"}, nil
	}
	r := s.results[0]
	s.results = s.results[1:]
	return r, nil
}

type staticTokens struct{}

func (staticTokens) TokenForUser(ctx context.Context, userID uint64) (string, error) {
	return "pat-test", nil
}

func newEngine(t *testing.T, crm *scriptedCRM) (*Engine, *audit.Repo) {
	t.Helper()
	logs := audit.NewRepo(openTestDB(t))
	d := dispatch.NewDispatcher(crm, staticTokens{}, logs, nil)
	return NewEngine(d, logs), logs
}

func TestCreateLead_DefaultsSourceAndStatus(t *testing.T) {
	crm := &scriptedCRM{results: []*hubspot.Result{{RemoteID: "C1", StatusCode: 201}}}
	engine, logs := newEngine(t, crm)

	out, err := engine.CreateLead(context.Background(), 31, CreateLeadParams{
		Contact:   hubspot.ContactProperties{Email: "lead@acme.io", FirstName: "Ana"},
		SessionID: "01JLEADSESSION000000000000",
	})
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	if !out.Synced() || out.RemoteID != "C1" {
		t.Fatalf("unexpected outcome: %+v", out)
	}

	if crm.calls[0].Properties["lifecyclestage"] != hubspot.LifecycleLead {
		t.Fatalf("contact must be created as a lead, got %v", crm.calls[0].Properties)
	}

	l, err := logs.GetByID(context.Background(), out.LogID)
	if err != nil {
		t.Fatalf("get log: %v", err)
	}
	if l.LogType != audit.LogLead {
		t.Fatalf("expected lead log, got %s", l.LogType)
	}
	if l.LeadStatus == nil || *l.LeadStatus != LeadStatusNew {
		t.Fatalf("expected NEW status, got %v", l.LeadStatus)
	}
	if l.LeadSource == nil || *l.LeadSource != DefaultLeadSource {
		t.Fatalf("expected WhatsApp source, got %v", l.LeadSource)
	}
}

func TestQualifyLead_WithDealCreation(t *testing.T) {
	crm := &scriptedCRM{results: []*hubspot.Result{
		{RemoteID: "C55", StatusCode: 200},  // contact patch
		{RemoteID: "D777", StatusCode: 201}, // deal create
	}}
	engine, logs := newEngine(t, crm)

	result, err := engine.QualifyLead(context.Background(), 32, "C55", QualifyParams{
		LeadStatus: LeadStatusQualified,
		CreateDeal: true,
		DealName:   "Acme rollout",
		DealAmount: "25000",
		DealStage:  "appointmentscheduled",
		SessionID:  "01JQUALSESSION000000000000",
	})
	if err != nil {
		t.Fatalf("qualify: %v", err)
	}

	if !result.Success || !result.ContactUpdated || !result.DealCreated {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.DealID != "D777" {
		t.Fatalf("expected deal id D777, got %q", result.DealID)
	}

	// contact patch moved the lifecycle to opportunity
	if crm.calls[0].Method != http.MethodPatch || crm.calls[0].ObjectID != "C55" {
		t.Fatalf("unexpected contact call: %+v", crm.calls[0])
	}
	if crm.calls[0].Properties["lifecyclestage"] != hubspot.LifecycleOpportunity {
		t.Fatalf("expected opportunity lifecycle, got %v", crm.calls[0].Properties)
	}

	// deal was associated to the lead
	if len(crm.calls[1].Associations) != 1 || crm.calls[1].Associations[0].ToObjectID != "C55" {
		t.Fatalf("deal must associate to the lead: %+v", crm.calls[1].Associations)
	}

	// two independent logs: lead_qualification and deal
	qualLogs, err := logs.List(context.Background(), audit.Filter{
		SessionID: "01JQUALSESSION000000000000", LogType: audit.LogLeadQualification,
	})
	if err != nil || len(qualLogs) != 1 {
		t.Fatalf("expected 1 qualification log, got %d err=%v", len(qualLogs), err)
	}
	dealLogs, err := logs.List(context.Background(), audit.Filter{
		SessionID: "01JQUALSESSION000000000000", LogType: audit.LogDeal,
	})
	if err != nil || len(dealLogs) != 1 {
		t.Fatalf("expected 1 deal log, got %d err=%v", len(dealLogs), err)
	}
	if dealLogs[0].DealAmount == nil || *dealLogs[0].DealAmount != "25000" {
		t.Fatalf("deal amount not recorded: %v", dealLogs[0].DealAmount)
	}
}

func TestQualifyLead_DealFailureDoesNotRollBackQualification(t *testing.T) {
	crm := &scriptedCRM{results: []*hubspot.Result{
		{RemoteID: "C56", StatusCode: 200},
		{StatusCode: 400, ErrorText: `{"message":"amount must be numeric"}`},
	}}
	engine, logs := newEngine(t, crm)

	result, err := engine.QualifyLead(context.Background(), 33, "C56", QualifyParams{
		CreateDeal: true,
		DealName:   "Broken deal",
		DealAmount: "lots",
		DealStage:  "qualifiedtobuy",
		SessionID:  "01JQUALSESSION000000000001",
	})
	if err != nil {
		t.Fatalf("qualify: %v", err)
	}

	if !result.Success || !result.ContactUpdated {
		t.Fatalf("qualification must stand on its own: %+v", result)
	}
	if result.DealCreated || result.DealID != "" {
		t.Fatalf("deal outcome must report the failure: %+v", result)
	}

	dealLogs, err := logs.List(context.Background(), audit.Filter{
		SessionID: "01JQUALSESSION000000000001", LogType: audit.LogDeal,
	})
	if err != nil || len(dealLogs) != 1 {
		t.Fatalf("expected failed deal log, got %d err=%v", len(dealLogs), err)
	}
	if dealLogs[0].SyncStatus != audit.StatusFailed || dealLogs[0].SyncError == nil {
		t.Fatalf("deal log must record the rejection verbatim: %+v", dealLogs[0])
	}
}

func TestQualifyLead_RejectsUnknownInputs(t *testing.T) {
	engine, _ := newEngine(t, &scriptedCRM{})

	if _, err := engine.QualifyLead(context.Background(), 34, "C57", QualifyParams{
		LeadStatus: "LUKEWARM",
	}); err != ErrUnknownLeadStatus {
		t.Fatalf("expected ErrUnknownLeadStatus, got %v", err)
	}
}

func TestQualifyLead_UnknownStageRejectedBeforeAnyDispatch(t *testing.T) {
	crm := &scriptedCRM{}
	engine, logs := newEngine(t, crm)

	_, err := engine.QualifyLead(context.Background(), 38, "C58", QualifyParams{
		CreateDeal: true,
		DealName:   "Never happens",
		DealStage:  "negotiation",
		SessionID:  "01JQUALSESSION000000000002",
	})
	if err != ErrUnknownStage {
		t.Fatalf("expected ErrUnknownStage, got %v", err)
	}

	// nothing reached the CRM and nothing was logged
	if len(crm.calls) != 0 {
		t.Fatalf("invalid input must not dispatch, got %d call(s)", len(crm.calls))
	}
	got, err := logs.List(context.Background(), audit.Filter{
		SessionID: "01JQUALSESSION000000000002",
	})
	if err != nil || len(got) != 0 {
		t.Fatalf("invalid input must not write logs, got %d err=%v", len(got), err)
	}
}

func TestUpdateDealStage_RecordsReasonVerbatim(t *testing.T) {
	crm := &scriptedCRM{results: []*hubspot.Result{{RemoteID: "D900", StatusCode: 200}}}
	engine, logs := newEngine(t, crm)

	result, err := engine.UpdateDealStage(context.Background(), 35, "D900",
		"closedwon", "client signed contract", "01JSTAGESESSION00000000000", nil)
	if err != nil {
		t.Fatalf("update stage: %v", err)
	}
	if result.NewStage != "closedwon" || result.Status != audit.StatusSynced {
		t.Fatalf("unexpected result: %+v", result)
	}

	if crm.calls[0].Properties["dealstage"] != "closedwon" {
		t.Fatalf("dealstage not patched: %v", crm.calls[0].Properties)
	}

	l, err := logs.GetByID(context.Background(), result.LogID)
	if err != nil {
		t.Fatalf("get log: %v", err)
	}
	if l.LogType != audit.LogDealStageUpdate {
		t.Fatalf("expected deal_stage_update log, got %s", l.LogType)
	}
	if l.DealStage == nil || *l.DealStage != "closedwon" {
		t.Fatalf("stage not recorded: %v", l.DealStage)
	}
	if l.StageReason == nil || *l.StageReason != "client signed contract" {
		t.Fatalf("reason must be recorded verbatim: %v", l.StageReason)
	}
}

func TestUpdateDealStage_SkippingStagesIsAllowed(t *testing.T) {
	crm := &scriptedCRM{results: []*hubspot.Result{{RemoteID: "D901", StatusCode: 200}}}
	engine, _ := newEngine(t, crm)

	// jumping straight from nothing to closedlost is legitimate
	if _, err := engine.UpdateDealStage(context.Background(), 36, "D901",
		"closedlost", "went dark", "", nil); err != nil {
		t.Fatalf("stage skip must be accepted: %v", err)
	}

	if _, err := engine.UpdateDealStage(context.Background(), 36, "D901",
		"negotiation", "", "", nil); err != ErrUnknownStage {
		t.Fatalf("unknown stage must be rejected, got %v", err)
	}
}

func TestUpdateLeadStatus_ValidatesTransitions(t *testing.T) {
	crm := &scriptedCRM{results: []*hubspot.Result{
		{RemoteID: "C60", StatusCode: 201}, // create
		{RemoteID: "C60", StatusCode: 200}, // contacted
	}}
	engine, _ := newEngine(t, crm)

	out, err := engine.CreateLead(context.Background(), 37, CreateLeadParams{
		Contact: hubspot.ContactProperties{Email: "t@x.io"},
	})
	if err != nil || !out.Synced() {
		t.Fatalf("create lead: %v", err)
	}

	if _, err := engine.UpdateLeadStatus(context.Background(), 37, "C60",
		LeadStatusContacted, "", nil); err != nil {
		t.Fatalf("NEW -> CONTACTED must be legal: %v", err)
	}

	// CONTACTED -> NEW walks backwards
	if _, err := engine.UpdateLeadStatus(context.Background(), 37, "C60",
		LeadStatusNew, "", nil); err != ErrBadTransition {
		t.Fatalf("expected ErrBadTransition, got %v", err)
	}
}

func TestLeadTransitionTable(t *testing.T) {
	legal := [][2]string{
		{LeadStatusNew, LeadStatusContacted},
		{LeadStatusNew, LeadStatusQualified},
		{LeadStatusContacted, LeadStatusQualified},
		{LeadStatusQualified, LeadStatusConverted},
		{LeadStatusQualified, LeadStatusUnqualified},
		{"", LeadStatusNew},
	}
	for _, tr := range legal {
		if !CanTransitionLead(tr[0], tr[1]) {
			t.Fatalf("%s -> %s should be legal", tr[0], tr[1])
		}
	}

	illegal := [][2]string{
		{LeadStatusConverted, LeadStatusQualified},
		{LeadStatusUnqualified, LeadStatusNew},
		{LeadStatusQualified, LeadStatusNew},
		{LeadStatusNew, "LUKEWARM"},
	}
	for _, tr := range illegal {
		if CanTransitionLead(tr[0], tr[1]) {
			t.Fatalf("%s -> %s should be illegal", tr[0], tr[1])
		}
	}
}
