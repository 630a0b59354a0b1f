package dispatch

import (
	"context"
	"errors"
	"net/http"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/mohamed-ali0/hubspot-agent-sub000/internal/audit"
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

type fakeCaller struct {
	result *hubspot.Result
	err    error
	calls  int
	last   hubspot.Call
}

func (f *fakeCaller) Perform(ctx context.Context, token string, call hubspot.Call) (*hubspot.Result, error) {
	_ = ctx
	_ = token
	f.calls++
	f.last = call
	return f.result, f.err
}

type fakeTokens struct {
	token string
	err   error
}

func (f *fakeTokens) TokenForUser(ctx context.Context, userID uint64) (string, error) {
	_ = ctx
	_ = userID
	return f.token, f.err
}

type recordingPublisher struct {
	events []audit.LogEvent
}

func (p *recordingPublisher) PublishLogEvent(ctx context.Context, ev audit.LogEvent) error {
	_ = ctx
	p.events = append(p.events, ev)
	return nil
}

func contactCreate(userID uint64, messageID *uint64) Request {
	return Request{
		LogType: audit.LogContactAction,
		Call: hubspot.Call{
			Method:     http.MethodPost,
			ObjectType: hubspot.ObjectContacts,
			Properties: map[string]string{"email": "a@b.co"},
		},
		UserID:    userID,
		SessionID: "01JDISPATCHSESSION00000000",
		MessageID: messageID,
	}
}

func TestDispatch_SuccessWritesOneSyncedLog(t *testing.T) {
	db := openTestDB(t)
	logs := audit.NewRepo(db)
	crm := &fakeCaller{result: &hubspot.Result{RemoteID: "C101", StatusCode: 201}}
	pub := &recordingPublisher{}
	d := NewDispatcher(crm, &fakeTokens{token: "pat-1"}, logs, pub)

	mid := uint64(500)
	out, err := d.Dispatch(context.Background(), contactCreate(21, &mid))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !out.Synced() || out.RemoteID != "C101" {
		t.Fatalf("unexpected outcome: %+v", out)
	}

	n, err := logs.CountByMessage(context.Background(), mid)
	if err != nil || n != 1 {
		t.Fatalf("exactly-one-log law violated: count=%d err=%v", n, err)
	}

	l, err := logs.GetByID(context.Background(), out.LogID)
	if err != nil {
		t.Fatalf("get log: %v", err)
	}
	if l.SyncStatus != audit.StatusSynced {
		t.Fatalf("expected synced log, got %s", l.SyncStatus)
	}
	if l.HubSpotID == nil || *l.HubSpotID != "C101" || l.SyncedAt == nil || l.SyncError != nil {
		t.Fatalf("synced invariant violated: %+v", l)
	}

	if len(pub.events) != 1 || pub.events[0].SyncStatus != "synced" {
		t.Fatalf("expected one published event, got %+v", pub.events)
	}
}

func TestDispatch_RemoteRejectionWritesOneFailedLog(t *testing.T) {
	db := openTestDB(t)
	logs := audit.NewRepo(db)
	crm := &fakeCaller{result: &hubspot.Result{StatusCode: 500, ErrorText: "Internal Server Error"}}
	d := NewDispatcher(crm, &fakeTokens{token: "pat-1"}, logs, nil)

	mid := uint64(501)
	out, err := d.Dispatch(context.Background(), contactCreate(22, &mid))
	if err != nil {
		t.Fatalf("remote rejection must not be an error: %v", err)
	}
	if out.Synced() {
		t.Fatalf("expected failed outcome")
	}
	if out.ErrorText != "Internal Server Error" {
		t.Fatalf("raw error text not preserved: %q", out.ErrorText)
	}

	n, _ := logs.CountByMessage(context.Background(), mid)
	if n != 1 {
		t.Fatalf("exactly-one-log law violated: count=%d", n)
	}

	l, err := logs.GetByID(context.Background(), out.LogID)
	if err != nil {
		t.Fatalf("get log: %v", err)
	}
	if l.SyncStatus != audit.StatusFailed {
		t.Fatalf("expected failed log, got %s", l.SyncStatus)
	}
	if l.SyncError == nil || *l.SyncError != "Internal Server Error" || l.HubSpotID != nil || l.SyncedAt != nil {
		t.Fatalf("failed invariant violated: %+v", l)
	}
}

func TestDispatch_LocalErrorStillWritesOneLog(t *testing.T) {
	db := openTestDB(t)
	logs := audit.NewRepo(db)
	netErr := errors.New("dial tcp: connection refused")
	crm := &fakeCaller{err: netErr}
	d := NewDispatcher(crm, &fakeTokens{token: "pat-1"}, logs, nil)

	mid := uint64(502)
	out, err := d.Dispatch(context.Background(), contactCreate(23, &mid))
	if !errors.Is(err, netErr) {
		t.Fatalf("local error must propagate, got %v", err)
	}
	if out == nil || out.Status != audit.StatusFailed {
		t.Fatalf("expected failed outcome alongside error, got %+v", out)
	}

	n, _ := logs.CountByMessage(context.Background(), mid)
	if n != 1 {
		t.Fatalf("exactly-one-log law violated: count=%d", n)
	}
}

func TestDispatch_MissingCredentialIsConfigError(t *testing.T) {
	db := openTestDB(t)
	logs := audit.NewRepo(db)
	crm := &fakeCaller{result: &hubspot.Result{RemoteID: "X", StatusCode: 200}}
	d := NewDispatcher(crm, &fakeTokens{err: hubspot.ErrNoCredential}, logs, nil)

	mid := uint64(503)
	out, err := d.Dispatch(context.Background(), contactCreate(24, &mid))
	if !errors.Is(err, hubspot.ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
	if crm.calls != 0 {
		t.Fatalf("adapter must not be called without a credential")
	}
	if out == nil || out.Status != audit.StatusFailed {
		t.Fatalf("expected failed outcome, got %+v", out)
	}

	n, _ := logs.CountByMessage(context.Background(), mid)
	if n != 1 {
		t.Fatalf("exactly-one-log law violated: count=%d", n)
	}
}

func TestDispatch_SecondAttemptIsANewLog(t *testing.T) {
	db := openTestDB(t)
	logs := audit.NewRepo(db)
	crm := &fakeCaller{result: &hubspot.Result{StatusCode: 429, ErrorText: "rate limited"}}
	d := NewDispatcher(crm, &fakeTokens{token: "pat-1"}, logs, nil)

	mid := uint64(504)
	if _, err := d.Dispatch(context.Background(), contactCreate(25, &mid)); err != nil {
		t.Fatalf("first dispatch: %v", err)
	}

	crm.result = &hubspot.Result{RemoteID: "C200", StatusCode: 201}
	out, err := d.Dispatch(context.Background(), contactCreate(25, &mid))
	if err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
	if !out.Synced() {
		t.Fatalf("expected second attempt synced")
	}

	n, _ := logs.CountByMessage(context.Background(), mid)
	if n != 2 {
		t.Fatalf("each attempt must log independently: count=%d", n)
	}
}

func TestLogTypeForObject(t *testing.T) {
	cases := map[string]audit.LogType{
		hubspot.ObjectContacts:  audit.LogContactAction,
		hubspot.ObjectCompanies: audit.LogContactAction,
		hubspot.ObjectDeals:     audit.LogDeal,
		hubspot.ObjectNotes:     audit.LogNote,
		hubspot.ObjectTasks:     audit.LogTask,
		hubspot.ObjectCalls:     audit.LogCallMeeting,
		hubspot.ObjectMeetings:  audit.LogCallMeeting,
	}
	for obj, want := range cases {
		if got := LogTypeForObject(obj); got != want {
			t.Fatalf("%s: expected %s, got %s", obj, want, got)
		}
	}
}
