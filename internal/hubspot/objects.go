package hubspot

// Typed property builders for the object types this system writes. Each maps
// to the HubSpot internal property names and carries a Raw passthrough for
// portal-specific custom properties.

// Lifecycle stages used by the lead flows.
const (
	LifecycleLead        = "lead"
	LifecycleOpportunity = "opportunity"
)

func put(m map[string]string, k, v string) {
	if v != "" {
		m[k] = v
	}
}

func merge(m map[string]string, raw map[string]string) map[string]string {
	for k, v := range raw {
		m[k] = v
	}
	return m
}

type ContactProperties struct {
	Email          string
	FirstName      string
	LastName       string
	Phone          string
	Company        string
	LifecycleStage string
	LeadStatus     string
	Raw            map[string]string
}

func (p ContactProperties) Map() map[string]string {
	m := map[string]string{}
	put(m, "email", p.Email)
	put(m, "firstname", p.FirstName)
	put(m, "lastname", p.LastName)
	put(m, "phone", p.Phone)
	put(m, "company", p.Company)
	put(m, "lifecyclestage", p.LifecycleStage)
	put(m, "hs_lead_status", p.LeadStatus)
	return merge(m, p.Raw)
}

type CompanyProperties struct {
	Name     string
	Domain   string
	Industry string
	Raw      map[string]string
}

func (p CompanyProperties) Map() map[string]string {
	m := map[string]string{}
	put(m, "name", p.Name)
	put(m, "domain", p.Domain)
	put(m, "industry", p.Industry)
	return merge(m, p.Raw)
}

type DealProperties struct {
	DealName  string
	Amount    string
	DealStage string
	CloseDate string
	Pipeline  string
	Raw       map[string]string
}

func (p DealProperties) Map() map[string]string {
	m := map[string]string{}
	put(m, "dealname", p.DealName)
	put(m, "amount", p.Amount)
	put(m, "dealstage", p.DealStage)
	put(m, "closedate", p.CloseDate)
	put(m, "pipeline", p.Pipeline)
	return merge(m, p.Raw)
}

type NoteProperties struct {
	Body      string
	Timestamp string
	Raw       map[string]string
}

func (p NoteProperties) Map() map[string]string {
	m := map[string]string{}
	put(m, "hs_note_body", p.Body)
	put(m, "hs_timestamp", p.Timestamp)
	return merge(m, p.Raw)
}

type TaskProperties struct {
	Subject string
	Body    string
	DueDate string
	Status  string
	Raw     map[string]string
}

func (p TaskProperties) Map() map[string]string {
	m := map[string]string{}
	put(m, "hs_task_subject", p.Subject)
	put(m, "hs_task_body", p.Body)
	put(m, "hs_timestamp", p.DueDate)
	put(m, "hs_task_status", p.Status)
	return merge(m, p.Raw)
}

type CallProperties struct {
	Title     string
	Body      string
	Timestamp string
	Raw       map[string]string
}

func (p CallProperties) Map() map[string]string {
	m := map[string]string{}
	put(m, "hs_call_title", p.Title)
	put(m, "hs_call_body", p.Body)
	put(m, "hs_timestamp", p.Timestamp)
	return merge(m, p.Raw)
}

type MeetingProperties struct {
	Title     string
	Body      string
	StartTime string
	EndTime   string
	Raw       map[string]string
}

func (p MeetingProperties) Map() map[string]string {
	m := map[string]string{}
	put(m, "hs_meeting_title", p.Title)
	put(m, "hs_meeting_body", p.Body)
	put(m, "hs_meeting_start_time", p.StartTime)
	put(m, "hs_meeting_end_time", p.EndTime)
	return merge(m, p.Raw)
}
