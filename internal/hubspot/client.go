package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CRM v3 object types.
const (
	ObjectContacts  = "contacts"
	ObjectCompanies = "companies"
	ObjectDeals     = "deals"
	ObjectNotes     = "notes"
	ObjectTasks     = "tasks"
	ObjectCalls     = "calls"
	ObjectMeetings  = "meetings"
)

// HubSpot-defined association type ids.
const (
	AssocDealToContact    = 3
	AssocContactToCompany = 1
	AssocNoteToContact    = 202
	AssocTaskToContact    = 204
	AssocCallToContact    = 194
	AssocMeetingToContact = 200
)

var (
	ErrNoCredential      = errors.New("hubspot: no credential configured for user or process")
	ErrUnknownObjectType = errors.New("hubspot: unknown object type")
)

var objectTypes = map[string]bool{
	ObjectContacts:  true,
	ObjectCompanies: true,
	ObjectDeals:     true,
	ObjectNotes:     true,
	ObjectTasks:     true,
	ObjectCalls:     true,
	ObjectMeetings:  true,
}

func KnownObjectType(t string) bool { return objectTypes[t] }

// Association links the created object to an existing one.
type Association struct {
	ToObjectID string `json:"to_object_id"`
	TypeID     int    `json:"type_id"`
}

// Call describes one remote CRM operation.
type Call struct {
	Method       string            `json:"method"`
	ObjectType   string            `json:"object_type"`
	ObjectID     string            `json:"object_id,omitempty"`
	Properties   map[string]string `json:"properties,omitempty"`
	Associations []Association     `json:"associations,omitempty"`
}

// Result is the remote outcome. Non-2xx responses are Results, not errors;
// only local failures (bad credential, network, timeout) surface as errors.
type Result struct {
	RemoteID   string
	StatusCode int
	ErrorText  string
	Raw        json.RawMessage
}

func (r *Result) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client performs object operations against the HubSpot CRM v3 API. It is
// stateless between calls.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://api.hubapi.com"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type assocTo struct {
	ID string `json:"id"`
}

type assocType struct {
	Category string `json:"associationCategory"`
	TypeID   int    `json:"associationTypeId"`
}

type assocSpec struct {
	To    assocTo     `json:"to"`
	Types []assocType `json:"types"`
}

type objectReq struct {
	Properties   map[string]string `json:"properties,omitempty"`
	Associations []assocSpec       `json:"associations,omitempty"`
}

type objectResp struct {
	ID string `json:"id"`
}

// Perform executes one CRM call with the given bearer token.
func (c *Client) Perform(ctx context.Context, token string, call Call) (*Result, error) {
	if c.HTTP == nil {
		return nil, errors.New("hubspot: http client is nil")
	}
	if strings.TrimSpace(token) == "" {
		return nil, ErrNoCredential
	}
	if !KnownObjectType(call.ObjectType) {
		return nil, ErrUnknownObjectType
	}

	method := strings.ToUpper(call.Method)
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete:
	case "":
		method = http.MethodPost
	default:
		return nil, fmt.Errorf("hubspot: unsupported method %q", call.Method)
	}

	url := fmt.Sprintf("%s/crm/v3/objects/%s", c.BaseURL, call.ObjectType)
	if call.ObjectID != "" {
		url = fmt.Sprintf("%s/%s", url, call.ObjectID)
	}

	var body io.Reader
	if method == http.MethodPost || method == http.MethodPatch {
		payload := objectReq{Properties: call.Properties}
		for _, a := range call.Associations {
			payload.Associations = append(payload.Associations, assocSpec{
				To: assocTo{ID: a.ToObjectID},
				Types: []assocType{{
					Category: "HUBSPOT_DEFINED",
					TypeID:   a.TypeID,
				}},
			})
		}
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errText := strings.TrimSpace(string(raw))
		if errText == "" {
			errText = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return &Result{
			StatusCode: resp.StatusCode,
			ErrorText:  errText,
			Raw:        raw,
		}, nil
	}

	var decoded objectResp
	if len(raw) > 0 {
		// DELETE returns an empty 204 body
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, err
		}
	}
	remoteID := decoded.ID
	if remoteID == "" {
		remoteID = call.ObjectID
	}

	return &Result{
		RemoteID:   remoteID,
		StatusCode: resp.StatusCode,
		Raw:        raw,
	}, nil
}
