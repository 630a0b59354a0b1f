package leads

import "errors"

// Lead statuses tracked per lead record via the audit log.
const (
	LeadStatusNew         = "NEW"
	LeadStatusContacted   = "CONTACTED"
	LeadStatusQualified   = "QUALIFIED"
	LeadStatusConverted   = "CONVERTED"
	LeadStatusUnqualified = "UNQUALIFIED"
)

var (
	ErrUnknownLeadStatus = errors.New("leads: unknown lead status")
	ErrBadTransition     = errors.New("leads: illegal lead status transition")
	ErrUnknownStage      = errors.New("leads: unknown deal stage")
)

// Forward-only lead machine. Jumps past intermediate statuses are allowed
// (a lead can qualify without ever being marked contacted); terminal
// statuses absorb.
var leadTransitions = map[string][]string{
	LeadStatusNew:       {LeadStatusContacted, LeadStatusQualified, LeadStatusUnqualified},
	LeadStatusContacted: {LeadStatusQualified, LeadStatusUnqualified},
	LeadStatusQualified: {LeadStatusConverted, LeadStatusUnqualified},
}

func KnownLeadStatus(s string) bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
		LeadStatusConverted, LeadStatusUnqualified:
		return true
	}
	return false
}

// CanTransitionLead reports whether from->to is a legal move. An empty from
// means no status was recorded yet and any known status may be set.
func CanTransitionLead(from, to string) bool {
	if !KnownLeadStatus(to) {
		return false
	}
	if from == "" {
		return true
	}
	for _, next := range leadTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Deal stages in their documented progression. The order is informational:
// stage updates accept any known stage in any order, only unknown strings
// are rejected.
var DealStageOrder = []string{
	"appointmentscheduled",
	"qualifiedtobuy",
	"presentationscheduled",
	"decisionmakerboughtin",
	"contractsent",
	"closedwon",
	"closedlost",
}

func KnownDealStage(s string) bool {
	for _, st := range DealStageOrder {
		if st == s {
			return true
		}
	}
	return false
}
