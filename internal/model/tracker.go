package model

// Status is the classification assigned to an email by the zero-shot
// adapter. Exactly one status is assigned per email.
type Status string

const (
	StatusApplied    Status = "Applied"
	StatusRejected   Status = "Rejected"
	StatusAccepted   Status = "Accepted"
	StatusIrrelevant Status = "Irrelevant"
)

// Statuses lists every valid status.
var Statuses = []Status{StatusApplied, StatusRejected, StatusAccepted, StatusIrrelevant}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusApplied, StatusRejected, StatusAccepted, StatusIrrelevant:
		return true
	}
	return false
}

// TrackerEntry is one reconciled row of the application tracker: a single
// job-application signal. Entries keep only weak provenance (the source
// sender address); they are not keyed by MessageID once folded in.
type TrackerEntry struct {
	CompanyName   string `json:"company_name"`
	Status        Status `json:"status"`
	Email         string `json:"email"`
	StatusUpdated string `json:"status_updated"` // UTC date the entry was folded in
}

// Less orders tracker entries: non-Rejected entries sort before Rejected
// ones, then alphabetically by company name within each partition.
func (e TrackerEntry) Less(other TrackerEntry) bool {
	er, or := e.Status == StatusRejected, other.Status == StatusRejected
	if er != or {
		return !er
	}
	return e.CompanyName < other.CompanyName
}
