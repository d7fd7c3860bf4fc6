package model

import "time"

// Epoch is the sentinel ParsedDate used when an email's Date header cannot
// be parsed. It is a defined fallback, not a failure.
var Epoch = time.Unix(0, 0).UTC()

// EmailRecord is a raw email as fetched from the mail provider. It is
// immutable once fetched and identified solely by MessageID.
type EmailRecord struct {
	MessageID string `json:"message_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Date      string `json:"date"` // original header value, RFC-2822-ish
}

// ProcessedRecord is the normalized, classification-ready derivative of an
// EmailRecord. It is derived deterministically: processing the same
// EmailRecord twice yields the same ProcessedRecord.
type ProcessedRecord struct {
	MessageID  string    `json:"message_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Subject    string    `json:"subject"`     // normalized
	Body       string    `json:"body"`        // normalized
	Date       string    `json:"date"`        // original header value
	Text       string    `json:"text"`        // composed classifier input
	ParsedDate time.Time `json:"parsed_date"` // UTC; Epoch when unparsable
}

// ClassifiedRecord exists only during a pipeline run; it is folded into the
// tracker and never persisted on its own.
type ClassifiedRecord struct {
	ProcessedRecord
	Status      Status `json:"status"`
	CompanyName string `json:"company_name"`
}
