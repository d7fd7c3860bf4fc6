package normalize

import (
	"net/mail"
	"regexp"
	"time"

	"github.com/araddon/dateparse"

	"github.com/jobtrail/jobtrail/internal/model"
)

// Compiled once; Refine runs over every new email body.
var (
	urlRe       = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagRe       = regexp.MustCompile(`<.*?>`)
	emailRe     = regexp.MustCompile(`\S*@\S*\s?`)
	digitRe     = regexp.MustCompile(`\d+`)
	nonLetterRe = regexp.MustCompile(`[^a-zA-Z\s]`)
	spaceRe     = regexp.MustCompile(`\s+`)

	// Trailing "(UTC)" style annotations that trip both parsers.
	tzParenRe = regexp.MustCompile(`\s*\([A-Z]{1,5}\)\s*$`)
)

// ParseDate parses an RFC-2822-ish email Date header and normalizes it to
// UTC. Unparsable input yields the epoch sentinel; this is a defined
// fallback, never an error. Naive timestamps are taken as already-UTC.
func ParseDate(raw string) time.Time {
	if raw == "" || raw == "No Date" {
		return model.Epoch
	}

	if t, err := mail.ParseDate(raw); err == nil {
		return t.UTC()
	}

	cleaned := tzParenRe.ReplaceAllString(raw, "")
	if t, err := mail.ParseDate(cleaned); err == nil {
		return t.UTC()
	}
	if t, err := dateparse.ParseAny(cleaned); err == nil {
		return t.UTC()
	}

	return model.Epoch
}
