package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobtrail/jobtrail/internal/model"
)

func testEmail(id string) model.EmailRecord {
	return model.EmailRecord{
		MessageID: id,
		From:      "Acme Recruiting <jobs@acme.com>",
		To:        "me@example.com",
		Subject:   "Thanks for applying",
		Body:      "We received your application.\nBest,\nAcme",
		Date:      "Tue, 02 Jan 2024 10:00:00 +0000",
	}
}

func TestEmailStore_RoundTrip(t *testing.T) {
	s := NewEmailStore(filepath.Join(t.TempDir(), "emails.csv"))

	records, err := s.Read()
	require.NoError(t, err)
	assert.Empty(t, records)

	want := []model.EmailRecord{testEmail("m1"), testEmail("m2")}
	require.NoError(t, s.Append(want))

	got, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	ids, err := s.MessageIDs()
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"m1": {}, "m2": {}}, ids)
}

func TestEmailStore_AppendNewIsIdempotent(t *testing.T) {
	s := NewEmailStore(filepath.Join(t.TempDir(), "emails.csv"))

	added, err := s.AppendNew([]model.EmailRecord{testEmail("m1"), testEmail("m2")})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	// Same batch again: nothing new.
	added, err = s.AppendNew([]model.EmailRecord{testEmail("m1"), testEmail("m2")})
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	added, err = s.AppendNew([]model.EmailRecord{testEmail("m2"), testEmail("m3")})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	got, err := s.Read()
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestEmailStore_Prune(t *testing.T) {
	s := NewEmailStore(filepath.Join(t.TempDir(), "emails.csv"))
	require.NoError(t, s.Append([]model.EmailRecord{testEmail("m1"), testEmail("m2"), testEmail("m3")}))

	removed, err := s.Prune(map[string]struct{}{"m1": {}, "m3": {}, "not-there": {}})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	got, err := s.Read()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m2", got[0].MessageID)

	// Pruning nothing leaves the file untouched.
	removed, err = s.Prune(map[string]struct{}{"nope": {}})
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestProcessedStore_RoundTrip(t *testing.T) {
	s := NewProcessedStore(filepath.Join(t.TempDir(), "processed.csv"))

	when := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	want := []model.ProcessedRecord{{
		MessageID:  "m1",
		From:       "jobs@acme.com",
		To:         "me@example.com",
		Subject:    "thanks for applying",
		Body:       "we received your application",
		Date:       "Tue, 02 Jan 2024 10:00:00 +0000",
		Text:       `jobs@acme.com. thanks for applying. The email: "we received your application" -end of the email. `,
		ParsedDate: when,
	}}
	require.NoError(t, s.Append(want))

	got, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestProcessedStore_EpochSentinelSurvives(t *testing.T) {
	s := NewProcessedStore(filepath.Join(t.TempDir(), "processed.csv"))
	rec := model.ProcessedRecord{MessageID: "m1", Date: "not-a-date", ParsedDate: model.Epoch}
	require.NoError(t, s.Append([]model.ProcessedRecord{rec}))

	got, err := s.Read()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].ParsedDate.Equal(model.Epoch))
}

func TestFailureLedger_RecordDedups(t *testing.T) {
	l := NewFailureLedger(filepath.Join(t.TempDir(), "failed.csv"))

	require.NoError(t, l.Record("m1"))
	require.NoError(t, l.Record("m1"))
	require.NoError(t, l.Record("m2"))

	ids, err := l.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, ids)
}
