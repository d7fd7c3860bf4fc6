package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jobtrail/jobtrail/internal/config"
	"github.com/jobtrail/jobtrail/pkg/gmail"
	"github.com/jobtrail/jobtrail/pkg/zeroshot"
)

func fixedNow() time.Time {
	return time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
}

func newTestPipeline(t *testing.T, mail gmail.Client, classifier zeroshot.Client) *Pipeline {
	t.Helper()
	cfg := &config.Config{
		Data: config.DataConfig{
			Dir:              t.TempDir(),
			EmailsCSV:        "emails.csv",
			FailedCSV:        "failed_emails.csv",
			ProcessedCSV:     "processed_emails.csv",
			TrackerCSV:       "application_tracker.csv",
			EmailsArchive:    "emails_archive.csv",
			ProcessedArchive: "processed_archive.csv",
			RunsDB:           "runs.db",
			LockFile:         ".jobtrail.lock",
		},
		Gmail: config.GmailConfig{StartDate: "2023-12-30T23:59:59Z"},
		Fetch: config.FetchConfig{MaxAttempts: 3, BackoffSeconds: 2},
	}

	p, err := New(cfg, mail, classifier, nil)
	require.NoError(t, err)
	p.retry.InitialBackoff = time.Millisecond
	p.now = fixedNow
	return p
}

func testMessage(id, from, subject, body, date string) gmail.Message {
	return gmail.Message{
		ID:      id,
		From:    from,
		To:      "me@example.com",
		Subject: subject,
		Body:    body,
		Date:    date,
	}
}
