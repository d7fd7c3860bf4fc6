package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jobtrail/jobtrail/internal/resilience"
	"github.com/jobtrail/jobtrail/pkg/gmail"
	gmailmocks "github.com/jobtrail/jobtrail/pkg/gmail/mocks"
)

func TestFetch_AppendsNewMessages(t *testing.T) {
	mail := &gmailmocks.Client{}
	mail.On("ListMessageIDs", mock.Anything, mock.Anything).Return([]string{"m1", "m2"}, nil)
	mail.On("GetMessage", mock.Anything, "m1").
		Return(testMessage("m1", "Acme <jobs@acme.com>", "Your application", "thanks", "Tue, 02 Jan 2024 10:00:00 +0000"), nil)
	mail.On("GetMessage", mock.Anything, "m2").
		Return(testMessage("m2", "Initech <hr@initech.com>", "Interview", "hello", "Wed, 03 Jan 2024 09:00:00 +0000"), nil)

	p := newTestPipeline(t, mail, nil)

	counts, err := p.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Fetched)
	assert.Equal(t, 0, counts.FetchFailed)

	records, err := p.emails.Read()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "m1", records[0].MessageID)
	assert.Equal(t, "Acme <jobs@acme.com>", records[0].From)
}

func TestFetch_Idempotent(t *testing.T) {
	mail := &gmailmocks.Client{}
	mail.On("ListMessageIDs", mock.Anything, mock.Anything).Return([]string{"m1"}, nil)
	mail.On("GetMessage", mock.Anything, "m1").
		Return(testMessage("m1", "a@b.com", "s", "b", "Tue, 02 Jan 2024 10:00:00 +0000"), nil)

	p := newTestPipeline(t, mail, nil)

	counts, err := p.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Fetched)

	// Second run lists the same ID; the store must not grow.
	counts, err = p.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Fetched)

	records, err := p.emails.Read()
	require.NoError(t, err)
	assert.Len(t, records, 1)
	mail.AssertNumberOfCalls(t, "GetMessage", 1)
}

func TestFetch_FailedMessageGoesToLedger(t *testing.T) {
	mail := &gmailmocks.Client{}
	mail.On("ListMessageIDs", mock.Anything, mock.Anything).Return([]string{"m1", "m2"}, nil)
	mail.On("GetMessage", mock.Anything, "m1").
		Return(testMessage("m1", "a@b.com", "s", "b", "Tue, 02 Jan 2024 10:00:00 +0000"), nil)
	mail.On("GetMessage", mock.Anything, "m2").
		Return(gmail.Message{}, errors.New("permanent parse failure"))

	p := newTestPipeline(t, mail, nil)

	counts, err := p.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Fetched)
	assert.Equal(t, 1, counts.FetchFailed)

	failed, err := p.failures.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"m2"}, failed)

	records, err := p.emails.Read()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "m1", records[0].MessageID)
}

func TestFetch_RetriesTransientErrors(t *testing.T) {
	mail := &gmailmocks.Client{}
	mail.On("ListMessageIDs", mock.Anything, mock.Anything).Return([]string{"m1"}, nil)
	mail.On("GetMessage", mock.Anything, "m1").
		Return(gmail.Message{}, resilience.NewTransientError(errors.New("backendError"), 500)).Twice()
	mail.On("GetMessage", mock.Anything, "m1").
		Return(testMessage("m1", "a@b.com", "s", "b", "Tue, 02 Jan 2024 10:00:00 +0000"), nil).Once()

	p := newTestPipeline(t, mail, nil)

	counts, err := p.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Fetched)
	assert.Equal(t, 0, counts.FetchFailed)
	mail.AssertNumberOfCalls(t, "GetMessage", 3)
}

func TestFetchCursor_EmptyStoreUsesStartDate(t *testing.T) {
	p := newTestPipeline(t, &gmailmocks.Client{}, nil)

	cursor, err := p.fetchCursor()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 12, 30, 23, 59, 59, 0, time.UTC), cursor)
}

func TestFetchCursor_AdvancesPastNewestFetchedDate(t *testing.T) {
	mail := &gmailmocks.Client{}
	mail.On("ListMessageIDs", mock.Anything, mock.Anything).Return([]string{"m1", "m2"}, nil)
	mail.On("GetMessage", mock.Anything, "m1").
		Return(testMessage("m1", "a@b.com", "s", "b", "Tue, 02 Jan 2024 10:00:00 +0000"), nil)
	mail.On("GetMessage", mock.Anything, "m2").
		Return(testMessage("m2", "a@b.com", "s", "b", "not-a-date"), nil)

	p := newTestPipeline(t, mail, nil)
	_, err := p.Fetch(context.Background())
	require.NoError(t, err)

	// Unparsable dates are ignored; the cursor is one second past m1.
	cursor, err := p.fetchCursor()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 10, 0, 1, 0, time.UTC), cursor)
}

func TestFetch_NoMessages(t *testing.T) {
	mail := &gmailmocks.Client{}
	mail.On("ListMessageIDs", mock.Anything, mock.Anything).Return([]string{}, nil)

	p := newTestPipeline(t, mail, nil)

	counts, err := p.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Fetched)

	records, err := p.emails.Read()
	require.NoError(t, err)
	assert.Empty(t, records)
}
