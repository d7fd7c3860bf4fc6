package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jobtrail/jobtrail/internal/model"
	"github.com/jobtrail/jobtrail/internal/normalize"
	"github.com/jobtrail/jobtrail/internal/resilience"
	"github.com/jobtrail/jobtrail/internal/store"
	"github.com/jobtrail/jobtrail/pkg/gmail"
)

// Fetch pulls every message newer than the store's cursor into the email
// store. Each message is appended as soon as it is fetched, so a crash
// mid-run loses nothing already written; messages that exhaust their
// retries land in the failure ledger and the stage carries on.
func (p *Pipeline) Fetch(ctx context.Context) (model.RunCounts, error) {
	var counts model.RunCounts

	cursor, err := p.fetchCursor()
	if err != nil {
		return counts, err
	}

	ids, err := p.mail.ListMessageIDs(ctx, cursor)
	if err != nil {
		return counts, err
	}

	existing, err := p.fetchedIDs()
	if err != nil {
		return counts, err
	}

	for _, id := range ids {
		if _, ok := existing[id]; ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return counts, eris.Wrap(err, "fetch: cancelled")
		}

		retry := p.retry
		retry.OnRetry = resilience.RetryLogger("fetch message", id)
		msg, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (gmail.Message, error) {
			return p.mail.GetMessage(ctx, id)
		})
		if err != nil {
			zap.L().Warn("message failed after retries",
				zap.String("message_id", id),
				zap.Error(err),
			)
			if err := p.failures.Record(id); err != nil {
				return counts, err
			}
			counts.FetchFailed++
			continue
		}

		if err := p.emails.Append([]model.EmailRecord{fetchedRecord(msg)}); err != nil {
			return counts, err
		}
		existing[id] = struct{}{}
		counts.Fetched++
	}

	if counts.Fetched == 0 {
		zap.L().Info("No new emails to add.")
	} else {
		zap.L().Info("fetch complete",
			zap.Int("fetched", counts.Fetched),
			zap.Int("failed", counts.FetchFailed),
			zap.Time("cursor", cursor),
		)
	}
	return counts, nil
}

// fetchedIDs is the dedup gate for fetching: everything in the active
// email store plus everything already archived from it. Without the
// archive, a flushed message would be refetched on the next run.
func (p *Pipeline) fetchedIDs() (map[string]struct{}, error) {
	existing, err := p.emails.MessageIDs()
	if err != nil {
		return nil, err
	}
	archived, err := p.emailsArchive.MessageIDs()
	if err != nil {
		return nil, err
	}
	for id := range archived {
		existing[id] = struct{}{}
	}
	return existing, nil
}

// fetchCursor is one second past the newest date already fetched (active
// store or archive), so a re-run never re-lists known mail. Empty stores,
// or stores holding only unparsable dates, fall back to the configured
// start date.
func (p *Pipeline) fetchCursor() (time.Time, error) {
	start, err := time.Parse(time.RFC3339, p.cfg.Gmail.StartDate)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "fetch: parse start date %q", p.cfg.Gmail.StartDate)
	}
	start = start.UTC()

	latest := time.Time{}
	for _, s := range []*store.EmailStore{p.emails, p.emailsArchive} {
		records, err := s.Read()
		if err != nil {
			return time.Time{}, err
		}
		for _, rec := range records {
			if parsed := normalize.ParseDate(rec.Date); parsed.After(model.Epoch) && parsed.After(latest) {
				latest = parsed
			}
		}
	}
	if latest.IsZero() || !latest.After(start) {
		return start, nil
	}
	return latest.Add(time.Second), nil
}

func fetchedRecord(msg gmail.Message) model.EmailRecord {
	return model.EmailRecord{
		MessageID: msg.ID,
		From:      msg.From,
		To:        msg.To,
		Subject:   msg.Subject,
		Body:      msg.Body,
		Date:      msg.Date,
	}
}
