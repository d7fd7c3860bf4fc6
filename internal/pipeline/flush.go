package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/jobtrail/jobtrail/internal/model"
)

// Flush moves consumed records out of the active stores: processed records
// and their raw counterparts are appended to the archives, then pruned
// from the active files. Archive appends are deduplicated by MessageID and
// happen before the prunes, so a crash between any two steps leaves a
// record in both places rather than neither. The raw-store prune is driven
// by archive membership, not by this batch, so the next flush converges
// even when a crash hit after the processed prune had already emptied the
// processed store.
func (p *Pipeline) Flush(ctx context.Context) (model.RunCounts, error) {
	var counts model.RunCounts
	if err := ctx.Err(); err != nil {
		return counts, err
	}

	records, err := p.processed.Read()
	if err != nil {
		return counts, err
	}

	if len(records) > 0 {
		consumed := make(map[string]struct{}, len(records))
		for _, rec := range records {
			consumed[rec.MessageID] = struct{}{}
		}

		raw, err := p.emails.Read()
		if err != nil {
			return counts, err
		}
		rawConsumed := make([]model.EmailRecord, 0, len(raw))
		for _, rec := range raw {
			if _, ok := consumed[rec.MessageID]; ok {
				rawConsumed = append(rawConsumed, rec)
			}
		}

		// Archives first; prunes only after both archives hold the records.
		if _, err := p.processedArchive.AppendNew(records); err != nil {
			return counts, err
		}
		if _, err := p.emailsArchive.AppendNew(rawConsumed); err != nil {
			return counts, err
		}

		flushed, err := p.processed.Prune(consumed)
		if err != nil {
			return counts, err
		}
		counts.Flushed = flushed
	}

	// Anything in the email archive must be gone from the active store,
	// including stragglers from an interrupted earlier flush.
	archived, err := p.emailsArchive.MessageIDs()
	if err != nil {
		return counts, err
	}
	if len(archived) > 0 {
		if _, err := p.emails.Prune(archived); err != nil {
			return counts, err
		}
	}

	if counts.Flushed > 0 {
		zap.L().Info("flush complete", zap.Int("flushed", counts.Flushed))
	}
	return counts, nil
}
