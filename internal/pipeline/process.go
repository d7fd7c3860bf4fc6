package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/jobtrail/jobtrail/internal/model"
	"github.com/jobtrail/jobtrail/internal/normalize"
	"github.com/jobtrail/jobtrail/internal/store"
)

// Process normalizes every fetched email not yet in the processed store
// (or its archive) and appends the results in ascending ParsedDate order.
// Normalization is deterministic, so re-running the stage is a no-op.
func (p *Pipeline) Process(ctx context.Context) (model.RunCounts, error) {
	var counts model.RunCounts

	raw, err := p.emails.Read()
	if err != nil {
		return counts, err
	}
	if len(raw) == 0 {
		zap.L().Info("no fetched emails to process")
		return counts, nil
	}

	seen, err := p.processedIDs()
	if err != nil {
		return counts, err
	}

	pending := store.FilterNew(raw, func(r model.EmailRecord) string { return r.MessageID }, seen)
	if len(pending) == 0 {
		zap.L().Info("all fetched emails already processed")
		return counts, nil
	}

	records := make([]model.ProcessedRecord, 0, len(pending))
	for _, rec := range pending {
		if err := ctx.Err(); err != nil {
			return counts, err
		}
		records = append(records, p.norm.Process(rec))
	}
	normalize.SortByParsedDate(records)

	added, err := p.processed.AppendNew(records)
	if err != nil {
		return counts, err
	}
	counts.Processed = added

	zap.L().Info("process complete", zap.Int("processed", added))
	return counts, nil
}

// processedIDs is the dedup gate for normalization: everything in the
// processed store plus everything already archived from it.
func (p *Pipeline) processedIDs() (map[string]struct{}, error) {
	seen, err := p.processed.MessageIDs()
	if err != nil {
		return nil, err
	}
	archived, err := p.processedArchive.MessageIDs()
	if err != nil {
		return nil, err
	}
	for id := range archived {
		seen[id] = struct{}{}
	}
	return seen, nil
}
