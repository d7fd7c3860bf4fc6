package pipeline

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jobtrail/jobtrail/internal/extract"
	"github.com/jobtrail/jobtrail/internal/model"
	"github.com/jobtrail/jobtrail/internal/normalize"
)

const statusUpdatedLayout = "2006-01-02"

// Reconcile classifies everything in the processed store, folds the
// non-irrelevant results into the tracker, and rewrites the tracker file
// atomically in its canonical order (rejections last, companies
// alphabetical within each half). It then flushes the consumed records to
// the archives.
func (p *Pipeline) Reconcile(ctx context.Context) (model.RunCounts, error) {
	var counts model.RunCounts

	records, err := p.processed.Read()
	if err != nil {
		return counts, err
	}
	if len(records) == 0 {
		zap.L().Info("no processed emails to classify")
		return counts, nil
	}
	normalize.SortByParsedDate(records)

	classified, err := p.classify(ctx, records)
	if err != nil {
		return counts, err
	}
	counts.Classified = len(classified)

	entries, err := p.tracker.Read()
	if err != nil {
		return counts, err
	}
	updated := p.now().UTC().Format(statusUpdatedLayout)
	for _, rec := range classified {
		if rec.Status == model.StatusIrrelevant {
			continue
		}
		entries = append(entries, model.TrackerEntry{
			CompanyName:   rec.CompanyName,
			Status:        rec.Status,
			Email:         rec.From,
			StatusUpdated: updated,
		})
		counts.Tracked++
	}
	sortTracker(entries)
	if err := p.tracker.Replace(entries); err != nil {
		return counts, err
	}

	flushed, err := p.Flush(ctx)
	if err != nil {
		return counts, err
	}
	counts.Flushed = flushed.Flushed

	zap.L().Info("reconcile complete",
		zap.Int("classified", counts.Classified),
		zap.Int("tracked", counts.Tracked),
		zap.Int("flushed", counts.Flushed),
	)
	return counts, nil
}

// classify sends the composed texts to the classifier in order and zips
// the predictions back onto the records positionally.
func (p *Pipeline) classify(ctx context.Context, records []model.ProcessedRecord) ([]model.ClassifiedRecord, error) {
	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Text
	}

	predictions, err := p.classifier.Classify(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(predictions) != len(records) {
		return nil, eris.Errorf("reconcile: got %d predictions for %d records", len(predictions), len(records))
	}

	classified := make([]model.ClassifiedRecord, len(records))
	for i, rec := range records {
		status := model.Status(predictions[i].Label)
		if !status.Valid() {
			return nil, eris.Errorf("reconcile: invalid status %q for message %s", predictions[i].Label, rec.MessageID)
		}
		classified[i] = model.ClassifiedRecord{
			ProcessedRecord: rec,
			Status:          status,
			CompanyName:     extract.CompanyName(rec.From, rec.Subject, rec.Body),
		}
	}
	return classified, nil
}

// sortTracker orders entries with every non-rejection before every
// rejection, alphabetically by company within each group. The sort is
// stable so same-company duplicates keep their insertion order.
func sortTracker(entries []model.TrackerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Less(entries[j])
	})
}
