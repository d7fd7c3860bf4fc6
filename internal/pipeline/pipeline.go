// Package pipeline sequences the application-tracking stages: fetch new
// mail, normalize it, classify it, reconcile the tracker, and archive what
// has been consumed. Stores have a single writer; a file lock keeps
// concurrent runs out.
package pipeline

import (
	"context"
	"time"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jobtrail/jobtrail/internal/config"
	"github.com/jobtrail/jobtrail/internal/model"
	"github.com/jobtrail/jobtrail/internal/normalize"
	"github.com/jobtrail/jobtrail/internal/resilience"
	"github.com/jobtrail/jobtrail/internal/store"
	"github.com/jobtrail/jobtrail/pkg/gmail"
	"github.com/jobtrail/jobtrail/pkg/zeroshot"
)

// Stage names recorded in the run ledger.
const (
	StageFetch   = "fetch"
	StageProcess = "process"
	StageTrack   = "track"
	StageRun     = "run"
)

// Pipeline owns the stores and collaborators for one configuration. It is
// not safe for concurrent use; the lock file enforces one run per data
// directory across processes.
type Pipeline struct {
	cfg        *config.Config
	mail       gmail.Client
	classifier zeroshot.Client
	norm       *normalize.Normalizer

	emails           *store.EmailStore
	failures         *store.FailureLedger
	processed        *store.ProcessedStore
	tracker          *store.TrackerStore
	emailsArchive    *store.EmailStore
	processedArchive *store.ProcessedStore
	runs             *store.RunStore

	retry resilience.RetryConfig
	now   func() time.Time
}

// New wires a pipeline over the configured data directory. The runs store
// may be nil, in which case runs are not recorded.
func New(cfg *config.Config, mail gmail.Client, classifier zeroshot.Client, runs *store.RunStore) (*Pipeline, error) {
	norm, err := normalize.New()
	if err != nil {
		return nil, err
	}

	retry := resilience.FetchRetryConfig()
	if cfg.Fetch.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.Fetch.MaxAttempts
	}
	if cfg.Fetch.BackoffSeconds > 0 {
		retry.InitialBackoff = time.Duration(cfg.Fetch.BackoffSeconds) * time.Second
	}

	return &Pipeline{
		cfg:              cfg,
		mail:             mail,
		classifier:       classifier,
		norm:             norm,
		emails:           store.NewEmailStore(cfg.Data.Resolve(cfg.Data.EmailsCSV)),
		failures:         store.NewFailureLedger(cfg.Data.Resolve(cfg.Data.FailedCSV)),
		processed:        store.NewProcessedStore(cfg.Data.Resolve(cfg.Data.ProcessedCSV)),
		tracker:          store.NewTrackerStore(cfg.Data.Resolve(cfg.Data.TrackerCSV)),
		emailsArchive:    store.NewEmailStore(cfg.Data.Resolve(cfg.Data.EmailsArchive)),
		processedArchive: store.NewProcessedStore(cfg.Data.Resolve(cfg.Data.ProcessedArchive)),
		runs:             runs,
		retry:            retry,
		now:              time.Now,
	}, nil
}

// Run executes one stage (or the whole sequence for StageRun) under the
// data-directory lock and records the outcome in the run ledger.
func (p *Pipeline) Run(ctx context.Context, stage string) (model.RunCounts, error) {
	lock := flock.New(p.cfg.Data.Resolve(p.cfg.Data.LockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return model.RunCounts{}, eris.Wrap(err, "pipeline: acquire lock")
	}
	if !locked {
		return model.RunCounts{}, eris.New("pipeline: another run holds the data directory lock")
	}
	defer lock.Unlock()

	var run *model.Run
	if p.runs != nil {
		run, err = p.runs.CreateRun(ctx, stage)
		if err != nil {
			return model.RunCounts{}, err
		}
	}

	counts, stageErr := p.execute(ctx, stage)

	if p.runs != nil && run != nil {
		errMsg := ""
		if stageErr != nil {
			errMsg = stageErr.Error()
		}
		if err := p.runs.CompleteRun(ctx, run.ID, counts, errMsg); err != nil {
			zap.L().Error("record run outcome", zap.String("run_id", run.ID), zap.Error(err))
		}
	}
	return counts, stageErr
}

func (p *Pipeline) execute(ctx context.Context, stage string) (model.RunCounts, error) {
	switch stage {
	case StageFetch:
		return p.Fetch(ctx)
	case StageProcess:
		return p.Process(ctx)
	case StageTrack:
		return p.Reconcile(ctx)
	case StageRun:
		var total model.RunCounts
		for _, fn := range []func(context.Context) (model.RunCounts, error){
			p.Fetch, p.Process, p.Reconcile,
		} {
			counts, err := fn(ctx)
			total = total.Add(counts)
			if err != nil {
				return total, err
			}
		}
		return total, nil
	default:
		return model.RunCounts{}, eris.Errorf("pipeline: unknown stage %q", stage)
	}
}

// Summary is a point-in-time view of the stores, for status reporting.
type Summary struct {
	PendingEmails    int
	FailedEmails     int
	ProcessedPending int
	TrackerEntries   int
	ArchivedEmails   int
	LatestFetched    time.Time // zero when no fetched email has a parsable date
}

// Status reads every store and reports counts plus the newest fetched date.
func (p *Pipeline) Status() (Summary, error) {
	var s Summary

	raw, err := p.emails.Read()
	if err != nil {
		return s, err
	}
	s.PendingEmails = len(raw)
	for _, rec := range raw {
		if parsed := normalize.ParseDate(rec.Date); parsed.After(model.Epoch) && parsed.After(s.LatestFetched) {
			s.LatestFetched = parsed
		}
	}

	failed, err := p.failures.Read()
	if err != nil {
		return s, err
	}
	s.FailedEmails = len(failed)

	processed, err := p.processed.Read()
	if err != nil {
		return s, err
	}
	s.ProcessedPending = len(processed)

	entries, err := p.tracker.Read()
	if err != nil {
		return s, err
	}
	s.TrackerEntries = len(entries)

	archived, err := p.emailsArchive.Read()
	if err != nil {
		return s, err
	}
	s.ArchivedEmails = len(archived)

	return s, nil
}
