package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rotisserie/eris"

	"github.com/jobtrail/jobtrail/internal/model"
	"github.com/jobtrail/jobtrail/internal/pipeline"
	"github.com/jobtrail/jobtrail/internal/store"
	"github.com/jobtrail/jobtrail/pkg/gmail"
	"github.com/jobtrail/jobtrail/pkg/zeroshot"
)

func initRunStore(ctx context.Context) (*store.RunStore, error) {
	st, err := store.NewRunStore(cfg.Data.Resolve(cfg.Data.RunsDB))
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate run store")
	}
	return st, nil
}

func newMailClient(ctx context.Context) (gmail.Client, error) {
	return gmail.NewClient(ctx,
		gmail.WithCredentialsFile(cfg.Gmail.CredentialsFile),
		gmail.WithTokenFile(cfg.Gmail.TokenFile),
		gmail.WithRatePerSecond(cfg.Gmail.RatePerSecond),
	)
}

func newClassifierClient() zeroshot.Client {
	return zeroshot.NewClient(cfg.Classifier.BaseURL,
		zeroshot.WithModel(cfg.Classifier.Model),
		zeroshot.WithBatchSize(cfg.Classifier.BatchSize),
		zeroshot.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Classifier.TimeoutSecs) * time.Second,
		}),
	)
}

// runStage builds a pipeline with exactly the collaborators the stage
// needs and executes it under the run ledger.
func runStage(ctx context.Context, stage string, needMail, needClassifier bool) error {
	runs, err := initRunStore(ctx)
	if err != nil {
		return err
	}
	defer runs.Close() //nolint:errcheck

	var mail gmail.Client
	if needMail {
		mail, err = newMailClient(ctx)
		if err != nil {
			return err
		}
	}
	var classifier zeroshot.Client
	if needClassifier {
		classifier = newClassifierClient()
	}

	p, err := pipeline.New(cfg, mail, classifier, runs)
	if err != nil {
		return err
	}

	counts, err := p.Run(ctx, stage)
	printCounts(counts)
	return err
}

func printCounts(c model.RunCounts) {
	fmt.Fprintf(os.Stdout,
		"fetched: %d  fetch failed: %d  processed: %d  classified: %d  tracked: %d  flushed: %d\n",
		c.Fetched, c.FetchFailed, c.Processed, c.Classified, c.Tracked, c.Flushed)
}
