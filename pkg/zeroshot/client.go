// Package zeroshot is the client for the zero-shot classification service
// that assigns each composed email text exactly one application status.
package zeroshot

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Labels the service can assign. The classifier scores each input against
// one natural-language hypothesis per label and only the top hypothesis is
// used (single-label, multi_label=false).
const (
	LabelApplied    = "Applied"
	LabelRejected   = "Rejected"
	LabelAccepted   = "Accepted"
	LabelIrrelevant = "Irrelevant"
)

// hypotheses maps each label to the hypothesis sentence the model was tuned
// against. The mapping is part of the adapter contract and must only change
// together with the served model.
var hypotheses = map[string]string{
	LabelApplied:    "The email is related to a job application that the recipient has submitted, for instance, a confirmation email received after applying for a job.",
	LabelRejected:   "The email is related to a rejection from a job application, indicating that the recipient was not selected for the job role or that the application will not be moving forward.",
	LabelIrrelevant: "The email is not related to job applications, such as applying, being rejected, or being accepted for a job role. It does not pertain to the status or process of job applications.",
	LabelAccepted:   "The email is related to the acceptance of a job application, indicating that the recipient has been selected or considered for a job role following an application.",
}

// Prediction is the top label for one input, with its confidence.
type Prediction struct {
	Label string
	Score float64
}

// Client classifies batches of composed email texts. The i-th prediction
// always corresponds to the i-th input.
type Client interface {
	Classify(ctx context.Context, texts []string) ([]Prediction, error)
}

// classifyRequest is the request body for POST /classify, mirroring the
// HuggingFace zero-shot pipeline parameters.
type classifyRequest struct {
	Inputs     []string      `json:"inputs"`
	Parameters requestParams `json:"parameters"`
}

type requestParams struct {
	CandidateLabels    []string `json:"candidate_labels"`
	HypothesisTemplate string   `json:"hypothesis_template"`
	MultiLabel         bool     `json:"multi_label"`
}

// classifyResult is one element of the response: candidate hypotheses
// ordered by descending score.
type classifyResult struct {
	Sequence string    `json:"sequence"`
	Labels   []string  `json:"labels"`
	Scores   []float64 `json:"scores"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default service base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithModel sets the model name sent with each request.
func WithModel(model string) Option {
	return func(c *httpClient) {
		c.model = model
	}
}

// WithBatchSize caps how many inputs are sent per request. Batching is a
// throughput knob only; results are re-joined in input order.
func WithBatchSize(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL   string
	model     string
	batchSize int
	http      *http.Client
}

// NewClient creates a zero-shot service client.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL:   baseURL,
		batchSize: 4,
		http: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Classify(ctx context.Context, texts []string) ([]Prediction, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	// Inverted lookup: hypothesis sentence back to its short label.
	candidates := make([]string, 0, len(hypotheses))
	inverted := make(map[string]string, len(hypotheses))
	for _, label := range []string{LabelApplied, LabelRejected, LabelIrrelevant, LabelAccepted} {
		candidates = append(candidates, hypotheses[label])
		inverted[hypotheses[label]] = label
	}

	predictions := make([]Prediction, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		chunk, err := c.classifyChunk(ctx, texts[start:end], candidates, inverted)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, chunk...)
	}
	return predictions, nil
}

func (c *httpClient) classifyChunk(ctx context.Context, texts, candidates []string, inverted map[string]string) ([]Prediction, error) {
	body, err := json.Marshal(classifyRequest{
		Inputs: texts,
		Parameters: requestParams{
			CandidateLabels:    candidates,
			HypothesisTemplate: "{}",
			MultiLabel:         false,
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "zeroshot: marshal request")
	}

	url := c.baseURL + "/classify"
	if c.model != "" {
		url = c.baseURL + "/models/" + c.model + "/classify"
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "zeroshot: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "zeroshot: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "zeroshot: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("zeroshot: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var results []classifyResult
	if err := json.Unmarshal(respBody, &results); err != nil {
		return nil, eris.Wrap(err, "zeroshot: unmarshal response")
	}
	if len(results) != len(texts) {
		return nil, eris.Errorf("zeroshot: got %d results for %d inputs", len(results), len(texts))
	}

	predictions := make([]Prediction, 0, len(results))
	for i, res := range results {
		if len(res.Labels) == 0 || len(res.Scores) == 0 {
			return nil, eris.Errorf("zeroshot: empty result at index %d", i)
		}
		label, ok := inverted[res.Labels[0]]
		if !ok {
			return nil, eris.Errorf("zeroshot: unrecognized hypothesis at index %d: %q", i, res.Labels[0])
		}
		predictions = append(predictions, Prediction{Label: label, Score: res.Scores[0]})
	}
	return predictions, nil
}
