package zeroshot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		texts      []string
		handler    http.HandlerFunc
		want       []Prediction
		wantErr    bool
		wantErrMsg string
	}{
		{
			name:  "single input top label",
			texts: []string{"we regret to inform you"},
			handler: func(w http.ResponseWriter, r *http.Request) {
				var req classifyRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "{}", req.Parameters.HypothesisTemplate)
				assert.False(t, req.Parameters.MultiLabel)
				assert.Len(t, req.Parameters.CandidateLabels, 4)

				writeResults(t, w, []classifyResult{
					{
						Labels: []string{hypotheses[LabelRejected], hypotheses[LabelIrrelevant]},
						Scores: []float64{0.91, 0.05},
					},
				})
			},
			want: []Prediction{{Label: LabelRejected, Score: 0.91}},
		},
		{
			name:  "results stay in input order",
			texts: []string{"application received", "spam offer"},
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeResults(t, w, []classifyResult{
					{Labels: []string{hypotheses[LabelApplied]}, Scores: []float64{0.8}},
					{Labels: []string{hypotheses[LabelIrrelevant]}, Scores: []float64{0.7}},
				})
			},
			want: []Prediction{
				{Label: LabelApplied, Score: 0.8},
				{Label: LabelIrrelevant, Score: 0.7},
			},
		},
		{
			name:  "server error",
			texts: []string{"hello"},
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model loading", http.StatusServiceUnavailable)
			},
			wantErr:    true,
			wantErrMsg: "unexpected status 503",
		},
		{
			name:  "result count mismatch",
			texts: []string{"one", "two"},
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeResults(t, w, []classifyResult{
					{Labels: []string{hypotheses[LabelApplied]}, Scores: []float64{0.8}},
				})
			},
			wantErr:    true,
			wantErrMsg: "got 1 results for 2 inputs",
		},
		{
			name:  "unknown hypothesis",
			texts: []string{"hello"},
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeResults(t, w, []classifyResult{
					{Labels: []string{"something else entirely"}, Scores: []float64{0.9}},
				})
			},
			wantErr:    true,
			wantErrMsg: "unrecognized hypothesis",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := NewClient(srv.URL)
			got, err := client.Classify(context.Background(), tt.texts)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_EmptyInput(t *testing.T) {
	client := NewClient("http://unused")
	got, err := client.Classify(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClassify_BatchingSplitsRequests(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.LessOrEqual(t, len(req.Inputs), 2)

		results := make([]classifyResult, len(req.Inputs))
		for i := range req.Inputs {
			results[i] = classifyResult{
				Labels: []string{hypotheses[LabelApplied]},
				Scores: []float64{0.5},
			}
		}
		writeResults(t, w, results)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithBatchSize(2))
	got, err := client.Classify(context.Background(), []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Equal(t, 3, calls)
}

func TestClassify_ModelInPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/tracker-deberta/classify", r.URL.Path)
		writeResults(t, w, []classifyResult{
			{Labels: []string{hypotheses[LabelAccepted]}, Scores: []float64{0.99}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithModel("tracker-deberta"))
	got, err := client.Classify(context.Background(), []string{"offer letter"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, LabelAccepted, got[0].Label)
}

func writeResults(t *testing.T, w http.ResponseWriter, results []classifyResult) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(results))
}
