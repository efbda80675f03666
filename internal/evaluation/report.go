package evaluation

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/hyperjump/simrec/internal/metrics"
)

// Result holds the scores at one cutoff.
type Result struct {
	N      int     `json:"n"`
	Recall float64 `json:"recall"`
	NDCG   float64 `json:"ndcg"`
}

// Report is the outcome of Evaluate.
type Report struct {
	Namespace string   `json:"namespace,omitempty"`
	Evaluated int      `json:"evaluated"`
	Results   []Result `json:"results"`
}

// Evaluate computes Recall@n and NDCG@n for each cutoff in ns.
func Evaluate(pred Predictions, gt GroundTruth, ns []int) (*Report, error) {
	if len(ns) == 0 {
		return nil, fmt.Errorf("at least one cutoff is required")
	}
	report := &Report{Evaluated: Evaluable(pred, gt)}
	for _, n := range ns {
		if n <= 0 {
			return nil, fmt.Errorf("cutoff must be positive, got %d", n)
		}
		recall, err := RecallAtN(pred, gt, n)
		if err != nil {
			return nil, err
		}
		ndcg, err := NDCGAtN(pred, gt, n)
		if err != nil {
			return nil, err
		}
		report.Results = append(report.Results, Result{N: n, Recall: recall, NDCG: ndcg})
	}
	return report, nil
}

// Evaluable counts the predicted ids that have a non-empty ground truth set.
func Evaluable(pred Predictions, gt GroundTruth) int {
	count := 0
	for id := range pred {
		if len(gt[id]) > 0 {
			count++
		}
	}
	return count
}

// Publish exports the report scores as Prometheus gauges.
func (r *Report) Publish() {
	for _, res := range r.Results {
		metrics.SetEvaluationScore("recall", res.N, res.Recall)
		metrics.SetEvaluationScore("ndcg", res.N, res.NDCG)
	}
}

// LoadGroundTruth reads a JSON object mapping item id to an array of related ids.
func LoadGroundTruth(path string) (GroundTruth, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ground truth: %w", err)
	}
	var related map[string][]string
	if err := json.Unmarshal(data, &related); err != nil {
		return nil, fmt.Errorf("parse ground truth %s: %w", path, err)
	}
	return NewGroundTruth(related), nil
}
