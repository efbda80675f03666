// Package evaluation scores neighbor lists against a ground truth of related items.
//
// Only ids present in the predictions and carrying a non-empty ground truth set are
// scored. Ids are visited in sorted order so repeated runs sum in the same order.
package evaluation

import (
	"errors"
	"math"
	"sort"
)

// ErrNoEvaluableItems is returned when no predicted id has a non-empty ground truth set.
var ErrNoEvaluableItems = errors.New("no evaluable items: no prediction has ground truth")

// Predictions maps an item id to its ordered predicted related ids.
type Predictions map[string][]string

// GroundTruth maps an item id to the set of ids truly related to it.
type GroundTruth map[string]map[string]struct{}

// NewGroundTruth builds a GroundTruth from id lists. Duplicate ids collapse.
func NewGroundTruth(related map[string][]string) GroundTruth {
	gt := make(GroundTruth, len(related))
	for id, ids := range related {
		set := make(map[string]struct{}, len(ids))
		for _, r := range ids {
			set[r] = struct{}{}
		}
		gt[id] = set
	}
	return gt
}

// RecallAtN is the mean over evaluable ids of |top-n ∩ truth| / |truth|.
func RecallAtN(pred Predictions, gt GroundTruth, n int) (float64, error) {
	return meanOver(pred, gt, func(predicted []string, truth map[string]struct{}) float64 {
		hits := make(map[string]struct{})
		for _, id := range topN(predicted, n) {
			if _, ok := truth[id]; ok {
				hits[id] = struct{}{}
			}
		}
		return float64(len(hits)) / float64(len(truth))
	})
}

// NDCGAtN is the mean truncated NDCG@n with binary relevance. The ideal ordering is
// the top-n relevance scores sorted descending, so an id with no relevant prediction
// scores 0 rather than being skipped.
func NDCGAtN(pred Predictions, gt GroundTruth, n int) (float64, error) {
	return meanOver(pred, gt, func(predicted []string, truth map[string]struct{}) float64 {
		top := topN(predicted, n)
		rel := make([]float64, len(top))
		for i, id := range top {
			if _, ok := truth[id]; ok {
				rel[i] = 1
			}
		}
		ideal := append([]float64(nil), rel...)
		sort.Sort(sort.Reverse(sort.Float64Slice(ideal)))
		idcg := dcg(ideal)
		if idcg == 0 {
			return 0
		}
		return dcg(rel) / idcg
	})
}

func dcg(rel []float64) float64 {
	var sum float64
	for i, r := range rel {
		sum += r / math.Log2(float64(i)+2)
	}
	return sum
}

func topN(ids []string, n int) []string {
	if n < 0 {
		n = 0
	}
	if len(ids) > n {
		return ids[:n]
	}
	return ids
}

func meanOver(pred Predictions, gt GroundTruth, score func([]string, map[string]struct{}) float64) (float64, error) {
	ids := make([]string, 0, len(pred))
	for id := range pred {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sum float64
	var count int
	for _, id := range ids {
		truth := gt[id]
		if len(truth) == 0 {
			continue
		}
		sum += score(pred[id], truth)
		count++
	}
	if count == 0 {
		return 0, ErrNoEvaluableItems
	}
	return sum / float64(count), nil
}
