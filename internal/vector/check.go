package vector

import (
	"fmt"
	"sort"
)

// Violation describes one neighbor list that breaks a structural rule.
type Violation struct {
	ItemID string
	Reason string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.ItemID, v.Reason)
}

// CheckNeighborLists reports lists that recommend their own item, are longer than n,
// contain duplicates, or reference ids that have no list of their own. Results are sorted by item id.
func CheckNeighborLists(lists map[string][]string, n int) []Violation {
	ids := make([]string, 0, len(lists))
	for id := range lists {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []Violation
	for _, id := range ids {
		recs := lists[id]
		if n > 0 && len(recs) > n {
			out = append(out, Violation{id, fmt.Sprintf("has %d neighbors, limit %d", len(recs), n)})
		}
		seen := make(map[string]struct{}, len(recs))
		for _, rec := range recs {
			if rec == id {
				out = append(out, Violation{id, "recommends itself"})
			}
			if _, dup := seen[rec]; dup {
				out = append(out, Violation{id, fmt.Sprintf("duplicate neighbor %s", rec)})
			}
			seen[rec] = struct{}{}
			if _, ok := lists[rec]; !ok {
				out = append(out, Violation{id, fmt.Sprintf("unknown neighbor %s", rec)})
			}
		}
	}
	return out
}
