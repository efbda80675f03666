package artifact

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
)

// WriteIndexMap writes index as {"0": "id0", "1": "id1", ...} in numeric key order.
func WriteIndexMap(path string, index map[int]string) error {
	keys := make([]int, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	var buf bytes.Buffer
	buf.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			buf.WriteString(",")
		}
		v, err := json.Marshal(index[k])
		if err != nil {
			return err
		}
		fmt.Fprintf(&buf, "\n  %q: %s", strconv.Itoa(k), v)
	}
	if len(keys) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return writeFileAtomic(path, buf.Bytes())
}

// ReadIndexMap reads a file written by WriteIndexMap.
func ReadIndexMap(path string) (map[int]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index map: %w", err)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse index map %s: %w", path, err)
	}
	index := make(map[int]string, len(raw))
	for k, v := range raw {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 {
			return nil, fmt.Errorf("parse index map %s: invalid row key %q", path, k)
		}
		index[i] = v
	}
	return index, nil
}

// WriteNeighbors writes lists as an indented JSON object whose keys follow order. Ids in
// lists but not in order are appended in sorted order.
func WriteNeighbors(path string, lists map[string][]string, order []string) error {
	keys := make([]string, 0, len(lists))
	seen := make(map[string]struct{}, len(lists))
	for _, id := range order {
		if _, ok := lists[id]; ok {
			if _, dup := seen[id]; !dup {
				keys = append(keys, id)
				seen[id] = struct{}{}
			}
		}
	}
	var rest []string
	for id := range lists {
		if _, ok := seen[id]; !ok {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	var buf bytes.Buffer
	buf.WriteString("{")
	for i, id := range keys {
		if i > 0 {
			buf.WriteString(",")
		}
		k, err := json.Marshal(id)
		if err != nil {
			return err
		}
		recs := lists[id]
		if recs == nil {
			recs = []string{}
		}
		v, err := json.MarshalIndent(recs, "  ", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(&buf, "\n  %s: %s", k, v)
	}
	if len(keys) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return writeFileAtomic(path, buf.Bytes())
}

// ReadNeighbors reads an id -> ordered neighbor ids JSON object.
func ReadNeighbors(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read neighbor lists: %w", err)
	}
	var lists map[string][]string
	if err := json.Unmarshal(data, &lists); err != nil {
		return nil, fmt.Errorf("parse neighbor lists %s: %w", path, err)
	}
	if lists == nil {
		lists = map[string][]string{}
	}
	return lists, nil
}
