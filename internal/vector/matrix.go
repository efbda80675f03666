// Package vector holds item embedding matrices and builds exact cosine-similarity
// neighbor lists over them.
package vector

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDimensionMismatch is returned when rows in one matrix have different lengths.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrDuplicateID is returned when an item id appears in more than one row.
	ErrDuplicateID = errors.New("duplicate item id")
	// ErrNonFinite is returned when a row contains NaN or Inf.
	ErrNonFinite = errors.New("embedding contains non-finite value")
)

// Matrix is a set of item embeddings. Row i belongs to IDs[i]; every row has Dimensions values.
type Matrix struct {
	Dimensions int
	IDs        []string
	Rows       [][]float32
}

// NewMatrix validates ids and rows and returns a matrix over them. The slices are not copied.
func NewMatrix(ids []string, rows [][]float32) (*Matrix, error) {
	if len(ids) != len(rows) {
		return nil, fmt.Errorf("ids and rows length mismatch: %d ids, %d rows", len(ids), len(rows))
	}
	m := &Matrix{IDs: ids, Rows: rows}
	if len(rows) == 0 {
		return m, nil
	}
	m.Dimensions = len(rows[0])
	if m.Dimensions == 0 {
		return nil, fmt.Errorf("row 0 (%s): %w: empty vector", ids[0], ErrDimensionMismatch)
	}
	seen := make(map[string]struct{}, len(ids))
	for i, row := range rows {
		if len(row) != m.Dimensions {
			return nil, fmt.Errorf("row %d (%s): %w: got %d, expected %d", i, ids[i], ErrDimensionMismatch, len(row), m.Dimensions)
		}
		if _, dup := seen[ids[i]]; dup {
			return nil, fmt.Errorf("row %d: %w: %s", i, ErrDuplicateID, ids[i])
		}
		seen[ids[i]] = struct{}{}
		for _, v := range row {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return nil, fmt.Errorf("row %d (%s): %w", i, ids[i], ErrNonFinite)
			}
		}
	}
	return m, nil
}

// checkShape verifies that every row has Dimensions values and every row has an id.
// Matrices built by NewMatrix always pass; fields set directly may not.
func (m *Matrix) checkShape() error {
	if len(m.IDs) != len(m.Rows) {
		return fmt.Errorf("ids and rows length mismatch: %d ids, %d rows", len(m.IDs), len(m.Rows))
	}
	for i, row := range m.Rows {
		if len(row) != m.Dimensions || m.Dimensions == 0 {
			return fmt.Errorf("row %d (%s): %w: got %d, expected %d", i, m.IDs[i], ErrDimensionMismatch, len(row), m.Dimensions)
		}
	}
	return nil
}

// Len returns the number of rows.
func (m *Matrix) Len() int {
	return len(m.Rows)
}

// IndexMap returns row index -> item id.
func (m *Matrix) IndexMap() map[int]string {
	out := make(map[int]string, len(m.IDs))
	for i, id := range m.IDs {
		out[i] = id
	}
	return out
}

// IDsFromIndexMap converts an index map into a row-ordered id slice. The map must cover
// exactly 0..rows-1 with distinct ids.
func IDsFromIndexMap(index map[int]string, rows int) ([]string, error) {
	if len(index) != rows {
		return nil, fmt.Errorf("index map has %d entries, matrix has %d rows", len(index), rows)
	}
	ids := make([]string, rows)
	seen := make(map[string]struct{}, rows)
	for i := 0; i < rows; i++ {
		id, ok := index[i]
		if !ok {
			return nil, fmt.Errorf("index map missing row %d", i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("index map row %d: %w: %s", i, ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
		ids[i] = id
	}
	return ids, nil
}
