// Package models defines core data structures for corpus items, recommendations, and API payloads.
package models

// CorpusRecord is one line of a corpus JSONL file as produced by the text extraction stage.
type CorpusRecord struct {
	ID       string `json:"id"`
	Contents string `json:"contents"`
}

// Item is a corpus entry ready for embedding. ID is already reduced to its base name.
type Item struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// NeighborLists maps an item id to its ordered neighbor ids, most similar first.
type NeighborLists map[string][]string

// Len returns the number of items with a list.
func (n NeighborLists) Len() int {
	return len(n)
}
