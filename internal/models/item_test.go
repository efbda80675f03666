package models

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestCorpusRecord_Decode(t *testing.T) {
	var rec CorpusRecord
	if err := json.Unmarshal([]byte(`{"id":"materials/56.pdf","contents":"some text"}`), &rec); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if rec.ID != "materials/56.pdf" || rec.Contents != "some text" {
		t.Errorf("got %+v", rec)
	}
}

func TestErrorResponse_Encode(t *testing.T) {
	body, err := json.Marshal(ErrorResponse{Errors: []APIError{{Code: 404, Detail: "Dataset 'x' not found"}}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"errors":[{"code":404,"detail":"Dataset 'x' not found"}]}`
	if string(body) != want {
		t.Errorf("got %s, want %s", body, want)
	}
}

func TestNeighborLists_Len(t *testing.T) {
	n := NeighborLists{"a": {"b"}, "b": nil}
	if n.Len() != 2 {
		t.Errorf("Len() = %d, want 2", n.Len())
	}
}
