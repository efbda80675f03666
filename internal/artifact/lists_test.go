package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexMapRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mathe_embedding_index.json")
	index := map[int]string{0: "1.pdf", 1: "2.pdf", 10: "11.pdf", 2: "3.pdf"}
	require.NoError(t, WriteIndexMap(path, index))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"0\": \"1.pdf\",\n  \"1\": \"2.pdf\",\n  \"2\": \"3.pdf\",\n  \"10\": \"11.pdf\"\n}\n", string(data))

	got, err := ReadIndexMap(path)
	require.NoError(t, err)
	assert.Equal(t, index, got)
}

func TestReadIndexMap_BadKey(t *testing.T) {
	path := writeTemp(t, "idx.json", `{"zero": "a"}`)
	_, err := ReadIndexMap(path)
	assert.Error(t, err)
}

func TestWriteNeighbors_Order(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mathe_top2_recommendations.json")
	lists := map[string][]string{
		"b": {"a"},
		"a": {"b", "c"},
		"c": nil,
		"z": {"a"},
	}
	require.NoError(t, WriteNeighbors(path, lists, []string{"b", "a", "c"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := `{
  "b": [
    "a"
  ],
  "a": [
    "b",
    "c"
  ],
  "c": [],
  "z": [
    "a"
  ]
}
`
	assert.Equal(t, want, string(data))

	got, err := ReadNeighbors(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, got["a"])
	assert.Empty(t, got["c"])
	assert.Contains(t, got, "c")
}

func TestReadNeighbors_Errors(t *testing.T) {
	_, err := ReadNeighbors(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
	_, err = ReadNeighbors(writeTemp(t, "bad.json", `["not", "an", "object"]`))
	assert.Error(t, err)
}

func TestReadNeighbors_Null(t *testing.T) {
	got, err := ReadNeighbors(writeTemp(t, "null.json", `null`))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
