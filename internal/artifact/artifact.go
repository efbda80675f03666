// Package artifact reads and writes the files exchanged between pipeline stages: the corpus,
// the embedding index map, and neighbor lists. File names carry the namespace:
//
//	<ns>_embeddings.bin
//	<ns>_embedding_index.json
//	<ns>_top<N>_recommendations.json
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var neighborsName = regexp.MustCompile(`^(.+)_top(\d+)_recommendations$`)

// EmbeddingsFile returns the path of the binary embedding matrix for namespace.
func EmbeddingsFile(dir, namespace string) string {
	return filepath.Join(dir, namespace+"_embeddings.bin")
}

// IndexMapFile returns the path of the row index -> item id JSON for namespace.
func IndexMapFile(dir, namespace string) string {
	return filepath.Join(dir, namespace+"_embedding_index.json")
}

// NeighborsFile returns the path of the top-n neighbor lists JSON for namespace.
func NeighborsFile(dir, namespace string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_top%d_recommendations.json", namespace, n))
}

// IsNeighborsFile reports whether path is named like a neighbor lists artifact.
func IsNeighborsFile(path string) bool {
	if filepath.Ext(path) != ".json" {
		return false
	}
	return neighborsName.MatchString(strings.TrimSuffix(filepath.Base(path), ".json"))
}

// NamespaceFromFile infers the namespace from an artifact or plain JSON file name:
// "mathe_top20_recommendations.json" and "mathe.json" both yield "mathe".
func NamespaceFromFile(path string) (string, error) {
	stem := filepath.Base(path)
	if i := strings.Index(stem, "."); i >= 0 {
		stem = stem[:i]
	}
	if m := neighborsName.FindStringSubmatch(stem); m != nil {
		stem = m[1]
	} else {
		stem = strings.TrimSuffix(stem, "_embedding_index")
		stem = strings.TrimSuffix(stem, "_embeddings")
	}
	if err := ValidateNamespace(stem); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return stem, nil
}

// ValidateNamespace rejects names that cannot be used in store keys.
func ValidateNamespace(ns string) error {
	if ns == "" {
		return fmt.Errorf("empty namespace")
	}
	if strings.Contains(ns, ":") {
		return fmt.Errorf("namespace %q must not contain ':'", ns)
	}
	return nil
}

// writeFileAtomic writes data to a temporary file in the target directory and renames it
// into place, so readers and the watcher never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
