// Package cli renders command output for the simrec CLI.
package cli

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/hyperjump/simrec/internal/evaluation"
	"github.com/hyperjump/simrec/internal/models"
	"github.com/hyperjump/simrec/internal/pipeline"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputJSON:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteRecommendations writes a recommendation response.
func WriteRecommendations(w io.Writer, resp *models.RecommendResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "%d recommendations for %s in %s\n", len(resp.Recommendations), resp.IID, resp.Dataset)
	for _, id := range resp.Recommendations {
		fmt.Fprintf(w, "  %s\n", id)
	}
	return nil
}

// WriteReferrers writes the items recommending an item.
func WriteReferrers(w io.Writer, resp *models.ReferrersResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "%d items in %s recommend %s\n", len(resp.Referrers), resp.Dataset, resp.IID)
	for _, id := range resp.Referrers {
		fmt.Fprintf(w, "  %s\n", id)
	}
	return nil
}

// WriteList writes one id per line, or a JSON array.
func WriteList(w io.Writer, ids []string, format OutputFormat) error {
	if format == OutputJSON {
		if ids == nil {
			ids = []string{}
		}
		return writeJSON(w, ids)
	}
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
	return nil
}

// WriteReport writes an evaluation report as a table of cutoffs.
func WriteReport(w io.Writer, report *evaluation.Report, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	if report.Namespace != "" {
		fmt.Fprintf(w, "namespace:  %s\n", report.Namespace)
	}
	fmt.Fprintf(w, "evaluated:  %d items with ground truth\n\n", report.Evaluated)
	fmt.Fprintf(w, "%6s  %8s  %8s\n", "n", "recall", "ndcg")
	for _, r := range report.Results {
		fmt.Fprintf(w, "%6d  %8.4f  %8.4f\n", r.N, r.Recall, r.NDCG)
	}
	return nil
}

// WriteRunResult summarizes a pipeline run.
func WriteRunResult(w io.Writer, res *pipeline.RunResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	fmt.Fprintf(w, "run_id:      %s\n", res.RunID)
	if res.Embed != nil {
		writeEmbedText(w, res.Embed)
	}
	if res.Build != nil {
		writeBuildText(w, res.Build)
	}
	fmt.Fprintf(w, "ingested:    %d\n", res.Ingested)
	fmt.Fprintf(w, "elapsed:     %s\n", res.Elapsed)
	return nil
}

// WriteEmbedResult writes the artifact paths and token statistics of an embed stage.
func WriteEmbedResult(w io.Writer, res *pipeline.EmbedResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	writeEmbedText(w, res)
	return nil
}

// WriteBuildResult writes the neighbor lists path of a build stage.
func WriteBuildResult(w io.Writer, res *pipeline.BuildResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	writeBuildText(w, res)
	return nil
}

func writeBuildText(w io.Writer, res *pipeline.BuildResult) {
	fmt.Fprintf(w, "neighbors:   %s   # %d items, top %d\n", res.NeighborsPath, res.Items, res.N)
}

func writeEmbedText(w io.Writer, res *pipeline.EmbedResult) {
	fmt.Fprintf(w, "embeddings:  %s\n", res.EmbeddingsPath)
	fmt.Fprintf(w, "index_map:   %s\n", res.IndexMapPath)
	if s := res.Stats; s != nil {
		fmt.Fprintf(w, "items:       %d embedded, %d chunked, %d skipped, %d duplicate\n",
			s.Embedded, s.Chunked, s.Skipped, s.Duplicates)
		fmt.Fprintf(w, "tokens:      avg %.1f, median %.1f, max %d, %d over limit\n",
			s.AvgTokens, s.MedianTokens, s.MaxTokens, s.OverLimit)
	}
}

// Status describes the configured store.
type Status struct {
	Driver         string            `json:"driver"`
	Path           string            `json:"path,omitempty"`
	Connected      bool              `json:"connected"`
	Namespaces     []NamespaceStatus `json:"namespaces"`
	DiskUsageBytes *int64            `json:"disk_usage_bytes,omitempty"`
	ArtifactDir    string            `json:"artifact_dir,omitempty"`
}

// NamespaceStatus is the item count of one namespace.
type NamespaceStatus struct {
	Name  string `json:"name"`
	Items int    `json:"items"`
}

// WriteStatus writes store status.
func WriteStatus(w io.Writer, status *Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "driver:            %s\n", status.Driver)
	if status.Path != "" {
		fmt.Fprintf(w, "path:              %s\n", status.Path)
	}
	fmt.Fprintf(w, "connected:         %t\n", status.Connected)
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:  %d   # store on disk\n", *status.DiskUsageBytes)
	}
	if status.ArtifactDir != "" {
		fmt.Fprintf(w, "artifact_dir:      %s\n", status.ArtifactDir)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "# namespaces (%d)\n", len(status.Namespaces))
	for _, ns := range status.Namespaces {
		fmt.Fprintf(w, "%-18s %d items\n", ns.Name+":", ns.Items)
	}
	return nil
}
