package artifact

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/hyperjump/simrec/internal/fileid"
	"github.com/hyperjump/simrec/internal/models"
	"github.com/hyperjump/simrec/pkg/utils"
)

// maxLineBytes bounds one JSONL record; OCR text of a long document can run to megabytes.
const maxLineBytes = 64 << 20

// ReadCorpus reads corpus records from path. The file is either JSON Lines (one
// {"id","contents"} object per line) or a single JSON array of such objects. Malformed
// records are logged and skipped. Record ids are reduced to their base name.
func ReadCorpus(path string, logger *zap.Logger) ([]models.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()
	if logger == nil {
		logger = zap.NewNop()
	}

	r := bufio.NewReader(f)
	first, err := peekNonSpace(r)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	if first == '[' {
		return readCorpusArray(r, path, logger)
	}
	return readCorpusLines(r, path, logger)
}

func peekNonSpace(r *bufio.Reader) (byte, error) {
	for {
		b, err := r.Peek(1)
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n', 0xEF, 0xBB, 0xBF:
			if _, err := r.ReadByte(); err != nil {
				return 0, err
			}
		default:
			return b[0], nil
		}
	}
}

func readCorpusLines(r io.Reader, path string, logger *zap.Logger) ([]models.Item, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<20), maxLineBytes)
	var items []models.Item
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		item, err := decodeRecord(raw)
		if err != nil {
			logger.Warn("skipping malformed corpus record",
				zap.String("path", path), zap.Int("line", line),
				zap.String("record", utils.Truncate(string(raw), 120)), zap.Error(err))
			continue
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	return items, nil
}

func readCorpusArray(r io.Reader, path string, logger *zap.Logger) ([]models.Item, error) {
	var raws []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raws); err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", path, err)
	}
	items := make([]models.Item, 0, len(raws))
	for i, raw := range raws {
		item, err := decodeRecord(raw)
		if err != nil {
			logger.Warn("skipping malformed corpus record",
				zap.String("path", path), zap.Int("index", i), zap.Error(err))
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func decodeRecord(raw []byte) (models.Item, error) {
	var rec models.CorpusRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return models.Item{}, err
	}
	id := fileid.ItemID(rec.ID)
	if id == "" {
		return models.Item{}, fmt.Errorf("record has no id")
	}
	return models.Item{ID: id, Text: rec.Contents}, nil
}
