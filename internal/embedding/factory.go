package embedding

import (
	"go.uber.org/zap"

	"github.com/hyperjump/simrec/internal/config"
	"github.com/hyperjump/simrec/pkg/utils"
)

// NewFromConfig returns the ONNX embedder for cfg wrapped in an LRU cache. When the model
// cannot be loaded (missing file, no CGO), it logs a warning and falls back to MockEmbedder
// so the pipeline remains runnable.
func NewFromConfig(cfg config.EmbeddingConfig, logger *zap.Logger) Embedder {
	logger = utils.OrNop(logger)
	var base Embedder
	onnx, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
	if err != nil {
		logger.Warn("ONNX embedder unavailable, using mock embedder",
			zap.String("model_path", cfg.ModelPath), zap.Error(err))
		base = NewMockEmbedder(cfg.Dimensions)
	} else {
		base = onnx
	}
	return NewCachedEmbedder(base, cfg.CacheSize)
}
