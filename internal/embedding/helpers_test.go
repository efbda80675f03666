package embedding

import (
	"path/filepath"

	"github.com/hyperjump/simrec/internal/config"
	"go.uber.org/zap"
)

func configForTest(dir string) config.EmbeddingConfig {
	return config.EmbeddingConfig{
		ModelPath:  filepath.Join(dir, "missing.onnx"),
		Dimensions: 12,
		MaxTokens:  64,
		CacheSize:  8,
	}
}

func zapTestLogger() *zap.Logger {
	return zap.NewNop()
}
