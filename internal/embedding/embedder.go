// Package embedding turns query text into unit-length vectors.
package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/querytube/internal/config"
	"github.com/hyperjump/querytube/pkg/utils"
	"go.uber.org/zap"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Close() error
}

const (
	ProviderONNX = "onnx"
	ProviderMock = "mock"
)

const (
	// PoolingMean averages the token states under the attention mask.
	PoolingMean = "mean"
	// PoolingCLS takes the first token state.
	PoolingCLS = "cls"
	// PoolingNone reads an already pooled [1, D] output.
	PoolingNone = "none"
)

// ErrEncode wraps failures of the underlying model.
var ErrEncode = errors.New("encode failed")

// ONNXOptions configures an ONNXEmbedder.
type ONNXOptions struct {
	ModelPath    string
	Dimensions   int
	MaxTokens    int
	CacheSize    int
	Pooling      string
	OutputName   string
	TokenTypeIDs bool
	Tokenizer    Tokenizer
}

// New builds the embedder selected by cfg.Provider.
func New(cfg config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	logger = utils.OrNop(logger)
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("embedding dimensions must be positive, got %d", cfg.Dimensions)
	}

	switch cfg.Provider {
	case ProviderMock:
		logger.Warn("Using mock embedder; results are not semantic", zap.Int("dimensions", cfg.Dimensions))
		return NewMockEmbedder(cfg.Dimensions), nil

	case ProviderONNX, "":
		if cfg.ModelPath == "" {
			return nil, fmt.Errorf("embedding.model_path is required for the onnx provider")
		}
		tok, err := newTokenizer(cfg, logger)
		if err != nil {
			return nil, err
		}
		e, err := NewONNXEmbedder(ONNXOptions{
			ModelPath:    cfg.ModelPath,
			Dimensions:   cfg.Dimensions,
			MaxTokens:    cfg.MaxTokens,
			CacheSize:    cfg.CacheCapacity(),
			Pooling:      cfg.Pooling,
			OutputName:   cfg.OutputName,
			TokenTypeIDs: cfg.TokenTypeIDs,
			Tokenizer:    tok,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("ONNX embedder ready",
			zap.String("model", cfg.ModelPath),
			zap.Int("dimensions", cfg.Dimensions),
			zap.String("pooling", cfg.Pooling))
		return e, nil

	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

func newTokenizer(cfg config.EmbeddingConfig, logger *zap.Logger) (Tokenizer, error) {
	if cfg.VocabPath == "" {
		logger.Warn("No vocab_path configured, falling back to the hashing tokenizer")
		return &SimpleTokenizer{}, nil
	}
	tok, err := LoadWordPieceTokenizer(cfg.VocabPath, cfg.LowerCase)
	if err != nil {
		return nil, err
	}
	return tok, nil
}

func validatePooling(p string) error {
	switch p {
	case PoolingMean, PoolingCLS, PoolingNone:
		return nil
	}
	return fmt.Errorf("unknown pooling %q", p)
}

// pool reduces a [T, dims] hidden-state block to one vector. mask selects the
// tokens that count toward the mean.
func pool(hidden []float32, mask []int64, dims int, pooling string) []float32 {
	out := make([]float32, dims)
	switch pooling {
	case PoolingCLS, PoolingNone:
		copy(out, hidden[:dims])
		return out
	}

	sum := make([]float64, dims)
	var count float64
	for t, m := range mask {
		if m == 0 {
			continue
		}
		row := hidden[t*dims : (t+1)*dims]
		for j, v := range row {
			sum[j] += float64(v)
		}
		count++
	}
	if count == 0 {
		return out
	}
	for j := range out {
		out[j] = float32(sum[j] / count)
	}
	return out
}
