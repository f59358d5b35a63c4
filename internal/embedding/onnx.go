//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/querytube/pkg/utils"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

func initRuntime() error {
	ortInitOnce.Do(func() {
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// ONNXEmbedder runs a sentence-transformer export through ONNX Runtime. It
// requires CGO and the onnxruntime shared library. Inference is serialized;
// cache hits are not.
type ONNXEmbedder struct {
	session      *ort.AdvancedSession
	dimensions   int
	maxTokens    int
	pooling      string
	cache        *QueryCache
	tokenizer    Tokenizer
	tokenTypeIDs bool
	// Pre-allocated tensors for Run(); we update input data and read output.
	inputIDsTensor      *ort.Tensor[int64]
	attentionMaskTensor *ort.Tensor[int64]
	tokenTypeIDsTensor  *ort.Tensor[int64]
	outputTensor        *ort.Tensor[float32]
	mu                  sync.Mutex
}

// NewONNXEmbedder loads the model at opts.ModelPath.
func NewONNXEmbedder(opts ONNXOptions) (*ONNXEmbedder, error) {
	if opts.Dimensions <= 0 {
		return nil, fmt.Errorf("embedding dimensions must be positive, got %d", opts.Dimensions)
	}
	if opts.MaxTokens < 2 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Pooling == "" {
		opts.Pooling = PoolingMean
	}
	if err := validatePooling(opts.Pooling); err != nil {
		return nil, err
	}
	if opts.OutputName == "" {
		opts.OutputName = "last_hidden_state"
	}
	if opts.Tokenizer == nil {
		opts.Tokenizer = &SimpleTokenizer{}
	}
	if err := initRuntime(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	e := &ONNXEmbedder{
		dimensions:   opts.Dimensions,
		maxTokens:    opts.MaxTokens,
		pooling:      opts.Pooling,
		cache:        NewQueryCache(opts.CacheSize),
		tokenizer:    opts.Tokenizer,
		tokenTypeIDs: opts.TokenTypeIDs,
	}
	if err := e.open(opts.ModelPath, opts.OutputName); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *ONNXEmbedder) open(modelPath, outputName string) error {
	seqShape := ort.NewShape(1, int64(e.maxTokens))
	var err error

	if e.inputIDsTensor, err = ort.NewEmptyTensor[int64](seqShape); err != nil {
		return fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	if e.attentionMaskTensor, err = ort.NewEmptyTensor[int64](seqShape); err != nil {
		return fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	inputNames := []string{"input_ids", "attention_mask"}
	inputs := []ort.ArbitraryTensor{e.inputIDsTensor, e.attentionMaskTensor}
	if e.tokenTypeIDs {
		if e.tokenTypeIDsTensor, err = ort.NewEmptyTensor[int64](seqShape); err != nil {
			return fmt.Errorf("failed to create token_type_ids tensor: %w", err)
		}
		inputNames = append(inputNames, "token_type_ids")
		inputs = append(inputs, e.tokenTypeIDsTensor)
	}

	outShape := ort.NewShape(1, int64(e.maxTokens), int64(e.dimensions))
	if e.pooling == PoolingNone {
		outShape = ort.NewShape(1, int64(e.dimensions))
	}
	if e.outputTensor, err = ort.NewEmptyTensor[float32](outShape); err != nil {
		return fmt.Errorf("failed to create output tensor: %w", err)
	}

	e.session, err = ort.NewAdvancedSession(
		modelPath,
		inputNames,
		[]string{outputName},
		inputs,
		[]ort.ArbitraryTensor{e.outputTensor},
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return nil
}

// Embed returns the unit-length embedding for text, using the cache when available.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := e.cache.Get(text); ok {
		return cached, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inputIDs, attentionMask, tokenTypeIDs := e.tokenizer.Tokenize(text, e.maxTokens)

	e.mu.Lock()
	if e.session == nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: embedder is closed", ErrEncode)
	}
	copy(e.inputIDsTensor.GetData(), inputIDs)
	copy(e.attentionMaskTensor.GetData(), attentionMask)
	if e.tokenTypeIDsTensor != nil {
		copy(e.tokenTypeIDsTensor.GetData(), tokenTypeIDs)
	}
	if err := e.session.Run(); err != nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	embedding := pool(e.outputTensor.GetData(), attentionMask, e.dimensions, e.pooling)
	e.mu.Unlock()

	utils.NormalizeL2(embedding)
	e.cache.Put(text, embedding)
	return embedding, nil
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int {
	return e.dimensions
}

// Close destroys the session and tensors.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	destroyTensor(&e.inputIDsTensor)
	destroyTensor(&e.attentionMaskTensor)
	destroyTensor(&e.tokenTypeIDsTensor)
	destroyTensor(&e.outputTensor)
	return err
}

func destroyTensor[T ort.TensorData](t **ort.Tensor[T]) {
	if *t != nil {
		_ = (*t).Destroy()
		*t = nil
	}
}
