package models

import (
	"github.com/cpuinfer/cpuinfer/internal/backend/cpu"
	"github.com/cpuinfer/cpuinfer/internal/nn"
	"github.com/cpuinfer/cpuinfer/internal/tensor"
	"github.com/pkg/errors"
)

// BERTConfig describes a BERT encoder.
type BERTConfig struct {
	VocabSize        int
	MaxPositions     int
	TypeVocabSize    int
	Hidden           int
	Layers           int
	Heads            int
	IntermediateSize int
}

// DefaultBERTBaseConfig returns the BERT-base (uncased) topology.
func DefaultBERTBaseConfig() BERTConfig {
	return BERTConfig{
		VocabSize:        30522,
		MaxPositions:     512,
		TypeVocabSize:    2,
		Hidden:           768,
		Layers:           12,
		Heads:            12,
		IntermediateSize: 3072,
	}
}

// BERT is a bidirectional transformer encoder.
//
// Pipeline:
//
//	word + position + segment embeddings -> LN -> encoder layers
//
// Forward maps token ids [N, S] to hidden states [N, S, hidden].
type BERT struct {
	cfg       BERTConfig
	words     nn.EmbeddingParams
	positions nn.EmbeddingParams
	segments  nn.EmbeddingParams
	embedLN   cpu.LayerNormParams
	layers    []encoderLayer
}

// NewBERT builds a BERT encoder with weights from init.
func NewBERT(cfg BERTConfig, init *Initializer) *BERT {
	h := cfg.Hidden
	m := &BERT{
		cfg:       cfg,
		words:     nn.EmbeddingParams{Weight: init.Weight(cfg.VocabSize, h, tensor.Shape{cfg.VocabSize, h})},
		positions: nn.EmbeddingParams{Weight: init.Weight(cfg.MaxPositions, h, tensor.Shape{cfg.MaxPositions, h})},
		segments:  nn.EmbeddingParams{Weight: init.Weight(cfg.TypeVocabSize, h, tensor.Shape{cfg.TypeVocabSize, h})},
		embedLN:   init.LayerNorm(h),
	}
	for i := 0; i < cfg.Layers; i++ {
		m.layers = append(m.layers, newEncoderLayer(init, h, cfg.Heads, cfg.IntermediateSize))
	}
	return m
}

// Config returns the model configuration.
func (m *BERT) Config() BERTConfig { return m.cfg }

// Forward encodes token ids [N, S]. segments holds token type ids of the
// same shape, or nil for all zeros.
//
// Returns nn.ErrIndexOutOfRange for an id outside its table and nn.ErrShape
// when S exceeds MaxPositions.
func (m *BERT) Forward(b *cpu.CPUBackend, ids, segments *tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	if ids.Rank() != 2 {
		return nil, errors.Wrapf(nn.ErrShape, "bert: ids must be [N, S], got %v", ids.Shape())
	}
	n, s := ids.Dim(0), ids.Dim(1)
	if s > m.cfg.MaxPositions {
		return nil, errors.Wrapf(nn.ErrShape, "bert: sequence length %d exceeds %d positions", s, m.cfg.MaxPositions)
	}
	if segments == nil {
		segments = tensor.MustNew[float32](tensor.Shape{n, s})
	}

	positions := tensor.MustNew[float32](tensor.Shape{n, s})
	for i := range positions.Data() {
		positions.Set(i, float32(i%s))
	}

	x, err := nn.Embedding(ids, m.words)
	if err != nil {
		return nil, errors.Wrap(err, "bert word embedding")
	}
	pos, err := nn.Embedding(positions, m.positions)
	if err != nil {
		return nil, errors.Wrap(err, "bert position embedding")
	}
	seg, err := nn.Embedding(segments, m.segments)
	if err != nil {
		return nil, errors.Wrap(err, "bert segment embedding")
	}

	x = b.LayerNorm(b.Add(b.Add(x, pos), seg), m.embedLN)
	return runEncoder(b, m.layers, x)
}
