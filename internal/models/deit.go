package models

import (
	"github.com/cpuinfer/cpuinfer/internal/backend/cpu"
	"github.com/cpuinfer/cpuinfer/internal/nn"
	"github.com/cpuinfer/cpuinfer/internal/tensor"
	"github.com/pkg/errors"
)

// DeiTConfig describes a data-efficient image transformer with a
// distillation token.
type DeiTConfig struct {
	ImageSize  int
	PatchSize  int
	InChannels int
	EmbedDim   int
	Depth      int
	Heads      int
	MLPRatio   int
	NumClasses int
}

// DefaultDeiTTinyConfig returns the DeiT-Tiny/16 topology at 224x224.
func DefaultDeiTTinyConfig() DeiTConfig {
	return DeiTConfig{
		ImageSize:  224,
		PatchSize:  16,
		InChannels: 3,
		EmbedDim:   192,
		Depth:      12,
		Heads:      3,
		MLPRatio:   4,
		NumClasses: 1000,
	}
}

// NumPatches returns the number of image patches.
func (c DeiTConfig) NumPatches() int {
	side := c.ImageSize / c.PatchSize
	return side * side
}

// DeiT is a vision transformer with class and distillation tokens.
//
// Pipeline:
//
//	patch embed -> [cls, dist, patches...] + pos -> encoder layers -> LN
//	-> head(cls), headDist(dist)
type DeiT struct {
	cfg      DeiTConfig
	patch    nn.PatchEmbedParams
	cls      []float32
	dist     []float32
	pos      *tensor.Tensor[float32] // [patches+2, E]
	layers   []encoderLayer
	norm     cpu.LayerNormParams
	head     nn.LinearParams
	headDist nn.LinearParams
}

// NewDeiT builds a DeiT with weights from init.
func NewDeiT(cfg DeiTConfig, init *Initializer) *DeiT {
	e, p := cfg.EmbedDim, cfg.PatchSize
	tokens := cfg.NumPatches() + 2
	m := &DeiT{
		cfg: cfg,
		patch: nn.PatchEmbedParams{
			PatchSize: p,
			Weight:    init.Conv(e, cfg.InChannels, p),
			Bias:      make([]float32, e),
		},
		cls:  init.Weight(1, e, tensor.Shape{e}).Data(),
		dist: init.Weight(1, e, tensor.Shape{e}).Data(),
		pos:  init.Weight(tokens, e, tensor.Shape{tokens, e}),
		norm: init.LayerNorm(e),
	}
	for i := 0; i < cfg.Depth; i++ {
		m.layers = append(m.layers, newEncoderLayer(init, e, cfg.Heads, e*cfg.MLPRatio))
	}
	m.head = init.Linear(e, cfg.NumClasses)
	m.headDist = init.Linear(e, cfg.NumClasses)
	return m
}

// Config returns the model configuration.
func (m *DeiT) Config() DeiTConfig { return m.cfg }

// Forward classifies a [N, C, ImageSize, ImageSize] batch and returns the
// class-token and distillation-token logits, each [N, classes].
func (m *DeiT) Forward(b *cpu.CPUBackend, x *tensor.Tensor[float32]) (logits, distLogits *tensor.Tensor[float32], err error) {
	if x.Rank() != 4 || x.Dim(1) != m.cfg.InChannels || x.Dim(2) != m.cfg.ImageSize || x.Dim(3) != m.cfg.ImageSize {
		return nil, nil, errors.Wrapf(nn.ErrShape, "deit: input %v, want [N, %d, %d, %d]",
			x.Shape(), m.cfg.InChannels, m.cfg.ImageSize, m.cfg.ImageSize)
	}
	n, e := x.Dim(0), m.cfg.EmbedDim

	patches, err := nn.PatchEmbed(b, x, m.patch)
	if err != nil {
		return nil, nil, errors.Wrap(err, "deit patch embedding")
	}

	// [N, 2+P, E]: cls, dist, then patches, plus position embedding.
	np := patches.Dim(1)
	tokens := np + 2
	seq := tensor.MustNew[float32](tensor.Shape{n, tokens, e})
	dst, src, pos := seq.Data(), patches.Data(), m.pos.Data()
	for i := 0; i < n; i++ {
		base := i * tokens * e
		copy(dst[base:base+e], m.cls)
		copy(dst[base+e:base+2*e], m.dist)
		copy(dst[base+2*e:base+tokens*e], src[i*np*e:(i+1)*np*e])
		for j := 0; j < tokens*e; j++ {
			dst[base+j] += pos[j]
		}
	}

	out, err := runEncoder(b, m.layers, seq)
	if err != nil {
		return nil, nil, errors.Wrap(err, "deit")
	}
	out = b.LayerNorm(out, m.norm)

	clsTok := tensor.MustNew[float32](tensor.Shape{n, e})
	distTok := tensor.MustNew[float32](tensor.Shape{n, e})
	for i := 0; i < n; i++ {
		copy(clsTok.Data()[i*e:(i+1)*e], out.Data()[i*tokens*e:])
		copy(distTok.Data()[i*e:(i+1)*e], out.Data()[(i*tokens+1)*e:])
	}

	if logits, err = nn.Linear(b, clsTok, m.head); err != nil {
		return nil, nil, errors.Wrap(err, "deit head")
	}
	if distLogits, err = nn.Linear(b, distTok, m.headDist); err != nil {
		return nil, nil, errors.Wrap(err, "deit distillation head")
	}
	return logits, distLogits, nil
}

// Classify averages the two heads, as DeiT does at inference time.
func (m *DeiT) Classify(b *cpu.CPUBackend, x *tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	logits, distLogits, err := m.Forward(b, x)
	if err != nil {
		return nil, err
	}
	sum := b.Add(logits, distLogits)
	for i, v := range sum.Data() {
		sum.Set(i, v/2)
	}
	return sum, nil
}
