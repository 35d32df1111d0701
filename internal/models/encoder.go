package models

import (
	"github.com/cpuinfer/cpuinfer/internal/backend/cpu"
	"github.com/cpuinfer/cpuinfer/internal/nn"
	"github.com/cpuinfer/cpuinfer/internal/tensor"
	"github.com/pkg/errors"
)

// encoderLayer is a post-norm transformer encoder block:
//
//	h = LN1(x + MHSA(x))
//	y = LN2(h + FFN(h))
type encoderLayer struct {
	attn nn.AttentionParams
	ln1  cpu.LayerNormParams
	ffn  nn.FeedForwardParams
	ln2  cpu.LayerNormParams
}

func newEncoderLayer(init *Initializer, hidden, heads, ffnDim int) encoderLayer {
	return encoderLayer{
		attn: nn.AttentionParams{
			Wq: init.Square(hidden), Bq: make([]float32, hidden),
			Wk: init.Square(hidden), Bk: make([]float32, hidden),
			Wv: init.Square(hidden), Bv: make([]float32, hidden),
			Wo: init.Square(hidden), Bo: make([]float32, hidden),
			NumHeads: heads,
		},
		ln1: init.LayerNorm(hidden),
		ffn: nn.FeedForwardParams{
			W1: init.Weight(hidden, ffnDim, tensor.Shape{hidden, ffnDim}),
			B1: make([]float32, ffnDim),
			W2: init.Weight(ffnDim, hidden, tensor.Shape{ffnDim, hidden}),
			B2: make([]float32, hidden),
		},
		ln2: init.LayerNorm(hidden),
	}
}

func (l *encoderLayer) forward(b *cpu.CPUBackend, x *tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	a, err := nn.MultiHeadSelfAttention(b, x, l.attn)
	if err != nil {
		return nil, err
	}
	h := b.LayerNorm(b.Add(x, a), l.ln1)

	f, err := nn.FeedForward(b, h, l.ffn)
	if err != nil {
		return nil, err
	}
	return b.LayerNorm(b.Add(h, f), l.ln2), nil
}

// runEncoder applies layers in order, wrapping failures with the layer index.
func runEncoder(b *cpu.CPUBackend, layers []encoderLayer, x *tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	var err error
	for i := range layers {
		x, err = layers[i].forward(b, x)
		if err != nil {
			return nil, errors.Wrapf(err, "encoder layer %d", i)
		}
	}
	return x, nil
}
