package nn

import (
	"math"

	"github.com/cpuinfer/cpuinfer/internal/backend/cpu"
	"github.com/cpuinfer/cpuinfer/internal/tensor"
	"github.com/pkg/errors"
)

// AttentionParams holds the projections of a multi-head self-attention
// layer.
//
// Wq, Wk, Wv and Wo are square [hidden, hidden] matrices stored
// input-major (a projection is x @ W). Biases are [hidden] or nil.
type AttentionParams struct {
	Wq, Wk, Wv, Wo *tensor.Tensor[float32]
	Bq, Bk, Bv, Bo []float32
	NumHeads       int
}

// MultiHeadSelfAttention computes unmasked scaled dot-product self-attention.
//
// Architecture:
//
//	MHA(X) = Concat(head_1, ..., head_h) @ Wo + bo
//	head_i = softmax(Q_i @ K_i^T / sqrt(d_h)) @ V_i
//
// where Q = X @ Wq + bq (likewise K, V) and head i owns columns
// [i*d_h, (i+1)*d_h) with d_h = hidden / NumHeads.
//
// Shapes: [batch, seq, hidden] -> [batch, seq, hidden].
//
// Projections run once over the flattened [batch*seq, hidden] input. Scores
// are computed per batch element, so position j of one sequence never
// attends to another sequence in the batch. Every position attends to every
// position of its own sequence, future ones included.
//
// Returns ErrShape for a non-3D input or mis-sized weights and ErrHeadCount
// when NumHeads does not divide hidden.
func MultiHeadSelfAttention(b *cpu.CPUBackend, x *tensor.Tensor[float32], p AttentionParams) (*tensor.Tensor[float32], error) {
	if x.Rank() != 3 {
		return nil, errors.Wrapf(ErrShape, "attention: input must be 3D [batch, seq, hidden], got %v", x.Shape())
	}
	batch, seq, hidden := x.Dim(0), x.Dim(1), x.Dim(2)
	if p.NumHeads <= 0 || hidden%p.NumHeads != 0 {
		return nil, errors.Wrapf(ErrHeadCount, "attention: %d heads, hidden %d", p.NumHeads, hidden)
	}
	for _, w := range []*tensor.Tensor[float32]{p.Wq, p.Wk, p.Wv, p.Wo} {
		if w == nil || !w.Shape().Equal(tensor.Shape{hidden, hidden}) {
			return nil, errors.Wrapf(ErrShape, "attention: projection weights must be [%d %d]", hidden, hidden)
		}
	}
	headDim := hidden / p.NumHeads
	rows := batch * seq

	// 1-2. Flatten and project.
	flat := x.Data()
	q := project(b, flat, p.Wq, p.Bq, rows, hidden)
	k := project(b, flat, p.Wk, p.Bk, rows, hidden)
	v := project(b, flat, p.Wv, p.Bv, rows, hidden)

	concat := make([]float32, rows*hidden)
	qh := make([]float32, seq*headDim)
	kh := make([]float32, seq*headDim)
	vh := make([]float32, seq*headDim)
	scores := make([]float32, seq*seq)
	out := make([]float32, seq*headDim)
	scale := float32(1.0 / math.Sqrt(float64(headDim)))

	for n := 0; n < batch; n++ {
		rowOff := n * seq
		for h := 0; h < p.NumHeads; h++ {
			colOff := h * headDim

			// 3. Slice the head's columns out of this batch element's rows.
			gatherColumns(qh, q, rowOff, seq, hidden, colOff, headDim)
			gatherColumns(kh, k, rowOff, seq, hidden, colOff, headDim)
			gatherColumns(vh, v, rowOff, seq, hidden, colOff, headDim)

			// 4-5. scores = Qh @ Kh^T / sqrt(d_h)
			khT := transpose(kh, seq, headDim)
			b.Gemm(qh, khT, scores, seq, headDim, seq)
			for i := range scores {
				scores[i] *= scale
			}

			// 6.
			cpu.SoftmaxRows(scores, seq)

			// 7. out = scores @ Vh, read through the materialized Vh^T.
			vhT := transpose(vh, seq, headDim)
			b.GemmTransB(scores, vhT, out, seq, seq, headDim)

			// 8. Heads own disjoint columns: direct write.
			scatterColumns(concat, out, rowOff, seq, hidden, colOff, headDim)
		}
	}

	// 9-10.
	y := project(b, concat, p.Wo, p.Bo, rows, hidden)
	return tensor.FromSlice(y, x.Shape())
}

// project computes x @ w + bias for a [rows, hidden] x.
func project(b *cpu.CPUBackend, x []float32, w *tensor.Tensor[float32], bias []float32, rows, hidden int) []float32 {
	out := make([]float32, rows*hidden)
	b.Gemm(x, w.Data(), out, rows, hidden, hidden)
	addRowBias(out, bias)
	return out
}

// gatherColumns copies columns [colOff, colOff+width) of rows
// [rowOff, rowOff+rows) of a [*, stride] matrix into dst [rows, width].
func gatherColumns(dst, src []float32, rowOff, rows, stride, colOff, width int) {
	for r := 0; r < rows; r++ {
		start := (rowOff+r)*stride + colOff
		copy(dst[r*width:(r+1)*width], src[start:start+width])
	}
}

// scatterColumns is the inverse of gatherColumns.
func scatterColumns(dst, src []float32, rowOff, rows, stride, colOff, width int) {
	for r := 0; r < rows; r++ {
		start := (rowOff+r)*stride + colOff
		copy(dst[start:start+width], src[r*width:(r+1)*width])
	}
}

func transpose(src []float32, rows, cols int) []float32 {
	dst := make([]float32, len(src))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			dst[c*rows+r] = src[r*cols+c]
		}
	}
	return dst
}
