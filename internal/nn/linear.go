package nn

import (
	"github.com/cpuinfer/cpuinfer/internal/backend/cpu"
	"github.com/cpuinfer/cpuinfer/internal/tensor"
	"github.com/pkg/errors"
)

// LinearParams holds a fully connected layer.
//
//   - Weight: [out_features, in_features]
//   - Bias: [out_features] or nil
type LinearParams struct {
	Weight *tensor.Tensor[float32]
	Bias   []float32
}

// InFeatures returns the input width.
func (p LinearParams) InFeatures() int { return p.Weight.Dim(1) }

// OutFeatures returns the output width.
func (p LinearParams) OutFeatures() int { return p.Weight.Dim(0) }

// Linear performs the transformation y = x @ W.T + b.
//
// x may have any rank >= 2; every leading dimension is treated as batch:
// [..., in_features] -> [..., out_features].
//
// Example:
//
//	logits, err := nn.Linear(backend, features, head) // [N, 192] -> [N, 1000]
func Linear(b *cpu.CPUBackend, x *tensor.Tensor[float32], p LinearParams) (*tensor.Tensor[float32], error) {
	if p.Weight == nil || p.Weight.Rank() != 2 {
		return nil, errors.Wrap(ErrShape, "linear: weight must be 2D [out, in]")
	}
	in, out := p.InFeatures(), p.OutFeatures()
	if x.Rank() < 2 || x.Dim(x.Rank()-1) != in {
		return nil, errors.Wrapf(ErrShape, "linear: input %v, want [..., %d]", x.Shape(), in)
	}
	if p.Bias != nil && len(p.Bias) != out {
		return nil, errors.Wrapf(ErrShape, "linear: bias has %d elements, want %d", len(p.Bias), out)
	}

	shape := x.Shape()
	rows := x.NumElements() / in
	shape[len(shape)-1] = out

	y := tensor.MustNew[float32](shape)
	b.GemmTransB(x.Data(), p.Weight.Data(), y.Data(), rows, in, out)
	addRowBias(y.Data(), p.Bias)
	return y, nil
}

// addRowBias adds bias to every len(bias)-wide row of data. A nil bias is
// a no-op.
func addRowBias(data, bias []float32) {
	if len(bias) == 0 {
		return
	}
	for off := 0; off < len(data); off += len(bias) {
		row := data[off : off+len(bias)]
		for i, v := range bias {
			row[i] += v
		}
	}
}
