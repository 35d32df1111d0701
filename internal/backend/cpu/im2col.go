package cpu

import (
	"fmt"

	"github.com/cpuinfer/cpuinfer/internal/profile"
	"github.com/cpuinfer/cpuinfer/internal/tensor"
)

// ConvOutputSize returns the number of window positions along one axis:
//
//	out = (in + 2*pad - kernel) / stride + 1
func ConvOutputSize(in, kernel, stride, pad int) int {
	return (in+2*pad-kernel)/stride + 1
}

// Im2Col rearranges sliding-window patches of a [N, C, H, W] input into
// columns.
//
// Output shape: [N, C*kh*kw, outH*outW]
//
// Row r = c*kh*kw + i*kw + j holds kernel tap (i, j) of channel c; column
// p = oh*outW + ow is one output position. Taps that land in the zero
// padding are 0. With this layout a convolution of batch element n is a
// single GEMM of the [Cout, C*kh*kw] weight matrix against block n.
//
// Reference: "High Performance Convolutional Neural Networks for Document
// Processing" (Chellapilla et al., 2006).
func Im2Col[T tensor.Scalar](input *tensor.Tensor[T], kh, kw, sh, sw, ph, pw int) *tensor.Tensor[T] {
	if input.Rank() != 4 {
		panic(fmt.Sprintf("im2col: input must be 4D [N,C,H,W], got %dD", input.Rank()))
	}

	N, C, H, W := input.Dim(0), input.Dim(1), input.Dim(2), input.Dim(3)
	outH := ConvOutputSize(H, kh, sh, ph)
	outW := ConvOutputSize(W, kw, sw, pw)
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("im2col: invalid output dimensions: out_h=%d, out_w=%d (check stride/padding)", outH, outW))
	}

	rows := C * kh * kw
	cols := outH * outW
	col := tensor.MustNew[T](tensor.Shape{N, rows, cols})
	src := input.Data()
	dst := col.Data()

	for n := 0; n < N; n++ {
		block := dst[n*rows*cols : (n+1)*rows*cols]
		for c := 0; c < C; c++ {
			plane := src[(n*C+c)*H*W : (n*C+c+1)*H*W]
			for i := 0; i < kh; i++ {
				for j := 0; j < kw; j++ {
					row := block[((c*kh+i)*kw+j)*cols:][:cols]
					for oh := 0; oh < outH; oh++ {
						ih := oh*sh + i - ph
						for ow := 0; ow < outW; ow++ {
							iw := ow*sw + j - pw
							// Buffer is zero-filled, so padding taps are skipped.
							if ih >= 0 && ih < H && iw >= 0 && iw < W {
								row[oh*outW+ow] = plane[ih*W+iw]
							}
						}
					}
				}
			}
		}
	}

	return col
}

// Im2Col runs Im2Col on a float32 input and records the time as OpIm2col.
func (cpu *CPUBackend) Im2Col(input *tensor.Tensor[float32], kh, kw, sh, sw, ph, pw int) *tensor.Tensor[float32] {
	defer cpu.prof.Track(profile.OpIm2col)()
	return Im2Col(input, kh, kw, sh, sw, ph, pw)
}
