package cpu

import (
	"fmt"
	"math"

	"github.com/cpuinfer/cpuinfer/internal/profile"
	"github.com/cpuinfer/cpuinfer/internal/tensor"
)

// Pool2DParams describes a pooling window. A non-positive stride is
// treated as 1.
type Pool2DParams struct {
	KernelH int
	KernelW int
	StrideH int
	StrideW int
	PadH    int
	PadW    int
}

// Window returns square pooling params.
func Window(kernel, stride, pad int) Pool2DParams {
	return Pool2DParams{
		KernelH: kernel, KernelW: kernel,
		StrideH: stride, StrideW: stride,
		PadH: pad, PadW: pad,
	}
}

// MaxPool2D takes the maximum over each window.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_h, out_w]
//
// Padded positions never win: a window is reduced over its in-bounds
// elements only.
//
// Example (2x2 pool, stride=2):
//
//	Input: [[1,2,3,4],    Output: [[6,8],
//	        [5,6,7,8],             [14,16]]
//	        [9,10,11,12],
//	        [13,14,15,16]]
func (cpu *CPUBackend) MaxPool2D(input *tensor.Tensor[float32], p Pool2DParams) *tensor.Tensor[float32] {
	defer cpu.prof.Track(profile.OpPool)()
	return pool2d(input, p, "maxpool2d", func(window []float32) float32 {
		m := float32(math.Inf(-1))
		for _, v := range window {
			if v > m {
				m = v
			}
		}
		return m
	})
}

// AvgPool2D averages each window over its in-bounds elements.
func (cpu *CPUBackend) AvgPool2D(input *tensor.Tensor[float32], p Pool2DParams) *tensor.Tensor[float32] {
	defer cpu.prof.Track(profile.OpPool)()
	return pool2d(input, p, "avgpool2d", func(window []float32) float32 {
		if len(window) == 0 {
			return 0
		}
		var sum float32
		for _, v := range window {
			sum += v
		}
		return sum / float32(len(window))
	})
}

// GlobalAvgPool2D reduces every channel plane to its mean: [N,C,H,W] -> [N,C,1,1].
func (cpu *CPUBackend) GlobalAvgPool2D(input *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	if input.Rank() != 4 {
		panic(fmt.Sprintf("global_avgpool2d: expected 4D input [N,C,H,W], got %dD", input.Rank()))
	}
	H, W := input.Dim(2), input.Dim(3)
	return cpu.AvgPool2D(input, Pool2DParams{KernelH: H, KernelW: W, StrideH: H, StrideW: W})
}

func pool2d(input *tensor.Tensor[float32], p Pool2DParams, name string, reduce func([]float32) float32) *tensor.Tensor[float32] {
	if input.Rank() != 4 {
		panic(fmt.Sprintf("%s: expected 4D input [N,C,H,W], got %dD", name, input.Rank()))
	}
	if p.KernelH <= 0 || p.KernelW <= 0 {
		panic(fmt.Sprintf("%s: invalid kernel size %dx%d", name, p.KernelH, p.KernelW))
	}
	if p.StrideH <= 0 {
		p.StrideH = 1
	}
	if p.StrideW <= 0 {
		p.StrideW = 1
	}

	N, C, H, W := input.Dim(0), input.Dim(1), input.Dim(2), input.Dim(3)
	outH := ConvOutputSize(H, p.KernelH, p.StrideH, p.PadH)
	outW := ConvOutputSize(W, p.KernelW, p.StrideW, p.PadW)
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("%s: invalid output dimensions: out_h=%d, out_w=%d", name, outH, outW))
	}

	output := tensor.MustNew[float32](tensor.Shape{N, C, outH, outW})
	src := input.Data()
	dst := output.Data()
	window := make([]float32, 0, p.KernelH*p.KernelW)

	for nc := 0; nc < N*C; nc++ {
		plane := src[nc*H*W : (nc+1)*H*W]
		out := dst[nc*outH*outW : (nc+1)*outH*outW]
		for oh := 0; oh < outH; oh++ {
			hStart := oh*p.StrideH - p.PadH
			for ow := 0; ow < outW; ow++ {
				wStart := ow*p.StrideW - p.PadW
				window = window[:0]
				for kh := 0; kh < p.KernelH; kh++ {
					ih := hStart + kh
					if ih < 0 || ih >= H {
						continue
					}
					for kw := 0; kw < p.KernelW; kw++ {
						iw := wStart + kw
						if iw >= 0 && iw < W {
							window = append(window, plane[ih*W+iw])
						}
					}
				}
				out[oh*outW+ow] = reduce(window)
			}
		}
	}

	return output
}
