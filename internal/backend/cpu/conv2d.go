package cpu

import (
	"fmt"

	"github.com/cpuinfer/cpuinfer/internal/tensor"
)

// Conv2DParams holds the per-layer hyperparameters of a convolution.
// A non-positive stride is treated as 1.
type Conv2DParams struct {
	StrideH int
	StrideW int
	PadH    int
	PadW    int
}

// Same returns params with equal stride and padding on both axes.
func Same(stride, pad int) Conv2DParams {
	return Conv2DParams{StrideH: stride, StrideW: stride, PadH: pad, PadW: pad}
}

func (p Conv2DParams) normalized() Conv2DParams {
	if p.StrideH <= 0 {
		p.StrideH = 1
	}
	if p.StrideW <= 0 {
		p.StrideW = 1
	}
	return p
}

// Conv2D performs 2D convolution using the im2col algorithm.
//
// Input shape: [batch, in_channels, height, width]
// Weight shape: [out_channels, in_channels, kernel_h, kernel_w]
// Bias: [out_channels] or nil
// Output shape: [batch, out_channels, out_h, out_w]
//
// Algorithm:
//  1. Im2col: [N, C_in, H, W] -> [N, C_in*K_h*K_w, H_out*W_out]
//  2. The weight is already a row-major [C_out, C_in*K_h*K_w] matrix
//  3. Per batch element: [C_out, K] @ [K, H_out*W_out] -> [C_out, H_out*W_out]
//  4. Add bias per output channel; the GEMM result is already laid out
//     as [C_out, H_out, W_out]
//
// Channel agreement between input and weight is the caller's contract.
func (cpu *CPUBackend) Conv2D(input, weight *tensor.Tensor[float32], bias []float32, p Conv2DParams) *tensor.Tensor[float32] {
	if input.Rank() != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", input.Rank()))
	}
	if weight.Rank() != 4 {
		panic(fmt.Sprintf("conv2d: weight must be 4D [C_out,C_in,K_h,K_w], got %dD", weight.Rank()))
	}
	p = p.normalized()

	N, CIn := input.Dim(0), input.Dim(1)
	COut, KH, KW := weight.Dim(0), weight.Dim(2), weight.Dim(3)

	col := cpu.Im2Col(input, KH, KW, p.StrideH, p.StrideW, p.PadH, p.PadW)
	HOut := ConvOutputSize(input.Dim(2), KH, p.StrideH, p.PadH)
	WOut := ConvOutputSize(input.Dim(3), KW, p.StrideW, p.PadW)

	K := CIn * KH * KW
	spatial := HOut * WOut
	w2d := weight.Data()[:COut*K]

	output := tensor.MustNew[float32](tensor.Shape{N, COut, HOut, WOut})
	colData := col.Data()
	outData := output.Data()

	for n := 0; n < N; n++ {
		b := colData[n*K*spatial : (n+1)*K*spatial]
		out := outData[n*COut*spatial : (n+1)*COut*spatial]
		cpu.Gemm(w2d, b, out, COut, K, spatial)

		if bias == nil {
			continue
		}
		for co := 0; co < COut; co++ {
			bv := bias[co]
			row := out[co*spatial : (co+1)*spatial]
			for i := range row {
				row[i] += bv
			}
		}
	}

	return output
}

// DepthwiseConv2D convolves every channel with its own kernel.
//
// Input shape: [batch, channels, height, width]
// Weight shape: [channels, 1, kernel_h, kernel_w]
// Bias: [channels] or nil
// Output shape: [batch, channels, out_h, out_w]
//
// The im2col rows of channel c are exactly the kh*kw rows starting at
// c*kh*kw, so output channel c is a [1, kh*kw] @ [kh*kw, H_out*W_out] GEMM
// over those rows. Output channel c reads nothing but input channel c.
func (cpu *CPUBackend) DepthwiseConv2D(input, weight *tensor.Tensor[float32], bias []float32, p Conv2DParams) *tensor.Tensor[float32] {
	if input.Rank() != 4 {
		panic(fmt.Sprintf("depthwise_conv2d: input must be 4D [N,C,H,W], got %dD", input.Rank()))
	}
	if weight.Rank() != 4 {
		panic(fmt.Sprintf("depthwise_conv2d: weight must be 4D [C,1,K_h,K_w], got %dD", weight.Rank()))
	}
	p = p.normalized()

	N, C := input.Dim(0), input.Dim(1)
	KH, KW := weight.Dim(2), weight.Dim(3)

	col := cpu.Im2Col(input, KH, KW, p.StrideH, p.StrideW, p.PadH, p.PadW)
	HOut := ConvOutputSize(input.Dim(2), KH, p.StrideH, p.PadH)
	WOut := ConvOutputSize(input.Dim(3), KW, p.StrideW, p.PadW)

	taps := KH * KW
	spatial := HOut * WOut
	output := tensor.MustNew[float32](tensor.Shape{N, C, HOut, WOut})
	colData := col.Data()
	outData := output.Data()
	wData := weight.Data()

	for c := 0; c < C; c++ {
		wc := wData[c*taps : (c+1)*taps]
		for n := 0; n < N; n++ {
			block := colData[n*C*taps*spatial:]
			rows := block[c*taps*spatial : (c+1)*taps*spatial]
			out := outData[(n*C+c)*spatial : (n*C+c+1)*spatial]
			cpu.Gemm(wc, rows, out, 1, taps, spatial)

			if bias != nil {
				for i := range out {
					out[i] += bias[c]
				}
			}
		}
	}

	return output
}
