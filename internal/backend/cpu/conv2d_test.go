package cpu

import (
	"math/rand"
	"testing"

	"github.com/cpuinfer/cpuinfer/internal/profile"
	"github.com/cpuinfer/cpuinfer/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConv2D_BasicForward tests basic Conv2D forward pass.
func TestConv2D_BasicForward(t *testing.T) {
	backend := New()

	// Input: [1, 1, 3, 3]
	// 1 2 3
	// 4 5 6
	// 7 8 9
	input := sequential(tensor.Shape{1, 1, 3, 3})

	// Kernel: [1, 1, 2, 2]
	// 1 0
	// 0 1
	kernel, _ := tensor.FromSlice([]float32{1, 0, 0, 1}, tensor.Shape{1, 1, 2, 2})

	output := backend.Conv2D(input, kernel, nil, Same(1, 0))

	require.Equal(t, tensor.Shape{1, 1, 2, 2}, output.Shape())
	// Diagonal sums: 1+5, 2+6, 4+8, 5+9.
	assert.Equal(t, []float32{6, 8, 12, 14}, output.Data())
}

// [1,3,4,4] input holding 1..48, two 3x3 filters, padding 1.
func TestConv2D_PaddedMultiChannel(t *testing.T) {
	prof := profile.New()
	backend := New(WithProfiler(prof))

	input := sequential(tensor.Shape{1, 3, 4, 4})
	weight := tensor.MustNew[float32](tensor.Shape{2, 3, 3, 3})
	for i := 0; i < 27; i++ {
		weight.Set(i, 1)
		weight.Set(27+i, 0.5)
	}
	bias := []float32{0, 1}

	out := backend.Conv2D(input, weight, bias, Same(1, 1))
	require.Equal(t, tensor.Shape{1, 2, 4, 4}, out.Shape())

	// Corner (0,0): each channel contributes pixels {1,2,5,6} + 16c.
	// 3*14 + 4*16*(0+1+2) = 234
	assert.Equal(t, float32(234), out.At4(0, 0, 0, 0))
	// Interior (1,1): full 3x3 window, 54 + 144c per channel = 594.
	assert.Equal(t, float32(594), out.At4(0, 0, 1, 1))
	// Second filter halves and adds its bias.
	assert.Equal(t, float32(0.5*234+1), out.At4(0, 1, 0, 0))
	assert.Equal(t, float32(0.5*594+1), out.At4(0, 1, 1, 1))

	assert.Equal(t, 1, prof.Calls(profile.OpIm2col))
	assert.Equal(t, 1, prof.Calls(profile.OpMatMul))
}

// A 1x1 convolution is a GEMM of the weight against each pixel's channel
// vector.
func TestConv2D_OneByOneEqualsPerPixelGEMM(t *testing.T) {
	backend := New()
	rng := rand.New(rand.NewSource(3))

	N, CIn, COut, H, W := 2, 4, 3, 3, 5
	input, _ := tensor.FromSlice(randomSlice(rng, N*CIn*H*W), tensor.Shape{N, CIn, H, W})
	weight, _ := tensor.FromSlice(randomSlice(rng, COut*CIn), tensor.Shape{COut, CIn, 1, 1})

	out := backend.Conv2D(input, weight, nil, Conv2DParams{})
	require.Equal(t, tensor.Shape{N, COut, H, W}, out.Shape())

	pixel := make([]float32, CIn)
	want := make([]float32, COut)
	for n := 0; n < N; n++ {
		for h := 0; h < H; h++ {
			for w := 0; w < W; w++ {
				for c := 0; c < CIn; c++ {
					pixel[c] = input.At4(n, c, h, w)
				}
				GEMM(weight.Data(), pixel, want, COut, CIn, 1)
				for co := 0; co < COut; co++ {
					assert.InDelta(t, want[co], out.At4(n, co, h, w), 1e-6)
				}
			}
		}
	}
}

func TestConv2D_StrideTwo(t *testing.T) {
	backend := New()
	input := sequential(tensor.Shape{1, 1, 4, 4})
	kernel, _ := tensor.FromSlice([]float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})

	out := backend.Conv2D(input, kernel, nil, Same(2, 0))
	require.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	assert.Equal(t, []float32{14, 22, 46, 54}, out.Data())
}

func TestConv2D_Panics(t *testing.T) {
	backend := New()
	w := tensor.MustNew[float32](tensor.Shape{1, 1, 1, 1})
	assert.Panics(t, func() { backend.Conv2D(tensor.MustNew[float32](tensor.Shape{1, 4}), w, nil, Same(1, 0)) })
	assert.Panics(t, func() { backend.Conv2D(tensor.MustNew[float32](tensor.Shape{1, 1, 2, 2}), tensor.MustNew[float32](tensor.Shape{1, 1}), nil, Same(1, 0)) })
}

// Output channel c must depend on input channel c only.
func TestDepthwiseConv2D_ChannelIndependence(t *testing.T) {
	backend := New()
	rng := rand.New(rand.NewSource(5))

	N, C, H, W := 2, 3, 5, 5
	input, _ := tensor.FromSlice(randomSlice(rng, N*C*H*W), tensor.Shape{N, C, H, W})
	weight, _ := tensor.FromSlice(randomSlice(rng, C*9), tensor.Shape{C, 1, 3, 3})
	bias := []float32{0.1, 0.2, 0.3}

	base := backend.DepthwiseConv2D(input, weight, bias, Same(1, 1))
	require.Equal(t, tensor.Shape{N, C, H, W}, base.Shape())

	// Perturb channel 1 only.
	perturbed := input.Clone()
	for n := 0; n < N; n++ {
		for h := 0; h < H; h++ {
			for w := 0; w < W; w++ {
				perturbed.Set4(perturbed.At4(n, 1, h, w)+10, n, 1, h, w)
			}
		}
	}
	out := backend.DepthwiseConv2D(perturbed, weight, bias, Same(1, 1))

	for n := 0; n < N; n++ {
		for h := 0; h < H; h++ {
			for w := 0; w < W; w++ {
				assert.Equal(t, base.At4(n, 0, h, w), out.At4(n, 0, h, w))
				assert.Equal(t, base.At4(n, 2, h, w), out.At4(n, 2, h, w))
			}
		}
	}
	assert.NotEqual(t, base.At4(0, 1, 2, 2), out.At4(0, 1, 2, 2))
}

// Depthwise equals a grouped Conv2D run channel by channel.
func TestDepthwiseConv2D_MatchesPerChannelConv(t *testing.T) {
	backend := New()
	rng := rand.New(rand.NewSource(9))

	C, H, W := 2, 6, 6
	input, _ := tensor.FromSlice(randomSlice(rng, C*H*W), tensor.Shape{1, C, H, W})
	weight, _ := tensor.FromSlice(randomSlice(rng, C*9), tensor.Shape{C, 1, 3, 3})

	out := backend.DepthwiseConv2D(input, weight, nil, Same(2, 1))
	require.Equal(t, tensor.Shape{1, C, 3, 3}, out.Shape())

	for c := 0; c < C; c++ {
		plane, _ := tensor.FromSlice(input.Data()[c*H*W:(c+1)*H*W], tensor.Shape{1, 1, H, W})
		kernel, _ := tensor.FromSlice(weight.Data()[c*9:(c+1)*9], tensor.Shape{1, 1, 3, 3})
		ref := backend.Conv2D(plane, kernel, nil, Same(2, 1))
		assert.InDeltaSlice(t, ref.Data(), out.Data()[c*9:(c+1)*9], 1e-6)
	}
}
