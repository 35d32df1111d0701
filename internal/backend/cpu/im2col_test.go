package cpu

import (
	"testing"

	"github.com/cpuinfer/cpuinfer/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequential(shape tensor.Shape) *tensor.Tensor[float32] {
	x := tensor.MustNew[float32](shape)
	for i := range x.Data() {
		x.Set(i, float32(i+1))
	}
	return x
}

func TestConvOutputSize(t *testing.T) {
	assert.Equal(t, 112, ConvOutputSize(224, 7, 2, 3))
	assert.Equal(t, 56, ConvOutputSize(112, 3, 2, 1))
	assert.Equal(t, 14, ConvOutputSize(224, 16, 16, 0))
	assert.Equal(t, 4, ConvOutputSize(4, 3, 1, 1))
}

// A 1x1 kernel with stride 1 and no padding is the identity reshape
// [N,C,H,W] -> [N,C,H*W].
func TestIm2Col_OneByOneIsIdentity(t *testing.T) {
	x := sequential(tensor.Shape{2, 3, 4, 5})
	col := Im2Col(x, 1, 1, 1, 1, 0, 0)

	assert.Equal(t, tensor.Shape{2, 3, 20}, col.Shape())
	assert.Equal(t, x.Data(), col.Data())
}

func TestIm2Col_PaddingIsZero(t *testing.T) {
	// 1 2
	// 3 4
	x := sequential(tensor.Shape{1, 1, 2, 2})
	col := Im2Col(x, 3, 3, 1, 1, 1, 1)
	require.Equal(t, tensor.Shape{1, 9, 4}, col.Shape())

	// Centre tap (row 4) sees every input pixel.
	assert.Equal(t, []float32{1, 2, 3, 4}, col.Data()[4*4:5*4])
	// Top-left tap (row 0) only sees pixel 1 from output position (1,1).
	assert.Equal(t, []float32{0, 0, 0, 1}, col.Data()[0:4])
	// Bottom-right tap (row 8) only sees pixel 4 from output position (0,0).
	assert.Equal(t, []float32{4, 0, 0, 0}, col.Data()[8*4:9*4])
}

func TestIm2Col_StrideAndRowLayout(t *testing.T) {
	x := sequential(tensor.Shape{1, 2, 4, 4})
	col := Im2Col(x, 2, 2, 2, 2, 0, 0)
	require.Equal(t, tensor.Shape{1, 8, 4}, col.Shape())

	// Row (c=1, i=1, j=0) = 1*4 + 1*2 + 0 = 6.
	// Channel 1 starts at value 17; tap (1,0) of window (oh,ow) is
	// pixel (2*oh+1, 2*ow).
	want := []float32{17 + 4, 17 + 6, 17 + 12, 17 + 14}
	assert.Equal(t, want, col.Data()[6*4:7*4])
}

func TestIm2Col_Panics(t *testing.T) {
	assert.Panics(t, func() { Im2Col(tensor.MustNew[float32](tensor.Shape{3, 3}), 1, 1, 1, 1, 0, 0) })
	assert.Panics(t, func() { Im2Col(tensor.MustNew[float32](tensor.Shape{1, 1, 2, 2}), 5, 5, 1, 1, 0, 0) })
}
