package nn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/cpuinfer/cpuinfer/internal/backend/cpu"
	"github.com/cpuinfer/cpuinfer/internal/profile"
	"github.com/cpuinfer/cpuinfer/internal/tensor"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(n int) *tensor.Tensor[float32] {
	t := tensor.MustNew[float32](tensor.Shape{n, n})
	for i := 0; i < n; i++ {
		t.Set(i*n+i, 1)
	}
	return t
}

func randomAttention(rng *rand.Rand, hidden, heads int) AttentionParams {
	p := AttentionParams{NumHeads: heads}
	p.Wq = Xavier(rng, hidden, hidden, tensor.Shape{hidden, hidden})
	p.Wk = Xavier(rng, hidden, hidden, tensor.Shape{hidden, hidden})
	p.Wv = Xavier(rng, hidden, hidden, tensor.Shape{hidden, hidden})
	p.Wo = Xavier(rng, hidden, hidden, tensor.Shape{hidden, hidden})
	p.Bq = Xavier(rng, 1, hidden, tensor.Shape{hidden}).Data()
	p.Bo = Xavier(rng, 1, hidden, tensor.Shape{hidden}).Data()
	return p
}

func randomInput(rng *rand.Rand, shape tensor.Shape) *tensor.Tensor[float32] {
	x := tensor.MustNew[float32](shape)
	for i := range x.Data() {
		x.Set(i, rng.Float32()*2-1)
	}
	return x
}

// TestMultiHeadSelfAttention_OutputShape checks every head count dividing hidden.
func TestMultiHeadSelfAttention_OutputShape(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))
	x := randomInput(rng, tensor.Shape{2, 5, 24})

	for _, heads := range []int{1, 2, 3, 4, 6, 8, 12, 24} {
		out, err := MultiHeadSelfAttention(backend, x, randomAttention(rng, 24, heads))
		require.NoError(t, err, "heads=%d", heads)
		assert.Equal(t, x.Shape(), out.Shape(), "heads=%d", heads)
	}
}

func TestMultiHeadSelfAttention_HeadCountErrors(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(2))
	x := randomInput(rng, tensor.Shape{1, 3, 10})

	for _, heads := range []int{0, -2, 3, 4, 7} {
		_, err := MultiHeadSelfAttention(backend, x, randomAttention(rng, 10, heads))
		assert.True(t, errors.Is(err, ErrHeadCount), "heads=%d: %v", heads, err)
	}
}

func TestMultiHeadSelfAttention_ShapeErrors(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(3))
	p := randomAttention(rng, 4, 1)

	_, err := MultiHeadSelfAttention(backend, randomInput(rng, tensor.Shape{3, 4}), p)
	assert.True(t, errors.Is(err, ErrShape))

	_, err = MultiHeadSelfAttention(backend, randomInput(rng, tensor.Shape{1, 3, 8}), p)
	assert.True(t, errors.Is(err, ErrShape))
}

// With identity projections and one head, attention reduces to each row
// averaging both rows, weighted by softmax(x_i . x_j / sqrt(4)).
func TestMultiHeadSelfAttention_SingleHeadIdentity(t *testing.T) {
	backend := cpu.New()
	rows := [][]float32{{1, 2, 0, 1}, {0, 1, 3, -1}}
	x, err := tensor.FromSlice(append(append([]float32{}, rows[0]...), rows[1]...), tensor.Shape{1, 2, 4})
	require.NoError(t, err)

	p := AttentionParams{Wq: identity(4), Wk: identity(4), Wv: identity(4), Wo: identity(4), NumHeads: 1}
	out, err := MultiHeadSelfAttention(backend, x, p)
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{1, 2, 4}, out.Shape())

	dot := func(a, b []float32) float64 {
		var s float64
		for i := range a {
			s += float64(a[i]) * float64(b[i])
		}
		return s
	}
	for i := 0; i < 2; i++ {
		s0 := dot(rows[i], rows[0]) / 2
		s1 := dot(rows[i], rows[1]) / 2
		m := math.Max(s0, s1)
		w0 := math.Exp(s0 - m)
		w1 := math.Exp(s1 - m)
		w0, w1 = w0/(w0+w1), w1/(w0+w1)
		for d := 0; d < 4; d++ {
			want := w0*float64(rows[0][d]) + w1*float64(rows[1][d])
			assert.InDelta(t, want, out.At4(0, i, d, 0), 1e-5, "row %d dim %d", i, d)
		}
	}
}

// Each sequence in a batch must give the same result as running it alone.
func TestMultiHeadSelfAttention_BatchIndependence(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(4))
	p := randomAttention(rng, 8, 2)
	x := randomInput(rng, tensor.Shape{3, 4, 8})

	batched, err := MultiHeadSelfAttention(backend, x, p)
	require.NoError(t, err)

	per := 4 * 8
	for n := 0; n < 3; n++ {
		single, err := tensor.FromSlice(x.Data()[n*per:(n+1)*per], tensor.Shape{1, 4, 8})
		require.NoError(t, err)
		alone, err := MultiHeadSelfAttention(backend, single, p)
		require.NoError(t, err)
		assert.InDeltaSlice(t, alone.Data(), batched.Data()[n*per:(n+1)*per], 1e-6, "batch %d", n)
	}
}

func TestMultiHeadSelfAttention_DoesNotMutateInput(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	prof := profile.New()
	backend := cpu.New(cpu.WithProfiler(prof))
	x := randomInput(rng, tensor.Shape{1, 3, 4})
	before := x.Clone()

	_, err := MultiHeadSelfAttention(backend, x, randomAttention(rng, 4, 2))
	require.NoError(t, err)
	assert.Equal(t, before.Data(), x.Data())

	// 4 projections + 2 heads x 2 GEMMs.
	assert.Equal(t, 8, prof.Calls(profile.OpMatMul))
}
