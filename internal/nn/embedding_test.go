package nn

import (
	"testing"

	"github.com/cpuinfer/cpuinfer/internal/backend/cpu"
	"github.com/cpuinfer/cpuinfer/internal/tensor"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedding_Lookup(t *testing.T) {
	table, _ := tensor.FromSlice([]float32{
		0, 0,
		1, 1,
		2, 4,
	}, tensor.Shape{3, 2})
	ids, _ := tensor.FromSlice([]float32{2, 0, 1, 2}, tensor.Shape{2, 2})

	out, err := Embedding(ids, EmbeddingParams{Weight: table})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2, 2}, out.Shape())
	assert.Equal(t, []float32{2, 4, 0, 0, 1, 1, 2, 4}, out.Data())

	// Output must not alias the table.
	out.Set(0, 99)
	assert.Equal(t, float32(2), table.At(4))
}

func TestEmbedding_OutOfRange(t *testing.T) {
	table := tensor.MustNew[float32](tensor.Shape{3, 2})

	for _, id := range []float32{3, -1, 100} {
		ids, _ := tensor.FromSlice([]float32{0, id}, tensor.Shape{1, 2})
		_, err := Embedding(ids, EmbeddingParams{Weight: table})
		assert.True(t, errors.Is(err, ErrIndexOutOfRange), "id=%v", id)
	}

	_, err := Embedding(tensor.MustNew[float32](tensor.Shape{4}), EmbeddingParams{Weight: table})
	assert.True(t, errors.Is(err, ErrShape))
}

func TestPatchEmbed(t *testing.T) {
	backend := cpu.New()
	// Image [1, 1, 4, 4] holding 1..16, patch 2, one summing filter and
	// one top-left picker.
	x := tensor.MustNew[float32](tensor.Shape{1, 1, 4, 4})
	for i := range x.Data() {
		x.Set(i, float32(i+1))
	}
	w, _ := tensor.FromSlice([]float32{
		1, 1, 1, 1,
		1, 0, 0, 0,
	}, tensor.Shape{2, 1, 2, 2})

	out, err := PatchEmbed(backend, x, PatchEmbedParams{PatchSize: 2, Weight: w, Bias: []float32{0, 100}})
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{1, 4, 2}, out.Shape())
	assert.Equal(t, []float32{
		14, 101,
		22, 103,
		46, 109,
		54, 111,
	}, out.Data())
}

func TestPatchEmbed_Errors(t *testing.T) {
	backend := cpu.New()
	w := tensor.MustNew[float32](tensor.Shape{4, 3, 2, 2})

	_, err := PatchEmbed(backend, tensor.MustNew[float32](tensor.Shape{1, 3, 5, 4}), PatchEmbedParams{PatchSize: 2, Weight: w})
	assert.True(t, errors.Is(err, ErrShape))

	_, err = PatchEmbed(backend, tensor.MustNew[float32](tensor.Shape{1, 1, 4, 4}), PatchEmbedParams{PatchSize: 2, Weight: w})
	assert.True(t, errors.Is(err, ErrShape))

	_, err = PatchEmbed(backend, tensor.MustNew[float32](tensor.Shape{3, 4, 4}), PatchEmbedParams{PatchSize: 2, Weight: w})
	assert.True(t, errors.Is(err, ErrShape))
}
