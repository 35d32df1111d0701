package tokenizer

import (
	"testing"

	"github.com/cpuinfer/cpuinfer/internal/tensor"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedEncoder returns canned ids without touching tiktoken's BPE files.
type fixedEncoder struct {
	ids []int32
	err error
}

func (f fixedEncoder) Encode(string) ([]int32, error) { return f.ids, f.err }

func smallConfig() SequenceConfig {
	return SequenceConfig{Length: 6, VocabSize: 20, Reserved: 10, CLS: 1, SEP: 2, Pad: 0}
}

func TestFold(t *testing.T) {
	cfg := smallConfig()
	assert.Equal(t, int32(10), cfg.Fold(0))
	assert.Equal(t, int32(19), cfg.Fold(9))
	assert.Equal(t, int32(10), cfg.Fold(10))
	assert.Equal(t, int32(13), cfg.Fold(100253))
	assert.Equal(t, int32(13), cfg.Fold(-3))

	def := DefaultSequenceConfig()
	for _, id := range []int32{0, 1, 999, 30521, 100255} {
		f := def.Fold(id)
		assert.GreaterOrEqual(t, f, int32(def.Reserved))
		assert.Less(t, f, int32(def.VocabSize))
	}
}

func TestFrame(t *testing.T) {
	cfg := smallConfig()

	assert.Equal(t, []int32{1, 13, 14, 2, 0, 0}, cfg.Frame([]int32{3, 4}))
	assert.Equal(t, []int32{1, 2, 0, 0, 0, 0}, cfg.Frame(nil))
	// Truncated to Length-2 text ids.
	assert.Equal(t, []int32{1, 11, 12, 13, 14, 2}, cfg.Frame([]int32{1, 2, 3, 4, 5, 6, 7}))
}

func TestSequence(t *testing.T) {
	ids, err := Sequence(fixedEncoder{ids: []int32{5}}, "hi", smallConfig())
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 6}, ids.Shape())
	assert.Equal(t, []float32{1, 15, 2, 0, 0, 0}, ids.Data())

	boom := errors.New("boom")
	_, err = Sequence(fixedEncoder{err: boom}, "hi", smallConfig())
	assert.True(t, errors.Is(err, boom))

	bad := smallConfig()
	bad.Length = 1
	_, err = Sequence(fixedEncoder{}, "hi", bad)
	assert.Error(t, err)
}

func TestSynthetic(t *testing.T) {
	ids, err := Synthetic(2, smallConfig())
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 6}, ids.Shape())
	// 100..103 fold to 10..13.
	row := []float32{1, 10, 11, 12, 13, 2}
	assert.Equal(t, append(append([]float32{}, row...), row...), ids.Data())

	bad := smallConfig()
	bad.VocabSize = 10
	_, err = Synthetic(1, bad)
	assert.Error(t, err)

	_, err = Synthetic(0, smallConfig())
	assert.True(t, errors.Is(err, tensor.ErrEmptyShape))
}
