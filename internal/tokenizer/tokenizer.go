package tokenizer

import (
	"github.com/cpuinfer/cpuinfer/internal/tensor"
	"github.com/pkg/errors"
)

// Encoder converts text to token IDs.
type Encoder interface {
	Encode(text string) ([]int32, error)
}

// SequenceConfig controls how token ids are framed for an encoder model.
type SequenceConfig struct {
	Length    int   // total positions, including [CLS] and [SEP]
	VocabSize int   // target vocabulary size
	Reserved  int   // ids below this are special tokens and never produced by Fold
	CLS       int32 // prepended
	SEP       int32 // appended after the (possibly truncated) text
	Pad       int32 // fills the remaining positions
}

// DefaultSequenceConfig returns BERT-base framing at 128 positions.
func DefaultSequenceConfig() SequenceConfig {
	return SequenceConfig{
		Length:    128,
		VocabSize: 30522,
		Reserved:  1000,
		CLS:       101,
		SEP:       102,
		Pad:       0,
	}
}

// Fold maps an arbitrary non-negative id into [Reserved, VocabSize).
func (c SequenceConfig) Fold(id int32) int32 {
	span := int32(c.VocabSize - c.Reserved) //nolint:gosec // vocab sizes fit in int32
	if id < 0 {
		id = -id
	}
	return int32(c.Reserved) + id%span //nolint:gosec // vocab sizes fit in int32
}

// Frame builds one [CLS] ids... [SEP] pad... row of exactly Length ids,
// folding every text id and truncating text that does not fit.
func (c SequenceConfig) Frame(ids []int32) []int32 {
	row := make([]int32, c.Length)
	for i := range row {
		row[i] = c.Pad
	}
	row[0] = c.CLS

	n := len(ids)
	if n > c.Length-2 {
		n = c.Length - 2
	}
	for i := 0; i < n; i++ {
		row[1+i] = c.Fold(ids[i])
	}
	row[1+n] = c.SEP
	return row
}

func (c SequenceConfig) validate() error {
	if c.Length < 2 {
		return errors.Errorf("sequence length %d leaves no room for [CLS] and [SEP]", c.Length)
	}
	if c.VocabSize <= c.Reserved {
		return errors.Errorf("vocab size %d must exceed reserved ids %d", c.VocabSize, c.Reserved)
	}
	return nil
}

// Sequence encodes text and returns a [1, Length] id tensor.
func Sequence(enc Encoder, text string, cfg SequenceConfig) (*tensor.Tensor[float32], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	ids, err := enc.Encode(text)
	if err != nil {
		return nil, errors.Wrap(err, "encode")
	}
	return toTensor([][]int32{cfg.Frame(ids)})
}

// Synthetic returns a [batch, Length] id tensor whose text positions hold
// 100, 101, ... folded into the vocabulary. It stands in for real text when
// none is given.
func Synthetic(batch int, cfg SequenceConfig) (*tensor.Tensor[float32], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	ids := make([]int32, cfg.Length-2)
	for i := range ids {
		ids[i] = int32(100 + i) //nolint:gosec // bounded by sequence length
	}
	rows := make([][]int32, batch)
	for i := range rows {
		rows[i] = cfg.Frame(ids)
	}
	return toTensor(rows)
}

func toTensor(rows [][]int32) (*tensor.Tensor[float32], error) {
	if len(rows) == 0 {
		return nil, errors.Wrap(tensor.ErrEmptyShape, "no rows")
	}
	width := len(rows[0])
	flat := make([]float32, 0, len(rows)*width)
	for _, r := range rows {
		for _, id := range r {
			flat = append(flat, float32(id))
		}
	}
	return tensor.FromSlice(flat, tensor.Shape{len(rows), width})
}
