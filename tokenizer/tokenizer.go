// Package tokenizer turns text into token id tensors for the encoder models.
//
// Example usage:
//
//	import "github.com/cpuinfer/cpuinfer/tokenizer"
//
//	tok, err := tokenizer.NewTikToken("cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ids, err := tokenizer.Sequence(tok, "Hello, world!", tokenizer.DefaultSequenceConfig())
package tokenizer

import (
	"github.com/cpuinfer/cpuinfer/internal/tokenizer"
	"github.com/cpuinfer/cpuinfer/tensor"
)

// Encoder converts text to token IDs.
type Encoder = tokenizer.Encoder

// TikToken wraps the pkoukk/tiktoken-go library.
type TikToken = tokenizer.TikToken

// SequenceConfig controls how token ids are framed for an encoder model.
type SequenceConfig = tokenizer.SequenceConfig

// NewTikToken creates a tiktoken tokenizer, e.g. "cl100k_base".
func NewTikToken(encodingName string) (*TikToken, error) {
	return tokenizer.NewTikToken(encodingName)
}

// DefaultSequenceConfig returns BERT-base framing at 128 positions.
func DefaultSequenceConfig() SequenceConfig {
	return tokenizer.DefaultSequenceConfig()
}

// Sequence encodes text and returns a [1, Length] id tensor.
func Sequence(enc Encoder, text string, cfg SequenceConfig) (*tensor.Tensor[float32], error) {
	return tokenizer.Sequence(enc, text, cfg)
}

// Synthetic returns a [batch, Length] tensor of placeholder ids.
func Synthetic(batch int, cfg SequenceConfig) (*tensor.Tensor[float32], error) {
	return tokenizer.Synthetic(batch, cfg)
}
