package tokenizer

import (
	"github.com/pkg/errors"
	"github.com/pkoukk/tiktoken-go"
)

const (
	// EncodingCL100kBase is the encoding name for GPT-4 and GPT-3.5-turbo.
	EncodingCL100kBase = "cl100k_base"
	// encodingP50kBase is the encoding name for GPT-3.
	encodingP50kBase = "p50k_base"
	// encodingR50kBase is the encoding name for older GPT-3 models.
	encodingR50kBase = "r50k_base"
)

// TikToken wraps the pkoukk/tiktoken-go library for OpenAI tokenizers.
//
// Supported encodings:
//   - cl100k_base: GPT-4, GPT-3.5-turbo, text-embedding-ada-002
//   - p50k_base: GPT-3, Codex
//   - r50k_base: GPT-3, davinci-002, babbage-002
type TikToken struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewTikToken creates a new TikToken tokenizer with the specified encoding.
//
// The BPE ranks are fetched on first use and cached by tiktoken-go
// (see TIKTOKEN_CACHE_DIR).
func NewTikToken(encodingName string) (*TikToken, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load tiktoken encoding %q", encodingName)
	}

	return &TikToken{
		encoding: encoding,
		name:     encodingName,
	}, nil
}

// Encode converts text to token IDs.
func (t *TikToken) Encode(text string) ([]int32, error) {
	tokens := t.encoding.Encode(text, nil, nil)

	result := make([]int32, len(tokens))
	for i, tok := range tokens {
		result[i] = int32(tok) //nolint:gosec // G115: Token ID fits in int32 - vocab size < 2^31.
	}

	return result, nil
}

// Decode converts token IDs back to text.
func (t *TikToken) Decode(tokens []int32) (string, error) {
	intTokens := make([]int, len(tokens))
	for i, tok := range tokens {
		intTokens[i] = int(tok)
	}
	return t.encoding.Decode(intTokens), nil
}

// VocabSize returns the total vocabulary size.
func (t *TikToken) VocabSize() int {
	switch t.name {
	case EncodingCL100kBase:
		return 100256
	case encodingP50kBase, encodingR50kBase:
		return 50257
	default:
		return 100000
	}
}

// Name returns the tokenizer name.
func (t *TikToken) Name() string {
	return t.name
}
