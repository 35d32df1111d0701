package nn

import (
	"github.com/cpuinfer/cpuinfer/internal/backend/cpu"
	"github.com/cpuinfer/cpuinfer/internal/tensor"
	"github.com/pkg/errors"
)

// EmbeddingParams holds a lookup table of shape [num_embeddings, embed_dim].
type EmbeddingParams struct {
	Weight *tensor.Tensor[float32]
}

// Embedding maps token ids to dense vectors.
//
// Ids are carried in a float tensor [batch, seq] and truncated to int.
// Output shape: [batch, seq, embed_dim].
//
// An id outside [0, num_embeddings) returns ErrIndexOutOfRange.
//
// Example:
//
//	ids, _ := tensor.FromSlice([]float32{101, 2023, 102}, tensor.Shape{1, 3})
//	emb, err := nn.Embedding(ids, words) // [1, 3, 768]
func Embedding(ids *tensor.Tensor[float32], p EmbeddingParams) (*tensor.Tensor[float32], error) {
	if p.Weight == nil || p.Weight.Rank() != 2 {
		return nil, errors.Wrap(ErrShape, "embedding: weight must be 2D [num_embeddings, embed_dim]")
	}
	if ids.Rank() != 2 {
		return nil, errors.Wrapf(ErrShape, "embedding: ids must be 2D [batch, seq], got %v", ids.Shape())
	}
	vocab, dim := p.Weight.Dim(0), p.Weight.Dim(1)

	out := tensor.MustNew[float32](tensor.Shape{ids.Dim(0), ids.Dim(1), dim})
	table := p.Weight.Data()
	dst := out.Data()
	for i, v := range ids.Data() {
		id := int(v)
		if id < 0 || id >= vocab {
			return nil, errors.Wrapf(ErrIndexOutOfRange, "embedding: id %d at position %d, table size %d", id, i, vocab)
		}
		copy(dst[i*dim:(i+1)*dim], table[id*dim:(id+1)*dim])
	}
	return out, nil
}

// PatchEmbedParams holds a vision transformer patch projection.
//
//   - Weight: [embed_dim, channels, patch, patch]
//   - Bias: [embed_dim] or nil
type PatchEmbedParams struct {
	PatchSize int
	Weight    *tensor.Tensor[float32]
	Bias      []float32
}

// PatchEmbed cuts an image into non-overlapping PatchSize x PatchSize
// patches and projects each to embed_dim.
//
// It is a convolution with kernel and stride both equal to PatchSize,
// followed by a [E, P] -> [P, E] transpose per image:
//
//	[N, C, H, W] -> [N, (H/P)*(W/P), E]
func PatchEmbed(b *cpu.CPUBackend, x *tensor.Tensor[float32], p PatchEmbedParams) (*tensor.Tensor[float32], error) {
	if p.PatchSize <= 0 || p.Weight == nil || p.Weight.Rank() != 4 {
		return nil, errors.Wrap(ErrShape, "patch_embed: weight must be 4D [E, C, P, P]")
	}
	if x.Rank() != 4 {
		return nil, errors.Wrapf(ErrShape, "patch_embed: input must be 4D [N, C, H, W], got %v", x.Shape())
	}
	N, C, H, W := x.Dim(0), x.Dim(1), x.Dim(2), x.Dim(3)
	E, P := p.Weight.Dim(0), p.PatchSize
	if p.Weight.Dim(1) != C || p.Weight.Dim(2) != P || p.Weight.Dim(3) != P {
		return nil, errors.Wrapf(ErrShape, "patch_embed: weight %v does not match %d channels, patch %d", p.Weight.Shape(), C, P)
	}
	if H%P != 0 || W%P != 0 {
		return nil, errors.Wrapf(ErrShape, "patch_embed: image %dx%d not divisible by patch %d", H, W, P)
	}

	conv := b.Conv2D(x, p.Weight, p.Bias, cpu.Same(P, 0))
	patches := (H / P) * (W / P)

	out := tensor.MustNew[float32](tensor.Shape{N, patches, E})
	src, dst := conv.Data(), out.Data()
	for n := 0; n < N; n++ {
		for e := 0; e < E; e++ {
			for i := 0; i < patches; i++ {
				dst[(n*patches+i)*E+e] = src[(n*E+e)*patches+i]
			}
		}
	}
	return out, nil
}
