package cpu

import (
	"fmt"

	"github.com/cpuinfer/cpuinfer/internal/profile"
	"github.com/cpuinfer/cpuinfer/internal/tensor"
)

// GEMM computes C = A·B for row-major A [m,k], B [k,n] and C [m,n].
//
// Every dot product is accumulated in float64 and narrowed to T on store,
// so results match a double-precision reference within one rounding of T.
// Dimensions are trusted: passing m, k, n that do not match the slices is a
// caller bug.
func GEMM[T tensor.Scalar](a, b, c []T, m, k, n int) {
	for i := 0; i < m; i++ {
		aRow := a[i*k : i*k+k]
		for j := 0; j < n; j++ {
			sum := 0.0
			for kIdx, av := range aRow {
				sum += float64(av) * float64(b[kIdx*n+j])
			}
			c[i*n+j] = T(sum)
		}
	}
}

// GEMMTransB computes C = A·Bᵀ for row-major A [m,k], B [n,k] and C [m,n],
// with the same float64 accumulation as GEMM.
func GEMMTransB[T tensor.Scalar](a, b, c []T, m, k, n int) {
	for i := 0; i < m; i++ {
		aRow := a[i*k : i*k+k]
		for j := 0; j < n; j++ {
			bRow := b[j*k : j*k+k]
			sum := 0.0
			for kIdx, av := range aRow {
				sum += float64(av) * float64(bRow[kIdx])
			}
			c[i*n+j] = T(sum)
		}
	}
}

// Gemm runs GEMM on float32 slices and records the time as OpMatMul.
func (cpu *CPUBackend) Gemm(a, b, c []float32, m, k, n int) {
	defer cpu.prof.Track(profile.OpMatMul)()
	GEMM(a, b, c, m, k, n)
}

// GemmTransB runs GEMMTransB on float32 slices and records the time as OpMatMul.
func (cpu *CPUBackend) GemmTransB(a, b, c []float32, m, k, n int) {
	defer cpu.prof.Track(profile.OpMatMul)()
	GEMMTransB(a, b, c, m, k, n)
}

// MatMul multiplies two 2D tensors: (M, K) @ (K, N) -> (M, N).
func (cpu *CPUBackend) MatMul(a, b *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	if a.Rank() != 2 || b.Rank() != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", a.Rank(), b.Rank()))
	}

	m, k := a.Dim(0), a.Dim(1)
	kAlt, n := b.Dim(0), b.Dim(1)
	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	result := tensor.MustNew[float32](tensor.Shape{m, n})
	cpu.Gemm(a.Data(), b.Data(), result.Data(), m, k, n)
	return result
}

// Transpose2D materializes the transpose of a [rows, cols] tensor.
func Transpose2D[T tensor.Scalar](x *tensor.Tensor[T]) *tensor.Tensor[T] {
	if x.Rank() != 2 {
		panic(fmt.Sprintf("transpose2d: expected 2D tensor, got %dD", x.Rank()))
	}
	rows, cols := x.Dim(0), x.Dim(1)
	out := tensor.MustNew[T](tensor.Shape{cols, rows})
	src, dst := x.Data(), out.Data()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			dst[c*rows+r] = src[r*cols+c]
		}
	}
	return out
}
