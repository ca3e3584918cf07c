package distance

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// InnerProducts computes out[i*nb+j] = <query_i, base_j> for nq row-major
// queries and nb row-major base vectors with a single GEMM.
// len(out) must be at least nq*nb.
func InnerProducts(queries []float32, nq int, base []float32, nb, dim int, out []float32) {
	if nq == 0 || nb == 0 || dim == 0 {
		return
	}
	blas32.Gemm(blas.NoTrans, blas.Trans, 1,
		blas32.General{Rows: nq, Cols: dim, Stride: dim, Data: queries[:nq*dim]},
		blas32.General{Rows: nb, Cols: dim, Stride: dim, Data: base[:nb*dim]},
		0,
		blas32.General{Rows: nq, Cols: nb, Stride: nb, Data: out[:nq*nb]},
	)
}

// SquaredNorms writes the squared norm of each of the n row-major vectors in
// data into out.
func SquaredNorms(data []float32, n, dim int, out []float32) {
	for i := 0; i < n; i++ {
		out[i] = SquaredNorm(data[i*dim : (i+1)*dim])
	}
}

// ExpandL2 turns an inner product into a squared L2 distance given both
// squared norms. Negative results from rounding are clamped to zero.
func ExpandL2(qNorm, xNorm, ip float32) float32 {
	d := qNorm + xNorm - 2*ip
	if d < 0 {
		return 0
	}
	return d
}
