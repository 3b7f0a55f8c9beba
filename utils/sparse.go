package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

type DOK struct {
	M *sparse.DOK
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{
		sparse.NewDOK(nr, nc),
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)     { return m.M.Dims() }
func (m DOK) At(i, j int) float64  { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix        { return m.M.T() }
func (m DOK) Set(i, j int, val float64) DOK {
	m.M.Set(i, j, val)
	return m
}

func (m DOK) ToCSR() CSR {
	return CSR{
		m.M.ToCSR(),
	}
}

type CSR struct {
	M *sparse.CSR
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)    { return m.M.Dims() }
func (m CSR) At(i, j int) float64 { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix       { return m.M.T() }
func (m CSR) NNZ() int            { return m.M.NNZ() }

func (m CSR) DoNonZero(fn func(i, j int, v float64)) {
	m.M.DoNonZero(fn)
}

// SpEye composes an nxn sparse identity matrix.
func SpEye(n int) (R CSR) {
	var (
		d = NewDOK(n, n)
	)
	for i := 0; i < n; i++ {
		d.Set(i, i, 1)
	}
	return d.ToCSR()
}

// SpDiag composes a square sparse matrix with v on the diagonal.
func SpDiag(v Vector) (R CSR) {
	var (
		n = v.Len()
		d = NewDOK(n, n)
	)
	for i, val := range v.DataP() {
		d.Set(i, i, val)
	}
	return d.ToCSR()
}

// SpKron composes the sparse tensor (Kronecker) product of a and b.
func SpKron(a, b CSR) (R CSR) {
	var (
		aNr, aNc = a.Dims()
		bNr, bNc = b.Dims()
		d        = NewDOK(aNr*bNr, aNc*bNc)
	)
	a.DoNonZero(func(ia, ja int, va float64) {
		b.DoNonZero(func(ib, jb int, vb float64) {
			d.Set(ia*bNr+ib, ja*bNc+jb, va*vb)
		})
	})
	return d.ToCSR()
}

// Mul forms the sparse matrix product m*a.
func (m CSR) Mul(a CSR) (R CSR) {
	var (
		mNr, mNc = m.Dims()
		aNr, aNc = a.Dims()
	)
	if mNc != aNr {
		panic(fmt.Errorf("dimension mismatch in sparse multiply: [%d,%d] x [%d,%d]", mNr, mNc, aNr, aNc))
	}
	// Gather the rows of a once, then expand each nonzero of m along them
	type entry struct {
		j int
		v float64
	}
	rows := make([][]entry, aNr)
	a.DoNonZero(func(i, j int, v float64) {
		rows[i] = append(rows[i], entry{j, v})
	})
	d := NewDOK(mNr, aNc)
	m.DoNonZero(func(i, k int, v float64) {
		for _, e := range rows[k] {
			d.M.Set(i, e.j, d.M.At(i, e.j)+v*e.v)
		}
	})
	return d.ToCSR()
}

// MulVec forms the matrix-vector product m*v.
func (m CSR) MulVec(v Vector) (R Vector) {
	var (
		nr, nc = m.Dims()
	)
	if v.Len() != nc {
		panic(fmt.Errorf("dimension mismatch in sparse multiply: [%d,%d] x [%d]", nr, nc, v.Len()))
	}
	R = NewVector(nr)
	data := R.DataP()
	x := v.DataP()
	m.DoNonZero(func(i, j int, val float64) {
		data[i] += val * x[j]
	})
	return
}

// TMulVec forms the transposed matrix-vector product transpose(m)*v.
func (m CSR) TMulVec(v Vector) (R Vector) {
	var (
		nr, nc = m.Dims()
	)
	if v.Len() != nr {
		panic(fmt.Errorf("dimension mismatch in sparse multiply: [%d,%d]T x [%d]", nr, nc, v.Len()))
	}
	R = NewVector(nc)
	data := R.DataP()
	x := v.DataP()
	m.DoNonZero(func(i, j int, val float64) {
		data[j] += val * x[i]
	})
	return
}

// Transpose materializes transpose(m) as a new CSR.
func (m CSR) Transpose() (R CSR) {
	var (
		nr, nc = m.Dims()
		d      = NewDOK(nc, nr)
	)
	m.DoNonZero(func(i, j int, val float64) {
		d.Set(j, i, val)
	})
	return d.ToCSR()
}

// Scale returns a copy of m with every stored value multiplied by a.
func (m CSR) Scale(a float64) (R CSR) {
	var (
		nr, nc = m.Dims()
		d      = NewDOK(nr, nc)
	)
	m.DoNonZero(func(i, j int, val float64) {
		d.Set(i, j, a*val)
	})
	return d.ToCSR()
}

// Add returns the sparse sum m+a.
func (m CSR) Add(a CSR) (R CSR) {
	var (
		mNr, mNc = m.Dims()
		aNr, aNc = a.Dims()
	)
	if mNr != aNr || mNc != aNc {
		panic(fmt.Errorf("dimension mismatch in sparse add: [%d,%d] + [%d,%d]", mNr, mNc, aNr, aNc))
	}
	d := NewDOK(mNr, mNc)
	m.DoNonZero(func(i, j int, val float64) {
		d.Set(i, j, val)
	})
	a.DoNonZero(func(i, j int, val float64) {
		d.M.Set(i, j, d.M.At(i, j)+val)
	})
	return d.ToCSR()
}

// RowSums returns the vector of per-row sums of m.
func (m CSR) RowSums() (R Vector) {
	var (
		nr, _ = m.Dims()
	)
	R = NewVector(nr)
	data := R.DataP()
	m.DoNonZero(func(i, j int, val float64) {
		data[i] += val
	})
	return
}
