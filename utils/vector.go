package utils

import (
	"math"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

type Vector struct {
	V *mat.VecDense
}

// NewVector with n = 0 yields the empty vector: gonum rejects zero-length
// storage, so an empty Vector carries no backing and Len/DataP report empty.
func NewVector(n int, dataO ...[]float64) (R Vector) {
	var (
		data []float64
	)
	if n == 0 {
		return
	}
	if len(dataO) != 0 {
		data = dataO[0]
	}
	R = Vector{
		mat.NewVecDense(n, data),
	}
	return
}

func NewVectorConst(n int, val float64) (R Vector) {
	var (
		data = make([]float64, n)
	)
	for i := range data {
		data[i] = val
	}
	return NewVector(n, data)
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (v Vector) Dims() (r, c int)         { return v.V.Dims() }
func (v Vector) At(i, j int) float64      { return v.V.At(i, j) }
func (v Vector) T() mat.Matrix            { return v.V.T() }
func (v Vector) AtVec(i int) float64      { return v.V.AtVec(i) }
func (v Vector) RawVector() blas64.Vector { return v.V.RawVector() }

func (v Vector) Len() int {
	if v.V == nil {
		return 0
	}
	return v.V.Len()
}

func (v Vector) DataP() []float64 {
	if v.V == nil {
		return nil
	}
	return v.V.RawVector().Data
}

func (v Vector) Copy() Vector {
	var (
		data = make([]float64, v.Len())
	)
	copy(data, v.DataP())
	return NewVector(v.Len(), data)
}

// Chainable (extended) methods
func (v Vector) Set(i int, val float64) Vector { v.V.SetVec(i, val); return v }

func (v Vector) Subtract(a Vector) Vector {
	var (
		data = v.DataP()
	)
	for i, val := range a.DataP() {
		data[i] -= val
	}
	return v
}

func (v Vector) Add(a Vector) Vector {
	var (
		data = v.DataP()
	)
	for i, val := range a.DataP() {
		data[i] += val
	}
	return v
}

func (v Vector) Scale(a float64) Vector {
	var (
		data = v.DataP()
	)
	for i := range data {
		data[i] *= a
	}
	return v
}

func (v Vector) ElMul(a Vector) Vector {
	var (
		data = v.DataP()
	)
	for i, val := range a.DataP() {
		data[i] *= val
	}
	return v
}

func (v Vector) Apply(f func(float64) float64) Vector {
	var (
		data = v.DataP()
	)
	for i, val := range data {
		data[i] = f(val)
	}
	return v
}

func (v Vector) Sqrt() Vector {
	return v.Apply(math.Sqrt)
}

func (v Vector) Dot(a Vector) (d float64) {
	var (
		data = v.DataP()
	)
	for i, val := range a.DataP() {
		d += data[i] * val
	}
	return
}

func (v Vector) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

func (v Vector) Min() (min float64) {
	var (
		data = v.DataP()
	)
	min = data[0]
	for _, val := range data {
		if val < min {
			min = val
		}
	}
	return
}

func (v Vector) Max() (max float64) {
	var (
		data = v.DataP()
	)
	max = data[0]
	for _, val := range data {
		if val > max {
			max = val
		}
	}
	return
}
