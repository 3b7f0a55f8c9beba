package mesh

import (
	"fmt"

	"github.com/notargets/goinv/utils"
)

type Axis uint8

const (
	X Axis = iota
	Y
	Z
)

func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	}
	return fmt.Sprintf("axis(%d)", uint8(a))
}

/*
TensorMesh is a 1D, 2D or 3D tensor product mesh of cells with widths Hx, Hy,
Hz along each axis. Cells and faces are numbered with x fastest, so a 3D cell
index is i + nx*(j + ny*k).

The native operators below are composed as tensor products of the 1D factors:
the axis factor carries the differencing or averaging, the other axes carry
identities.
*/
type TensorMesh struct {
	H    [3][]float64 // cell widths per axis, unused axes nil
	N    [3]int       // cell counts per axis, unused axes 1
	DimN int
}

func NewTensorMesh(hx []float64, hO ...[]float64) (tm *TensorMesh) {
	var (
		hy, hz []float64
	)
	if len(hx) == 0 {
		panic("tensor mesh requires at least one x cell")
	}
	if len(hO) > 0 {
		hy = hO[0]
	}
	if len(hO) > 1 {
		hz = hO[1]
	}
	if len(hz) != 0 && len(hy) == 0 {
		panic("tensor mesh z widths supplied without y widths")
	}
	tm = &TensorMesh{
		H:    [3][]float64{hx, hy, hz},
		N:    [3]int{len(hx), 1, 1},
		DimN: 1,
	}
	if len(hy) != 0 {
		tm.N[1] = len(hy)
		tm.DimN = 2
	}
	if len(hz) != 0 {
		tm.N[2] = len(hz)
		tm.DimN = 3
	}
	return
}

// NewUniformMesh composes a TensorMesh with n unit-width cells per axis for
// dim dimensions.
func NewUniformMesh(dim, n int) *TensorMesh {
	var (
		h = make([]float64, n)
	)
	for i := range h {
		h[i] = 1
	}
	switch dim {
	case 1:
		return NewTensorMesh(h)
	case 2:
		return NewTensorMesh(h, h)
	case 3:
		return NewTensorMesh(h, h, h)
	}
	panic(fmt.Errorf("unsupported mesh dimension: %d", dim))
}

func (tm *TensorMesh) Dim() int { return tm.DimN }

func (tm *TensorMesh) NC() int { return tm.N[0] * tm.N[1] * tm.N[2] }

// NF returns the count of faces normal to axis.
func (tm *TensorMesh) NF(axis Axis) (nf int) {
	tm.checkAxis(axis)
	nf = 1
	for ax := 0; ax < 3; ax++ {
		if ax == int(axis) {
			nf *= tm.N[ax] + 1
		} else {
			nf *= tm.N[ax]
		}
	}
	return
}

func (tm *TensorMesh) checkAxis(axis Axis) {
	if int(axis) >= tm.DimN {
		panic(fmt.Errorf("axis %s exceeds mesh dimension %d", axis, tm.DimN))
	}
}

// Vol returns the cell volume vector.
func (tm *TensorMesh) Vol() (V utils.Vector) {
	V = utils.NewVector(tm.NC())
	data := V.DataP()
	var ind int
	for k := 0; k < tm.N[2]; k++ {
		for j := 0; j < tm.N[1]; j++ {
			for i := 0; i < tm.N[0]; i++ {
				vol := tm.H[0][i]
				if tm.DimN > 1 {
					vol *= tm.H[1][j]
				}
				if tm.DimN > 2 {
					vol *= tm.H[2][k]
				}
				data[ind] = vol
				ind++
			}
		}
	}
	return
}

// compose builds the 3D operator with op1d in the axis slot and identities in
// the others, kron'ed z outermost to match the x-fastest numbering.
func (tm *TensorMesh) compose(axis Axis, op1d utils.CSR) (R utils.CSR) {
	R = op1d
	for ax := int(axis) - 1; ax >= 0; ax-- {
		R = utils.SpKron(R, utils.SpEye(tm.N[ax]))
	}
	for ax := int(axis) + 1; ax < tm.DimN; ax++ {
		R = utils.SpKron(utils.SpEye(tm.N[ax]), R)
	}
	return
}

// AvgF2CC is the native averaging operator from faces normal to axis onto
// cell centers, 0.5 on each of a cell's two bounding faces.
func (tm *TensorMesh) AvgF2CC(axis Axis) (R utils.CSR) {
	tm.checkAxis(axis)
	var (
		n = tm.N[axis]
		d = utils.NewDOK(n, n+1)
	)
	for c := 0; c < n; c++ {
		d.Set(c, c, 0.5)
		d.Set(c, c+1, 0.5)
	}
	return tm.compose(axis, d.ToCSR())
}

// CellGradStencil is the pure connectivity first difference from cells onto
// faces normal to axis, with zero rows at the boundary faces.
func (tm *TensorMesh) CellGradStencil(axis Axis) (R utils.CSR) {
	tm.checkAxis(axis)
	var (
		n = tm.N[axis]
		d = utils.NewDOK(n+1, n)
	)
	for f := 1; f < n; f++ {
		d.Set(f, f-1, -1)
		d.Set(f, f, 1)
	}
	return tm.compose(axis, d.ToCSR())
}

// CellGrad is the first difference from cells onto faces normal to axis,
// scaled by the center-to-center spacing across each interior face.
func (tm *TensorMesh) CellGrad(axis Axis) (R utils.CSR) {
	tm.checkAxis(axis)
	var (
		h = tm.H[axis]
		n = tm.N[axis]
		d = utils.NewDOK(n+1, n)
	)
	for f := 1; f < n; f++ {
		dx := 0.5 * (h[f-1] + h[f])
		d.Set(f, f-1, -1/dx)
		d.Set(f, f, 1/dx)
	}
	return tm.compose(axis, d.ToCSR())
}

// FaceDiv is the divergence-like difference from faces normal to axis onto
// cells, scaled by the cell width along the axis.
func (tm *TensorMesh) FaceDiv(axis Axis) (R utils.CSR) {
	tm.checkAxis(axis)
	var (
		h = tm.H[axis]
		n = tm.N[axis]
		d = utils.NewDOK(n, n+1)
	)
	for c := 0; c < n; c++ {
		d.Set(c, c, -1/h[c])
		d.Set(c, c+1, 1/h[c])
	}
	return tm.compose(axis, d.ToCSR())
}
