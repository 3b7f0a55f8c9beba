package regularization

import (
	"fmt"
	"sync"

	"github.com/notargets/goinv/mesh"
	"github.com/notargets/goinv/utils"
)

// Mesh is the native mesh consumed by the regularization. These are the raw
// geometry and differential operators of the full modeling domain; RegMesh
// restricts them to the active cells and faces.
type Mesh interface {
	Dim() int
	NC() int
	NF(axis mesh.Axis) int
	Vol() utils.Vector
	AvgF2CC(axis mesh.Axis) utils.CSR
	CellGrad(axis mesh.Axis) utils.CSR
	CellGradStencil(axis mesh.Axis) utils.CSR
	FaceDiv(axis mesh.Axis) utils.CSR
}

/*
RegMesh restricts a Mesh to an active subset of cells. Note that the operators
it exposes are not necessarily true differential operators - they are the
native mesh operators sandwiched between active-cell and active-face
projections, which is what the penalty terms need.

Every operator is assembled once on first access and cached for the life of
the RegMesh; neither the mesh nor the active set is mutated after construction.
*/
type RegMesh struct {
	Mesh      Mesh
	ActiveSet []bool // nil means all cells active

	mu              sync.Mutex
	nC              int
	vol             *utils.Vector
	pac             *utils.CSR
	paf             [3]*utils.CSR
	aveF2CC         [3]*utils.CSR
	aveCC2F         [3]*utils.CSR
	cellDiff        [3]*utils.CSR
	faceDiff        [3]*utils.CSR
	cellDiffStencil [3]*utils.CSR
}

func NewRegMesh(m Mesh, activeSet []bool) (rm *RegMesh, err error) {
	if m == nil {
		err = fmt.Errorf("%w: nil mesh", ErrConfiguration)
		return
	}
	if activeSet != nil && len(activeSet) != m.NC() {
		err = fmt.Errorf("%w: active set has %d entries for %d cells",
			ErrConfiguration, len(activeSet), m.NC())
		return
	}
	rm = &RegMesh{
		Mesh:      m,
		ActiveSet: activeSet,
		nC:        -1,
	}
	return
}

// NC is the count of cells being regularized.
func (rm *RegMesh) NC() (nC int) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.nC < 0 {
		if rm.ActiveSet == nil {
			rm.nC = rm.Mesh.NC()
		} else {
			rm.nC = 0
			for _, active := range rm.ActiveSet {
				if active {
					rm.nC++
				}
			}
		}
	}
	return rm.nC
}

func (rm *RegMesh) Dim() int { return rm.Mesh.Dim() }

// cached returns *slot, assembling it with build on first access. Assembly
// runs outside the lock; operators are immutable once stored, so a racing
// duplicate assembly is discarded harmlessly.
func (rm *RegMesh) cached(slot **utils.CSR, build func() utils.CSR) utils.CSR {
	rm.mu.Lock()
	if *slot != nil {
		defer rm.mu.Unlock()
		return **slot
	}
	rm.mu.Unlock()
	op := build()
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if *slot == nil {
		*slot = &op
	}
	return **slot
}

// Vol is the reduced cell volume vector.
func (rm *RegMesh) Vol() utils.Vector {
	rm.mu.Lock()
	if rm.vol != nil {
		defer rm.mu.Unlock()
		return *rm.vol
	}
	rm.mu.Unlock()
	v := rm.Pac().TMulVec(rm.Mesh.Vol())
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.vol == nil {
		rm.vol = &v
	}
	return *rm.vol
}

// Pac is the projection from the reduced space of active cells to the full
// modeling space: nC_full x nC_active, one unit entry per column.
func (rm *RegMesh) Pac() utils.CSR {
	return rm.cached(&rm.pac, func() utils.CSR {
		if rm.ActiveSet == nil {
			return utils.SpEye(rm.Mesh.NC())
		}
		d := utils.NewDOK(rm.Mesh.NC(), rm.NC())
		var col int
		for row, active := range rm.ActiveSet {
			if active {
				d.Set(row, col, 1)
				col++
			}
		}
		return d.ToCSR()
	})
}

// Paf is the projection from the reduced space of faces active along axis to
// the full modeling space. A face is active when the native averaging weight
// reaching it from active cells sums to exactly one, ie. every cell it
// bounds is active.
func (rm *RegMesh) Paf(axis mesh.Axis) utils.CSR {
	return rm.cached(&rm.paf[axis], func() utils.CSR {
		nF := rm.Mesh.NF(axis)
		if rm.ActiveSet == nil {
			return utils.SpEye(nF)
		}
		ind := utils.NewVector(rm.Mesh.NC())
		for i, active := range rm.ActiveSet {
			if active {
				ind.Set(i, 1)
			}
		}
		w := rm.Mesh.AvgF2CC(axis).TMulVec(ind)
		var nActive int
		for _, val := range w.DataP() {
			if val == 1 {
				nActive++
			}
		}
		d := utils.NewDOK(nF, nActive)
		var col int
		for row, val := range w.DataP() {
			if val == 1 {
				d.Set(row, col, 1)
				col++
			}
		}
		return d.ToCSR()
	})
}

// AveF2CC averages from active faces along axis onto active cell centers.
func (rm *RegMesh) AveF2CC(axis mesh.Axis) utils.CSR {
	return rm.cached(&rm.aveF2CC[axis], func() utils.CSR {
		return rm.Pac().Transpose().Mul(rm.Mesh.AvgF2CC(axis)).Mul(rm.Paf(axis))
	})
}

// AveCC2F averages from active cell centers onto active faces along axis.
// Each row is normalized by its own sum so the operator acts as a weighted
// mean; boundary cells see fewer incident active faces than interior cells.
func (rm *RegMesh) AveCC2F(axis mesh.Axis) utils.CSR {
	return rm.cached(&rm.aveCC2F[axis], func() utils.CSR {
		avT := rm.AveF2CC(axis).Transpose()
		norm := avT.RowSums().Apply(func(s float64) float64 { return 1 / s })
		return utils.SpDiag(norm).Mul(avT)
	})
}

// CellDiff is the first difference from active cells onto active faces along
// axis, including the native cell-length scaling.
func (rm *RegMesh) CellDiff(axis mesh.Axis) utils.CSR {
	return rm.cached(&rm.cellDiff[axis], func() utils.CSR {
		return rm.Paf(axis).Transpose().Mul(rm.Mesh.CellGrad(axis)).Mul(rm.Pac())
	})
}

// FaceDiff is the divergence-like difference from active faces along axis
// onto active cells.
func (rm *RegMesh) FaceDiff(axis mesh.Axis) utils.CSR {
	return rm.cached(&rm.faceDiff[axis], func() utils.CSR {
		return rm.Pac().Transpose().Mul(rm.Mesh.FaceDiv(axis)).Mul(rm.Paf(axis))
	})
}

// CellDiffStencil is CellDiff without the cell-length scaling: the pure
// connectivity stencil between mutually active adjacent cells.
func (rm *RegMesh) CellDiffStencil(axis mesh.Axis) utils.CSR {
	return rm.cached(&rm.cellDiffStencil[axis], func() utils.CSR {
		return rm.Paf(axis).Transpose().Mul(rm.Mesh.CellGradStencil(axis)).Mul(rm.Pac())
	})
}
