package regularization

import (
	"fmt"

	"github.com/notargets/goinv/utils"
)

// Term is the evaluation contract shared by every penalty and by Combo. The
// Hessian is the Gauss-Newton approximation; Hessian(m).MulVec(v) and
// HessianMulVec(m, v) agree for every v, with the latter never materializing
// the full matrix.
type Term interface {
	NP() int
	Value(m utils.Vector) float64
	Gradient(m utils.Vector) utils.Vector
	Hessian(m utils.Vector) utils.CSR
	HessianMulVec(m, v utils.Vector) utils.Vector
}

// TermConfig carries the shared construction inputs of the penalty terms.
// Every field is optional subject to the sizing rule: the parameter count
// comes from Mapping if present, else from NP if nonzero, else from the
// active cell count of Mesh.
type TermConfig struct {
	Mesh         Mesh
	ActiveSet    []bool
	NP           int
	Mapping      Mapping
	MRef         utils.RefVector
	CellWeights  utils.Vector // empty means unit weights
	MRefInSmooth bool
}

// BaseTerm is a weighted l2 penalty 0.5*||W*mapping(m - mref)||^2. The
// concrete penalties differ only in how W is assembled.
type BaseTerm struct {
	RegMesh *RegMesh
	Mapping Mapping
	MRef    utils.RefVector
	W       utils.CSR

	nP int
}

func newBase(cfg TermConfig) (b *BaseTerm, err error) {
	b = &BaseTerm{
		Mapping: cfg.Mapping,
		MRef:    cfg.MRef,
	}
	if cfg.Mesh != nil {
		if b.RegMesh, err = NewRegMesh(cfg.Mesh, cfg.ActiveSet); err != nil {
			return
		}
	} else if cfg.ActiveSet != nil {
		err = fmt.Errorf("%w: active set supplied without a mesh", ErrConfiguration)
		return
	}
	if cfg.ActiveSet != nil && b.Mapping == nil {
		b.Mapping = NewIdentityMap(b.RegMesh.NC())
	}
	switch {
	case b.Mapping != nil:
		if cfg.NP != 0 && cfg.NP != b.Mapping.NP() {
			fmt.Printf("warning: overwriting nP = %d with mapping nP = %d\n",
				cfg.NP, b.Mapping.NP())
		}
		b.nP = b.Mapping.NP()
	case cfg.NP != 0:
		b.nP = cfg.NP
	case b.RegMesh != nil:
		b.nP = b.RegMesh.NC()
	default:
		err = fmt.Errorf("%w: no mesh, mapping or nP to size the term", ErrConfiguration)
		return
	}
	if b.Mapping == nil {
		b.Mapping = NewIdentityMap(b.nP)
	}
	if cfg.CellWeights.V != nil && b.RegMesh != nil &&
		cfg.CellWeights.Len() != b.RegMesh.NC() {
		err = fmt.Errorf("%w: %d cell weights for %d active cells",
			ErrConfiguration, cfg.CellWeights.Len(), b.RegMesh.NC())
		return
	}
	b.W = utils.SpEye(b.nP)
	return
}

func (b *BaseTerm) NP() int { return b.nP }

func (b *BaseTerm) residual(m utils.Vector) utils.Vector {
	return b.W.MulVec(b.Mapping.Apply(utils.SubtractRef(m, b.MRef)))
}

func (b *BaseTerm) Value(m utils.Vector) float64 {
	r := b.residual(m)
	return 0.5 * r.Dot(r)
}

func (b *BaseTerm) Gradient(m utils.Vector) utils.Vector {
	d := utils.SubtractRef(m, b.MRef)
	r := b.W.MulVec(b.Mapping.Apply(d))
	return b.Mapping.Deriv(d).TMulVec(b.W.TMulVec(r))
}

func (b *BaseTerm) Hessian(m utils.Vector) utils.CSR {
	mD := b.Mapping.Deriv(utils.SubtractRef(m, b.MRef))
	WmD := b.W.Mul(mD)
	return WmD.Transpose().Mul(WmD)
}

func (b *BaseTerm) HessianMulVec(m, v utils.Vector) utils.Vector {
	mD := b.Mapping.Deriv(utils.SubtractRef(m, b.MRef))
	return mD.TMulVec(b.W.TMulVec(b.W.MulVec(mD.MulVec(v))))
}
