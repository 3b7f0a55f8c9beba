package regularization

import (
	"fmt"

	"github.com/notargets/goinv/mesh"
	"github.com/notargets/goinv/utils"
)

// Kind selects which weighting operator a penalty term assembles. One
// parameterized constructor replaces a per-axis type for every combination.
type Kind uint8

const (
	// Smallness penalizes deviation of the model from the reference model,
	// optionally scaled by cell weights.
	Smallness Kind = iota
	// SmoothStencil penalizes the first spatial derivative along an axis
	// without considering length scales.
	SmoothStencil
	// Smooth penalizes the first spatial derivative along an axis, scaled
	// by the face-averaged cell volumes.
	Smooth
	// Smooth2 penalizes the second spatial derivative along an axis.
	Smooth2
)

func (k Kind) String() string {
	switch k {
	case Smallness:
		return "smallness"
	case SmoothStencil:
		return "smooth-stencil"
	case Smooth:
		return "smooth"
	case Smooth2:
		return "smooth2"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func checkAxis(dim int, axis mesh.Axis) (err error) {
	if axis > mesh.Z {
		return fmt.Errorf("%w: orientation %s is not one of x, y, z",
			ErrConfiguration, axis)
	}
	if int(axis) >= dim {
		return fmt.Errorf("%w: %s term on a %dD mesh",
			ErrDimensionality, axis, dim)
	}
	return
}

// NewTerm builds a penalty of the given kind. axis is ignored for Smallness;
// the smoothness kinds require a mesh and an axis within its dimension.
//
// The smoothness reference-model policy follows the configuration: unless
// MRefInSmooth is set, first-derivative terms drop the reference model and
// penalize the derivative of m alone.
func NewTerm(kind Kind, axis mesh.Axis, cfg TermConfig) (t *BaseTerm, err error) {
	if t, err = newBase(cfg); err != nil {
		return
	}
	if kind != Smallness {
		if cfg.Mesh == nil {
			err = fmt.Errorf("%w: %s term requires a mesh", ErrConfiguration, kind)
			return
		}
		if err = checkAxis(t.RegMesh.Dim(), axis); err != nil {
			return
		}
	}
	switch kind {
	case Smallness:
		if cfg.CellWeights.V != nil {
			t.W = utils.SpDiag(cfg.CellWeights.Copy().Sqrt())
		}
	case SmoothStencil:
		t.W = t.RegMesh.CellDiffStencil(axis)
		if !cfg.MRefInSmooth {
			t.MRef = utils.ZeroRef()
		}
	case Smooth:
		w := t.RegMesh.Vol().Copy()
		if cfg.CellWeights.V != nil {
			w.ElMul(cfg.CellWeights)
		}
		aveW := t.RegMesh.AveCC2F(axis).MulVec(w)
		t.W = utils.SpDiag(aveW.Sqrt()).Mul(t.RegMesh.CellDiff(axis))
		if !cfg.MRefInSmooth {
			t.MRef = utils.ZeroRef()
		}
	case Smooth2:
		w := t.RegMesh.Vol().Copy()
		if cfg.CellWeights.V != nil {
			w.ElMul(cfg.CellWeights)
		}
		t.W = utils.SpDiag(w.Sqrt()).
			Mul(t.RegMesh.FaceDiff(axis)).
			Mul(t.RegMesh.CellDiff(axis))
	default:
		err = fmt.Errorf("%w: unknown term kind %s", ErrConfiguration, kind)
	}
	return
}
