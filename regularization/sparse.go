package regularization

import (
	"fmt"
	"math"

	"github.com/notargets/goinv/mesh"
	"github.com/notargets/goinv/utils"
)

// SparseConfig carries the IRLS parameters of the sparse-norm terms.
type SparseConfig struct {
	Norms [4]float64 // exponents p on (m, dm/dx, dm/dy, dm/dz), each in [0,2]
	EpsP  float64    // threshold on the model norm
	EpsQ  float64    // threshold on the model gradient norm
	Gamma float64    // model norm scaling to smooth out convergence
}

func DefaultSparseConfig() SparseConfig {
	return SparseConfig{
		Norms: [4]float64{0, 2, 2, 2},
		EpsP:  1e-1,
		EpsQ:  1e-1,
		Gamma: 1,
	}
}

// irlsWeights is the IRLS reweighting function applied to the current
// residual f. The eta scaling is important for mixed norms - do not mess
// with it.
func irlsWeights(f utils.Vector, eps, p float64) (r utils.Vector) {
	eta := math.Sqrt(math.Pow(eps, 1-p/2))
	r = f.Copy().Apply(func(v float64) float64 {
		return eta / math.Pow(v*v+eps*eps, (1-p/2)/2)
	})
	return
}

/*
SparseTerm approximates a non-quadratic norm on the model or its gradient by
reweighted least squares. While no current model is set the reweighting is
the identity and the term behaves as plain l2; once SetModel stores a model,
W picks up diagonal weights derived from the per-row residuals of that model.
The driver reweights between outer solves - a few fixed-weight Gauss-Newton
iterations before each update keep the convergence stable.
*/
type SparseTerm struct {
	BaseTerm

	Axis        mesh.Axis
	Deriv       bool // smallness when false, first-derivative when true
	Norm        float64
	Eps         float64
	Gamma       float64
	CellWeights utils.Vector

	model *utils.Vector // current model; nil before the first reweight
}

func newSparse(cfg TermConfig, sc SparseConfig, eps, norm float64) (s *SparseTerm, err error) {
	if cfg.Mesh == nil {
		err = fmt.Errorf("%w: sparse term requires a mesh", ErrConfiguration)
		return
	}
	base, err := newBase(cfg)
	if err != nil {
		return
	}
	if norm < 0 || norm > 2 {
		err = fmt.Errorf("%w: norm exponent %g outside [0,2]", ErrConfiguration, norm)
		return
	}
	if eps <= 0 {
		err = fmt.Errorf("%w: eps threshold %g is not positive", ErrConfiguration, eps)
		return
	}
	s = &SparseTerm{
		BaseTerm: *base,
		Norm:     norm,
		Eps:      eps,
		Gamma:    sc.Gamma,
	}
	if cfg.CellWeights.V != nil {
		s.CellWeights = cfg.CellWeights.Copy()
	} else {
		s.CellWeights = utils.NewVectorConst(s.RegMesh.NC(), 1)
	}
	return
}

// NewSparseSmallness builds the sparse-norm penalty on the model misfit,
// using Norms[0] and EpsP.
func NewSparseSmallness(cfg TermConfig, sc SparseConfig) (s *SparseTerm, err error) {
	if s, err = newSparse(cfg, sc, sc.EpsP, sc.Norms[0]); err != nil {
		return
	}
	s.reweight()
	return
}

// NewSparseDeriv builds the sparse-norm penalty on the first derivative
// along axis, using the axis entry of Norms and EpsQ. The reference model is
// dropped unless MRefInSmooth is set.
func NewSparseDeriv(cfg TermConfig, axis mesh.Axis, sc SparseConfig) (s *SparseTerm, err error) {
	if cfg.Mesh == nil {
		err = fmt.Errorf("%w: sparse term requires a mesh", ErrConfiguration)
		return
	}
	// validate the axis before it indexes Norms
	if err = checkAxis(cfg.Mesh.Dim(), axis); err != nil {
		return
	}
	if s, err = newSparse(cfg, sc, sc.EpsQ, sc.Norms[1+axis]); err != nil {
		return
	}
	s.Axis = axis
	s.Deriv = true
	if !cfg.MRefInSmooth {
		s.MRef = utils.ZeroRef()
	}
	s.reweight()
	return
}

// SetModel stores the current model and rebuilds W from its residuals. The
// weights then stay frozen until the next SetModel.
func (s *SparseTerm) SetModel(m utils.Vector) {
	model := m.Copy()
	s.model = &model
	s.reweight()
}

// Model returns the stored current model, or false before any reweight.
func (s *SparseTerm) Model() (utils.Vector, bool) {
	if s.model == nil {
		return utils.Vector{}, false
	}
	return *s.model, true
}

func (s *SparseTerm) reweight() {
	if s.Deriv {
		s.reweightDeriv()
	} else {
		s.reweightSmallness()
	}
}

func (s *SparseTerm) reweightSmallness() {
	var R utils.CSR
	if s.model == nil {
		R = utils.SpEye(s.RegMesh.NC())
	} else {
		fM := s.Mapping.Apply(utils.SubtractRef(*s.model, s.MRef))
		R = utils.SpDiag(irlsWeights(fM, s.Eps, s.Norm))
	}
	w := s.CellWeights.Copy().Scale(s.Gamma).Sqrt()
	s.W = utils.SpDiag(w).Mul(R)
}

func (s *SparseTerm) reweightDeriv() {
	stencil := s.RegMesh.CellDiffStencil(s.Axis)
	nF, _ := stencil.Dims()
	var R utils.CSR
	if s.model == nil {
		R = utils.SpEye(nF)
	} else {
		fM := stencil.MulVec(s.Mapping.Apply(*s.model))
		R = utils.SpDiag(irlsWeights(fM, s.Eps, s.Norm))
	}
	aveW := s.RegMesh.AveCC2F(s.Axis).MulVec(s.CellWeights).Scale(s.Gamma).Sqrt()
	s.W = utils.SpDiag(aveW).Mul(R).Mul(stencil)
}

// Sparse is the IRLS composite: sparse smallness plus a sparse derivative
// term per axis the mesh supports.
type Sparse struct {
	*Combo

	sparseTerms []*SparseTerm
}

func NewSparse(cfg TermConfig, sc SparseConfig, a Alphas) (s *Sparse, err error) {
	if cfg.Mesh == nil {
		err = fmt.Errorf("%w: sparse regularization requires a mesh", ErrConfiguration)
		return
	}
	s = &Sparse{}
	small, err := NewSparseSmallness(cfg, sc)
	if err != nil {
		return nil, err
	}
	terms := []Scaled{{a.S, small}}
	s.sparseTerms = append(s.sparseTerms, small)
	for axis := mesh.X; int(axis) < cfg.Mesh.Dim(); axis++ {
		var t *SparseTerm
		if t, err = NewSparseDeriv(cfg, axis, sc); err != nil {
			return nil, err
		}
		terms = append(terms, Scaled{a.first(axis), t})
		s.sparseTerms = append(s.sparseTerms, t)
	}
	if s.Combo, err = NewCombo(terms...); err != nil {
		return nil, err
	}
	return
}

// SetModel stores the current model on every member term and rebuilds their
// weighting operators before the next evaluation.
func (s *Sparse) SetModel(m utils.Vector) {
	for _, t := range s.sparseTerms {
		t.SetModel(m)
	}
}
