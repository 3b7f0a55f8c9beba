package regularization

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/goinv/mesh"
	"github.com/notargets/goinv/utils"
)

func TestIRLSWeights(t *testing.T) {
	// p=2 is plain least squares: unit weights for any residual
	{
		f := utils.NewVector(3, []float64{0, 0.5, -2})
		r := irlsWeights(f, 0.1, 2)
		for i := 0; i < 3; i++ {
			assert.True(t, near(r.AtVec(i), 1))
		}
	}
	// p=0 approaches minimum support: eta = sqrt(eps), r = eta/sqrt(f^2+eps^2)
	{
		f := utils.NewVector(2, []float64{0, 1})
		r := irlsWeights(f, 0.1, 0)
		assert.True(t, near(r.AtVec(0), math.Sqrt(0.1)/0.1))
		assert.True(t, near(r.AtVec(1), math.Sqrt(0.1)/math.Sqrt(1+0.01)))
	}
	// Larger residuals get smaller weights for p < 2
	{
		f := utils.NewVector(3, []float64{0.1, 1, 10})
		r := irlsWeights(f, 0.1, 1)
		assert.True(t, r.AtVec(0) > r.AtVec(1))
		assert.True(t, r.AtVec(1) > r.AtVec(2))
	}
}

func TestSparseSmallnessFirstIteration(t *testing.T) {
	var (
		tm  = mesh.NewUniformMesh(1, 5)
		cfg = TermConfig{Mesh: tm}
		sc  = DefaultSparseConfig()
		rnd = rand.New(rand.NewSource(21))
	)
	// Before any model is set the reweighting is the identity and the term
	// matches the plain l2 smallness
	sp, err := NewSparseSmallness(cfg, sc)
	assert.NoError(t, err)
	_, hasModel := sp.Model()
	assert.False(t, hasModel)

	l2, err := NewTerm(Smallness, mesh.X, cfg)
	assert.NoError(t, err)
	m := randomVector(5, rnd)
	assert.True(t, near(sp.Value(m), l2.Value(m)))
	fdGradient(t, sp, m)
	hessianAgreement(t, sp, m, rnd)
}

func TestSparseSmallnessReweight(t *testing.T) {
	var (
		tm  = mesh.NewUniformMesh(1, 5)
		cfg = TermConfig{Mesh: tm}
		sc  = DefaultSparseConfig()
		rnd = rand.New(rand.NewSource(22))
	)
	sp, err := NewSparseSmallness(cfg, sc)
	assert.NoError(t, err)

	model := utils.NewVector(5, []float64{0, 0.1, 1, -1, 5})
	sp.SetModel(model)
	stored, hasModel := sp.Model()
	assert.True(t, hasModel)
	assert.Equal(t, model.DataP(), stored.DataP())

	// W = diag(sqrt(gamma*w)) * diag(R(f_m)): with unit weights the diagonal
	// is exactly the reweighting function of the current model
	want := irlsWeights(model, sc.EpsP, sc.Norms[0])
	for i := 0; i < 5; i++ {
		assert.True(t, near(sp.W.At(i, i), want.AtVec(i)))
	}
	// Small entries of the current model are penalized harder than large ones
	assert.True(t, sp.W.At(0, 0) > sp.W.At(2, 2))
	assert.True(t, sp.W.At(2, 2) > sp.W.At(4, 4))

	// The derivatives remain consistent after reweighting
	m := randomVector(5, rnd)
	fdGradient(t, sp, m)
	hessianAgreement(t, sp, m, rnd)

	// With p=2 the reweighting collapses back to identity for any model
	sc2 := sc
	sc2.Norms[0] = 2
	sp2, err := NewSparseSmallness(cfg, sc2)
	assert.NoError(t, err)
	before := sp2.Value(m)
	sp2.SetModel(model)
	assert.True(t, near(sp2.Value(m), before))
}

func TestSparseDeriv(t *testing.T) {
	var (
		tm  = mesh.NewUniformMesh(1, 6)
		cfg = TermConfig{Mesh: tm}
		sc  = DefaultSparseConfig()
		rnd = rand.New(rand.NewSource(23))
	)
	// First iteration matches the scale-free smoothness
	sp, err := NewSparseDeriv(cfg, mesh.X, sc)
	assert.NoError(t, err)
	l2, err := NewTerm(SmoothStencil, mesh.X, cfg)
	assert.NoError(t, err)
	m := randomVector(6, rnd)
	assert.True(t, near(sp.Value(m), l2.Value(m)))

	// Reweighting flattens gradients where the current model jumps
	model := utils.NewVector(6, []float64{0, 0, 0, 5, 5, 5})
	sc0 := sc
	sc0.Norms[1] = 0
	sp0, err := NewSparseDeriv(cfg, mesh.X, sc0)
	assert.NoError(t, err)
	sp0.SetModel(model)
	// The jump face (between cells 2 and 3) is down-weighted, the flat
	// faces are up-weighted toward minimum support
	jump := math.Abs(sp0.W.At(3, 2))
	flat := math.Abs(sp0.W.At(1, 0))
	assert.True(t, jump < 1)
	assert.True(t, flat > 1)
	assert.True(t, near(jump, math.Sqrt(sc.EpsQ)/math.Sqrt(25+sc.EpsQ*sc.EpsQ)))
	fdGradient(t, sp0, m)
	hessianAgreement(t, sp0, m, rnd)

	// Dimensionality guard
	_, err = NewSparseDeriv(cfg, mesh.Y, sc)
	assert.ErrorIs(t, err, ErrDimensionality)
	// An orientation outside x, y, z is rejected before it can index Norms
	_, err = NewSparseDeriv(cfg, mesh.Axis(5), sc)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestSparseDerivIsolatedActiveCell(t *testing.T) {
	// No mutually active pair: construction succeeds with an empty stencil
	// and the term evaluates to zero, before and after reweighting
	tm := mesh.NewUniformMesh(1, 3)
	cfg := TermConfig{Mesh: tm, ActiveSet: []bool{false, true, false}}
	sp, err := NewSparseDeriv(cfg, mesh.X, DefaultSparseConfig())
	assert.NoError(t, err)
	m := utils.NewVector(1, []float64{3})
	assert.Equal(t, 0., sp.Value(m))
	assert.Equal(t, 0., sp.Gradient(m).AtVec(0))
	sp.SetModel(m)
	assert.Equal(t, 0., sp.Value(m))
	assert.Equal(t, 0., sp.HessianMulVec(m, m).AtVec(0))
}

func TestSparseFamily(t *testing.T) {
	rnd := rand.New(rand.NewSource(24))
	// 2D: sparse smallness + sparse x and y derivatives
	tm := mesh.NewUniformMesh(2, 3)
	sc := DefaultSparseConfig()
	s, err := NewSparse(TermConfig{Mesh: tm}, sc, SimpleAlphas())
	assert.NoError(t, err)
	assert.Equal(t, 3, len(s.Terms))
	assert.Equal(t, 9, s.NP())

	m := randomVector(9, rnd)
	fdGradient(t, s, m)
	hessianAgreement(t, s, m, rnd)

	// Reweight at the current model, then evaluate with frozen weights
	s.SetModel(m)
	valReweighted := s.Value(m)
	assert.False(t, math.IsNaN(valReweighted))
	fdGradient(t, s, m)
	hessianAgreement(t, s, m, rnd)

	// A combo value is still the weighted sum of its member terms
	var sum float64
	for _, sm := range s.Terms {
		sum += sm.Multiplier * sm.Term.Value(m)
	}
	assert.True(t, near(valReweighted, sum))
}

func TestSparseValidation(t *testing.T) {
	tm := mesh.NewUniformMesh(1, 4)
	cfg := TermConfig{Mesh: tm}
	// Norm exponent outside [0,2]
	sc := DefaultSparseConfig()
	sc.Norms[0] = 3
	_, err := NewSparseSmallness(cfg, sc)
	assert.ErrorIs(t, err, ErrConfiguration)
	// eps must be positive: a zero threshold divides by zero at any zero
	// residual of the current model
	sc = DefaultSparseConfig()
	sc.EpsP = 0
	_, err = NewSparseSmallness(cfg, sc)
	assert.ErrorIs(t, err, ErrConfiguration)
	sc = DefaultSparseConfig()
	sc.EpsQ = -0.1
	_, err = NewSparseDeriv(cfg, mesh.X, sc)
	assert.ErrorIs(t, err, ErrConfiguration)
}
