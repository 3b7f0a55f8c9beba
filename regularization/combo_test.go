package regularization

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/goinv/mesh"
	"github.com/notargets/goinv/utils"
)

func TestComboWeightedSum(t *testing.T) {
	var (
		tm  = mesh.NewUniformMesh(1, 5)
		rnd = rand.New(rand.NewSource(11))
		cfg = TermConfig{Mesh: tm}
	)
	small, err := NewTerm(Smallness, mesh.X, cfg)
	assert.NoError(t, err)
	smooth, err := NewTerm(SmoothStencil, mesh.X, cfg)
	assert.NoError(t, err)

	c, err := NewCombo(Scaled{2, small}, Scaled{3, smooth})
	assert.NoError(t, err)
	assert.Equal(t, 5, c.NP())

	m := randomVector(5, rnd)
	assert.True(t, near(c.Value(m), 2*small.Value(m)+3*smooth.Value(m)))

	want := small.Gradient(m).Scale(2).Add(smooth.Gradient(m).Scale(3))
	got := c.Gradient(m)
	for i := 0; i < 5; i++ {
		assert.True(t, near(got.AtVec(i), want.AtVec(i)))
	}
	fdGradient(t, c, m)
	hessianAgreement(t, c, m, rnd)
}

func TestComboFlattening(t *testing.T) {
	var (
		tm  = mesh.NewUniformMesh(1, 4)
		cfg = TermConfig{Mesh: tm}
	)
	small, _ := NewTerm(Smallness, mesh.X, cfg)
	smooth, _ := NewTerm(SmoothStencil, mesh.X, cfg)

	inner, err := NewCombo(Scaled{2, small}, Scaled{3, smooth})
	assert.NoError(t, err)
	outer, err := NewCombo(Scaled{5, inner}, Scaled{1, small})
	assert.NoError(t, err)

	// Absorbed, not nested: three leaf terms with composed multipliers
	assert.Equal(t, 3, len(outer.Terms))
	assert.Equal(t, 10., outer.Terms[0].Multiplier)
	assert.Equal(t, 15., outer.Terms[1].Multiplier)
	assert.Equal(t, 1., outer.Terms[2].Multiplier)
	for _, s := range outer.Terms {
		_, isCombo := s.Term.(*Combo)
		assert.False(t, isCombo)
	}

	// With preserves the flattened list
	extended, err := outer.With(4, smooth)
	assert.NoError(t, err)
	assert.Equal(t, 4, len(extended.Terms))

	m := utils.NewVector(4, []float64{1, 2, 4, 7})
	assert.True(t, near(outer.Value(m), 5*inner.Value(m)+small.Value(m)))
}

func TestComboValidation(t *testing.T) {
	tm := mesh.NewUniformMesh(1, 4)
	small, _ := NewTerm(Smallness, mesh.X, TermConfig{Mesh: tm})
	// Negative multipliers rejected
	_, err := NewCombo(Scaled{-1, small})
	assert.ErrorIs(t, err, ErrConfiguration)
	// Mismatched parameter counts rejected
	other, _ := NewTerm(Smallness, mesh.X, TermConfig{NP: 3})
	_, err = NewCombo(Scaled{1, small}, Scaled{1, other})
	assert.ErrorIs(t, err, ErrConfiguration)
	// Empty combo rejected
	_, err = NewCombo()
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestComboZeroMultiplier(t *testing.T) {
	var (
		tm  = mesh.NewUniformMesh(1, 4)
		cfg = TermConfig{Mesh: tm}
		m   = utils.NewVector(4, []float64{1, 2, 4, 7})
	)
	small, _ := NewTerm(Smallness, mesh.X, cfg)
	smooth, _ := NewTerm(SmoothStencil, mesh.X, cfg)
	c, err := NewCombo(Scaled{2, small}, Scaled{0, smooth})
	assert.NoError(t, err)
	// The disabled term stays in the list but contributes nothing
	assert.Equal(t, 2, len(c.Terms))
	assert.True(t, near(c.Value(m), 2*small.Value(m)))
}

func TestSimpleFamily(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	// 1D: smallness + x smoothness
	{
		tm := mesh.NewUniformMesh(1, 5)
		c, err := NewSimple(TermConfig{Mesh: tm}, SimpleAlphas())
		assert.NoError(t, err)
		assert.Equal(t, 2, len(c.Terms))
		m := randomVector(5, rnd)
		fdGradient(t, c, m)
		hessianAgreement(t, c, m, rnd)
	}
	// 3D: smallness + x, y, z smoothness
	{
		tm := mesh.NewUniformMesh(3, 2)
		c, err := NewSimple(TermConfig{Mesh: tm}, SimpleAlphas())
		assert.NoError(t, err)
		assert.Equal(t, 4, len(c.Terms))
		m := randomVector(8, rnd)
		fdGradient(t, c, m)
	}
}

func TestTikhonovFamily(t *testing.T) {
	rnd := rand.New(rand.NewSource(9))
	// 2D: smallness + (smooth1, smooth2) per axis
	tm := mesh.NewUniformMesh(2, 3)
	a := TikhonovAlphas()
	c, err := NewTikhonov(TermConfig{Mesh: tm}, a)
	assert.NoError(t, err)
	assert.Equal(t, 5, len(c.Terms))
	// Second derivative terms start disabled
	assert.Equal(t, 0., c.Terms[2].Multiplier)
	assert.Equal(t, 0., c.Terms[4].Multiplier)
	assert.Equal(t, 1e-6, c.Terms[0].Multiplier)

	m := randomVector(9, rnd)
	fdGradient(t, c, m)
	hessianAgreement(t, c, m, rnd)

	// Enabling the second derivative changes the objective
	a.XX, a.YY = 2, 2
	c2, err := NewTikhonov(TermConfig{Mesh: tm}, a)
	assert.NoError(t, err)
	assert.True(t, c2.Value(m) > c.Value(m))
	fdGradient(t, c2, m)
}
