package regularization

import (
	"fmt"

	"github.com/notargets/goinv/mesh"
	"github.com/notargets/goinv/utils"
)

// Scaled pairs a penalty with its trade-off multiplier. A zero multiplier
// disables the term without removing it from the list.
type Scaled struct {
	Multiplier float64
	Term       Term
}

// Combo is a flat weighted sum of penalties sharing one evaluation contract.
// Nested Combos are absorbed at construction, so evaluation is always a
// single pass over the flattened list and never a dispatch tree.
type Combo struct {
	Terms []Scaled

	nP int
}

func NewCombo(terms ...Scaled) (c *Combo, err error) {
	c = &Combo{}
	for _, s := range terms {
		if err = c.add(s); err != nil {
			return
		}
	}
	if len(c.Terms) == 0 {
		err = fmt.Errorf("%w: combo requires at least one term", ErrConfiguration)
	}
	return
}

func (c *Combo) add(s Scaled) (err error) {
	if s.Multiplier < 0 {
		return fmt.Errorf("%w: negative multiplier %g", ErrConfiguration, s.Multiplier)
	}
	if inner, ok := s.Term.(*Combo); ok {
		for _, is := range inner.Terms {
			if err = c.add(Scaled{s.Multiplier * is.Multiplier, is.Term}); err != nil {
				return
			}
		}
		return
	}
	if c.nP == 0 {
		c.nP = s.Term.NP()
	} else if s.Term.NP() != c.nP {
		return fmt.Errorf("%w: term has %d parameters, combo has %d",
			ErrConfiguration, s.Term.NP(), c.nP)
	}
	c.Terms = append(c.Terms, s)
	return
}

// With returns a new Combo extended by one more scaled term, preserving the
// flattened list.
func (c *Combo) With(multiplier float64, t Term) (*Combo, error) {
	terms := append(append([]Scaled{}, c.Terms...), Scaled{multiplier, t})
	return NewCombo(terms...)
}

func (c *Combo) NP() int { return c.nP }

func (c *Combo) Value(m utils.Vector) (val float64) {
	for _, s := range c.Terms {
		if s.Multiplier == 0 {
			continue
		}
		val += s.Multiplier * s.Term.Value(m)
	}
	return
}

func (c *Combo) Gradient(m utils.Vector) (grad utils.Vector) {
	grad = utils.NewVector(c.nP)
	for _, s := range c.Terms {
		if s.Multiplier == 0 {
			continue
		}
		grad.Add(s.Term.Gradient(m).Scale(s.Multiplier))
	}
	return
}

func (c *Combo) Hessian(m utils.Vector) (H utils.CSR) {
	H = utils.NewDOK(c.nP, c.nP).ToCSR()
	for _, s := range c.Terms {
		if s.Multiplier == 0 {
			continue
		}
		H = H.Add(s.Term.Hessian(m).Scale(s.Multiplier))
	}
	return
}

func (c *Combo) HessianMulVec(m, v utils.Vector) (Hv utils.Vector) {
	Hv = utils.NewVector(c.nP)
	for _, s := range c.Terms {
		if s.Multiplier == 0 {
			continue
		}
		Hv.Add(s.Term.HessianMulVec(m, v).Scale(s.Multiplier))
	}
	return
}

// Alphas are the per-term trade-off multipliers of the composite families:
// S on smallness, X/Y/Z on first derivatives, XX/YY/ZZ on second derivatives.
type Alphas struct {
	S, X, Y, Z float64
	XX, YY, ZZ float64
}

// SimpleAlphas are the defaults for the Simple family.
func SimpleAlphas() Alphas {
	return Alphas{S: 1, X: 1, Y: 1, Z: 1}
}

// TikhonovAlphas are the defaults for the Tikhonov family; the second
// derivative terms start disabled.
func TikhonovAlphas() Alphas {
	return Alphas{S: 1e-6, X: 1, Y: 1, Z: 1}
}

func (a Alphas) first(axis mesh.Axis) float64 {
	return [3]float64{a.X, a.Y, a.Z}[axis]
}

func (a Alphas) second(axis mesh.Axis) float64 {
	return [3]float64{a.XX, a.YY, a.ZZ}[axis]
}

// NewSimple composes smallness with the scale-free first-derivative
// smoothness of every axis the mesh supports.
func NewSimple(cfg TermConfig, a Alphas) (c *Combo, err error) {
	if cfg.Mesh == nil {
		err = fmt.Errorf("%w: simple regularization requires a mesh", ErrConfiguration)
		return
	}
	var terms []Scaled
	small, err := NewTerm(Smallness, mesh.X, cfg)
	if err != nil {
		return
	}
	terms = append(terms, Scaled{a.S, small})
	for axis := mesh.X; int(axis) < cfg.Mesh.Dim(); axis++ {
		var t *BaseTerm
		if t, err = NewTerm(SmoothStencil, axis, cfg); err != nil {
			return
		}
		terms = append(terms, Scaled{a.first(axis), t})
	}
	return NewCombo(terms...)
}

// NewTikhonov composes smallness with length-scaled first-derivative and
// second-derivative smoothness per axis.
func NewTikhonov(cfg TermConfig, a Alphas) (c *Combo, err error) {
	if cfg.Mesh == nil {
		err = fmt.Errorf("%w: tikhonov regularization requires a mesh", ErrConfiguration)
		return
	}
	var terms []Scaled
	small, err := NewTerm(Smallness, mesh.X, cfg)
	if err != nil {
		return
	}
	terms = append(terms, Scaled{a.S, small})
	for axis := mesh.X; int(axis) < cfg.Mesh.Dim(); axis++ {
		var t1, t2 *BaseTerm
		if t1, err = NewTerm(Smooth, axis, cfg); err != nil {
			return
		}
		if t2, err = NewTerm(Smooth2, axis, cfg); err != nil {
			return
		}
		terms = append(terms, Scaled{a.first(axis), t1}, Scaled{a.second(axis), t2})
	}
	return NewCombo(terms...)
}
