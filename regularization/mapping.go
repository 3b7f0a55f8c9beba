package regularization

import "github.com/notargets/goinv/utils"

// Mapping transforms a model vector from model space into the space being
// penalized. Deriv returns the Jacobian of the transform at m, which for the
// Gauss-Newton Hessian is the only curvature information used.
type Mapping interface {
	NP() int
	Apply(m utils.Vector) utils.Vector
	Deriv(m utils.Vector) utils.CSR
}

// IdentityMap penalizes the model directly.
type IdentityMap struct {
	N int
}

func NewIdentityMap(n int) IdentityMap { return IdentityMap{N: n} }

func (im IdentityMap) NP() int { return im.N }

func (im IdentityMap) Apply(m utils.Vector) utils.Vector { return m }

func (im IdentityMap) Deriv(m utils.Vector) utils.CSR { return utils.SpEye(im.N) }
