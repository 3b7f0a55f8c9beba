package utils

// RefVector is either an explicit vector or a structural zero. The zero value
// is the structural zero, which participates in arithmetic as an additive
// identity without allocating a dense array of zeros.
type RefVector struct {
	V        Vector
	explicit bool
}

func ZeroRef() RefVector {
	return RefVector{}
}

func Ref(v Vector) RefVector {
	return RefVector{V: v, explicit: true}
}

func (r RefVector) IsZero() bool {
	return !r.explicit
}

// SubtractRef returns a copy of m minus the reference, short-circuiting when
// the reference is the structural zero.
func SubtractRef(m Vector, ref RefVector) Vector {
	if ref.IsZero() {
		return m.Copy()
	}
	return m.Copy().Subtract(ref.V)
}
