package group

import "math/big"

// GroupId is needed for JSON marshalling groups.
type GroupId struct {
	Name string `json:"group"`
}

// ScalarOrder returns the order of the scalar field associated with a group,
// i.e. the same value as Group.N. Kept as a free function since callers that
// only hold a *big.Int order (e.g. loaded from config) still need the
// reduction helpers below.
func ScalarOrder(g Group) *big.Int {
	return g.N()
}

// RandomScalar samples a uniform scalar in [0, order).
func RandomScalar(order *big.Int) (*big.Int, error) {
	return randomBigInt(order)
}

// ReduceScalar reduces x modulo order, always returning a non-negative
// representative.
func ReduceScalar(x, order *big.Int) *big.Int {
	r := new(big.Int).Mod(x, order)
	if r.Sign() < 0 {
		r.Add(r, order)
	}
	return r
}

// AddScalars returns (a+b) mod order.
func AddScalars(a, b, order *big.Int) *big.Int {
	return ReduceScalar(new(big.Int).Add(a, b), order)
}

// SubScalars returns (a-b) mod order.
func SubScalars(a, b, order *big.Int) *big.Int {
	return ReduceScalar(new(big.Int).Sub(a, b), order)
}

// MulScalars returns (a*b) mod order.
func MulScalars(a, b, order *big.Int) *big.Int {
	return ReduceScalar(new(big.Int).Mul(a, b), order)
}

// NegateScalar returns (-a) mod order.
func NegateScalar(a, order *big.Int) *big.Int {
	return ReduceScalar(new(big.Int).Neg(a), order)
}

// InvertScalar returns the multiplicative inverse of a modulo order. Order
// must be prime, which holds for every group this package exposes.
func InvertScalar(a, order *big.Int) *big.Int {
	return new(big.Int).ModInverse(a, order)
}

// ScalarsEqual reports whether a and b denote the same residue mod order.
func ScalarsEqual(a, b, order *big.Int) bool {
	return ReduceScalar(a, order).Cmp(ReduceScalar(b, order)) == 0
}
