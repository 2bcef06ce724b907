/*
 * Copyright (C) 2019 ING BANK N.V.
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package bulletproofs

import (
	"errors"
	"math/big"

	"github.com/mercat-protocol/mercat-go/group"
)

// IsPowerOfTwo reports whether n is a strictly positive power of two.
func IsPowerOfTwo(n int64) bool {
	return n > 0 && n&(n-1) == 0
}

// powerOf returns [1, x, x^2, ..., x^(n-1)] mod ord.
func powerOf(x *big.Int, n int64, ord *big.Int) []*big.Int {
	result := make([]*big.Int, n)
	result[0] = big.NewInt(1)
	for i := int64(1); i < n; i++ {
		result[i] = new(big.Int).Mul(result[i-1], x)
		result[i].Mod(result[i], ord)
	}
	return result
}

// ScalarProduct returns the inner product of a and b mod ord.
func ScalarProduct(a, b []*big.Int, ord *big.Int) (*big.Int, error) {
	if len(a) != len(b) {
		return nil, errors.New("bulletproofs: scalar product operand length mismatch")
	}
	return VectorInnerProduct(a, b, ord), nil
}

// VectorExp computes the multi-scalar product sum(g[i]^a[i]), i.e. the
// vector-Pedersen commitment g raised componentwise to a and folded by the
// group operation. Used by the inner-product argument to fold the
// generator vectors and by the range proof to recompute g^(-z).
func VectorExp(g []group.Element, a []*big.Int, SP group.Group) (group.Element, error) {
	if len(g) != len(a) {
		return nil, errors.New("bulletproofs: vector exponentiation operand length mismatch")
	}
	result := SP.Identity()
	for i := range g {
		result = SP.Element().Add(result, SP.Element().Scale(g[i], a[i]))
	}
	return result, nil
}
