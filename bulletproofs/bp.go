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
	"fmt"
	"io"
	"math/big"

	"github.com/ing-bank/zkrp/util/bn"
	"github.com/mercat-protocol/mercat-go/group"
	"github.com/mercat-protocol/mercat-go/util"
)

/*
BulletProofSetupParams is the structure that stores the parameters for
the Zero Knowledge Proof system.
*/
type BulletProofSetupParams struct {
	// N is the bit-length of the range.
	N int64
	// G is the group's base generator.
	G group.Element
	// H is a new generator, computed using MapToGroup, such that there is
	// no discrete logarithm relation with G.
	H group.Element
	// Gg and Hh are sets of new generators obtained using MapToGroup.
	// They are used to compute Pedersen Vector Commitments.
	Gg []group.Element
	Hh []group.Element
	// InnerProductParams is the setup parameters for the inner product proof.
	InnerProductParams InnerProductParams
	SP                 group.Group
	ord                *big.Int
}

/*
BulletProof is the structure that contains the elements that are necessary for
the verification of the Zero Knowledge Proof.
*/
type BulletProof struct {
	V                 group.Element
	A                 group.Element
	S                 group.Element
	T1                group.Element
	T2                group.Element
	Taux              *big.Int
	Mu                *big.Int
	Tprime            *big.Int
	InnerProductProof InnerProductProof
	Commit            group.Element
	Params            BulletProofSetupParams
}

// readScalar reads a uniformly-distributed scalar below ord from rng,
// mirroring elgamal.readScalar so that every blinding this package samples
// is reproducible from a seeded test stream rather than crypto/rand.
func readScalar(rng io.Reader, ord *big.Int) (*big.Int, error) {
	buf := make([]byte, (ord.BitLen()+7)/8+8)
	if _, err := io.ReadFull(rng, buf); err != nil {
		return nil, err
	}
	return group.ReduceScalar(new(big.Int).SetBytes(buf), ord), nil
}

/*
Setup computes the common parameters for a single-value range proof over
[0, 2^bitsize). bitsize must be one of the MERCAT-recognized range sizes
(8, 16, 32, 64).
*/
func Setup(bitsize int64, SP group.Group) (BulletProofSetupParams, error) {
	if !IsPowerOfTwo(bitsize) || bitsize > 64 {
		return BulletProofSetupParams{}, fmt.Errorf("bulletproofs: unsupported bitsize %d", bitsize)
	}

	params := BulletProofSetupParams{N: bitsize, SP: SP, ord: SP.N()}
	params.G = SP.Generator()

	h, err := SP.Element().MapToGroup(SEEDH)
	if err != nil {
		return BulletProofSetupParams{}, err
	}
	params.H = h

	params.Gg = make([]group.Element, bitsize)
	params.Hh = make([]group.Element, bitsize)
	for i := int64(0); i < bitsize; i++ {
		g, err := SP.Element().MapToGroup(fmt.Sprintf("%sg%d", SEEDH, i))
		if err != nil {
			return BulletProofSetupParams{}, err
		}
		params.Gg[i] = g
		hh, err := SP.Element().MapToGroup(fmt.Sprintf("%sh%d", SEEDH, i))
		if err != nil {
			return BulletProofSetupParams{}, err
		}
		params.Hh[i] = hh
	}
	return params, nil
}

// WithGenerators rebuilds a BulletProofSetupParams using a caller-supplied H,
// so the resulting commitment's Pedersen base matches another layer's (the
// rangeproof package binds H to elgamal.PedersenH so its commitments equal
// the Y component of a twisted-ElGamal ciphertext).
func WithGenerators(params BulletProofSetupParams, h group.Element) BulletProofSetupParams {
	params.H = h
	return params
}

/*
Prove computes the ZK rangeproof for secret under blinding. The documentation
and comments are based on the eprint version of the Bulletproofs paper:
https://eprint.iacr.org/2017/1066.pdf
*/
//
// bindingSeed, when non-nil, is folded into every Fiat-Shamir challenge this
// function derives (see HashBP), tying the resulting proof to whatever
// outer context the caller committed it to (rangeproof binds bitsize and
// the value commitment). Pass nil to derive challenges the same way the
// unmodified eprint construction does.
func Prove(secret, blinding *big.Int, params BulletProofSetupParams, rng io.Reader, bindingSeed []byte) (BulletProof, error) {
	var proof BulletProof
	ord := params.ord
	// ////////////////////////////////////////////////////////////////////////////
	// First phase: page 19
	// ////////////////////////////////////////////////////////////////////////////

	// commitment to v and gamma
	V := commitG1(secret, blinding, params.H, params.SP)

	// aL, aR and commitment: (A, alpha)
	aL := util.Decompose(secret, 2, params.N) // (41)
	aR, err := computeAR(aL)                  // (42)
	if err != nil {
		return proof, err
	}
	alpha, err := readScalar(rng, ord) // (43)
	if err != nil {
		return proof, err
	}
	A := commitVector(aL, aR, alpha, params.H, params.Gg, params.Hh, params.N, params.SP) // (44)

	// sL, sR and commitment: (S, rho)                                     // (45)
	sL, err := sampleRandomVector(params.N, rng, ord)
	if err != nil {
		return proof, err
	}
	sR, err := sampleRandomVector(params.N, rng, ord)
	if err != nil {
		return proof, err
	}
	rho, err := readScalar(rng, ord) // (46)
	if err != nil {
		return proof, err
	}
	S := commitVectorBig(sL, sR, rho, params.H, params.Gg, params.Hh, params.N, params.SP) // (47)

	// Fiat-Shamir heuristic to compute challenges y and z, corresponds to    (49)
	y, z, err := HashBP(A, S, ord, bindingSeed)
	if err != nil {
		return proof, err
	}

	// ////////////////////////////////////////////////////////////////////////////
	// Second phase: page 20
	// ////////////////////////////////////////////////////////////////////////////
	tau1, err := readScalar(rng, ord) // (52)
	if err != nil {
		return proof, err
	}
	tau2, err := readScalar(rng, ord) // (52)
	if err != nil {
		return proof, err
	}

	// compute t1: < aL - z.1^n, y^n . sR > + < sL, y^n . (aR + z . 1^n) >
	vz, _ := VectorCopy(z, params.N)
	vy := powerOf(y, params.N, ord)

	// aL - z.1^n
	naL, _ := VectorConvertToBig(aL, params.N)
	aLmvz, _ := VectorSub(naL, vz, ord)

	// y^n .sR
	ynsR, _ := VectorMul(vy, sR, ord)

	// scalar prod: < aL - z.1^n, y^n . sR >
	sp1, err := ScalarProduct(aLmvz, ynsR, ord)
	if err != nil {
		return proof, err
	}

	// scalar prod: < sL, y^n . (aR + z . 1^n) >
	naR, _ := VectorConvertToBig(aR, params.N)
	aRzn, _ := VectorAdd(naR, vz, ord)
	ynaRzn, _ := VectorMul(vy, aRzn, ord)

	// Add z^2.2^n to the result
	p2n := powerOf(big.NewInt(2), params.N, ord)
	zsquared := bn.Multiply(z, z)
	z22n, _ := VectorScalarMul(p2n, zsquared, ord)
	ynaRzn, _ = VectorAdd(ynaRzn, z22n, ord)
	sp2, err := ScalarProduct(sL, ynaRzn, ord)
	if err != nil {
		return proof, err
	}

	// sp1 + sp2
	t1 := bn.Add(sp1, sp2)
	t1 = bn.Mod(t1, ord)

	// compute t2: < sL, y^n . sR >
	t2, err := ScalarProduct(sL, ynsR, ord)
	if err != nil {
		return proof, err
	}
	t2 = bn.Mod(t2, ord)

	// compute T1, T2
	T1 := commitG1(t1, tau1, params.H, params.SP) // (53)
	T2 := commitG1(t2, tau2, params.H, params.SP) // (53)

	// Fiat-Shamir heuristic to compute 'random' challenge x
	x, _, err := HashBP(T1, T2, ord, bindingSeed)
	if err != nil {
		return proof, err
	}

	// ////////////////////////////////////////////////////////////////////////////
	// Third phase                                                              //
	// ////////////////////////////////////////////////////////////////////////////

	// compute bl                                                          // (58)
	sLx, _ := VectorScalarMul(sL, x, ord)
	bl, _ := VectorAdd(aLmvz, sLx, ord)

	// compute br                                                          // (59)
	sRx, _ := VectorScalarMul(sR, x, ord)
	aRzn, _ = VectorAdd(aRzn, sRx, ord)
	ynaRzn, _ = VectorMul(vy, aRzn, ord)
	br, _ := VectorAdd(ynaRzn, z22n, ord)

	// Compute t` = < bl, br >                                             // (60)
	tprime, err := ScalarProduct(bl, br, ord)
	if err != nil {
		return proof, err
	}

	// Compute taux = tau2 . x^2 + tau1 . x + z^2 . gamma                  // (61)
	taux := bn.Multiply(tau2, bn.Multiply(x, x))
	taux = bn.Add(taux, bn.Multiply(tau1, x))
	taux = bn.Add(taux, bn.Multiply(bn.Multiply(z, z), blinding))
	taux = bn.Mod(taux, ord)

	// Compute mu = alpha + rho.x                                          // (62)
	mu := bn.Multiply(rho, x)
	mu = bn.Add(mu, alpha)
	mu = bn.Mod(mu, ord)

	// Inner Product over (g, h', P.h^-mu, tprime)
	hprime := updateGenerators(params.Hh, y, params.N, params.SP)

	params.InnerProductParams, err = setupInnerProduct(params.H, params.Gg, hprime, tprime, params.N, params.SP)
	if err != nil {
		return proof, err
	}
	commit := commitInnerProduct(params.Gg, hprime, bl, br, params.SP)
	proofip, err := proveInnerProduct(bl, br, commit, params.InnerProductParams)
	if err != nil {
		return proof, err
	}

	proof.V = V
	proof.A = A
	proof.S = S
	proof.T1 = T1
	proof.T2 = T2
	proof.Taux = taux
	proof.Mu = mu
	proof.Tprime = tprime
	proof.InnerProductProof = proofip
	proof.Commit = commit
	proof.Params = params

	return proof, nil
}

/*
Verify returns true if and only if the proof is valid. bindingSeed must be
the same value the prover supplied to Prove; a mismatch makes every
recovered challenge diverge from the one used during proving, so the proof
fails Condition (65)/(66)/(67) rather than silently accepting a proof bound
to a different outer context.
*/
func (proof *BulletProof) Verify(bindingSeed []byte) (bool, error) {
	params := proof.Params
	ord := params.ord
	// Recover x, y, z using Fiat-Shamir heuristic
	x, _, err := HashBP(proof.T1, proof.T2, ord, bindingSeed)
	if err != nil {
		return false, err
	}
	y, z, err := HashBP(proof.A, proof.S, ord, bindingSeed)
	if err != nil {
		return false, err
	}

	// Switch generators                                                   // (64)
	hprime := updateGenerators(params.Hh, y, params.N, params.SP)

	// ////////////////////////////////////////////////////////////////////////////
	// Check that tprime = t(x) = t0 + t1x + t2x^2  ----------  Condition (65)   //
	// ////////////////////////////////////////////////////////////////////////////

	lhs := commitG1(proof.Tprime, proof.Taux, params.H, params.SP)

	z2 := bn.Mod(bn.Multiply(z, z), ord)
	x2 := bn.Mod(bn.Multiply(x, x), ord)

	rhs := params.SP.Element().Scale(proof.V, z2)

	delta := params.delta(y, z)
	gdelta := params.SP.Element().Scale(params.H, delta)
	rhs = params.SP.Element().Add(rhs, gdelta)

	T1x := params.SP.Element().Scale(proof.T1, x)
	T2x2 := params.SP.Element().Scale(proof.T2, x2)
	rhs = params.SP.Element().Add(rhs, T1x)
	rhs = params.SP.Element().Add(rhs, T2x2)

	diff65 := params.SP.Element().Subtract(lhs, rhs)
	c65 := diff65.IsIdentity()

	// ///////////////////// Condition (66)/(67) ///////////////////////////

	Sx := params.SP.Element().Scale(proof.S, x)
	ASx := params.SP.Element().Add(proof.A, Sx)

	mz := bn.Sub(ord, z)
	vmz, _ := VectorCopy(mz, params.N)
	gpmz, err := VectorExp(params.Gg, vmz, params.SP)
	if err != nil {
		return false, err
	}

	vz, _ := VectorCopy(z, params.N)
	vy := powerOf(y, params.N, ord)
	zyn, _ := VectorMul(vy, vz, ord)

	p2n := powerOf(big.NewInt(2), params.N, ord)
	z22n, _ := VectorScalarMul(p2n, z2, ord)

	zynz22n, _ := VectorAdd(zyn, z22n, ord)

	lP := params.SP.Element().Add(ASx, gpmz)

	hprimeexp, err := VectorExp(hprime, zynz22n, params.SP)
	if err != nil {
		return false, err
	}
	lP = params.SP.Element().Add(lP, hprimeexp)

	rP := params.SP.Element().Scale(params.H, proof.Mu)
	rP = params.SP.Element().Add(rP, proof.Commit)

	diff6667 := params.SP.Element().Subtract(lP, rP)
	c6667 := diff6667.IsIdentity()

	ok, err := proof.InnerProductProof.Verify()
	if err != nil {
		return false, err
	}

	return c65 && c6667 && ok, nil
}

func sampleRandomVector(N int64, rng io.Reader, ord *big.Int) ([]*big.Int, error) {
	s := make([]*big.Int, N)
	for i := int64(0); i < N; i++ {
		v, err := readScalar(rng, ord)
		if err != nil {
			return nil, err
		}
		s[i] = v
	}
	return s, nil
}

/*
updateGenerators computes generators in the following format:
[h_1, h_2^(y^-1), ..., h_n^(y^(-n+1))], where [h_1, h_2, ..., h_n] is the
original vector of generators. This is used by both prover and verifier:
after this update, A is a vector commitment to (aL, aR . y^n), and S is a
vector commitment to (sL, sR . y^n).
*/
func updateGenerators(Hh []group.Element, y *big.Int, N int64, SP group.Group) []group.Element {
	ord := SP.N()
	hprime := make([]group.Element, N)
	yinv := bn.ModInverse(y, ord)
	expy := yinv
	hprime[0] = Hh[0]
	for i := int64(1); i < N; i++ {
		hprime[i] = SP.Element().Scale(Hh[i], expy)
		expy = bn.Multiply(expy, yinv)
	}
	return hprime
}

/*
computeAR computes aR = aL - 1^n, bit-by-bit.
*/
func computeAR(x []int64) ([]int64, error) {
	result := make([]int64, len(x))
	for i := range x {
		switch x[i] {
		case 0:
			result[i] = -1
		case 1:
			result[i] = 0
		default:
			return nil, errors.New("bulletproofs: bit decomposition contains a non-binary element")
		}
	}
	return result, nil
}

// commitG1 computes blinding*G + value*H, deliberately matching
// elgamal.PedersenCommit's base assignment (blinding on the group generator,
// value on H) rather than util.PedersenCommit's (value, blinding) order, so
// that V, built from the same (value, blinding, H) a caller passed to
// elgamal.Encrypt, is bit-identical to that ciphertext's Y component.
func commitG1(value, blinding *big.Int, H group.Element, SP group.Group) group.Element {
	vG := SP.Element().BaseScale(blinding)
	vH := SP.Element().Scale(H, value)
	return SP.Element().Add(vG, vH)
}

func commitVectorBig(aL, aR []*big.Int, alpha *big.Int, H group.Element, g, h []group.Element, n int64, SP group.Group) group.Element {
	R := SP.Element().Scale(H, alpha)
	for i := int64(0); i < n; i++ {
		R = SP.Element().Add(R, SP.Element().Scale(g[i], aL[i]))
		R = SP.Element().Add(R, SP.Element().Scale(h[i], aR[i]))
	}
	return R
}

/*
commitVector computes a commitment to the bits of the secret.
*/
func commitVector(aL, aR []int64, alpha *big.Int, H group.Element, g, h []group.Element, n int64, SP group.Group) group.Element {
	R := SP.Element().Scale(H, alpha)
	for i := int64(0); i < n; i++ {
		gaL := SP.Element().Scale(g[i], big.NewInt(aL[i]))
		haR := SP.Element().Scale(h[i], big.NewInt(aR[i]))
		R = SP.Element().Add(R, gaL)
		R = SP.Element().Add(R, haR)
	}
	return R
}

func (params *BulletProofSetupParams) delta(y, z *big.Int) *big.Int {
	ord := params.ord
	z2 := bn.Mod(bn.Multiply(z, z), ord)
	z3 := bn.Mod(bn.Multiply(z2, z), ord)

	v1, _ := VectorCopy(big.NewInt(1), params.N)
	vy := powerOf(y, params.N, ord)
	sp1y, _ := ScalarProduct(v1, vy, ord)

	p2n := powerOf(big.NewInt(2), params.N, ord)
	sp12, _ := ScalarProduct(v1, p2n, ord)

	result := bn.Mod(bn.Sub(z, z2), ord)
	result = bn.Mod(bn.Multiply(result, sp1y), ord)
	result = bn.Mod(bn.Sub(result, bn.Multiply(z3, sp12)), ord)
	return result
}
