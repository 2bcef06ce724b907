package statements

import (
	"fmt"
	"io"
	"math/big"

	"github.com/mercat-protocol/mercat-go/group"
	"github.com/mercat-protocol/mercat-go/merrors"
	"github.com/mercat-protocol/mercat-go/sigma"
	"github.com/mercat-protocol/mercat-go/transcript"
)

// MembershipDomainLabel tags the one-out-of-many proof's initial message.
const MembershipDomainLabel = "PolymathMembershipProof"

// MembershipGens carries the whitelist a membership proof ranges over. It is
// its own Generators variant because, unlike every other statement, its
// "public parameters" are a caller-supplied list rather than the fixed
// shared (G, H) pair.
type MembershipGens struct {
	List []group.Element
}

func (MembershipGens) isGenerators() {}

// OooNGens is the generator set the log-size one-out-of-many argument below
// runs its per-level bit commitments against: Base is the generator that
// Commitment's blinding term is built on (so Commitment - List[i] stays
// equal to Blinding*Base for the true index), and HVec holds
// one additional, level-specific value base per bit position, so a given
// level's bit/blind commitments cannot be confused with another level's.
// Both fields are rebuilt deterministically from the whitelist's padded
// size rather than carried on the wire, so prover and verifier always agree
// on them without either shipping them inside the proof itself.
type OooNGens struct {
	Base group.Element
	HVec []group.Element
}

func (OooNGens) isGenerators() {}

func mustMapToGroup(seed string) group.Element {
	e, err := backend.Element().MapToGroup(seed)
	if err != nil {
		panic("statements: failed to derive fixed generator: " + err.Error())
	}
	return e
}

// membershipShape returns the padded whitelist size (the next power of two
// at or above n) and the bit-length of that padding, i.e. the number of
// one-out-of-many levels a whitelist of size n requires.
func membershipShape(n int) (npad, levels int) {
	npad = 1
	for npad < n {
		npad <<= 1
		levels++
	}
	return npad, levels
}

// oooNGens derives the levels level-specific value bases a one-out-of-many
// proof over a whitelist needs. Base is always the shared group generator,
// since the target Commitment - List[i] is only equal to Blinding*Base (not
// Blinding*(some other point)) for whichever List entry matches Commitment.
func oooNGens(levels int) OooNGens {
	hvec := make([]group.Element, levels)
	for j := 0; j < levels; j++ {
		hvec[j] = mustMapToGroup(fmt.Sprintf("MercatOooNLevel%d", j))
	}
	return OooNGens{Base: backend.Generator(), HVec: hvec}
}

// paddedEntry returns List[i] if i is a real whitelist index, or List's last
// entry otherwise, so a whitelist whose size is not a power of two can still
// be ranged over by the bit-level construction below: padding with the last
// real entry never introduces a second, distinct member to prove knowledge
// of, since any index landing on padding also re-proves the last real entry.
func paddedEntry(list []group.Element, i int) group.Element {
	if i < len(list) {
		return list[i]
	}
	return list[len(list)-1]
}

// polyMulLinear multiplies poly (coefficients, constant term first) by the
// degree-one polynomial c0 + c1*x, modulo q, returning a new, one-longer
// coefficient slice. Used to build each whitelist index's selector
// polynomial p_i(x) = product over levels of that level's chosen f_{j,k}.
func polyMulLinear(poly []*big.Int, c0, c1, q *big.Int) []*big.Int {
	out := make([]*big.Int, len(poly)+1)
	for i := range out {
		out[i] = big.NewInt(0)
	}
	for i, coef := range poly {
		out[i] = group.AddScalars(out[i], group.MulScalars(coef, c0, q), q)
		out[i+1] = group.AddScalars(out[i+1], group.MulScalars(coef, c1, q), q)
	}
	return out
}

// selectorPoly returns the coefficients (constant term first, length
// levels+1) of p_i(x) = product_{j=0}^{levels-1} f_{j, bit_j(i)}(x), given
// the secret bits and blinds f_{j,1} = bits[j]*x + a[j] is built from.
// bit_j(i) == 1 selects f_{j,1} = bits[j]*x + a[j] directly; bit_j(i) == 0
// selects f_{j,0} = x - f_{j,1} = (1-bits[j])*x - a[j].
func selectorPoly(i, levels int, bits []int, a []*big.Int, q *big.Int) []*big.Int {
	poly := []*big.Int{big.NewInt(1)}
	for j := 0; j < levels; j++ {
		var c0, c1 *big.Int
		if (i>>uint(j))&1 == 1 {
			c0 = a[j]
			c1 = big.NewInt(int64(bits[j]))
		} else {
			c0 = group.NegateScalar(a[j], q)
			c1 = big.NewInt(int64(1 - bits[j]))
		}
		poly = polyMulLinear(poly, c0, c1, q)
	}
	return poly
}

// selectorValue evaluates p_i(x) directly at the challenge point, the only
// thing the verifier needs: it never learns the secret bits or blinds, only
// the revealed per-level responses F.
func selectorValue(i, levels int, x *big.Int, f []*big.Int, q *big.Int) *big.Int {
	p := big.NewInt(1)
	for j := 0; j < levels; j++ {
		var term *big.Int
		if (i>>uint(j))&1 == 1 {
			term = f[j]
		} else {
			term = group.SubScalars(x, f[j], q)
		}
		p = group.MulScalars(p, term, q)
	}
	return p
}

// MembershipInitialMessage is the prover's first move in the log-size
// one-out-of-many argument (Groth-Kohlweiss): for each of the levels bit
// positions of the padded whitelist index, L/A/C/D commit to the bit
// itself and the blinds that make the bit-validity check below sound; G
// carries the levels polynomial commitments the combined membership check
// is verified against.
type MembershipInitialMessage struct {
	L []group.Element
	A []group.Element
	C []group.Element
	D []group.Element
	G []group.Element
}

func (m MembershipInitialMessage) UpdateTranscript(t *transcript.Transcript) error {
	t.AppendMessage("domain-tag", []byte(MembershipDomainLabel))
	t.AppendUint64("levels", uint64(len(m.L)))
	for _, es := range [][]group.Element{m.L, m.A, m.C, m.D, m.G} {
		for _, e := range es {
			if err := t.AppendElement("mem", e); err != nil {
				return err
			}
		}
	}
	return nil
}

// MembershipFinalResponse carries the per-level revealed responses
// (F = f_{j,1}, plus the two blinding openings ZA/ZC) and the single scalar
// Z that ties the polynomial commitments in G back to the real index's
// target, per the combined sum-check identity.
type MembershipFinalResponse struct {
	F  []*big.Int
	ZA []*big.Int
	ZC []*big.Int
	Z  *big.Int
}

// MembershipProverAwaitingChallenge proves that Commitment - List[Index] =
// Blinding*Base for the secret Index, without revealing which whitelist
// entry matched, using the Groth-Kohlweiss one-out-of-many construction:
// O(log n) proof size instead of one Schnorr branch per whitelist entry.
type MembershipProverAwaitingChallenge struct {
	Commitment group.Element
	Blinding   *big.Int
	Index      int
	List       []group.Element
}

func NewMembershipProverAwaitingChallenge(commitment group.Element, blinding *big.Int, index int, list []group.Element) MembershipProverAwaitingChallenge {
	return MembershipProverAwaitingChallenge{Commitment: commitment, Blinding: blinding, Index: index, List: list}
}

type membershipProver struct {
	levels  int
	bits    []int
	r, a    []*big.Int // L_j / its complement's blind
	s, t, u []*big.Int // A_j, C_j, D_j blinds
	rho     []*big.Int // G_k blinds
	targets []group.Element
	gens    OooNGens
	blind   *big.Int // the witness: Commitment - List[Index] == blind*Base
}

func (p membershipProver) ApplyChallenge(challenge *sigma.Challenge) sigma.FinalResponse {
	x := challenge.X
	f := make([]*big.Int, p.levels)
	za := make([]*big.Int, p.levels)
	zc := make([]*big.Int, p.levels)
	for j := 0; j < p.levels; j++ {
		lj := big.NewInt(int64(p.bits[j]))
		f[j] = group.AddScalars(group.MulScalars(lj, x, order), p.a[j], order)
		za[j] = group.AddScalars(group.MulScalars(p.r[j], x, order), p.s[j], order)
		zc[j] = group.AddScalars(group.MulScalars(p.t[j], x, order), p.u[j], order)
	}

	xPow := big.NewInt(1)
	z := group.MulScalars(p.blind, pow(x, p.levels, order), order)
	for k := 0; k < p.levels; k++ {
		z = group.SubScalars(z, group.MulScalars(p.rho[k], xPow, order), order)
		xPow = group.MulScalars(xPow, x, order)
	}

	return MembershipFinalResponse{F: f, ZA: za, ZC: zc, Z: z}
}

// pow returns x^n mod q via repeated squaring.
func pow(x *big.Int, n int, q *big.Int) *big.Int {
	r := big.NewInt(1)
	base := new(big.Int).Mod(x, q)
	for ; n > 0; n >>= 1 {
		if n&1 == 1 {
			r = group.MulScalars(r, base, q)
		}
		base = group.MulScalars(base, base, q)
	}
	return r
}

func (pc MembershipProverAwaitingChallenge) CreateTranscriptRng(rng io.Reader, t *transcript.Transcript) (*transcript.RNG, error) {
	return t.BuildRNG(rng, pc.Blinding.Bytes(), []byte{byte(pc.Index)})
}

func (pc MembershipProverAwaitingChallenge) GenerateInitialMessage(gens sigma.Generators, trng *transcript.RNG) (sigma.Prover, sigma.InitialMessage) {
	_ = gens
	npad, levels := membershipShape(len(pc.List))
	oGens := oooNGens(levels)

	bits := make([]int, levels)
	for j := 0; j < levels; j++ {
		bits[j] = (pc.Index >> uint(j)) & 1
	}

	r := make([]*big.Int, levels)
	a := make([]*big.Int, levels)
	s := make([]*big.Int, levels)
	t := make([]*big.Int, levels)
	u := make([]*big.Int, levels)
	L := make([]group.Element, levels)
	A := make([]group.Element, levels)
	C := make([]group.Element, levels)
	D := make([]group.Element, levels)

	for j := 0; j < levels; j++ {
		r[j] = randomScalarFrom(trng)
		a[j] = randomScalarFrom(trng)
		s[j] = randomScalarFrom(trng)
		t[j] = randomScalarFrom(trng)
		u[j] = randomScalarFrom(trng)

		lj := big.NewInt(int64(bits[j]))
		L[j] = commitLevel(oGens, j, lj, r[j])
		A[j] = commitLevel(oGens, j, a[j], s[j])

		// v_C = a_j*(1-2*l_j), v_D = -a_j^2: chosen so that, for l_j in
		// {0,1}, f_{j,1}(x)*f_{j,0}(x) == x*v_C + v_D exactly (the bit
		// validity identity MembershipVerifier's second per-level check
		// relies on).
		twoLj := group.MulScalars(big.NewInt(2), lj, order)
		oneMinus2Lj := group.SubScalars(big.NewInt(1), twoLj, order)
		vC := group.MulScalars(a[j], oneMinus2Lj, order)
		aSq := group.MulScalars(a[j], a[j], order)
		vD := group.NegateScalar(aSq, order)
		C[j] = commitLevel(oGens, j, vC, t[j])
		D[j] = commitLevel(oGens, j, vD, u[j])
	}

	targets := make([]group.Element, npad)
	for i := 0; i < npad; i++ {
		targets[i] = backend.Element().Subtract(pc.Commitment, paddedEntry(pc.List, i))
	}

	rho := make([]*big.Int, levels)
	gSum := make([]group.Element, levels)
	for k := 0; k < levels; k++ {
		rho[k] = randomScalarFrom(trng)
		gSum[k] = backend.Identity()
	}
	for i := 0; i < npad; i++ {
		poly := selectorPoly(i, levels, bits, a, order)
		for k := 0; k < levels; k++ {
			if poly[k].Sign() == 0 {
				continue
			}
			gSum[k] = backend.Element().Add(gSum[k], backend.Element().Scale(targets[i], poly[k]))
		}
	}
	G := make([]group.Element, levels)
	for k := 0; k < levels; k++ {
		G[k] = backend.Element().Add(gSum[k], backend.Element().Scale(oGens.Base, rho[k]))
	}

	im := MembershipInitialMessage{L: L, A: A, C: C, D: D, G: G}
	return membershipProver{
		levels:  levels,
		bits:    bits,
		r:       r, a: a, s: s, t: t, u: u,
		rho:     rho,
		targets: targets,
		gens:    oGens,
		blind:   pc.Blinding,
	}, im
}

// commitLevel computes value*HVec[level] + blinding*Base, the Pedersen
// commitment every L/A/C/D/G element in this file is built from.
func commitLevel(gens OooNGens, level int, value, blinding *big.Int) group.Element {
	vH := backend.Element().Scale(gens.HVec[level], value)
	rBase := backend.Element().Scale(gens.Base, blinding)
	return backend.Element().Add(vH, rBase)
}

// MembershipVerifier holds the commitment and whitelist under test.
type MembershipVerifier struct {
	Commitment group.Element
	List       []group.Element
}

func NewMembershipVerifier(commitment group.Element, list []group.Element) MembershipVerifier {
	return MembershipVerifier{Commitment: commitment, List: list}
}

func (v MembershipVerifier) Verify(gens sigma.Generators, challenge *sigma.Challenge, initial sigma.InitialMessage, final sigma.FinalResponse) error {
	_ = gens
	im, ok := initial.(MembershipInitialMessage)
	if !ok {
		return merrors.NewVerificationError("membership: wrong initial message type")
	}
	fr, ok := final.(MembershipFinalResponse)
	if !ok {
		return merrors.NewVerificationError("membership: wrong final response type")
	}

	npad, levels := membershipShape(len(v.List))
	if len(im.L) != levels || len(im.A) != levels || len(im.C) != levels || len(im.D) != levels || len(im.G) != levels {
		return merrors.NewMembershipError(1)
	}
	if len(fr.F) != levels || len(fr.ZA) != levels || len(fr.ZC) != levels {
		return merrors.NewMembershipError(1)
	}
	oGens := oooNGens(levels)
	x := challenge.X

	for j := 0; j < levels; j++ {
		// x*L_j + A_j == Com_j(f_{j,1}; z_{Aj})
		lhs1 := backend.Element().Add(backend.Element().Scale(im.L[j], x), im.A[j])
		rhs1 := commitLevel(oGens, j, fr.F[j], fr.ZA[j])
		if !lhs1.IsEqual(rhs1) {
			return merrors.NewMembershipError(2)
		}

		// x*C_j + D_j == Com_j(f_{j,1}*(x - f_{j,1}); z_{Cj}): enforces
		// l_j*(1-l_j) == 0 via the Schwartz-Zippel argument over x.
		f0 := group.SubScalars(x, fr.F[j], order)
		expected := group.MulScalars(fr.F[j], f0, order)
		lhs2 := backend.Element().Add(backend.Element().Scale(im.C[j], x), im.D[j])
		rhs2 := commitLevel(oGens, j, expected, fr.ZC[j])
		if !lhs2.IsEqual(rhs2) {
			return merrors.NewMembershipError(3)
		}
	}

	targets := make([]group.Element, npad)
	for i := 0; i < npad; i++ {
		targets[i] = backend.Element().Subtract(v.Commitment, paddedEntry(v.List, i))
	}

	lhs := backend.Identity()
	for i := 0; i < npad; i++ {
		pi := selectorValue(i, levels, x, fr.F, order)
		if pi.Sign() == 0 {
			continue
		}
		lhs = backend.Element().Add(lhs, backend.Element().Scale(targets[i], pi))
	}

	rhs := backend.Element().Scale(oGens.Base, fr.Z)
	xPow := big.NewInt(1)
	for k := 0; k < levels; k++ {
		rhs = backend.Element().Add(rhs, backend.Element().Scale(im.G[k], xPow))
		xPow = group.MulScalars(xPow, x, order)
	}

	if !lhs.IsEqual(rhs) {
		return merrors.NewMembershipError(4)
	}
	return nil
}
