// Package identity implements MERCAT's confidential identity layer: a CDD
// provider commits an investor's on-chain identity and a private unique id
// into CDD_ID, the investor commits the same unique id and a scope id into
// SCOPE_ID, and proves in zero knowledge that both commitments share the
// same unique id without revealing it. No confidential_identity crate was
// retrieved into original_source, only its CLI driver
// (confidential-identity/cli/scp/src/main.rs), so the data model's field
// names (CddClaimData, ScopeClaimData, ScopeClaimProofData, ProofKeyPair)
// are grounded on that CLI's call sites, and the proof construction itself
// is grounded on spec.md §4.7's prose description of the dual-base
// Chaum-Pedersen equality-of-discrete-logs argument.
package identity

import (
	"io"
	"math/big"

	"github.com/mercat-protocol/mercat-go/group"
	"github.com/mercat-protocol/mercat-go/merrors"
	"github.com/mercat-protocol/mercat-go/transcript"
)

// Backend is the group CDD_ID, SCOPE_ID, and every proof element in this
// package live in. Kept as its own instance rather than importing
// elgamal.Backend, since identity never touches an ElGamal ciphertext and
// has no reason to depend on that package.
var Backend = group.Ristretto255()

const proofLabel = "MercatConfidentialIdentity"

// g1 and g2 are the two independent generators CDD_ID is built from,
// derived by hash-to-group exactly the way elgamal.PedersenH derives its
// own second generator, so every fixed base in the module is reproducible
// from a seed string rather than a baked-in constant.
var (
	g1 = mustMapToGroup("MercatIdentityG1")
	g2 = mustMapToGroup("MercatIdentityG2")
)

func mustMapToGroup(seed string) group.Element {
	e, err := Backend.Element().MapToGroup(seed)
	if err != nil {
		panic("identity: failed to derive fixed generator: " + err.Error())
	}
	return e
}

// scopeGenerator is H(scope_did): SCOPE_ID's base is scope-specific, so it
// is mapped to a group element fresh per scope id rather than fixed at
// package init.
func scopeGenerator(scopeDID ScopeDID) (group.Element, error) {
	return Backend.Element().MapToGroup(string(scopeDID[:]))
}

// scalarFromBytes reduces an arbitrary byte string to a scalar mod the
// group order, reusing the transcript package's own challenge-derivation
// hash rather than a second bespoke hash-to-scalar routine.
func scalarFromBytes(label string, b []byte) *big.Int {
	t := transcript.New("MercatIdentityScalar")
	t.AppendMessage(label, b)
	return t.ChallengeScalar(label, Backend.N())
}

// randomScalarFrom reads a deterministic scalar out of a transcript RNG,
// the same way every sigma statement in package statements derives its
// first-move randomness: never from the bare external RNG directly,
// always through the transcript-bound stream, so a fixed seed and a fixed
// transcript state reproduce the same proof.
func randomScalarFrom(trng io.Reader) *big.Int {
	order := Backend.N()
	buf := make([]byte, (order.BitLen()+7)/8+8)
	if _, err := io.ReadFull(trng, buf); err != nil {
		panic("identity: transcript RNG read failed: " + err.Error())
	}
	return group.ReduceScalar(new(big.Int).SetBytes(buf), order)
}

// InvestorDID is an investor's on-chain identity.
type InvestorDID [32]byte

// ScopeDID identifies the scope (e.g. an asset) a claim is bound to.
type ScopeDID [32]byte

// UniqueID is the investor's private unique identifier, known only to the
// investor and their CDD provider.
type UniqueID [16]byte

// CddClaimData is what a CDD provider commits into CDD_ID.
type CddClaimData struct {
	InvestorDID      InvestorDID
	InvestorUniqueID UniqueID
}

func NewCddClaimData(did InvestorDID, uniqueID UniqueID) CddClaimData {
	return CddClaimData{InvestorDID: did, InvestorUniqueID: uniqueID}
}

// ScopeClaimData is what the investor commits into SCOPE_ID.
type ScopeClaimData struct {
	ScopeDID         ScopeDID
	InvestorUniqueID UniqueID
}

func NewScopeClaimData(scopeDID ScopeDID, uniqueID UniqueID) ScopeClaimData {
	return ScopeClaimData{ScopeDID: scopeDID, InvestorUniqueID: uniqueID}
}

// ScopeClaimProofData is the investor's private witness for
// GenerateIDMatchProof: the scope id the proof is bound to, plus the
// shared unique id already reduced to a scalar. Zeroize immediately after
// construction, on every exit path.
type ScopeClaimProofData struct {
	ScopeDID               ScopeDID
	InvestorUniqueIDScalar *big.Int
}

// Zeroize wipes the secret scalar.
func (d *ScopeClaimProofData) Zeroize() {
	if d.InvestorUniqueIDScalar != nil {
		d.InvestorUniqueIDScalar.SetInt64(0)
	}
}

// BuildScopeClaimProofData checks that the cdd claim and the scope claim
// commit to the same unique id, then packages the investor's witness for
// proof generation.
func BuildScopeClaimProofData(cdd CddClaimData, scope ScopeClaimData) (ScopeClaimProofData, error) {
	if cdd.InvestorUniqueID != scope.InvestorUniqueID {
		return ScopeClaimProofData{}, merrors.NewVerificationError("identity: cdd claim and scope claim do not share a unique id")
	}
	scalar := scalarFromBytes("investor_unique_id", scope.InvestorUniqueID[:])
	return ScopeClaimProofData{ScopeDID: scope.ScopeDID, InvestorUniqueIDScalar: scalar}, nil
}

// ComputeCDDID computes CDD_ID = investor_did*G1 + investor_unique_id*G2.
func ComputeCDDID(claim CddClaimData) group.Element {
	didScalar := scalarFromBytes("investor_did", claim.InvestorDID[:])
	uniqueScalar := scalarFromBytes("investor_unique_id", claim.InvestorUniqueID[:])
	didTerm := Backend.Element().Scale(g1, didScalar)
	uniqueTerm := Backend.Element().Scale(g2, uniqueScalar)
	return Backend.Element().Add(didTerm, uniqueTerm)
}

// ComputeScopeID computes SCOPE_ID = investor_unique_id*H(scope_did).
func ComputeScopeID(claim ScopeClaimData) (group.Element, error) {
	h, err := scopeGenerator(claim.ScopeDID)
	if err != nil {
		return nil, err
	}
	uniqueScalar := scalarFromBytes("investor_unique_id", claim.InvestorUniqueID[:])
	return Backend.Element().Scale(h, uniqueScalar), nil
}

// IDMatchProof is the Chaum-Pedersen equality-of-discrete-logs argument
// binding CDD_ID and SCOPE_ID to the same unique id, under two unrelated
// base pairs (G2, and H(scope_did)).
type IDMatchProof struct {
	A1 group.Element
	A2 group.Element
	Z  *big.Int
}

// ProofKeyPair holds the investor's private witness and generates
// IDMatchProofs from it.
type ProofKeyPair struct {
	data ScopeClaimProofData
}

// NewProofKeyPair wraps a witness already built by BuildScopeClaimProofData.
func NewProofKeyPair(data ScopeClaimProofData) ProofKeyPair {
	return ProofKeyPair{data: data}
}

// Zeroize wipes the wrapped witness.
func (p *ProofKeyPair) Zeroize() {
	p.data.Zeroize()
}

// GenerateIDMatchProof proves knowledge of investor_unique_id = u such that
// CDD_ID - investor_did*G1 = u*G2 and SCOPE_ID = u*H(scope_did), without
// revealing u. message is folded into the Fiat-Shamir transcript so the
// proof is bound to a caller-chosen context, typically
// investor_did || scope_did.
func (p ProofKeyPair) GenerateIDMatchProof(message []byte, rng io.Reader) (IDMatchProof, error) {
	h, err := scopeGenerator(p.data.ScopeDID)
	if err != nil {
		return IDMatchProof{}, err
	}

	t := transcript.New(proofLabel)
	t.AppendMessage("message", message)
	trng, err := t.BuildRNG(rng, p.data.InvestorUniqueIDScalar.Bytes())
	if err != nil {
		return IDMatchProof{}, err
	}
	k := randomScalarFrom(trng)

	a1 := Backend.Element().Scale(g2, k)
	a2 := Backend.Element().Scale(h, k)

	if err := t.AppendElement("a1", a1); err != nil {
		return IDMatchProof{}, err
	}
	if err := t.AppendElement("a2", a2); err != nil {
		return IDMatchProof{}, err
	}
	x := t.ChallengeScalar("challenge", Backend.N())

	z := group.AddScalars(k, group.MulScalars(x, p.data.InvestorUniqueIDScalar, Backend.N()), Backend.N())

	return IDMatchProof{A1: a1, A2: a2, Z: z}, nil
}

// Verify checks an IDMatchProof against the public CDD_ID/SCOPE_ID pair and
// the investor did the proof claims to be for.
func Verify(proof IDMatchProof, cddID group.Element, investorDID InvestorDID, scopeID group.Element, scopeDID ScopeDID, message []byte) error {
	h, err := scopeGenerator(scopeDID)
	if err != nil {
		return err
	}

	t := transcript.New(proofLabel)
	t.AppendMessage("message", message)
	if err := t.AppendElement("a1", proof.A1); err != nil {
		return err
	}
	if err := t.AppendElement("a2", proof.A2); err != nil {
		return err
	}
	x := t.ChallengeScalar("challenge", Backend.N())

	didScalar := scalarFromBytes("investor_did", investorDID[:])
	didTerm := Backend.Element().Scale(g1, didScalar)
	shiftedCddID := Backend.Element().Subtract(cddID, didTerm)

	lhs1 := Backend.Element().Scale(g2, proof.Z)
	rhs1 := Backend.Element().Add(proof.A1, Backend.Element().Scale(shiftedCddID, x))
	lhs1Bytes, err := lhs1.MarshalBinary()
	if err != nil {
		return err
	}
	rhs1Bytes, err := rhs1.MarshalBinary()
	if err != nil {
		return err
	}
	if string(lhs1Bytes) != string(rhs1Bytes) {
		return merrors.NewVerificationError("identity: CDD_ID side of the id-match proof failed to verify")
	}

	lhs2 := Backend.Element().Scale(h, proof.Z)
	rhs2 := Backend.Element().Add(proof.A2, Backend.Element().Scale(scopeID, x))
	lhs2Bytes, err := lhs2.MarshalBinary()
	if err != nil {
		return err
	}
	rhs2Bytes, err := rhs2.MarshalBinary()
	if err != nil {
		return err
	}
	if string(lhs2Bytes) != string(rhs2Bytes) {
		return merrors.NewVerificationError("identity: SCOPE_ID side of the id-match proof failed to verify")
	}

	return nil
}
