package statements

import (
	"io"
	"math/big"

	"github.com/mercat-protocol/mercat-go/elgamal"
	"github.com/mercat-protocol/mercat-go/group"
	"github.com/mercat-protocol/mercat-go/merrors"
	"github.com/mercat-protocol/mercat-go/sigma"
	"github.com/mercat-protocol/mercat-go/transcript"
)

// WellformednessDomainLabel tags a well-formedness proof's initial message.
const WellformednessDomainLabel = "PolymathWellformednessProof"

// WellformednessInitialMessage commits to fresh randomness for both the
// blinding and the value: A1 for the X = r*P relation, A2 for the
// Y = r*G + v*H relation. Unlike Correctness, the verifier is not told v, so
// A2 must absorb its own fresh randomness rather than reusing Correctness's
// single scalar.
type WellformednessInitialMessage struct {
	A1, A2 group.Element
}

func (m WellformednessInitialMessage) UpdateTranscript(t *transcript.Transcript) error {
	t.AppendMessage("domain-tag", []byte(WellformednessDomainLabel))
	if err := t.AppendElement("A1", m.A1); err != nil {
		return err
	}
	return t.AppendElement("A2", m.A2)
}

// WellformednessFinalResponse carries one response scalar per witness
// component: Zv for the value, Zr for the blinding.
type WellformednessFinalResponse struct {
	Zv, Zr *big.Int
}

// WellformednessProverAwaitingChallenge holds the full opening of the
// ciphertext under verification: both the value and the blinding are
// witnesses here, which is what distinguishes well-formedness from
// correctness.
type WellformednessProverAwaitingChallenge struct {
	PK elgamal.PublicKey
	W  elgamal.CommitmentWitness
}

func NewWellformednessProverAwaitingChallenge(pk elgamal.PublicKey, w elgamal.CommitmentWitness) WellformednessProverAwaitingChallenge {
	return WellformednessProverAwaitingChallenge{PK: pk, W: w}
}

type wellformednessProver struct {
	a, b *big.Int // a blinds r, b blinds v
	r, v *big.Int
}

func (p wellformednessProver) ApplyChallenge(challenge *sigma.Challenge) sigma.FinalResponse {
	zr := group.AddScalars(p.a, group.MulScalars(challenge.X, p.r, order), order)
	zv := group.AddScalars(p.b, group.MulScalars(challenge.X, p.v, order), order)
	return WellformednessFinalResponse{Zv: zv, Zr: zr}
}

func (pc WellformednessProverAwaitingChallenge) CreateTranscriptRng(rng io.Reader, t *transcript.Transcript) (*transcript.RNG, error) {
	return t.BuildRNG(rng, pc.W.Blinding.Bytes(), new(big.Int).SetUint64(pc.W.Value).Bytes())
}

func (pc WellformednessProverAwaitingChallenge) GenerateInitialMessage(gens sigma.Generators, trng *transcript.RNG) (sigma.Prover, sigma.InitialMessage) {
	_ = gens
	a := randomScalarFrom(trng)
	b := randomScalarFrom(trng)
	A1 := backend.Element().Scale(pc.PK.Element(), a)
	A2 := backend.Element().Add(
		backend.Element().BaseScale(a),
		backend.Element().Scale(elgamal.PedersenH(), b),
	)
	im := WellformednessInitialMessage{A1: A1, A2: A2}
	return wellformednessProver{a: a, b: b, r: pc.W.Blinding, v: new(big.Int).SetUint64(pc.W.Value)}, im
}

// WellformednessVerifier holds the public key and ciphertext under test;
// the plaintext value is never revealed to it.
type WellformednessVerifier struct {
	PK elgamal.PublicKey
	Ct elgamal.Ciphertext
}

func NewWellformednessVerifier(pk elgamal.PublicKey, ct elgamal.Ciphertext) WellformednessVerifier {
	return WellformednessVerifier{PK: pk, Ct: ct}
}

func (v WellformednessVerifier) Verify(gens sigma.Generators, challenge *sigma.Challenge, initial sigma.InitialMessage, final sigma.FinalResponse) error {
	im, ok := initial.(WellformednessInitialMessage)
	if !ok {
		return merrors.NewVerificationError("wellformedness: wrong initial message type")
	}
	fr, ok := final.(WellformednessFinalResponse)
	if !ok {
		return merrors.NewVerificationError("wellformedness: wrong final response type")
	}

	lhs1 := backend.Element().Scale(v.PK.Element(), fr.Zr)
	rhs1 := backend.Element().Add(im.A1, backend.Element().Scale(v.Ct.X, challenge.X))
	if !lhs1.IsEqual(rhs1) {
		return merrors.NewWellformednessError(1)
	}

	lhs2 := backend.Element().Add(
		backend.Element().BaseScale(fr.Zr),
		backend.Element().Scale(elgamal.PedersenH(), fr.Zv),
	)
	rhs2 := backend.Element().Add(im.A2, backend.Element().Scale(v.Ct.Y, challenge.X))
	if !lhs2.IsEqual(rhs2) {
		return merrors.NewWellformednessError(2)
	}
	return nil
}
