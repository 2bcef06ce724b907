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

// CipherEqualityDomainLabel tags the within-one-key ciphertext equality
// proof's initial message.
const CipherEqualityDomainLabel = "PolymathCipherEqualityProof"

// CipherEqualityInitialMessage has the same shape as a correctness proof's:
// the equality statement is proven by reducing it to "the difference
// ciphertext opens to zero under a known blinding delta", so it reuses
// Correctness's exact two-generator commitment structure.
type CipherEqualityInitialMessage struct {
	A1, A2 group.Element
}

func (m CipherEqualityInitialMessage) UpdateTranscript(t *transcript.Transcript) error {
	t.AppendMessage("domain-tag", []byte(CipherEqualityDomainLabel))
	if err := t.AppendElement("A1", m.A1); err != nil {
		return err
	}
	return t.AppendElement("A2", m.A2)
}

// CipherEqualityFinalResponse carries the single blinding-delta response.
type CipherEqualityFinalResponse struct {
	Z *big.Int
}

// CipherEqualityProverAwaitingChallenge proves that ct1 and ct2, both under
// PK, encrypt the same value, by proving ct1 - ct2 opens to zero with
// blinding BlindingDelta = r1 - r2.
type CipherEqualityProverAwaitingChallenge struct {
	PK            elgamal.PublicKey
	BlindingDelta *big.Int
}

// NewCipherEqualityProverAwaitingChallenge derives the blinding delta from
// the two original openings.
func NewCipherEqualityProverAwaitingChallenge(pk elgamal.PublicKey, w1, w2 elgamal.CommitmentWitness) CipherEqualityProverAwaitingChallenge {
	delta := group.SubScalars(w1.Blinding, w2.Blinding, order)
	return CipherEqualityProverAwaitingChallenge{PK: pk, BlindingDelta: delta}
}

type cipherEqualityProver struct {
	a, r *big.Int
}

func (p cipherEqualityProver) ApplyChallenge(challenge *sigma.Challenge) sigma.FinalResponse {
	z := group.AddScalars(p.a, group.MulScalars(challenge.X, p.r, order), order)
	return CipherEqualityFinalResponse{Z: z}
}

func (pc CipherEqualityProverAwaitingChallenge) CreateTranscriptRng(rng io.Reader, t *transcript.Transcript) (*transcript.RNG, error) {
	return t.BuildRNG(rng, pc.BlindingDelta.Bytes())
}

func (pc CipherEqualityProverAwaitingChallenge) GenerateInitialMessage(gens sigma.Generators, trng *transcript.RNG) (sigma.Prover, sigma.InitialMessage) {
	_ = gens
	a := randomScalarFrom(trng)
	A1 := backend.Element().Scale(pc.PK.Element(), a)
	A2 := backend.Element().BaseScale(a)
	im := CipherEqualityInitialMessage{A1: A1, A2: A2}
	return cipherEqualityProver{a: a, r: pc.BlindingDelta}, im
}

// CipherEqualityVerifier holds the two ciphertexts claimed to encrypt the
// same value under PK; it checks the difference ciphertext against value 0.
type CipherEqualityVerifier struct {
	PK       elgamal.PublicKey
	Ct1, Ct2 elgamal.Ciphertext
}

func NewCipherEqualityVerifier(pk elgamal.PublicKey, ct1, ct2 elgamal.Ciphertext) CipherEqualityVerifier {
	return CipherEqualityVerifier{PK: pk, Ct1: ct1, Ct2: ct2}
}

func (v CipherEqualityVerifier) Verify(gens sigma.Generators, challenge *sigma.Challenge, initial sigma.InitialMessage, final sigma.FinalResponse) error {
	im, ok := initial.(CipherEqualityInitialMessage)
	if !ok {
		return merrors.NewVerificationError("cipher-equality: wrong initial message type")
	}
	fr, ok := final.(CipherEqualityFinalResponse)
	if !ok {
		return merrors.NewVerificationError("cipher-equality: wrong final response type")
	}

	diff := elgamal.Sub(v.Ct1, v.Ct2)

	lhs1 := backend.Element().Scale(v.PK.Element(), fr.Z)
	rhs1 := backend.Element().Add(im.A1, backend.Element().Scale(diff.X, challenge.X))
	if !lhs1.IsEqual(rhs1) {
		return merrors.NewCipherEqualityError(1)
	}

	lhs2 := backend.Element().BaseScale(fr.Z)
	rhs2 := backend.Element().Add(im.A2, backend.Element().Scale(diff.Y, challenge.X))
	if !lhs2.IsEqual(rhs2) {
		return merrors.NewCipherEqualityError(2)
	}
	return nil
}
