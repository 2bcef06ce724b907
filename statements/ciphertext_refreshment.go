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

// CiphertextRefreshmentDomainLabel tags the refreshment proof's initial
// message.
const CiphertextRefreshmentDomainLabel = "PolymathCiphertextRefreshmentProof"

// CiphertextRefreshmentInitialMessage mirrors CipherEquality's shape: a
// refreshed ciphertext differs from its source only by an added all-zero-
// value ciphertext under a fresh blinding, so proving the refreshment is
// exactly proving that refreshed - ct opens to zero.
type CiphertextRefreshmentInitialMessage struct {
	A1, A2 group.Element
}

func (m CiphertextRefreshmentInitialMessage) UpdateTranscript(t *transcript.Transcript) error {
	t.AppendMessage("domain-tag", []byte(CiphertextRefreshmentDomainLabel))
	if err := t.AppendElement("A1", m.A1); err != nil {
		return err
	}
	return t.AppendElement("A2", m.A2)
}

// CiphertextRefreshmentFinalResponse carries the response to the shared
// blinding delta between the source and refreshed ciphertexts.
type CiphertextRefreshmentFinalResponse struct {
	Z *big.Int
}

// CiphertextRefreshmentProverAwaitingChallenge proves that Refreshed was
// built from Original by adding BlindingDelta worth of fresh randomness with
// no change in plaintext.
type CiphertextRefreshmentProverAwaitingChallenge struct {
	PK            elgamal.PublicKey
	BlindingDelta *big.Int
}

// Refresh applies a fresh blinding delta to ct, returning the rotated
// ciphertext alongside the delta a matching prover needs.
func Refresh(pk elgamal.PublicKey, ct elgamal.Ciphertext, rng io.Reader) (elgamal.Ciphertext, *big.Int, error) {
	delta, err := group.RandomScalar(order)
	if err != nil {
		return elgamal.Ciphertext{}, nil, err
	}
	shift := elgamal.Encrypt(pk, elgamal.CommitmentWitness{Value: 0, Blinding: delta})
	return elgamal.Add(ct, shift), delta, nil
}

func NewCiphertextRefreshmentProverAwaitingChallenge(pk elgamal.PublicKey, blindingDelta *big.Int) CiphertextRefreshmentProverAwaitingChallenge {
	return CiphertextRefreshmentProverAwaitingChallenge{PK: pk, BlindingDelta: blindingDelta}
}

type ciphertextRefreshmentProver struct {
	a, r *big.Int
}

func (p ciphertextRefreshmentProver) ApplyChallenge(challenge *sigma.Challenge) sigma.FinalResponse {
	z := group.AddScalars(p.a, group.MulScalars(challenge.X, p.r, order), order)
	return CiphertextRefreshmentFinalResponse{Z: z}
}

func (pc CiphertextRefreshmentProverAwaitingChallenge) CreateTranscriptRng(rng io.Reader, t *transcript.Transcript) (*transcript.RNG, error) {
	return t.BuildRNG(rng, pc.BlindingDelta.Bytes())
}

func (pc CiphertextRefreshmentProverAwaitingChallenge) GenerateInitialMessage(gens sigma.Generators, trng *transcript.RNG) (sigma.Prover, sigma.InitialMessage) {
	_ = gens
	a := randomScalarFrom(trng)
	A1 := backend.Element().Scale(pc.PK.Element(), a)
	A2 := backend.Element().BaseScale(a)
	im := CiphertextRefreshmentInitialMessage{A1: A1, A2: A2}
	return ciphertextRefreshmentProver{a: a, r: pc.BlindingDelta}, im
}

// CiphertextRefreshmentVerifier holds the original and rotated ciphertexts
// under PK.
type CiphertextRefreshmentVerifier struct {
	PK                  elgamal.PublicKey
	Original, Refreshed elgamal.Ciphertext
}

func NewCiphertextRefreshmentVerifier(pk elgamal.PublicKey, original, refreshed elgamal.Ciphertext) CiphertextRefreshmentVerifier {
	return CiphertextRefreshmentVerifier{PK: pk, Original: original, Refreshed: refreshed}
}

func (v CiphertextRefreshmentVerifier) Verify(gens sigma.Generators, challenge *sigma.Challenge, initial sigma.InitialMessage, final sigma.FinalResponse) error {
	im, ok := initial.(CiphertextRefreshmentInitialMessage)
	if !ok {
		return merrors.NewVerificationError("ciphertext-refreshment: wrong initial message type")
	}
	fr, ok := final.(CiphertextRefreshmentFinalResponse)
	if !ok {
		return merrors.NewVerificationError("ciphertext-refreshment: wrong final response type")
	}

	diff := elgamal.Sub(v.Refreshed, v.Original)

	lhs1 := backend.Element().Scale(v.PK.Element(), fr.Z)
	rhs1 := backend.Element().Add(im.A1, backend.Element().Scale(diff.X, challenge.X))
	if !lhs1.IsEqual(rhs1) {
		return merrors.NewCiphertextRefreshmentError(1)
	}

	lhs2 := backend.Element().BaseScale(fr.Z)
	rhs2 := backend.Element().Add(im.A2, backend.Element().Scale(diff.Y, challenge.X))
	if !lhs2.IsEqual(rhs2) {
		return merrors.NewCiphertextRefreshmentError(2)
	}
	return nil
}
