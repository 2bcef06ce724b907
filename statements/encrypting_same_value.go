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

// EncryptingSameValueDomainLabel tags the equal-plaintext-under-two-keys
// proof's initial message, used by asset issuance to bind the issuer's
// stored asset-id ciphertext to the copy encrypted for the mediator.
const EncryptingSameValueDomainLabel = "PolymathEncryptingSameValueProof"

// EncryptingSameValueInitialMessage commits to one fresh blinding-randomness
// scalar scaled by each of the two public keys: a DLEQ of the ciphertexts'
// X components. The matching Y components are never re-derived here because
// encrypt(pk, w) with a shared witness makes them bit-identical by
// construction; the verifier checks that equality directly rather than
// folding it into the sigma equations.
type EncryptingSameValueInitialMessage struct {
	A1, A2 group.Element
}

func (m EncryptingSameValueInitialMessage) UpdateTranscript(t *transcript.Transcript) error {
	t.AppendMessage("domain-tag", []byte(EncryptingSameValueDomainLabel))
	if err := t.AppendElement("A1", m.A1); err != nil {
		return err
	}
	return t.AppendElement("A2", m.A2)
}

// EncryptingSameValueFinalResponse carries the single shared-blinding
// response scalar.
type EncryptingSameValueFinalResponse struct {
	Z *big.Int
}

// EncryptingSameValueProverAwaitingChallenge holds the two public keys and
// the single witness encrypted under both.
type EncryptingSameValueProverAwaitingChallenge struct {
	PK1, PK2 elgamal.PublicKey
	W        elgamal.CommitmentWitness
}

func NewEncryptingSameValueProverAwaitingChallenge(pk1, pk2 elgamal.PublicKey, w elgamal.CommitmentWitness) EncryptingSameValueProverAwaitingChallenge {
	return EncryptingSameValueProverAwaitingChallenge{PK1: pk1, PK2: pk2, W: w}
}

type encryptingSameValueProver struct {
	a *big.Int
	r *big.Int
}

func (p encryptingSameValueProver) ApplyChallenge(challenge *sigma.Challenge) sigma.FinalResponse {
	z := group.AddScalars(p.a, group.MulScalars(challenge.X, p.r, order), order)
	return EncryptingSameValueFinalResponse{Z: z}
}

func (pc EncryptingSameValueProverAwaitingChallenge) CreateTranscriptRng(rng io.Reader, t *transcript.Transcript) (*transcript.RNG, error) {
	return t.BuildRNG(rng, pc.W.Blinding.Bytes())
}

func (pc EncryptingSameValueProverAwaitingChallenge) GenerateInitialMessage(gens sigma.Generators, trng *transcript.RNG) (sigma.Prover, sigma.InitialMessage) {
	_ = gens
	a := randomScalarFrom(trng)
	A1 := backend.Element().Scale(pc.PK1.Element(), a)
	A2 := backend.Element().Scale(pc.PK2.Element(), a)
	im := EncryptingSameValueInitialMessage{A1: A1, A2: A2}
	return encryptingSameValueProver{a: a, r: pc.W.Blinding}, im
}

// EncryptingSameValueVerifier holds the two keys and the two ciphertexts
// claimed to share a witness.
type EncryptingSameValueVerifier struct {
	PK1, PK2 elgamal.PublicKey
	Ct1, Ct2 elgamal.Ciphertext
}

func NewEncryptingSameValueVerifier(pk1, pk2 elgamal.PublicKey, ct1, ct2 elgamal.Ciphertext) EncryptingSameValueVerifier {
	return EncryptingSameValueVerifier{PK1: pk1, PK2: pk2, Ct1: ct1, Ct2: ct2}
}

func (v EncryptingSameValueVerifier) Verify(gens sigma.Generators, challenge *sigma.Challenge, initial sigma.InitialMessage, final sigma.FinalResponse) error {
	im, ok := initial.(EncryptingSameValueInitialMessage)
	if !ok {
		return merrors.NewVerificationError("encrypting-same-value: wrong initial message type")
	}
	fr, ok := final.(EncryptingSameValueFinalResponse)
	if !ok {
		return merrors.NewVerificationError("encrypting-same-value: wrong final response type")
	}

	yBytes1, err := v.Ct1.Y.MarshalBinary()
	if err != nil {
		return err
	}
	yBytes2, err := v.Ct2.Y.MarshalBinary()
	if err != nil {
		return err
	}
	if string(yBytes1) != string(yBytes2) {
		return merrors.NewVerificationError("encrypting-same-value: ciphertext Y components differ")
	}

	lhs1 := backend.Element().Scale(v.PK1.Element(), fr.Z)
	rhs1 := backend.Element().Add(im.A1, backend.Element().Scale(v.Ct1.X, challenge.X))
	if !lhs1.IsEqual(rhs1) {
		return merrors.NewEncryptingSameValueError(1)
	}

	lhs2 := backend.Element().Scale(v.PK2.Element(), fr.Z)
	rhs2 := backend.Element().Add(im.A2, backend.Element().Scale(v.Ct2.X, challenge.X))
	if !lhs2.IsEqual(rhs2) {
		return merrors.NewEncryptingSameValueError(2)
	}
	return nil
}
