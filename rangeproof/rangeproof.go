// Package rangeproof binds the bulletproofs single-value range argument to
// the twisted-ElGamal layer: it proves a ciphertext's hidden value lies in
// [0, 2^bitsize) without revealing the value, using exactly the same
// (blinding, value, G, H) the ciphertext was built from, so the proof's
// commitment is bit-identical to the ciphertext's Y component. Grounded on
// the same wrap-an-external-primitive shape as sigma/statements: a thin,
// spec-named operation pair around the lower-level bulletproofs package.
package rangeproof

import (
	"io"
	"math/big"

	"github.com/mercat-protocol/mercat-go/bulletproofs"
	"github.com/mercat-protocol/mercat-go/config"
	"github.com/mercat-protocol/mercat-go/elgamal"
	"github.com/mercat-protocol/mercat-go/group"
	"github.com/mercat-protocol/mercat-go/merrors"
	"github.com/mercat-protocol/mercat-go/transcript"
)

// DomainLabel tags the range proof's own binding transcript. Distinct from
// bulletproofs.challengeDomainLabel, which tags the Fiat-Shamir draws made
// while constructing the proof itself.
const DomainLabel = "PolymathRangeProof"

// InitialMessage is the compressed commitment the proof is about: the same
// Pedersen commitment as the ciphertext's Y component.
type InitialMessage struct {
	Commitment group.Element
}

// FinalResponse carries the bulletproof itself.
type FinalResponse struct {
	Proof   bulletproofs.BulletProof
	Bitsize int64
}

// bindingTranscript folds the declared bitsize and commitment into a
// domain-separated transcript. Its byte log is passed straight into
// bulletproofs.Prove/Verify as the binding seed folded into every y/z/x
// challenge draw, so a proof built under one bitsize or commitment cannot
// verify under another.
func bindingTranscript(bitsize int64, commitment group.Element) (*transcript.Transcript, error) {
	t := transcript.New(DomainLabel)
	t.AppendUint64("bitsize", uint64(bitsize))
	if err := t.AppendElement("commitment", commitment); err != nil {
		return nil, err
	}
	return t, nil
}

// ProveWithinRange proves that value fits in [0, 2^bitsize) under the exact
// (value, blinding) opening a caller also used to build an ElGamal
// ciphertext, so the returned commitment equals that ciphertext's Y.
func ProveWithinRange(value uint64, blinding *big.Int, bitsize int64, rng io.Reader) (InitialMessage, FinalResponse, error) {
	if !config.ValidRangeBitsize(int(bitsize)) {
		return InitialMessage{}, FinalResponse{}, merrors.NewProvingError(
			merrors.NewVerificationError("range proof: bitsize must be one of 8, 16, 32, 64"))
	}

	params, err := bulletproofs.Setup(bitsize, elgamal.Backend)
	if err != nil {
		return InitialMessage{}, FinalResponse{}, merrors.NewProvingError(err)
	}
	params = bulletproofs.WithGenerators(params, elgamal.PedersenH())

	// The commitment is a deterministic function of (value, blinding, H),
	// so it can be folded into the binding transcript before the
	// bulletproof itself is built, and bulletproofs.Prove below rebuilds
	// the identical point as proof.V.
	commitment := elgamal.PedersenCommit(value, blinding)
	bt, err := bindingTranscript(bitsize, commitment)
	if err != nil {
		return InitialMessage{}, FinalResponse{}, merrors.NewProvingError(err)
	}

	secret := new(big.Int).SetUint64(value)
	proof, err := bulletproofs.Prove(secret, blinding, params, rng, bt.Bytes())
	if err != nil {
		return InitialMessage{}, FinalResponse{}, merrors.NewProvingError(err)
	}

	return InitialMessage{Commitment: proof.V}, FinalResponse{Proof: proof, Bitsize: bitsize}, nil
}

// VerifyWithinRange checks the proof and, independently, that its
// commitment matches the one carried in the initial message. Per the range
// proof's binding invariant, callers that need to tie this proof to a
// specific ciphertext must additionally check BindsToCiphertext.
func VerifyWithinRange(initial InitialMessage, final FinalResponse, bitsize int64) error {
	if !config.ValidRangeBitsize(int(bitsize)) {
		return merrors.NewVerificationError("range proof: bitsize must be one of 8, 16, 32, 64")
	}
	if final.Bitsize != bitsize || final.Proof.Params.N != bitsize {
		return merrors.NewVerificationError("range proof: bitsize mismatch between caller and proof")
	}
	if !initial.Commitment.IsEqual(final.Proof.V) {
		return merrors.NewVerificationError("range proof: initial message commitment does not match the proof's")
	}
	bt, err := bindingTranscript(bitsize, initial.Commitment)
	if err != nil {
		return merrors.NewVerificationError("range proof: " + err.Error())
	}

	ok, err := final.Proof.Verify(bt.Bytes())
	if err != nil {
		return merrors.NewVerificationError("range proof: " + err.Error())
	}
	if !ok {
		return merrors.NewVerificationError("range proof: bulletproof verification failed")
	}
	return nil
}

// BindsToCiphertext reports whether a range proof's commitment equals ct's
// Y component, the one cryptographic tie between ElGamal confidentiality
// and Bulletproofs' numeric-bound soundness. Per spec, implementations MUST
// assert this in tests; callers proving a real account balance or transfer
// amount should assert it too before accepting the pair.
func BindsToCiphertext(initial InitialMessage, ct elgamal.Ciphertext) bool {
	return initial.Commitment.IsEqual(ct.Y)
}
