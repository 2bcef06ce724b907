// Package sigma generalizes the interactive 3-move sigma protocol into a
// non-interactive one via the Fiat-Shamir transcript, following the
// AssetProofProverAwaitingChallenge / AssetProofProver / AssetProofVerifier
// trait split in the original MERCAT core's encryption_proofs.rs. The
// teacher repo's closest analogue is voteproof.go's hand-inlined
// Setup/Prove/Verify trio; this package pulls that same commit-challenge-
// response shape out into a reusable driver so every concrete statement in
// package statements can share it, per the design note that the
// multi-statement driver is canonical and the single-statement form is its
// one-element case.
package sigma

import (
	"io"
	"math/big"

	"github.com/mercat-protocol/mercat-go/group"
	"github.com/mercat-protocol/mercat-go/merrors"
	"github.com/mercat-protocol/mercat-go/transcript"
)

// EncryptionProofsLabel and EncryptionProofsChallengeLabel are the two
// byte-exact transcript labels the sigma framework uses; they MUST match
// across implementations per the external-interfaces contract.
const (
	EncryptionProofsLabel          = "PolymathEncryptionProofs"
	EncryptionProofsChallengeLabel = "PolymathEncryptionProofsChallenge"
)

// scalarOrder is the order of the scalar field every statement's challenge
// is reduced modulo. All MERCAT components share the ristretto255 group.
var scalarOrder = group.Ristretto255().N()

// Challenge is a non-zero scalar challenge. The only way to build one is
// NewChallenge, which enforces the invariant.
type Challenge struct {
	X *big.Int
}

// NewChallenge rejects a zero scalar, matching ZKPChallenge::try_from.
func NewChallenge(x *big.Int) (*Challenge, error) {
	if x == nil || x.Sign() == 0 {
		return nil, merrors.NewVerificationError("zero challenge")
	}
	return &Challenge{X: new(big.Int).Set(x)}, nil
}

// Generators is the ProofGenerators sum type: the same driver feeds
// different statements their own generator bundle, without the driver
// needing to know which concrete kind it is passing through.
type Generators interface {
	isGenerators()
}

// PedersenGens is the generator bundle shared by every statement except
// membership: the two Pedersen generators (G, H) ElGamal ciphertexts are
// built from.
type PedersenGens struct {
	G, H group.Element
}

func (PedersenGens) isGenerators() {}

// InitialMessage is the first sigma move. UpdateTranscript folds all of its
// group elements into the shared transcript under domain-separated labels,
// and must reject an identity element per the framework's anti-trivial-proof
// requirement.
type InitialMessage interface {
	UpdateTranscript(t *transcript.Transcript) error
}

// FinalResponse is the third sigma move; it carries no common interface
// beyond being whatever a concrete Prover.ApplyChallenge returns.
type FinalResponse interface{}

// Prover is the capability a ProverAwaitingChallenge yields once it has
// produced its initial message: it can turn a challenge into a final
// response.
type Prover interface {
	ApplyChallenge(challenge *Challenge) FinalResponse
}

// ProverAwaitingChallenge is the capability set every concrete statement's
// prover-side type implements.
type ProverAwaitingChallenge interface {
	// CreateTranscriptRng derives a fresh deterministic RNG from the
	// current transcript state, the prover's own secret inputs, and a read
	// from the external RNG. Implementations must never reuse the result
	// across statements.
	CreateTranscriptRng(rng io.Reader, t *transcript.Transcript) (*transcript.RNG, error)
	// GenerateInitialMessage runs the prover's first move.
	GenerateInitialMessage(gens Generators, trng *transcript.RNG) (Prover, InitialMessage)
}

// Verifier is the capability set every concrete statement's verifier-side
// type implements.
type Verifier interface {
	Verify(gens Generators, challenge *Challenge, initial InitialMessage, final FinalResponse) error
}

// SingleAwaiting adapts the one-element case of the batched driver for
// callers that only ever run a single statement.
func SingleAwaiting(prover ProverAwaitingChallenge, gens Generators, rng io.Reader) (InitialMessage, FinalResponse, error) {
	ims, frs, err := ProveMultiple([]ProverAwaitingChallenge{prover}, gens, rng)
	if err != nil {
		return nil, nil, err
	}
	return ims[0], frs[0], nil
}

// SingleVerify adapts the one-element case of the batched verifier.
func SingleVerify(verifier Verifier, gens Generators, initial InitialMessage, final FinalResponse) error {
	return VerifyMultiple([]Verifier{verifier}, gens, []InitialMessage{initial}, []FinalResponse{final})
}

// ProveMultiple is the canonical batched (shared-challenge) prover driver.
// Every prover's initial message is folded into one transcript, in the
// fixed order given, before a single challenge is derived; reordering the
// input changes the derived challenge and therefore the proof, per the
// concurrency model's requirement on batched composition.
func ProveMultiple(provers []ProverAwaitingChallenge, gens Generators, rng io.Reader) ([]InitialMessage, []FinalResponse, error) {
	t := transcript.New(EncryptionProofsLabel)

	provs := make([]Prover, len(provers))
	ims := make([]InitialMessage, len(provers))
	for i, p := range provers {
		trng, err := p.CreateTranscriptRng(rng, t)
		if err != nil {
			return nil, nil, err
		}
		provs[i], ims[i] = p.GenerateInitialMessage(gens, trng)
	}

	for _, im := range ims {
		if err := im.UpdateTranscript(t); err != nil {
			return nil, nil, err
		}
	}

	challenge, err := NewChallenge(t.ChallengeScalar(EncryptionProofsChallengeLabel, scalarOrder))
	if err != nil {
		return nil, nil, err
	}

	frs := make([]FinalResponse, len(provers))
	for i, p := range provs {
		frs[i] = p.ApplyChallenge(challenge)
	}
	return ims, frs, nil
}

// VerifyMultiple is the canonical batched verifier driver.
func VerifyMultiple(verifiers []Verifier, gens Generators, ims []InitialMessage, frs []FinalResponse) error {
	if len(ims) != len(frs) || len(verifiers) != len(frs) {
		return merrors.NewVerificationError("mismatched initial message / final response / verifier counts")
	}

	t := transcript.New(EncryptionProofsLabel)
	for _, im := range ims {
		if err := im.UpdateTranscript(t); err != nil {
			return err
		}
	}

	challenge, err := NewChallenge(t.ChallengeScalar(EncryptionProofsChallengeLabel, scalarOrder))
	if err != nil {
		return err
	}

	for i, v := range verifiers {
		if err := v.Verify(gens, challenge, ims[i], frs[i]); err != nil {
			return err
		}
	}
	return nil
}
