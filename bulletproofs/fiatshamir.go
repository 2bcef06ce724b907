package bulletproofs

import (
	"math/big"

	"github.com/mercat-protocol/mercat-go/group"
	"github.com/mercat-protocol/mercat-go/transcript"
)

// challengeDomainLabel tags every internal Fiat-Shamir draw this package
// makes while folding the prover's round commitments (A/S, T1/T2, and each
// inner-product L/R pair) into challenge scalars. It is distinct from the
// "PolymathRangeProof" label the rangeproof package uses to bind a finished
// proof to a specific ElGamal ciphertext.
const challengeDomainLabel = "PolymathBulletproofsChallenge"

// HashBP derives two Fiat-Shamir challenge scalars from two committed group
// elements. It replaces the teacher's ad hoc sha256-over-String()
// construction with the shared transcript abstraction (transcript.go),
// grounded on PolymathEncryptionProofs' own Fiat-Shamir derivation, so every
// challenge draw in the module goes through the same domain-separated log.
//
// bindingSeed, when non-nil, is folded in ahead of a and b. rangeproof
// passes its own "PolymathRangeProof" transcript bytes (bitsize + value
// commitment) here, so the bitsize a caller committed to actually
// constrains the y/z and x challenges instead of sitting in a transcript
// nobody consults.
func HashBP(a, b group.Element, ord *big.Int, bindingSeed []byte) (*big.Int, *big.Int, error) {
	t := transcript.New(challengeDomainLabel)
	if bindingSeed != nil {
		t.AppendMessage("binding", bindingSeed)
	}
	if err := t.AppendElement("a", a); err != nil {
		return nil, nil, err
	}
	if err := t.AppendElement("b", b); err != nil {
		return nil, nil, err
	}
	y := t.ChallengeScalar("y", ord)
	z := t.ChallengeScalar("z", ord)
	return y, z, nil
}

// hashIPTranscript folds the inner-product argument's generator vectors,
// target commitment, and claimed inner product into a transcript, used by
// hashIP to derive the argument's own Fiat-Shamir challenge.
func hashIPTranscript(g, h []group.Element, P group.Element, c *big.Int, n int64) (*transcript.Transcript, error) {
	t := transcript.New(challengeDomainLabel)
	t.AppendUint64("n", uint64(n))
	if err := t.AppendElement("P", P); err != nil {
		return nil, err
	}
	for i := int64(0); i < n; i++ {
		if err := t.AppendElement("g", g[i]); err != nil {
			return nil, err
		}
		if err := t.AppendElement("h", h[i]); err != nil {
			return nil, err
		}
	}
	t.AppendMessage("c", c.Bytes())
	return t, nil
}
