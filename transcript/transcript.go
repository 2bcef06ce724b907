// Package transcript implements the append-only labeled byte log used to
// derive Fiat-Shamir challenges and seed per-statement deterministic RNGs.
//
// The reference MERCAT implementation delegates this to the Merlin
// transcript library, which has no Go port and no counterpart anywhere in
// the example pack. The sigma protocol in voteproof.go hashes a
// concatenation of its commitment elements with sha256 to derive its
// Fiat-Shamir challenge (getFSChallenge); this package generalizes that
// same technique into a reusable, domain-separated, append-only log so it
// can be shared across the sigma framework, the range-proof wrapper, and
// the identity proof, all of which must agree byte-for-byte on derived
// challenges.
package transcript

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"io"
	"math/big"

	"github.com/mercat-protocol/mercat-go/group"
)

// ErrIdentityElement is returned by AppendElement when the element being
// folded into the transcript is the group identity. Accepting an identity
// element into an initial message would let a prover construct a trivial
// proof, so the transcript refuses to transcript it.
var ErrIdentityElement = errors.New("transcript: refusing to append identity element")

// Transcript is an append-only, domain-separated byte log.
type Transcript struct {
	buf []byte
}

// New starts a transcript under the given top-level domain label, e.g.
// "PolymathEncryptionProofs" or "PolymathRangeProof".
func New(label string) *Transcript {
	t := &Transcript{}
	t.appendLengthPrefixed([]byte("dom-sep"), []byte(label))
	return t
}

func (t *Transcript) appendLengthPrefixed(label, data []byte) {
	var lbuf [4]byte
	binary.BigEndian.PutUint32(lbuf[:], uint32(len(label)))
	t.buf = append(t.buf, lbuf[:]...)
	t.buf = append(t.buf, label...)
	binary.BigEndian.PutUint32(lbuf[:], uint32(len(data)))
	t.buf = append(t.buf, lbuf[:]...)
	t.buf = append(t.buf, data...)
}

// AppendMessage folds a labeled byte string into the transcript.
func (t *Transcript) AppendMessage(label string, data []byte) {
	t.appendLengthPrefixed([]byte(label), data)
}

// AppendElement folds a labeled group element into the transcript. It
// rejects the identity element, matching the InitialMessage contract that
// every committed group element must be non-trivial.
func (t *Transcript) AppendElement(label string, e group.Element) error {
	if e.IsIdentity() {
		return ErrIdentityElement
	}
	enc, err := e.MarshalBinary()
	if err != nil {
		return err
	}
	t.AppendMessage(label, enc)
	return nil
}

// AppendUint64 folds a labeled 64-bit integer into the transcript, used by
// the range proof to bind the declared bitsize into its Fiat-Shamir state.
func (t *Transcript) AppendUint64(label string, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	t.AppendMessage(label, b[:])
}

// challengeBytes derives 32 bytes of output labeled by label, by hashing
// the current transcript state followed by the label and a round counter.
// The counter makes it possible to derive more than one scalar from the
// same transcript prefix without colliding (ChallengeScalar uses round 0,
// and re-derives at round n if the raw reduction lands on zero).
func (t *Transcript) challengeBytes(label string, round uint32) [32]byte {
	h := sha256.New()
	h.Write(t.buf)
	h.Write([]byte("chal"))
	h.Write([]byte(label))
	var rbuf [4]byte
	binary.BigEndian.PutUint32(rbuf[:], round)
	h.Write(rbuf[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// ChallengeScalar derives a non-zero scalar modulo order from the current
// transcript state under the given label. A zero reduction is vanishingly
// unlikely but is handled per the ZKPChallenge invariant (challenge != 0)
// by re-deriving with an incremented round counter rather than silently
// accepting zero.
func (t *Transcript) ChallengeScalar(label string, order *big.Int) *big.Int {
	for round := uint32(0); ; round++ {
		b := t.challengeBytes(label, round)
		c := new(big.Int).Mod(new(big.Int).SetBytes(b[:]), order)
		if c.Sign() != 0 {
			return c
		}
	}
}

// RNG is a deterministic, per-statement source of randomness derived from
// the transcript's current state plus caller-supplied secret witness bytes
// and a fresh read from an external CSPRNG. It implements io.Reader and
// produces an unbounded keystream via repeated sha256(seed || counter).
//
// Per the concurrency model (spec ambient requirement: provers MUST NOT
// reuse a transcript-RNG across statements), callers must build a fresh RNG
// per statement and discard it afterwards.
type RNG struct {
	seed    [32]byte
	counter uint64
}

// BuildRNG derives a transcript-bound deterministic RNG. externalRNG
// supplies 32 bytes of fresh entropy that is folded in alongside the
// transcript state and the caller's secret material, so the derived stream
// depends on all three.
func (t *Transcript) BuildRNG(externalRNG io.Reader, secrets ...[]byte) (*RNG, error) {
	var ext [32]byte
	if _, err := io.ReadFull(externalRNG, ext[:]); err != nil {
		return nil, err
	}
	h := sha256.New()
	h.Write(t.buf)
	h.Write([]byte("rng"))
	for _, s := range secrets {
		h.Write(s)
	}
	h.Write(ext[:])
	r := &RNG{}
	copy(r.seed[:], h.Sum(nil))
	return r, nil
}

// Read implements io.Reader by expanding the seed into a keystream.
func (r *RNG) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		h := sha256.New()
		h.Write(r.seed[:])
		var cbuf [8]byte
		binary.BigEndian.PutUint64(cbuf[:], r.counter)
		h.Write(cbuf[:])
		r.counter++
		block := h.Sum(nil)
		n += copy(p[n:], block)
	}
	return n, nil
}

// Bytes returns the transcript's accumulated length-prefixed byte log. Used
// by envelope content encoders that want the same canonical, non-ambiguous
// framing this package already gives Fiat-Shamir challenges, instead of a
// second bespoke codec.
func (t *Transcript) Bytes() []byte {
	return append([]byte(nil), t.buf...)
}

// Clone returns an independent copy of the transcript's current state, so a
// driver can branch into several statement-specific sub-transcripts from a
// shared prefix. The sigma drivers do not use it; ProveMultiple and
// VerifyMultiple run every statement on one shared transcript.
func (t *Transcript) Clone() *Transcript {
	c := &Transcript{buf: make([]byte, len(t.buf))}
	copy(c.buf, t.buf)
	return c
}
