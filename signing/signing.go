// Package signing provides the Schnorr-family envelope signatures the
// MERCAT engines attach to every transaction content: account owner, issuer,
// sender, receiver and mediator each sign (and validators verify) over a
// domain-separated context string plus the
// envelope's encoded content, mirroring the original engine's schnorrkel
// signing_context/Keypair pair. No ristretto255-Schnorr or schnorrkel
// library is available in the retrieved pack, so this is built on
// circl/sign/ed25519 (already a transitive part of the module's circl
// dependency), which is Schnorr-family the same way schnorrkel is and
// produces the spec's fixed 64-byte signatures.
package signing

import (
	"bytes"
	"io"

	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/mercat-protocol/mercat-go/merrors"
)

// SignatureSize is the fixed signature length the external-interfaces
// section requires.
const SignatureSize = ed25519.SignatureSize

// SecretKey is a signing keypair's private half.
type SecretKey struct {
	priv ed25519.PrivateKey
}

// PublicKey is a signing keypair's public half.
type PublicKey struct {
	pub ed25519.PublicKey
}

// GenerateKey samples a fresh signing keypair from rng.
func GenerateKey(rng io.Reader) (*SecretKey, PublicKey, error) {
	pub, priv, err := ed25519.GenerateKey(rng)
	if err != nil {
		return nil, PublicKey{}, err
	}
	return &SecretKey{priv: priv}, PublicKey{pub: pub}, nil
}

// signingContext reproduces schnorrkel's signing_context(label).bytes(msg)
// domain separation: the context label, a zero byte, then the message.
func signingContext(label string, content []byte) []byte {
	buf := make([]byte, 0, len(label)+1+len(content))
	buf = append(buf, []byte(label)...)
	buf = append(buf, 0)
	buf = append(buf, content...)
	return buf
}

// Sign signs content under the given domain label (e.g. "mercat/asset").
func (sk *SecretKey) Sign(label string, content []byte) []byte {
	return ed25519.Sign(sk.priv, signingContext(label, content))
}

// PublicKey recovers the public key matching sk.
func (sk *SecretKey) PublicKey() PublicKey {
	pub := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(pub, sk.priv[ed25519.PrivateKeySize-ed25519.PublicKeySize:])
	return PublicKey{pub: pub}
}

// Zeroize overwrites the secret key's bytes in place.
func (sk *SecretKey) Zeroize() {
	for i := range sk.priv {
		sk.priv[i] = 0
	}
}

// Verify checks sig against content under label. role names the signing
// principal (issuer/mediator/validator/...) for error reporting only.
func (pk PublicKey) Verify(role, label string, content, sig []byte) error {
	if len(sig) != SignatureSize {
		return merrors.NewSignatureValidationFailure(role)
	}
	if !ed25519.Verify(pk.pub, signingContext(label, content), sig) {
		return merrors.NewSignatureValidationFailure(role)
	}
	return nil
}

// Bytes returns the public key's canonical encoding.
func (pk PublicKey) Bytes() []byte {
	return append([]byte(nil), pk.pub...)
}

// PublicKeyFromBytes recovers a public key from its canonical encoding.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	if len(b) != ed25519.PublicKeySize {
		return PublicKey{}, merrors.NewNotPublicKeyError("signing: wrong public key length")
	}
	pub := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(pub, b)
	return PublicKey{pub: pub}, nil
}

// IsEqual reports whether two public keys are the same bytes.
func (pk PublicKey) IsEqual(other PublicKey) bool {
	return bytes.Equal(pk.pub, other.pub)
}

// InvalidSignature returns a fixed 64-byte all-0x80 signature, used by tests
// to exercise the SignatureValidationFailure path the way the original
// engine's tests substitute Signature::from_bytes(&[128u8; 64]).
func InvalidSignature() []byte {
	sig := make([]byte, SignatureSize)
	for i := range sig {
		sig[i] = 0x80
	}
	return sig
}
