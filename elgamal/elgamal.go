// Package elgamal implements the twisted-ElGamal encryption scheme used
// throughout MERCAT, whose Y ciphertext component doubles as a Pedersen
// commitment to the plaintext. It replaces the teacher's encryptVote
// helper (elgamal.go at the repository root, now removed) and util.util.go's
// PedersenCommit, generalizing both into a full keypair/encrypt/decrypt API
// over the ristretto255 group.
package elgamal

import (
	"crypto/subtle"
	"io"
	"math/big"

	"github.com/mercat-protocol/mercat-go/group"
	"github.com/mercat-protocol/mercat-go/merrors"
	"github.com/mercat-protocol/mercat-go/secret"
)

// Backend is the single group every MERCAT component shares. The range
// proof wrapper and the ElGamal layer MUST use the same group so that a
// ciphertext's Y component can serve directly as a Bulletproofs commitment.
var Backend = group.Ristretto255()

// SecretKey is a scalar sk. The type carries no box so that it remains
// copyable plain data the way the spec's Scalar type is; zeroization is
// done by calling Zeroize, and no caller in this module wraps it in a
// secret.Box.
type SecretKey struct {
	sk *big.Int
}

// PublicKey is pk = sk*G.
type PublicKey struct {
	pk group.Element
}

// CommitmentWitness is a Pedersen opening (value, blinding). Value fits in
// 64 bits when used as an amount, per the invariant in the spec's data
// model.
type CommitmentWitness struct {
	Value    uint64
	Blinding *big.Int
}

// Ciphertext is a twisted-ElGamal ciphertext: X = blinding*P,
// Y = blinding*G + value*H.
type Ciphertext struct {
	X group.Element
	Y group.Element
}

// pedersenH is the second, independent generator with no known discrete log
// relative to G, derived by hash-to-group the same way the teacher derives
// Bulletproofs' H (bulletproofs.SEEDH), so every layer that needs an H
// agrees on the same point.
var pedersenH = mustMapToGroup("MercatPedersenH")

func mustMapToGroup(seed string) group.Element {
	e, err := Backend.Element().MapToGroup(seed)
	if err != nil {
		panic("elgamal: failed to derive Pedersen generator H: " + err.Error())
	}
	return e
}

// PedersenH returns the shared second generator H used by every commitment
// and ciphertext in this module.
func PedersenH() group.Element { return pedersenH }

// GenerateKey samples a fresh keypair from rng.
func GenerateKey(rng io.Reader) (*SecretKey, PublicKey, error) {
	sk, err := readScalar(rng, Backend.N())
	if err != nil {
		return nil, PublicKey{}, err
	}
	pk := Backend.Element().BaseScale(sk)
	return &SecretKey{sk: sk}, PublicKey{pk: pk}, nil
}

func readScalar(rng io.Reader, order *big.Int) (*big.Int, error) {
	buf := make([]byte, (order.BitLen()+7)/8+8)
	if _, err := io.ReadFull(rng, buf); err != nil {
		return nil, err
	}
	return group.ReduceScalar(new(big.Int).SetBytes(buf), order), nil
}

// PublicKeyFromScalar builds the public key matching sk, without holding
// sk itself. SecretKey.PublicKey is built on it.
func PublicKeyFromScalar(sk *big.Int) PublicKey {
	return PublicKey{pk: Backend.Element().BaseScale(sk)}
}

// Element returns the underlying group element, for use by sigma statements
// that need to build their own commitment equations against this key.
func (pk PublicKey) Element() group.Element { return pk.pk }

// IsValid rejects a public key built from the group identity.
func (pk PublicKey) IsValid() bool { return !pk.pk.IsIdentity() }

// EncryptValue samples a fresh blinding and encrypts value under pk,
// returning both the opening and the ciphertext.
func EncryptValue(pk PublicKey, value uint64, rng io.Reader) (CommitmentWitness, Ciphertext, error) {
	r, err := readScalar(rng, Backend.N())
	if err != nil {
		return CommitmentWitness{}, Ciphertext{}, err
	}
	w := CommitmentWitness{Value: value, Blinding: r}
	return w, Encrypt(pk, w), nil
}

// Encrypt deterministically encrypts a caller-supplied opening. Used when
// the same value must be encrypted to several keys under the same blinding,
// e.g. an asset id copied from an issuer's account to a mediator's.
func Encrypt(pk PublicKey, w CommitmentWitness) Ciphertext {
	X := Backend.Element().Scale(pk.pk, w.Blinding)
	Y := PedersenCommit(w.Value, w.Blinding)
	return Ciphertext{X: X, Y: Y}
}

// PedersenCommit computes blinding*G + value*H, the same quantity as the Y
// component of a ciphertext encrypting (value, blinding). Exposed
// separately because the range proof wrapper must bind its own commitment
// to this exact value.
func PedersenCommit(value uint64, blinding *big.Int) group.Element {
	vG := Backend.Element().BaseScale(blinding)
	vH := Backend.Element().Scale(pedersenH, new(big.Int).SetUint64(value))
	return Backend.Element().Add(vG, vH)
}

// Add homomorphically combines two ciphertexts encrypted under the same
// key, used by the MERCAT engines to apply a deposit/withdrawal memo to an
// account's encrypted balance.
func Add(a, b Ciphertext) Ciphertext {
	return Ciphertext{
		X: Backend.Element().Add(a.X, b.X),
		Y: Backend.Element().Add(a.Y, b.Y),
	}
}

// Sub is the homomorphic inverse of Add.
func Sub(a, b Ciphertext) Ciphertext {
	return Ciphertext{
		X: Backend.Element().Subtract(a.X, b.X),
		Y: Backend.Element().Subtract(a.Y, b.Y),
	}
}

// Decrypt recovers M = Y - sk^-1*X and then finds v in [0, bound) such
// that v*H == M with the baby-step/giant-step search in discreteLogSearch.
//
// X = blinding*pk = blinding*sk*G, so it is sk^-1, not sk, that cancels
// the blinding*sk*G term back out to blinding*G: sk^-1*X == blinding*G.
func (sk *SecretKey) Decrypt(ct Ciphertext, bound *big.Int) (uint64, error) {
	skInv := group.InvertScalar(sk.sk, Backend.N())
	skInvX := Backend.Element().Scale(ct.X, skInv)
	M := Backend.Element().Subtract(ct.Y, skInvX)
	v, err := discreteLogSearch(M, bound)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// discreteLogSearch finds v in [0, bound) with v*H == target, using a
// baby-step/giant-step table: table[j*H] = j for baby steps j in [0, m),
// then for each giant step i it checks target - i*(m*H) against the table.
func discreteLogSearch(target group.Element, bound *big.Int) (uint64, error) {
	if bound == nil || bound.Sign() <= 0 {
		bound = new(big.Int).Set(defaultBound)
	}
	m := new(big.Int).Sqrt(bound)
	m.Add(m, big.NewInt(1))
	mUint := m.Uint64()

	babyTable := make(map[string]uint64, mUint)
	acc := Backend.Identity()
	for j := uint64(0); j < mUint; j++ {
		enc, _ := acc.MarshalBinary()
		babyTable[string(enc)] = j
		acc = Backend.Element().Add(acc, pedersenH)
	}

	giantStep := Backend.Element().Negate(Backend.Element().Scale(pedersenH, m))
	gamma := target
	giants := new(big.Int).Div(bound, m).Uint64() + 2
	for i := uint64(0); i <= giants; i++ {
		enc, err := gamma.MarshalBinary()
		if err != nil {
			return 0, err
		}
		if j, ok := babyTable[string(enc)]; ok {
			v := i*mUint + j
			if new(big.Int).SetUint64(v).Cmp(bound) < 0 {
				return v, nil
			}
		}
		gamma = Backend.Element().Add(gamma, giantStep)
	}
	return 0, merrors.NewNotPublicKeyError("decryption outside configured decoding bound")
}

var defaultBound = new(big.Int).Lsh(big.NewInt(1), 32)

// Verify performs a constant-time check that ct decrypts to expected under
// sk, without running the discrete-log search: it recomputes
// expected*H + sk^-1*X and compares to Y directly.
func (sk *SecretKey) Verify(ct Ciphertext, expected uint64) bool {
	skInv := group.InvertScalar(sk.sk, Backend.N())
	skX := Backend.Element().Scale(ct.X, skInv)
	rhs := Backend.Element().Add(skX, Backend.Element().Scale(pedersenH, new(big.Int).SetUint64(expected)))
	lhsEnc, err1 := ct.Y.MarshalBinary()
	rhsEnc, err2 := rhs.MarshalBinary()
	if err1 != nil || err2 != nil {
		return false
	}
	return subtle.ConstantTimeCompare(lhsEnc, rhsEnc) == 1
}

// PublicKey recovers the public key matching sk.
func (sk *SecretKey) PublicKey() PublicKey {
	return PublicKeyFromScalar(sk.sk)
}

// Scalar exposes the raw secret scalar, for use by statements that must
// build their own sigma commitments against it. The returned value is the
// key's own scalar, so Zeroize clears it too.
func (sk *SecretKey) Scalar() *big.Int { return sk.sk }

// SecretKeyFromScalar wraps an existing scalar as a SecretKey, used when
// deserializing an account's secret part.
func SecretKeyFromScalar(sk *big.Int) *SecretKey {
	return &SecretKey{sk: new(big.Int).Set(sk)}
}

// Zeroize overwrites the secret scalar in place, satisfying secret.Zeroable.
func (sk *SecretKey) Zeroize() {
	sk.sk.SetInt64(0)
}

var _ secret.Zeroable = (*SecretKey)(nil)
