package elgamal

import (
	"bytes"
	"crypto/sha256"
	"io"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// seededRNG reproduces an endless deterministic stream from a 32-byte seed,
// the same "deterministic RNG from a seed" idiom the spec's scenarios rely
// on (S1 uses seed [42;32]).
type seededRNG struct {
	state [32]byte
	ctr   uint64
}

func newSeededRNG(seed byte) *seededRNG {
	r := &seededRNG{}
	for i := range r.state {
		r.state[i] = seed
	}
	return r
}

func (r *seededRNG) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		h := sha256.New()
		h.Write(r.state[:])
		var c [8]byte
		for i := range c {
			c[i] = byte(r.ctr >> (8 * i))
		}
		h.Write(c[:])
		r.ctr++
		n += copy(p[n:], h.Sum(nil))
	}
	return n, nil
}

var _ io.Reader = (*seededRNG)(nil)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	rng := newSeededRNG(42)
	_, pk, err := GenerateKey(rng)
	require.NoError(t, err)

	sk, _, err := GenerateKey(rng)
	require.NoError(t, err)
	pk = sk.PublicKey()

	w, ct, err := EncryptValue(pk, 42, rng)
	require.NoError(t, err)
	require.Equal(t, uint64(42), w.Value)

	got, err := sk.Decrypt(ct, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(42), got)
}

func TestCiphertextYIsPedersenCommitment(t *testing.T) {
	rng := newSeededRNG(42)
	sk, pk, err := GenerateKey(rng)
	require.NoError(t, err)
	_ = sk

	w, ct, err := EncryptValue(pk, 7, rng)
	require.NoError(t, err)

	want := PedersenCommit(w.Value, w.Blinding)
	wantBytes, _ := want.MarshalBinary()
	gotBytes, _ := ct.Y.MarshalBinary()
	require.True(t, bytes.Equal(wantBytes, gotBytes))
}

func TestVerifyRejectsWrongValue(t *testing.T) {
	rng := newSeededRNG(7)
	sk, pk, err := GenerateKey(rng)
	require.NoError(t, err)

	_, ct, err := EncryptValue(pk, 6, rng)
	require.NoError(t, err)

	require.True(t, sk.Verify(ct, 6))
	require.False(t, sk.Verify(ct, 7))
}

func TestHomomorphicAddition(t *testing.T) {
	rng := newSeededRNG(10)
	sk, pk, err := GenerateKey(rng)
	require.NoError(t, err)

	_, ctBalance, err := EncryptValue(pk, 20, rng)
	require.NoError(t, err)
	_, ctMemo, err := EncryptValue(pk, 5, rng)
	require.NoError(t, err)

	sum := Add(ctBalance, ctMemo)
	got, err := sk.Decrypt(sum, big.NewInt(1<<20))
	require.NoError(t, err)
	require.Equal(t, uint64(25), got)
}

func TestDecryptOutOfBoundFails(t *testing.T) {
	rng := newSeededRNG(1)
	sk, pk, err := GenerateKey(rng)
	require.NoError(t, err)

	_, ct, err := EncryptValue(pk, 1000, rng)
	require.NoError(t, err)

	_, err = sk.Decrypt(ct, big.NewInt(10))
	require.Error(t, err)
}
