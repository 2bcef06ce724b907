package account

import (
	"crypto/sha256"
	"io"
	"math/big"
	"testing"

	"github.com/mercat-protocol/mercat-go/elgamal"
	"github.com/mercat-protocol/mercat-go/group"
	"github.com/mercat-protocol/mercat-go/signing"
	"github.com/stretchr/testify/require"
)

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

// testWhitelist builds whitelist entries the same way config's
// AssetIDWhitelist is expected to be precomputed: each entry is
// assetID*H, matching MembershipProverAwaitingChallenge's expectation
// that Commitment - List[Index] = Blinding*G for the real index.
func testWhitelist(t *testing.T, ids ...uint64) []group.Element {
	t.Helper()
	list := make([]group.Element, len(ids))
	for i, id := range ids {
		list[i] = elgamal.Backend.Element().Scale(elgamal.PedersenH(), new(big.Int).SetUint64(id))
	}
	return list
}

func TestAccountCreationAndVerification(t *testing.T) {
	rng := newSeededRNG(7)
	whitelist := testWhitelist(t, 1, 2, 3)

	pub, sec, err := New(1, 2, whitelist, 1, rng)
	require.NoError(t, err)
	defer sec.Zeroize()

	require.NoError(t, Verify(pub, whitelist))
}

func TestAccountRejectsTamperedSignature(t *testing.T) {
	rng := newSeededRNG(8)
	whitelist := testWhitelist(t, 1, 2, 3)

	pub, sec, err := New(1, 2, whitelist, 1, rng)
	require.NoError(t, err)
	defer sec.Zeroize()

	pub.Sig = signing.InvalidSignature()
	require.Error(t, Verify(pub, whitelist))
}

func TestAccountRejectsWrongWhitelistIndex(t *testing.T) {
	rng := newSeededRNG(9)
	whitelist := testWhitelist(t, 1, 2, 3)

	_, _, err := New(1, 2, whitelist, 5, rng)
	require.Error(t, err)
}

func TestAccountRejectsForeignWhitelist(t *testing.T) {
	rng := newSeededRNG(10)
	whitelist := testWhitelist(t, 1, 2, 3)
	otherWhitelist := testWhitelist(t, 9, 10, 11)

	pub, sec, err := New(1, 2, whitelist, 1, rng)
	require.NoError(t, err)
	defer sec.Zeroize()

	require.Error(t, Verify(pub, otherWhitelist))
}

func TestDepositAndWithdrawRoundTrip(t *testing.T) {
	rng := newSeededRNG(11)
	whitelist := testWhitelist(t, 1, 2, 3)

	pub, sec, err := New(1, 2, whitelist, 1, rng)
	require.NoError(t, err)
	defer sec.Zeroize()

	_, encTen, err := elgamal.EncryptValue(sec.EncPK, 10, rng)
	require.NoError(t, err)

	credited := Deposit(pub, encTen)
	require.True(t, sec.EncSK.Verify(credited.EncBalance, 10))

	debited := Withdraw(credited, encTen)
	require.True(t, sec.EncSK.Verify(debited.EncBalance, 0))
}
