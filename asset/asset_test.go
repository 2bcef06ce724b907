package asset

import (
	"crypto/sha256"
	"io"
	"math/big"
	"testing"

	"github.com/mercat-protocol/mercat-go/account"
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

func testWhitelist(ids ...uint64) []group.Element {
	list := make([]group.Element, len(ids))
	for i, id := range ids {
		list[i] = elgamal.Backend.Element().Scale(elgamal.PedersenH(), new(big.Int).SetUint64(id))
	}
	return list
}

// TestAssetIssuanceAndValidation reproduces the asset_issuance_and_validation
// scenario: an issuer mints 20 units of asset id 1 into its own account, a
// mediator reviews and co-signs, and a validator applies the deposit and
// confirms the account's new encrypted balance decrypts to 20, plus the
// three signature-tamper negative sub-cases (invalid issuer signature on
// the init tx, invalid mediator signature on the justified tx, and an
// invalid issuer signature nested inside the justified tx's content).
func TestAssetIssuanceAndValidation(t *testing.T) {
	rng := newSeededRNG(10)
	const issuedAmount = 20
	const assetID = 1
	whitelist := testWhitelist(1, 2, 3)

	issrPublic, issrSecret, err := account.New(1234, assetID, whitelist, 0, rng)
	require.NoError(t, err)
	defer issrSecret.Zeroize()

	mdtrEncSK, mdtrEncPK, err := elgamal.GenerateKey(rng)
	require.NoError(t, err)
	mdtrSignSK, mdtrSignPK, err := signing.GenerateKey(rng)
	require.NoError(t, err)

	issuer := Issuer{}
	initTx, err := issuer.InitializeAssetTransaction(1234, issrSecret, mdtrEncPK, issuedAmount, rng)
	require.NoError(t, err)

	mediator := Mediator{}
	justifiedTx, err := mediator.JustifyAssetTransaction(initTx, issrPublic, mdtrEncSK, mdtrEncPK, mdtrSignSK, nil)
	require.NoError(t, err)

	validator := Validator{}
	updatedAccount, err := validator.VerifyAssetTransaction(justifiedTx, issrPublic, mdtrEncPK, mdtrSignPK)
	require.NoError(t, err)

	// Processing: the issued amount was added to the account balance, and
	// the asset id is unchanged.
	require.True(t, issrSecret.EncSK.Verify(updatedAccount.EncBalance, issuedAmount))
	require.Equal(t, issrPublic.EncAssetID, updatedAccount.EncAssetID)

	// Negative: invalid issuer signature on the init tx.
	tamperedInit := initTx
	tamperedInit.Sig = signing.InvalidSignature()
	_, err = mediator.JustifyAssetTransaction(tamperedInit, issrPublic, mdtrEncSK, mdtrEncPK, mdtrSignSK, nil)
	require.Error(t, err)

	// Negative: invalid mediator signature on the justified tx.
	tamperedJustified := justifiedTx
	tamperedJustified.Sig = signing.InvalidSignature()
	_, err = validator.VerifyAssetTransaction(tamperedJustified, issrPublic, mdtrEncPK, mdtrSignPK)
	require.Error(t, err)

	// Negative: invalid issuer signature nested inside the justified tx's
	// content; the validator must catch it even though the mediator's own
	// signature (over the whole content including this now-invalid field)
	// no longer matches either.
	tamperedNested := justifiedTx
	tamperedNested.Content.Sig = signing.InvalidSignature()
	_, err = validator.VerifyAssetTransaction(tamperedNested, issrPublic, mdtrEncPK, mdtrSignPK)
	require.Error(t, err)
}

func TestAssetIssuanceRejectsWrongMediatorDecryption(t *testing.T) {
	rng := newSeededRNG(11)
	whitelist := testWhitelist(1, 2, 3)

	issrPublic, issrSecret, err := account.New(1, 1, whitelist, 0, rng)
	require.NoError(t, err)
	defer issrSecret.Zeroize()

	mdtrEncSK, mdtrEncPK, err := elgamal.GenerateKey(rng)
	require.NoError(t, err)

	issuer := Issuer{}
	initTx, err := issuer.InitializeAssetTransaction(1, issrSecret, mdtrEncPK, 20, rng)
	require.NoError(t, err)

	// Tamper with the mediator-targeted amount ciphertext after the fact;
	// the issuer's signature no longer covers the altered content, so the
	// mediator rejects it in verifyInitialization before decrypting.
	_, otherCt, err := elgamal.EncryptValue(mdtrEncPK, 99, rng)
	require.NoError(t, err)
	initTx.EncAmount = otherCt

	mdtrSignSK, _, err := signing.GenerateKey(rng)
	require.NoError(t, err)
	mediator := Mediator{}
	_, err = mediator.JustifyAssetTransaction(initTx, issrPublic, mdtrEncSK, mdtrEncPK, mdtrSignSK, nil)
	require.Error(t, err)
}
