package transfer

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

type harness struct {
	whitelist []group.Element

	senderPublic   account.Public
	senderSecret   *account.Secret
	receiverPublic account.Public
	receiverSecret *account.Secret

	mdtrEncSK  *elgamal.SecretKey
	mdtrEncPK  elgamal.PublicKey
	mdtrSignSK *signing.SecretKey
	mdtrSignPK signing.PublicKey
}

func newHarness(t *testing.T, rng io.Reader) harness {
	t.Helper()
	whitelist := testWhitelist(1, 2, 3)

	senderPublic, senderSecret, err := account.New(1, 1, whitelist, 0, rng)
	require.NoError(t, err)
	receiverPublic, receiverSecret, err := account.New(2, 1, whitelist, 0, rng)
	require.NoError(t, err)

	mdtrEncSK, mdtrEncPK, err := elgamal.GenerateKey(rng)
	require.NoError(t, err)
	mdtrSignSK, mdtrSignPK, err := signing.GenerateKey(rng)
	require.NoError(t, err)

	return harness{
		whitelist:      whitelist,
		senderPublic:   senderPublic,
		senderSecret:   senderSecret,
		receiverPublic: receiverPublic,
		receiverSecret: receiverSecret,
		mdtrEncSK:      mdtrEncSK,
		mdtrEncPK:      mdtrEncPK,
		mdtrSignSK:     mdtrSignSK,
		mdtrSignPK:     mdtrSignPK,
	}
}

func TestTransferEndToEnd(t *testing.T) {
	rng := newSeededRNG(21)
	h := newHarness(t, rng)
	defer h.senderSecret.Zeroize()
	defer h.receiverSecret.Zeroize()

	const oldBalance = 50
	const amount = 30
	const bitsize = 32

	// Credit the sender's account to 50 first, the way a prior asset
	// issuance or transfer would have.
	_, creditCt, err := elgamal.EncryptValue(h.senderSecret.EncPK, oldBalance, rng)
	require.NoError(t, err)
	h.senderPublic = account.Deposit(h.senderPublic, creditCt)
	require.True(t, h.senderSecret.EncSK.Verify(h.senderPublic.EncBalance, oldBalance))

	sender := Sender{}
	initTx, err := sender.InitializeTransferTransaction(
		1, 2, h.senderSecret, h.senderPublic, h.receiverSecret.EncPK, h.mdtrEncPK,
		oldBalance, amount, bitsize, rng)
	require.NoError(t, err)

	receiver := Receiver{}
	finalizedTx, err := receiver.FinalizeTransferTransaction(
		initTx, h.senderPublic, h.receiverSecret, h.receiverPublic, h.mdtrEncPK, bitsize, nil)
	require.NoError(t, err)

	mediator := Mediator{}
	justifiedTx, err := mediator.JustifyTransferTransaction(
		finalizedTx, h.senderPublic, h.receiverPublic, h.mdtrEncSK, h.mdtrEncPK, h.mdtrSignSK, bitsize, nil)
	require.NoError(t, err)

	validator := Validator{}
	newSender, newReceiver, err := validator.VerifyTransferTransaction(
		justifiedTx, h.senderPublic, h.receiverPublic, h.mdtrEncPK, h.mdtrSignPK, bitsize)
	require.NoError(t, err)

	require.True(t, h.senderSecret.EncSK.Verify(newSender.EncBalance, oldBalance-amount))
	require.True(t, h.receiverSecret.EncSK.Verify(newReceiver.EncBalance, amount))
}

func TestTransferRejectsOverdraft(t *testing.T) {
	rng := newSeededRNG(22)
	h := newHarness(t, rng)
	defer h.senderSecret.Zeroize()
	defer h.receiverSecret.Zeroize()

	sender := Sender{}
	_, err := sender.InitializeTransferTransaction(
		1, 2, h.senderSecret, h.senderPublic, h.receiverSecret.EncPK, h.mdtrEncPK,
		10, 20, 32, rng)
	require.Error(t, err)
}

func TestTransferRejectsMismatchedReceiverAssetID(t *testing.T) {
	rng := newSeededRNG(23)
	whitelist := testWhitelist(1, 2, 3)

	senderPublic, senderSecret, err := account.New(1, 1, whitelist, 0, rng)
	require.NoError(t, err)
	defer senderSecret.Zeroize()
	// The receiver's account holds a different asset id than what the
	// sender is transferring.
	receiverPublic, receiverSecret, err := account.New(2, 2, whitelist, 1, rng)
	require.NoError(t, err)
	defer receiverSecret.Zeroize()

	mdtrEncSK, mdtrEncPK, err := elgamal.GenerateKey(rng)
	require.NoError(t, err)
	_ = mdtrEncSK

	_, creditCt, err := elgamal.EncryptValue(senderSecret.EncPK, 50, rng)
	require.NoError(t, err)
	senderPublic = account.Deposit(senderPublic, creditCt)

	sender := Sender{}
	initTx, err := sender.InitializeTransferTransaction(
		1, 2, senderSecret, senderPublic, receiverSecret.EncPK, mdtrEncPK,
		50, 10, 32, rng)
	require.NoError(t, err)

	receiver := Receiver{}
	_, err = receiver.FinalizeTransferTransaction(
		initTx, senderPublic, receiverSecret, receiverPublic, mdtrEncPK, 32, nil)
	require.Error(t, err)
}

func TestTransferRejectsTamperedMediatorSignature(t *testing.T) {
	rng := newSeededRNG(24)
	h := newHarness(t, rng)
	defer h.senderSecret.Zeroize()
	defer h.receiverSecret.Zeroize()

	const oldBalance = 50
	const amount = 10
	const bitsize = 32

	_, creditCt, err := elgamal.EncryptValue(h.senderSecret.EncPK, oldBalance, rng)
	require.NoError(t, err)
	h.senderPublic = account.Deposit(h.senderPublic, creditCt)

	sender := Sender{}
	initTx, err := sender.InitializeTransferTransaction(
		1, 2, h.senderSecret, h.senderPublic, h.receiverSecret.EncPK, h.mdtrEncPK,
		oldBalance, amount, bitsize, rng)
	require.NoError(t, err)

	receiver := Receiver{}
	finalizedTx, err := receiver.FinalizeTransferTransaction(
		initTx, h.senderPublic, h.receiverSecret, h.receiverPublic, h.mdtrEncPK, bitsize, nil)
	require.NoError(t, err)

	mediator := Mediator{}
	justifiedTx, err := mediator.JustifyTransferTransaction(
		finalizedTx, h.senderPublic, h.receiverPublic, h.mdtrEncSK, h.mdtrEncPK, h.mdtrSignSK, bitsize, nil)
	require.NoError(t, err)

	justifiedTx.Sig = signing.InvalidSignature()

	validator := Validator{}
	_, _, err = validator.VerifyTransferTransaction(
		justifiedTx, h.senderPublic, h.receiverPublic, h.mdtrEncPK, h.mdtrSignPK, bitsize)
	require.Error(t, err)
}
