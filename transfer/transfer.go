// Package transfer implements the MERCAT confidential transfer engine:
// a Sender debits their own account and encrypts the transferred amount to
// the receiver and the mediator, a Receiver checks the asset id matches
// their own account and co-signs, a Mediator reviews and co-signs, and a
// Validator re-checks everything and applies the balance update to both
// accounts. No conf_tx.rs was retrieved into original_source, so this
// package is grounded on spec.md's §4.6 prose (the four roles, the proofs
// each is required to check) plus the envelope/signing/verification-helper
// shape package asset already established from src/mercat/asset.rs.
package transfer

import (
	"io"
	"math/big"

	"github.com/mercat-protocol/mercat-go/account"
	"github.com/mercat-protocol/mercat-go/config"
	"github.com/mercat-protocol/mercat-go/elgamal"
	"github.com/mercat-protocol/mercat-go/merrors"
	"github.com/mercat-protocol/mercat-go/rangeproof"
	"github.com/mercat-protocol/mercat-go/sigma"
	"github.com/mercat-protocol/mercat-go/signing"
	"github.com/mercat-protocol/mercat-go/statements"
	"github.com/mercat-protocol/mercat-go/transcript"
)

// SigningContext is the domain string every signature in this engine is
// taken under; "analogous for transfer" per the asset engine's
// "mercat/asset" convention.
const SigningContext = "mercat/transfer"

const contentLabel = "MercatTransferTxContent"

// EncryptingSameValueProof mirrors package asset's wrapper of the same
// name: an equal-plaintext-under-two-keys proof.
type EncryptingSameValueProof struct {
	Initial statements.EncryptingSameValueInitialMessage
	Final   statements.EncryptingSameValueFinalResponse
}

// RangeProof wraps one bulletproofs range argument plus its binding
// commitment, the pair rangeproof.ProveWithinRange returns.
type RangeProof struct {
	Initial rangeproof.InitialMessage
	Final   rangeproof.FinalResponse
}

// InitializedTransferTx is the sender's signed transfer request.
type InitializedTransferTx struct {
	SenderAccountID   uint32
	ReceiverAccountID uint32

	EncAmountSender   elgamal.Ciphertext // the memo: amount under the sender's own key
	EncAmountReceiver elgamal.Ciphertext // amount under the receiver's key
	EncAmountMediator elgamal.Ciphertext // amount under the mediator's key

	EncAssetIDReceiver  elgamal.Ciphertext // sender's asset id under the receiver's key
	SenderNewEncBalance elgamal.Ciphertext // sender's balance after debiting, under the sender's key

	AssetIDEqualCipherProof        EncryptingSameValueProof // ties the sender's account asset id to EncAssetIDReceiver
	AmountEqualCipherProofReceiver EncryptingSameValueProof // ties EncAmountSender to EncAmountReceiver
	AmountEqualCipherProofMediator EncryptingSameValueProof // ties EncAmountSender to EncAmountMediator

	NonNegAmountProof RangeProof // EncAmountSender's value lies in [0, 2^bitsize)
	EnoughFundProof   RangeProof // SenderNewEncBalance's value lies in [0, 2^bitsize)

	Sig []byte
}

// FinalizedTransferTx is the receiver's co-signed envelope around an
// InitializedTransferTx.
type FinalizedTransferTx struct {
	Content InitializedTransferTx
	Sig     []byte
}

// JustifiedTransferTx is the mediator's co-signed envelope around a
// FinalizedTransferTx.
type JustifiedTransferTx struct {
	Content FinalizedTransferTx
	Sig     []byte
}

func pedersenGens() sigma.PedersenGens {
	return sigma.PedersenGens{G: elgamal.Backend.Generator(), H: elgamal.PedersenH()}
}

func appendCiphertext(t *transcript.Transcript, label string, ct elgamal.Ciphertext) error {
	xb, err := ct.X.MarshalBinary()
	if err != nil {
		return err
	}
	t.AppendMessage(label+"_x", xb)
	yb, err := ct.Y.MarshalBinary()
	if err != nil {
		return err
	}
	t.AppendMessage(label+"_y", yb)
	return nil
}

func appendEncryptingSameValue(t *transcript.Transcript, label string, p EncryptingSameValueProof) error {
	if err := t.AppendElement(label+"_a1", p.Initial.A1); err != nil {
		return err
	}
	if err := t.AppendElement(label+"_a2", p.Initial.A2); err != nil {
		return err
	}
	t.AppendMessage(label+"_z", p.Final.Z.Bytes())
	return nil
}

func appendRangeProof(t *transcript.Transcript, label string, p RangeProof) error {
	if err := t.AppendElement(label+"_commitment", p.Initial.Commitment); err != nil {
		return err
	}
	t.AppendUint64(label+"_bitsize", uint64(p.Final.Bitsize))
	return nil
}

// content returns the canonical bytes the sender's own signature covers.
func (tx InitializedTransferTx) content() ([]byte, error) {
	t := transcript.New(contentLabel)
	t.AppendUint64("sender_account_id", uint64(tx.SenderAccountID))
	t.AppendUint64("receiver_account_id", uint64(tx.ReceiverAccountID))
	for _, f := range []struct {
		label string
		ct    elgamal.Ciphertext
	}{
		{"enc_amount_sender", tx.EncAmountSender},
		{"enc_amount_receiver", tx.EncAmountReceiver},
		{"enc_amount_mediator", tx.EncAmountMediator},
		{"enc_asset_id_receiver", tx.EncAssetIDReceiver},
		{"sender_new_enc_balance", tx.SenderNewEncBalance},
	} {
		if err := appendCiphertext(t, f.label, f.ct); err != nil {
			return nil, err
		}
	}
	if err := appendEncryptingSameValue(t, "asset_id_equal", tx.AssetIDEqualCipherProof); err != nil {
		return nil, err
	}
	if err := appendEncryptingSameValue(t, "amount_equal_receiver", tx.AmountEqualCipherProofReceiver); err != nil {
		return nil, err
	}
	if err := appendEncryptingSameValue(t, "amount_equal_mediator", tx.AmountEqualCipherProofMediator); err != nil {
		return nil, err
	}
	if err := appendRangeProof(t, "non_neg_amount", tx.NonNegAmountProof); err != nil {
		return nil, err
	}
	if err := appendRangeProof(t, "enough_fund", tx.EnoughFundProof); err != nil {
		return nil, err
	}
	return t.Bytes(), nil
}

// fullBytes folds in tx's own signature, mirroring package asset's
// content-plus-signature encoding that an enclosing envelope's co-signer
// signs over.
func (tx InitializedTransferTx) fullBytes() ([]byte, error) {
	contentBytes, err := tx.content()
	if err != nil {
		return nil, err
	}
	t := transcript.New(contentLabel + "Full")
	t.AppendMessage("content", contentBytes)
	t.AppendMessage("sig", tx.Sig)
	return t.Bytes(), nil
}

func (f FinalizedTransferTx) fullBytes() ([]byte, error) {
	contentBytes, err := f.Content.fullBytes()
	if err != nil {
		return nil, err
	}
	t := transcript.New(contentLabel + "Finalized")
	t.AppendMessage("content", contentBytes)
	t.AppendMessage("sig", f.Sig)
	return t.Bytes(), nil
}

// Sender debits its own account and requests a confidential transfer.
type Sender struct{}

// InitializeTransferTransaction builds and signs a transfer request. amount
// is encrypted to the sender (memo), the receiver, and the mediator under
// one shared witness; the sender's asset id is separately encrypted
// to the receiver so the receiver can check it against its own account;
// the sender's new balance (old balance minus amount) is encrypted under
// the sender's own key. Five proofs bind everything together: asset-id and
// amount equality across the three targets, and two range proofs ensuring
// neither the amount nor the remaining balance is negative.
func (Sender) InitializeTransferTransaction(
	senderAccountID, receiverAccountID uint32,
	senderSecret *account.Secret,
	senderPublic account.Public,
	receiverPK elgamal.PublicKey,
	mdtrPK elgamal.PublicKey,
	oldBalance uint64,
	amount uint64,
	bitsize int64,
	rng io.Reader,
) (InitializedTransferTx, error) {
	if amount > oldBalance {
		return InitializedTransferTx{}, merrors.NewVerificationError("transfer: amount exceeds available balance")
	}

	amountSenderWitness, encAmountSender, err := elgamal.EncryptValue(senderSecret.EncPK, amount, rng)
	if err != nil {
		return InitializedTransferTx{}, err
	}
	encAmountReceiver := elgamal.Encrypt(receiverPK, amountSenderWitness)
	encAmountMediator := elgamal.Encrypt(mdtrPK, amountSenderWitness)
	encAssetIDReceiver := elgamal.Encrypt(receiverPK, senderSecret.AssetIDWitness)

	newBalance := oldBalance - amount
	newBalanceWitness, senderNewEncBalance, err := elgamal.EncryptValue(senderSecret.EncPK, newBalance, rng)
	if err != nil {
		return InitializedTransferTx{}, err
	}

	assetIDProver := statements.NewEncryptingSameValueProverAwaitingChallenge(senderSecret.EncPK, receiverPK, senderSecret.AssetIDWitness)
	assetIDInitial, assetIDFinal, err := sigma.SingleAwaiting(assetIDProver, pedersenGens(), rng)
	if err != nil {
		return InitializedTransferTx{}, err
	}

	amountReceiverProver := statements.NewEncryptingSameValueProverAwaitingChallenge(senderSecret.EncPK, receiverPK, amountSenderWitness)
	amountReceiverInitial, amountReceiverFinal, err := sigma.SingleAwaiting(amountReceiverProver, pedersenGens(), rng)
	if err != nil {
		return InitializedTransferTx{}, err
	}

	amountMediatorProver := statements.NewEncryptingSameValueProverAwaitingChallenge(senderSecret.EncPK, mdtrPK, amountSenderWitness)
	amountMediatorInitial, amountMediatorFinal, err := sigma.SingleAwaiting(amountMediatorProver, pedersenGens(), rng)
	if err != nil {
		return InitializedTransferTx{}, err
	}

	nonNegInitial, nonNegFinal, err := rangeproof.ProveWithinRange(amount, amountSenderWitness.Blinding, bitsize, rng)
	if err != nil {
		return InitializedTransferTx{}, err
	}

	enoughFundInitial, enoughFundFinal, err := rangeproof.ProveWithinRange(newBalance, newBalanceWitness.Blinding, bitsize, rng)
	if err != nil {
		return InitializedTransferTx{}, err
	}

	tx := InitializedTransferTx{
		SenderAccountID:     senderAccountID,
		ReceiverAccountID:   receiverAccountID,
		EncAmountSender:     encAmountSender,
		EncAmountReceiver:   encAmountReceiver,
		EncAmountMediator:   encAmountMediator,
		EncAssetIDReceiver:  encAssetIDReceiver,
		SenderNewEncBalance: senderNewEncBalance,
		AssetIDEqualCipherProof: EncryptingSameValueProof{
			Initial: assetIDInitial.(statements.EncryptingSameValueInitialMessage),
			Final:   assetIDFinal.(statements.EncryptingSameValueFinalResponse),
		},
		AmountEqualCipherProofReceiver: EncryptingSameValueProof{
			Initial: amountReceiverInitial.(statements.EncryptingSameValueInitialMessage),
			Final:   amountReceiverFinal.(statements.EncryptingSameValueFinalResponse),
		},
		AmountEqualCipherProofMediator: EncryptingSameValueProof{
			Initial: amountMediatorInitial.(statements.EncryptingSameValueInitialMessage),
			Final:   amountMediatorFinal.(statements.EncryptingSameValueFinalResponse),
		},
		NonNegAmountProof: RangeProof{Initial: nonNegInitial, Final: nonNegFinal},
		EnoughFundProof:   RangeProof{Initial: enoughFundInitial, Final: enoughFundFinal},
	}

	contentBytes, err := tx.content()
	if err != nil {
		return InitializedTransferTx{}, err
	}
	tx.Sig = senderSecret.SignSK.Sign(SigningContext, contentBytes)
	return tx, nil
}

// verifyInitialization re-checks the sender's signature, the three
// cross-key equality proofs, both range proofs (and their binding to the
// ciphertexts they claim to be about), and the public homomorphic
// invariant that the new balance plus the transferred amount reconstructs
// the sender's prior balance.
func verifyInitialization(tx InitializedTransferTx, senderPublic account.Public, receiverPK, mdtrPK elgamal.PublicKey, bitsize int64) error {
	contentBytes, err := tx.content()
	if err != nil {
		return err
	}
	if err := senderPublic.Memo.OwnerSignPubKey.Verify("sender", SigningContext, contentBytes, tx.Sig); err != nil {
		return err
	}

	assetIDVerifier := statements.NewEncryptingSameValueVerifier(senderPublic.Memo.OwnerEncPubKey, receiverPK, senderPublic.EncAssetID, tx.EncAssetIDReceiver)
	if err := sigma.SingleVerify(assetIDVerifier, pedersenGens(), tx.AssetIDEqualCipherProof.Initial, tx.AssetIDEqualCipherProof.Final); err != nil {
		return err
	}

	amountReceiverVerifier := statements.NewEncryptingSameValueVerifier(senderPublic.Memo.OwnerEncPubKey, receiverPK, tx.EncAmountSender, tx.EncAmountReceiver)
	if err := sigma.SingleVerify(amountReceiverVerifier, pedersenGens(), tx.AmountEqualCipherProofReceiver.Initial, tx.AmountEqualCipherProofReceiver.Final); err != nil {
		return err
	}

	amountMediatorVerifier := statements.NewEncryptingSameValueVerifier(senderPublic.Memo.OwnerEncPubKey, mdtrPK, tx.EncAmountSender, tx.EncAmountMediator)
	if err := sigma.SingleVerify(amountMediatorVerifier, pedersenGens(), tx.AmountEqualCipherProofMediator.Initial, tx.AmountEqualCipherProofMediator.Final); err != nil {
		return err
	}

	if err := rangeproof.VerifyWithinRange(tx.NonNegAmountProof.Initial, tx.NonNegAmountProof.Final, bitsize); err != nil {
		return err
	}
	if !rangeproof.BindsToCiphertext(tx.NonNegAmountProof.Initial, tx.EncAmountSender) {
		return merrors.NewVerificationError("transfer: amount range proof does not bind to the amount memo")
	}

	if err := rangeproof.VerifyWithinRange(tx.EnoughFundProof.Initial, tx.EnoughFundProof.Final, bitsize); err != nil {
		return err
	}
	if !rangeproof.BindsToCiphertext(tx.EnoughFundProof.Initial, tx.SenderNewEncBalance) {
		return merrors.NewVerificationError("transfer: remaining-balance range proof does not bind to the new balance ciphertext")
	}

	reconstructed := elgamal.Add(tx.SenderNewEncBalance, tx.EncAmountSender)
	oldXBytes, err := senderPublic.EncBalance.X.MarshalBinary()
	if err != nil {
		return err
	}
	reconXBytes, err := reconstructed.X.MarshalBinary()
	if err != nil {
		return err
	}
	oldYBytes, err := senderPublic.EncBalance.Y.MarshalBinary()
	if err != nil {
		return err
	}
	reconYBytes, err := reconstructed.Y.MarshalBinary()
	if err != nil {
		return err
	}
	if string(oldXBytes) != string(reconXBytes) || string(oldYBytes) != string(reconYBytes) {
		return merrors.NewVerificationError("transfer: new balance does not reconstruct the prior balance minus the transferred amount")
	}

	return nil
}

// Receiver checks an incoming transfer against its own account and
// co-signs.
type Receiver struct{}

// FinalizeTransferTransaction re-checks the sender's transaction, decrypts
// EncAssetIDReceiver and confirms it matches the receiver's own account
// asset id (the identity check spec.md §4.6 asks the receiver to add),
// then signs.
func (Receiver) FinalizeTransferTransaction(
	tx InitializedTransferTx,
	senderPublic account.Public,
	receiverSecret *account.Secret,
	receiverPublic account.Public,
	mdtrPK elgamal.PublicKey,
	bitsize int64,
	decodingBound *big.Int,
) (FinalizedTransferTx, error) {
	if err := verifyInitialization(tx, senderPublic, receiverSecret.EncPK, mdtrPK, bitsize); err != nil {
		return FinalizedTransferTx{}, err
	}
	if decodingBound == nil {
		decodingBound = config.DefaultDecodingBound
	}

	assetID, err := receiverSecret.EncSK.Decrypt(tx.EncAssetIDReceiver, decodingBound)
	if err != nil {
		return FinalizedTransferTx{}, err
	}
	if !receiverSecret.EncSK.Verify(receiverPublic.EncAssetID, assetID) {
		return FinalizedTransferTx{}, merrors.NewVerificationError("transfer: sender's asset id does not match the receiver's account")
	}

	contentBytes, err := tx.content()
	if err != nil {
		return FinalizedTransferTx{}, err
	}
	sig := receiverSecret.SignSK.Sign(SigningContext, contentBytes)
	return FinalizedTransferTx{Content: tx, Sig: sig}, nil
}

// Mediator reviews a finalized transfer and co-signs.
type Mediator struct{}

// JustifyTransferTransaction revalidates the sender's transaction and the
// receiver's signature, decrypts the mediator-targeted amount ciphertext
// as a sanity check, and signs.
func (Mediator) JustifyTransferTransaction(
	finalizedTx FinalizedTransferTx,
	senderPublic account.Public,
	receiverPublic account.Public,
	mdtrEncSK *elgamal.SecretKey,
	mdtrEncPK elgamal.PublicKey,
	mdtrSignSK *signing.SecretKey,
	bitsize int64,
	decodingBound *big.Int,
) (JustifiedTransferTx, error) {
	if err := verifyInitialization(finalizedTx.Content, senderPublic, receiverPublic.Memo.OwnerEncPubKey, mdtrEncPK, bitsize); err != nil {
		return JustifiedTransferTx{}, err
	}
	contentBytes, err := finalizedTx.Content.content()
	if err != nil {
		return JustifiedTransferTx{}, err
	}
	if err := receiverPublic.Memo.OwnerSignPubKey.Verify("receiver", SigningContext, contentBytes, finalizedTx.Sig); err != nil {
		return JustifiedTransferTx{}, err
	}
	if decodingBound == nil {
		decodingBound = config.DefaultDecodingBound
	}
	if _, err := mdtrEncSK.Decrypt(finalizedTx.Content.EncAmountMediator, decodingBound); err != nil {
		return JustifiedTransferTx{}, err
	}

	fullBytes, err := finalizedTx.fullBytes()
	if err != nil {
		return JustifiedTransferTx{}, err
	}
	sig := mdtrSignSK.Sign(SigningContext, fullBytes)
	return JustifiedTransferTx{Content: finalizedTx, Sig: sig}, nil
}

// Validator re-checks a justified transfer and applies the resulting
// balance update to both accounts.
type Validator struct{}

// VerifyTransferTransaction re-verifies the mediator's and receiver's
// signatures and the sender's transaction, then debits the sender's
// account to its pre-computed new balance and credits the receiver's
// account with the transferred amount.
func (Validator) VerifyTransferTransaction(
	justifiedTx JustifiedTransferTx,
	senderPublic account.Public,
	receiverPublic account.Public,
	mdtrEncPK elgamal.PublicKey,
	mdtrSignPK signing.PublicKey,
	bitsize int64,
) (newSenderPublic, newReceiverPublic account.Public, err error) {
	fullBytes, err := justifiedTx.Content.fullBytes()
	if err != nil {
		return account.Public{}, account.Public{}, err
	}
	if err := mdtrSignPK.Verify("mediator", SigningContext, fullBytes, justifiedTx.Sig); err != nil {
		return account.Public{}, account.Public{}, err
	}

	contentBytes, err := justifiedTx.Content.Content.content()
	if err != nil {
		return account.Public{}, account.Public{}, err
	}
	if err := receiverPublic.Memo.OwnerSignPubKey.Verify("receiver", SigningContext, contentBytes, justifiedTx.Content.Sig); err != nil {
		return account.Public{}, account.Public{}, err
	}

	if err := verifyInitialization(justifiedTx.Content.Content, senderPublic, receiverPublic.Memo.OwnerEncPubKey, mdtrEncPK, bitsize); err != nil {
		return account.Public{}, account.Public{}, err
	}

	newSenderPublic = senderPublic
	newSenderPublic.EncBalance = justifiedTx.Content.Content.SenderNewEncBalance
	newReceiverPublic = account.Deposit(receiverPublic, justifiedTx.Content.Content.EncAmountReceiver)
	return newSenderPublic, newReceiverPublic, nil
}
