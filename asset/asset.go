// Package asset implements the MERCAT asset issuance engine: an Issuer
// mints a confidential amount into its own account, a Mediator reviews and
// co-signs it, and a Validator re-checks everything and applies the
// deposit. Grounded directly on original_source's src/mercat/asset.rs,
// down to its three-role split, its InitializedAssetTx/JustifiedAssetTx
// envelope shape, and its asset_issuance_init_verify shared-verification
// helper (mirrored here as verifyInitialization).
package asset

import (
	"io"
	"math/big"

	"github.com/mercat-protocol/mercat-go/account"
	"github.com/mercat-protocol/mercat-go/config"
	"github.com/mercat-protocol/mercat-go/elgamal"
	"github.com/mercat-protocol/mercat-go/sigma"
	"github.com/mercat-protocol/mercat-go/signing"
	"github.com/mercat-protocol/mercat-go/statements"
	"github.com/mercat-protocol/mercat-go/transcript"
)

// SigningContext is the domain string every signature in this engine is
// taken under, matching asset.rs's SIG_CTXT = signing_context(b"mercat/asset").
const SigningContext = "mercat/asset"

const contentLabel = "MercatAssetTxContent"

// EncryptingSameValueProof wraps an equal-plaintext proof between an
// issuer-side and a mediator-side ciphertext; it carries both the asset-id
// binding (AssetIDEqualCipherProof) and the amount binding
// (AmountEqualCipherProof).
type EncryptingSameValueProof struct {
	Initial statements.EncryptingSameValueInitialMessage
	Final   statements.EncryptingSameValueFinalResponse
}

// InitializedAssetTx is the issuer's signed issuance request, field for
// field matching asset.rs's AssetTxContent plus its enclosing signature.
type InitializedAssetTx struct {
	AccountID                  uint32
	EncAssetID                 elgamal.Ciphertext // to the mediator
	EncAmount                  elgamal.Ciphertext // to the mediator
	Memo                       elgamal.Ciphertext // to the issuer, the balance deposit memo
	AssetIDEqualCipherProof    EncryptingSameValueProof
	AmountEqualCipherProof     EncryptingSameValueProof
	BalanceWellformednessProof account.WellformednessProof
	BalanceCorrectnessProof    account.CorrectnessProof
	Sig                        []byte
}

// JustifiedAssetTx is the mediator's co-signed envelope wrapping an
// InitializedAssetTx, matching asset.rs's JustifiedAssetTx.
type JustifiedAssetTx struct {
	Content InitializedAssetTx
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

func appendEncryptingSameValue(t *transcript.Transcript, prefix string, p EncryptingSameValueProof) error {
	if err := t.AppendElement(prefix+"_a1", p.Initial.A1); err != nil {
		return err
	}
	if err := t.AppendElement(prefix+"_a2", p.Initial.A2); err != nil {
		return err
	}
	t.AppendMessage(prefix+"_z", p.Final.Z.Bytes())
	return nil
}

func appendWellformedness(t *transcript.Transcript, p account.WellformednessProof) error {
	if err := t.AppendElement("wf_a1", p.Initial.A1); err != nil {
		return err
	}
	if err := t.AppendElement("wf_a2", p.Initial.A2); err != nil {
		return err
	}
	t.AppendMessage("wf_zv", p.Final.Zv.Bytes())
	t.AppendMessage("wf_zr", p.Final.Zr.Bytes())
	return nil
}

func appendCorrectness(t *transcript.Transcript, p account.CorrectnessProof) error {
	if err := t.AppendElement("cor_a1", p.Initial.A1); err != nil {
		return err
	}
	if err := t.AppendElement("cor_a2", p.Initial.A2); err != nil {
		return err
	}
	t.AppendMessage("cor_z", p.Final.Z.Bytes())
	return nil
}

// content returns the canonical bytes the issuer's own signature covers:
// every field of tx but Sig itself.
func (tx InitializedAssetTx) content() ([]byte, error) {
	t := transcript.New(contentLabel)
	t.AppendUint64("account_id", uint64(tx.AccountID))
	if err := appendCiphertext(t, "enc_asset_id", tx.EncAssetID); err != nil {
		return nil, err
	}
	if err := appendCiphertext(t, "enc_amount", tx.EncAmount); err != nil {
		return nil, err
	}
	if err := appendCiphertext(t, "memo", tx.Memo); err != nil {
		return nil, err
	}
	if err := appendEncryptingSameValue(t, "asset_esv", tx.AssetIDEqualCipherProof); err != nil {
		return nil, err
	}
	if err := appendEncryptingSameValue(t, "amount_esv", tx.AmountEqualCipherProof); err != nil {
		return nil, err
	}
	if err := appendWellformedness(t, tx.BalanceWellformednessProof); err != nil {
		return nil, err
	}
	if err := appendCorrectness(t, tx.BalanceCorrectnessProof); err != nil {
		return nil, err
	}
	return t.Bytes(), nil
}

// fullBytes additionally folds in the issuer's own signature, matching
// asset.rs's whole-struct encode() of InitializedAssetTx (content + sig)
// that the mediator signs over and the validator later verifies.
func (tx InitializedAssetTx) fullBytes() ([]byte, error) {
	contentBytes, err := tx.content()
	if err != nil {
		return nil, err
	}
	t := transcript.New(contentLabel + "Full")
	t.AppendMessage("content", contentBytes)
	t.AppendMessage("sig", tx.Sig)
	return t.Bytes(), nil
}

// Issuer mints a confidential amount into its own account.
type Issuer struct{}

// InitializeAssetTransaction builds and signs an issuance request: amount
// and asset id are encrypted to the mediator, amount is separately
// encrypted to the issuer itself as the balance deposit memo, and four
// proofs bind everything together (asset-id and amount equality, memo
// well-formedness and memo correctness), mirroring AssetIssuer::initialize_asset_transaction.
func (Issuer) InitializeAssetTransaction(
	accountID uint32,
	issrSecret *account.Secret,
	mdtrPubKey elgamal.PublicKey,
	amount uint64,
	rng io.Reader,
) (InitializedAssetTx, error) {
	mdtrEncAssetID := elgamal.Encrypt(mdtrPubKey, issrSecret.AssetIDWitness)

	// The amount is encrypted once, under a single witness, and that same
	// witness is reused to build the issuer's own memo copy: the two
	// ciphertexts' Y components are then bit-identical by construction,
	// the same "shared witness" pattern AssetIDWitness already uses for the
	// asset-id copies, rather than independently re-randomized ciphertexts
	// an EncryptingSameValue proof has to reconcile after the fact.
	amountWitness, mdtrEncAmount, err := elgamal.EncryptValue(mdtrPubKey, amount, rng)
	if err != nil {
		return InitializedAssetTx{}, err
	}
	issrEncAmount := elgamal.Encrypt(issrSecret.EncPK, amountWitness)

	esvProver := statements.NewEncryptingSameValueProverAwaitingChallenge(issrSecret.EncPK, mdtrPubKey, issrSecret.AssetIDWitness)
	esvInitial, esvFinal, err := sigma.SingleAwaiting(esvProver, pedersenGens(), rng)
	if err != nil {
		return InitializedAssetTx{}, err
	}

	amtEsvProver := statements.NewEncryptingSameValueProverAwaitingChallenge(issrSecret.EncPK, mdtrPubKey, amountWitness)
	amtEsvInitial, amtEsvFinal, err := sigma.SingleAwaiting(amtEsvProver, pedersenGens(), rng)
	if err != nil {
		return InitializedAssetTx{}, err
	}

	wfProver := statements.NewWellformednessProverAwaitingChallenge(issrSecret.EncPK, amountWitness)
	wfInitial, wfFinal, err := sigma.SingleAwaiting(wfProver, pedersenGens(), rng)
	if err != nil {
		return InitializedAssetTx{}, err
	}

	corrProver := statements.NewCorrectnessProverAwaitingChallenge(issrSecret.EncPK, amountWitness)
	corrInitial, corrFinal, err := sigma.SingleAwaiting(corrProver, pedersenGens(), rng)
	if err != nil {
		return InitializedAssetTx{}, err
	}

	tx := InitializedAssetTx{
		AccountID:  accountID,
		EncAssetID: mdtrEncAssetID,
		EncAmount:  mdtrEncAmount,
		Memo:       issrEncAmount,
		AssetIDEqualCipherProof: EncryptingSameValueProof{
			Initial: esvInitial.(statements.EncryptingSameValueInitialMessage),
			Final:   esvFinal.(statements.EncryptingSameValueFinalResponse),
		},
		AmountEqualCipherProof: EncryptingSameValueProof{
			Initial: amtEsvInitial.(statements.EncryptingSameValueInitialMessage),
			Final:   amtEsvFinal.(statements.EncryptingSameValueFinalResponse),
		},
		BalanceWellformednessProof: account.WellformednessProof{
			Initial: wfInitial.(statements.WellformednessInitialMessage),
			Final:   wfFinal.(statements.WellformednessFinalResponse),
		},
		BalanceCorrectnessProof: account.CorrectnessProof{
			Initial: corrInitial.(statements.CorrectnessInitialMessage),
			Final:   corrFinal.(statements.CorrectnessFinalResponse),
		},
	}

	contentBytes, err := tx.content()
	if err != nil {
		return InitializedAssetTx{}, err
	}
	tx.Sig = issrSecret.SignSK.Sign(SigningContext, contentBytes)
	return tx, nil
}

// verifyInitialization re-checks the issuer's signature, the asset-id and
// amount equality proofs and the memo well-formedness proof, mirroring
// asset.rs's asset_issuance_init_verify. It does not check the correctness
// proof, since that needs the decrypted amount; JustifyAssetTransaction
// checks it after decrypting, and VerifyAssetTransaction does not check it.
func verifyInitialization(tx InitializedAssetTx, issrPublic account.Public, mdtrPubKey elgamal.PublicKey) error {
	contentBytes, err := tx.content()
	if err != nil {
		return err
	}
	if err := issrPublic.Memo.OwnerSignPubKey.Verify("issuer", SigningContext, contentBytes, tx.Sig); err != nil {
		return err
	}

	esvVerifier := statements.NewEncryptingSameValueVerifier(issrPublic.Memo.OwnerEncPubKey, mdtrPubKey, issrPublic.EncAssetID, tx.EncAssetID)
	if err := sigma.SingleVerify(esvVerifier, pedersenGens(), tx.AssetIDEqualCipherProof.Initial, tx.AssetIDEqualCipherProof.Final); err != nil {
		return err
	}

	// Binds the mediator-facing amount ciphertext to the issuer's own memo
	// copy, the same way esvVerifier binds the two asset-id copies above:
	// without this, a forged tx could carry a memo encrypting a different
	// amount than what the mediator decrypts and reviews.
	amtEsvVerifier := statements.NewEncryptingSameValueVerifier(issrPublic.Memo.OwnerEncPubKey, mdtrPubKey, tx.Memo, tx.EncAmount)
	if err := sigma.SingleVerify(amtEsvVerifier, pedersenGens(), tx.AmountEqualCipherProof.Initial, tx.AmountEqualCipherProof.Final); err != nil {
		return err
	}

	wfVerifier := statements.NewWellformednessVerifier(issrPublic.Memo.OwnerEncPubKey, tx.Memo)
	return sigma.SingleVerify(wfVerifier, pedersenGens(), tx.BalanceWellformednessProof.Initial, tx.BalanceWellformednessProof.Final)
}

// Mediator reviews an issuance request, decrypts the amount, and co-signs.
type Mediator struct{}

// JustifyAssetTransaction revalidates the issuer's proofs, decrypts the
// mediator-targeted amount ciphertext, checks it against the issuer's
// memo-correctness proof, and signs, mirroring
// AssetMediator::justify_asset_transaction.
func (Mediator) JustifyAssetTransaction(
	initTx InitializedAssetTx,
	issrPublic account.Public,
	mdtrEncSK *elgamal.SecretKey,
	mdtrEncPK elgamal.PublicKey,
	mdtrSignSK *signing.SecretKey,
	decodingBound *big.Int,
) (JustifiedAssetTx, error) {
	if err := verifyInitialization(initTx, issrPublic, mdtrEncPK); err != nil {
		return JustifiedAssetTx{}, err
	}
	if decodingBound == nil {
		decodingBound = config.DefaultDecodingBound
	}

	amount, err := mdtrEncSK.Decrypt(initTx.EncAmount, decodingBound)
	if err != nil {
		return JustifiedAssetTx{}, err
	}

	corrVerifier := statements.NewCorrectnessVerifier(amount, issrPublic.Memo.OwnerEncPubKey, initTx.Memo)
	if err := sigma.SingleVerify(corrVerifier, pedersenGens(), initTx.BalanceCorrectnessProof.Initial, initTx.BalanceCorrectnessProof.Final); err != nil {
		return JustifiedAssetTx{}, err
	}

	fullBytes, err := initTx.fullBytes()
	if err != nil {
		return JustifiedAssetTx{}, err
	}
	sig := mdtrSignSK.Sign(SigningContext, fullBytes)
	return JustifiedAssetTx{Content: initTx, Sig: sig}, nil
}

// Validator re-checks a justified issuance and applies the resulting
// deposit to the issuer's account.
type Validator struct{}

// VerifyAssetTransaction re-verifies the mediator's signature, the
// issuer's proofs, then deposits the memo into the issuer's account,
// mirroring AssetValidator::verify_asset_transaction.
func (Validator) VerifyAssetTransaction(
	justifiedTx JustifiedAssetTx,
	issrPublic account.Public,
	mdtrEncPK elgamal.PublicKey,
	mdtrSignPK signing.PublicKey,
) (account.Public, error) {
	fullBytes, err := justifiedTx.Content.fullBytes()
	if err != nil {
		return account.Public{}, err
	}
	if err := mdtrSignPK.Verify("mediator", SigningContext, fullBytes, justifiedTx.Sig); err != nil {
		return account.Public{}, err
	}

	if err := verifyInitialization(justifiedTx.Content, issrPublic, mdtrEncPK); err != nil {
		return account.Public{}, err
	}

	return account.Deposit(issrPublic, justifiedTx.Content.Memo), nil
}
