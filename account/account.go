// Package account implements the MERCAT account data model (spec §3): a
// Public half a validator can check and store, and a Secret half exclusively
// owned by the account's principal. No account.rs was retrieved into
// original_source (only asset.rs, which calls
// crate::mercat::account::deposit without defining it), so this package is
// grounded on asset.rs's PubAccount/SecAccount/AccountMemo field names and
// on the account invariants spec.md §3 states directly: the encrypted
// balance's key matches the memo's owner key, and the membership proof
// refers to the same encrypted asset-id the account stores.
package account

import (
	"io"

	"github.com/mercat-protocol/mercat-go/elgamal"
	"github.com/mercat-protocol/mercat-go/group"
	"github.com/mercat-protocol/mercat-go/merrors"
	"github.com/mercat-protocol/mercat-go/secret"
	"github.com/mercat-protocol/mercat-go/sigma"
	"github.com/mercat-protocol/mercat-go/signing"
	"github.com/mercat-protocol/mercat-go/statements"
	"github.com/mercat-protocol/mercat-go/transcript"
)

// SigningContext is the domain string an account memo's signature is taken
// under.
const SigningContext = "mercat/account"

// contentLabel is the transcript label used purely as a canonical,
// length-prefixed byte encoder for a Public account's signed content; it
// never derives a challenge and is not related to any sigma statement's own
// transcript.
const contentLabel = "MercatAccountContent"

// Memo carries the public keys the account's owner signs envelopes with.
type Memo struct {
	OwnerEncPubKey  elgamal.PublicKey
	OwnerSignPubKey signing.PublicKey
}

// WellformednessProof, MembershipProof and CorrectnessProof each wrap one
// sigma round's initial message and final response, named after the
// statement they carry so a Public account's proof fields read the same way
// asset.rs's PubAccountContent fields do (asset_wellformedness_proof,
// asset_membership_proof, initial_balance_correctness_proof).
type WellformednessProof struct {
	Initial statements.WellformednessInitialMessage
	Final   statements.WellformednessFinalResponse
}

type MembershipProof struct {
	Initial statements.MembershipInitialMessage
	Final   statements.MembershipFinalResponse
}

type CorrectnessProof struct {
	Initial statements.CorrectnessInitialMessage
	Final   statements.CorrectnessFinalResponse
}

// Public is the public half of a MERCAT account: what a validator stores
// and re-checks.
type Public struct {
	ID                             uint32
	EncAssetID                     elgamal.Ciphertext
	EncBalance                     elgamal.Ciphertext
	AssetWellformednessProof       WellformednessProof
	AssetMembershipProof           MembershipProof
	InitialBalanceCorrectnessProof CorrectnessProof
	Memo                           Memo
	Sig                            []byte
}

// Secret is the private half of a MERCAT account. Callers MUST defer
// Zeroize immediately after construction, on every exit path.
type Secret struct {
	EncSK          *elgamal.SecretKey
	EncPK          elgamal.PublicKey
	SignSK         *signing.SecretKey
	SignPK         signing.PublicKey
	AssetIDWitness elgamal.CommitmentWitness
}

// Zeroize wipes every secret scalar the account holds.
func (s *Secret) Zeroize() {
	s.EncSK.Zeroize()
	s.SignSK.Zeroize()
	if s.AssetIDWitness.Blinding != nil {
		s.AssetIDWitness.Blinding.SetInt64(0)
	}
}

var _ secret.Zeroable = (*Secret)(nil)

// content returns the exact bytes the account's signature covers: every
// field but the signature itself, folded through the shared transcript
// codec so it is the same length-prefixed, non-ambiguous encoding every
// other envelope in this module uses.
func (p Public) content() ([]byte, error) {
	t := transcript.New(contentLabel)
	t.AppendUint64("id", uint64(p.ID))
	if err := t.AppendElement("enc_asset_id_x", p.EncAssetID.X); err != nil {
		return nil, err
	}
	if err := t.AppendElement("enc_asset_id_y", p.EncAssetID.Y); err != nil {
		return nil, err
	}
	if err := appendBalance(t, p.EncBalance); err != nil {
		return nil, err
	}
	if err := appendWellformedness(t, p.AssetWellformednessProof); err != nil {
		return nil, err
	}
	if err := appendMembership(t, p.AssetMembershipProof); err != nil {
		return nil, err
	}
	if err := appendCorrectness(t, p.InitialBalanceCorrectnessProof); err != nil {
		return nil, err
	}
	if err := t.AppendElement("memo_enc_pk", p.Memo.OwnerEncPubKey.Element()); err != nil {
		return nil, err
	}
	t.AppendMessage("memo_sign_pk", p.Memo.OwnerSignPubKey.Bytes())
	return t.Bytes(), nil
}

// appendBalance tolerates the identity element: a freshly created account's
// balance ciphertext encrypts 0 with a nonzero blinding, so its X component
// is never identity, but EncBalance itself may be the zero value in tests
// that build a Public by hand (mirroring asset.rs's test use of
// EncryptedAmount::default()).
func appendBalance(t *transcript.Transcript, ct elgamal.Ciphertext) error {
	xb, err := ct.X.MarshalBinary()
	if err != nil {
		return err
	}
	t.AppendMessage("enc_balance_x", xb)
	yb, err := ct.Y.MarshalBinary()
	if err != nil {
		return err
	}
	t.AppendMessage("enc_balance_y", yb)
	return nil
}

func appendWellformedness(t *transcript.Transcript, p WellformednessProof) error {
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

func appendMembership(t *transcript.Transcript, p MembershipProof) error {
	t.AppendUint64("mem_levels", uint64(len(p.Initial.L)))
	for _, es := range [][]group.Element{p.Initial.L, p.Initial.A, p.Initial.C, p.Initial.D, p.Initial.G} {
		for _, e := range es {
			if err := t.AppendElement("mem_e", e); err != nil {
				return err
			}
		}
	}
	for _, f := range p.Final.F {
		t.AppendMessage("mem_f", f.Bytes())
	}
	for _, za := range p.Final.ZA {
		t.AppendMessage("mem_za", za.Bytes())
	}
	for _, zc := range p.Final.ZC {
		t.AppendMessage("mem_zc", zc.Bytes())
	}
	t.AppendMessage("mem_z", p.Final.Z.Bytes())
	return nil
}

func appendCorrectness(t *transcript.Transcript, p CorrectnessProof) error {
	if err := t.AppendElement("cor_a1", p.Initial.A1); err != nil {
		return err
	}
	if err := t.AppendElement("cor_a2", p.Initial.A2); err != nil {
		return err
	}
	t.AppendMessage("cor_z", p.Final.Z.Bytes())
	return nil
}

// pedersenGens is the shared (G, H) pair every non-membership statement in
// this package runs against.
func pedersenGens() sigma.PedersenGens {
	return sigma.PedersenGens{G: elgamal.Backend.Generator(), H: elgamal.PedersenH()}
}

// New builds a fresh MERCAT account: an encryption keypair, a signing
// keypair, an asset-id ciphertext, a zero initial balance, and the three
// proofs binding the account to its declared whitelist position and its
// zero balance. whitelistIndex is the position of the account's asset id
// within whitelist (whitelist entries are assetID_i*H points, matching
// config.Options.AssetIDWhitelist).
func New(id uint32, assetID uint64, whitelist []group.Element, whitelistIndex int, rng io.Reader) (Public, *Secret, error) {
	if whitelistIndex < 0 || whitelistIndex >= len(whitelist) {
		return Public{}, nil, merrors.NewVerificationError("account: whitelist index out of range")
	}

	encSK, encPK, err := elgamal.GenerateKey(rng)
	if err != nil {
		return Public{}, nil, err
	}
	signSK, signPK, err := signing.GenerateKey(rng)
	if err != nil {
		return Public{}, nil, err
	}

	assetWitness, encAssetID, err := elgamal.EncryptValue(encPK, assetID, rng)
	if err != nil {
		return Public{}, nil, err
	}
	zeroWitness, encBalance, err := elgamal.EncryptValue(encPK, 0, rng)
	if err != nil {
		return Public{}, nil, err
	}

	memProver := statements.NewMembershipProverAwaitingChallenge(encAssetID.Y, assetWitness.Blinding, whitelistIndex, whitelist)
	memInitial, memFinal, err := sigma.SingleAwaiting(memProver, statements.MembershipGens{List: whitelist}, rng)
	if err != nil {
		return Public{}, nil, err
	}

	wfProver := statements.NewWellformednessProverAwaitingChallenge(encPK, zeroWitness)
	wfInitial, wfFinal, err := sigma.SingleAwaiting(wfProver, pedersenGens(), rng)
	if err != nil {
		return Public{}, nil, err
	}

	corrProver := statements.NewCorrectnessProverAwaitingChallenge(encPK, zeroWitness)
	corrInitial, corrFinal, err := sigma.SingleAwaiting(corrProver, pedersenGens(), rng)
	if err != nil {
		return Public{}, nil, err
	}

	pub := Public{
		ID:         id,
		EncAssetID: encAssetID,
		EncBalance: encBalance,
		AssetWellformednessProof: WellformednessProof{
			Initial: wfInitial.(statements.WellformednessInitialMessage),
			Final:   wfFinal.(statements.WellformednessFinalResponse),
		},
		AssetMembershipProof: MembershipProof{
			Initial: memInitial.(statements.MembershipInitialMessage),
			Final:   memFinal.(statements.MembershipFinalResponse),
		},
		InitialBalanceCorrectnessProof: CorrectnessProof{
			Initial: corrInitial.(statements.CorrectnessInitialMessage),
			Final:   corrFinal.(statements.CorrectnessFinalResponse),
		},
		Memo: Memo{OwnerEncPubKey: encPK, OwnerSignPubKey: signPK},
	}

	contentBytes, err := pub.content()
	if err != nil {
		return Public{}, nil, err
	}
	pub.Sig = signSK.Sign(SigningContext, contentBytes)

	sec := &Secret{
		EncSK:          encSK,
		EncPK:          encPK,
		SignSK:         signSK,
		SignPK:         signPK,
		AssetIDWitness: assetWitness,
	}
	return pub, sec, nil
}

// Verify fully revalidates a Public account against the whitelist it was
// built against: the owner's memo signature, the asset-id membership proof,
// and the zero-balance wellformedness/correctness proofs. Per the spec's
// propagation policy, mediator and validator roles call this rather than
// trusting a previously accepted account.
func Verify(pub Public, whitelist []group.Element) error {
	contentBytes, err := pub.content()
	if err != nil {
		return err
	}
	if err := pub.Memo.OwnerSignPubKey.Verify("account", SigningContext, contentBytes, pub.Sig); err != nil {
		return err
	}

	memVerifier := statements.NewMembershipVerifier(pub.EncAssetID.Y, whitelist)
	if err := sigma.SingleVerify(memVerifier, statements.MembershipGens{List: whitelist},
		pub.AssetMembershipProof.Initial, pub.AssetMembershipProof.Final); err != nil {
		return err
	}

	wfVerifier := statements.NewWellformednessVerifier(pub.Memo.OwnerEncPubKey, pub.EncBalance)
	if err := sigma.SingleVerify(wfVerifier, pedersenGens(),
		pub.AssetWellformednessProof.Initial, pub.AssetWellformednessProof.Final); err != nil {
		return err
	}

	corrVerifier := statements.NewCorrectnessVerifier(0, pub.Memo.OwnerEncPubKey, pub.EncBalance)
	return sigma.SingleVerify(corrVerifier, pedersenGens(),
		pub.InitialBalanceCorrectnessProof.Initial, pub.InitialBalanceCorrectnessProof.Final)
}

// Deposit applies a homomorphic deposit memo to acc's encrypted balance,
// mirroring asset.rs's crate::mercat::account::deposit (referenced there
// but not itself defined in the retrieved source). No re-proof of prior
// well-formedness/membership happens here, per spec.md §4.5: "No re-proof
// of prior membership/well-formedness during processing."
func Deposit(acc Public, memo elgamal.Ciphertext) Public {
	acc.EncBalance = elgamal.Add(acc.EncBalance, memo)
	return acc
}

// Withdraw applies a homomorphic withdrawal/transfer-out to acc's encrypted
// balance, the inverse of Deposit. The transfer engine's validator does not
// call it: it sets the sender's balance to SenderNewEncBalance directly.
func Withdraw(acc Public, amount elgamal.Ciphertext) Public {
	acc.EncBalance = elgamal.Sub(acc.EncBalance, amount)
	return acc
}
