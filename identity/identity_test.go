package identity

import (
	"crypto/sha256"
	"io"
	"testing"

	"github.com/mercat-protocol/mercat-go/identity/mocked"
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

func fixedDID(b byte) InvestorDID {
	var d InvestorDID
	for i := range d {
		d[i] = b
	}
	return d
}

func fixedScope(b byte) ScopeDID {
	var s ScopeDID
	for i := range s {
		s[i] = b
	}
	return s
}

// TestIDMatchProofVerifies reproduces the scp CLI's create-claim-proof flow:
// a CDD provider commits an investor's did and unique id into CDD_ID, the
// investor commits the same unique id and a scope did into SCOPE_ID, and
// proves the two share a unique id.
func TestIDMatchProofVerifies(t *testing.T) {
	rng := newSeededRNG(5)

	investorDID := fixedDID(1)
	scopeDID := fixedScope(2)
	uniqueID := mocked.MakeInvestorUID(investorDID[:])

	cddClaim := NewCddClaimData(investorDID, uniqueID)
	scopeClaim := NewScopeClaimData(scopeDID, uniqueID)

	proofData, err := BuildScopeClaimProofData(cddClaim, scopeClaim)
	require.NoError(t, err)
	keyPair := NewProofKeyPair(proofData)
	defer keyPair.Zeroize()

	message := append(append([]byte{}, investorDID[:]...), scopeDID[:]...)
	proof, err := keyPair.GenerateIDMatchProof(message, rng)
	require.NoError(t, err)

	cddID := ComputeCDDID(cddClaim)
	scopeID, err := ComputeScopeID(scopeClaim)
	require.NoError(t, err)

	err = Verify(proof, cddID, investorDID, scopeID, scopeDID, message)
	require.NoError(t, err)
}

func TestIDMatchProofRejectsMismatchedUniqueID(t *testing.T) {
	rng := newSeededRNG(6)

	investorDID := fixedDID(1)
	scopeDID := fixedScope(2)
	uniqueID := mocked.MakeInvestorUID(investorDID[:])

	cddClaim := NewCddClaimData(investorDID, uniqueID)
	scopeClaim := NewScopeClaimData(scopeDID, uniqueID)

	proofData, err := BuildScopeClaimProofData(cddClaim, scopeClaim)
	require.NoError(t, err)
	keyPair := NewProofKeyPair(proofData)
	defer keyPair.Zeroize()

	message := append(append([]byte{}, investorDID[:]...), scopeDID[:]...)
	proof, err := keyPair.GenerateIDMatchProof(message, rng)
	require.NoError(t, err)

	cddID := ComputeCDDID(cddClaim)

	// A scope claim for a different investor's unique id: SCOPE_ID no
	// longer shares a discrete log with CDD_ID.
	otherUniqueID := mocked.MakeInvestorUID(fixedDID(9)[:])
	mismatchedScopeClaim := NewScopeClaimData(scopeDID, otherUniqueID)
	mismatchedScopeID, err := ComputeScopeID(mismatchedScopeClaim)
	require.NoError(t, err)

	err = Verify(proof, cddID, investorDID, mismatchedScopeID, scopeDID, message)
	require.Error(t, err)
}

func TestBuildScopeClaimProofDataRejectsUnsharedUniqueID(t *testing.T) {
	investorDID := fixedDID(1)
	scopeDID := fixedScope(2)

	cddClaim := NewCddClaimData(investorDID, mocked.MakeInvestorUID(fixedDID(1)[:]))
	scopeClaim := NewScopeClaimData(scopeDID, mocked.MakeInvestorUID(fixedDID(2)[:]))

	_, err := BuildScopeClaimProofData(cddClaim, scopeClaim)
	require.Error(t, err)
}

func TestIDMatchProofRejectsWrongMessage(t *testing.T) {
	rng := newSeededRNG(7)

	investorDID := fixedDID(3)
	scopeDID := fixedScope(4)
	uniqueID := mocked.MakeInvestorUID(investorDID[:])

	cddClaim := NewCddClaimData(investorDID, uniqueID)
	scopeClaim := NewScopeClaimData(scopeDID, uniqueID)

	proofData, err := BuildScopeClaimProofData(cddClaim, scopeClaim)
	require.NoError(t, err)
	keyPair := NewProofKeyPair(proofData)
	defer keyPair.Zeroize()

	message := append(append([]byte{}, investorDID[:]...), scopeDID[:]...)
	proof, err := keyPair.GenerateIDMatchProof(message, rng)
	require.NoError(t, err)

	cddID := ComputeCDDID(cddClaim)
	scopeID, err := ComputeScopeID(scopeClaim)
	require.NoError(t, err)

	err = Verify(proof, cddID, investorDID, scopeID, scopeDID, []byte("a different message"))
	require.Error(t, err)
}
