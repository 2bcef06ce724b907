// Package mocked deterministically derives a fake investor unique id from
// an on-chain DID, for use in tests and demos that need a UniqueID without
// running a real CDD provider flow. Grounded on
// confidential-identity/cli/scp/src/main.rs's `process_create_mocked_investor_uid`
// command and on spec.md §4.7's note that `mocked::make_investor_uid` is
// test-only and must never back a real identity.
package mocked

import (
	"crypto/sha256"

	"github.com/mercat-protocol/mercat-go/identity"
)

// MakeInvestorUID hashes did into a 16-byte value laid out as a version-4,
// variant-1 UUID, purely so the result looks like the unique ids a real CDD
// provider would hand out. This is NOT a substitute for a real CDD flow:
// two investors sharing a DID derive the same "unique" id.
func MakeInvestorUID(did []byte) identity.UniqueID {
	h := sha256.Sum256(did)
	var out identity.UniqueID
	copy(out[:], h[:16])
	out[6] = (out[6] & 0x0f) | 0x40
	out[8] = (out[8] & 0x3f) | 0x80
	return out
}
