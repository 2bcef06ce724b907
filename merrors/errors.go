// Package merrors collects the error taxonomy shared by every MERCAT
// layer. The teacher repo reports proof failures with bare booleans
// (voteproof.SigmaProof.Verify returns bool) and otherwise uses plain
// fmt.Errorf; this package keeps that same plain-stdlib idiom but adds the
// typed, per-equation errors that a confidential-transaction validator
// needs to pinpoint which check failed, per spec.
package merrors

import "fmt"

// VerificationError is the generic proof-mismatch error used when no finer
// distinction is useful (e.g. a caller-supplied challenge was zero).
type VerificationError struct {
	Reason string
}

func (e *VerificationError) Error() string {
	if e.Reason == "" {
		return "merrors: verification failed"
	}
	return fmt.Sprintf("merrors: verification failed: %s", e.Reason)
}

// NewVerificationError builds a VerificationError with a reason string.
func NewVerificationError(reason string) error {
	return &VerificationError{Reason: reason}
}

// checkError is the shared shape behind every per-statement,
// per-equation verification error: it names which of the statement's
// numbered verification equations failed.
type checkError struct {
	statement string
	check     int
}

func (e *checkError) Error() string {
	return fmt.Sprintf("merrors: %s final response verification failed at check %d", e.statement, e.check)
}

// Check returns the 1-based index of the equation that failed.
func (e *checkError) Check() int { return e.check }

// CorrectnessFinalResponseVerificationError reports which of the
// correctness proof's two verification equations failed (check: 1|2).
type CorrectnessFinalResponseVerificationError struct{ checkError }

func NewCorrectnessError(check int) error {
	return &CorrectnessFinalResponseVerificationError{checkError{"correctness", check}}
}

// WellformednessFinalResponseVerificationError reports which of the
// well-formedness proof's two verification equations failed (check: 1|2).
type WellformednessFinalResponseVerificationError struct{ checkError }

func NewWellformednessError(check int) error {
	return &WellformednessFinalResponseVerificationError{checkError{"wellformedness", check}}
}

// EncryptingSameValueVerificationError reports which of the
// equal-plaintext-under-two-keys proof's two equations failed.
type EncryptingSameValueVerificationError struct{ checkError }

func NewEncryptingSameValueError(check int) error {
	return &EncryptingSameValueVerificationError{checkError{"encrypting-same-value", check}}
}

// CipherEqualityVerificationError reports which of the
// ciphertext-equality proof's equations failed.
type CipherEqualityVerificationError struct{ checkError }

func NewCipherEqualityError(check int) error {
	return &CipherEqualityVerificationError{checkError{"cipher-equality", check}}
}

// CiphertextRefreshmentVerificationError reports which of the
// ciphertext-refreshment proof's equations failed.
type CiphertextRefreshmentVerificationError struct{ checkError }

func NewCiphertextRefreshmentError(check int) error {
	return &CiphertextRefreshmentVerificationError{checkError{"ciphertext-refreshment", check}}
}

// MembershipVerificationError reports which of the one-out-of-many proof's
// equations failed.
type MembershipVerificationError struct{ checkError }

func NewMembershipError(check int) error {
	return &MembershipVerificationError{checkError{"membership", check}}
}

// ProvingError wraps a failure in an underlying primitive, e.g. a range
// proof rejecting a value that does not fit in the declared bitsize.
type ProvingError struct {
	Source error
}

func (e *ProvingError) Error() string { return fmt.Sprintf("merrors: proving failed: %v", e.Source) }
func (e *ProvingError) Unwrap() error { return e.Source }

func NewProvingError(source error) error {
	return &ProvingError{Source: source}
}

// NotPublicKey is returned when a public key is built from the group
// identity, or when a decryption search exhausts its configured bound
// without finding the plaintext.
type NotPublicKey struct {
	Reason string
}

func (e *NotPublicKey) Error() string {
	return fmt.Sprintf("merrors: not a valid public key or decodable value: %s", e.Reason)
}

func NewNotPublicKeyError(reason string) error {
	return &NotPublicKey{Reason: reason}
}

// SignatureValidationFailure is returned when an envelope's signature does
// not verify against the content it is supposed to cover.
type SignatureValidationFailure struct {
	Role string
}

func (e *SignatureValidationFailure) Error() string {
	return fmt.Sprintf("merrors: signature validation failed for role %q", e.Role)
}

func NewSignatureValidationFailure(role string) error {
	return &SignatureValidationFailure{Role: role}
}

// InvalidInstructionError is returned when a transaction envelope arrives
// in a state inconsistent with the step a role was asked to perform.
type InvalidInstructionError struct {
	Expected, Got string
}

func (e *InvalidInstructionError) Error() string {
	return fmt.Sprintf("merrors: invalid instruction: expected state %q, got %q", e.Expected, e.Got)
}

func NewInvalidInstructionError(expected, got string) error {
	return &InvalidInstructionError{Expected: expected, Got: got}
}
