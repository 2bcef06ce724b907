// Package secret provides a minimal scoped-zeroization wrapper for
// CommitmentWitness values, ElGamal secret keys, and signing keys. No
// zeroize library appears anywhere in the example pack (this module's
// go.mod, nor any sibling repo's, imports one), so this is a small
// stdlib-only component; see DESIGN.md for that justification.
package secret

// Box holds a secret value of type T and guarantees it is overwritten with
// its zero value once Close is called. Callers MUST defer Close immediately
// after constructing a Box, on every exit path including error returns, per
// the secret-handling discipline in the specification.
type Box[T any] struct {
	v       T
	cleared bool
}

// NewBox wraps v in a Box.
func NewBox[T any](v T) *Box[T] {
	return &Box[T]{v: v}
}

// Get returns the wrapped value. Calling Get after Close returns the zero
// value of T.
func (b *Box[T]) Get() T {
	return b.v
}

// Close overwrites the wrapped value with T's zero value. It is safe to
// call more than once.
func (b *Box[T]) Close() {
	if b.cleared {
		return
	}
	var zero T
	b.v = zero
	b.cleared = true
}

// Zeroable is implemented by secret values that hold their own byte buffers
// (e.g. a scalar's backing bytes) and need an explicit in-place wipe rather
// than relying on the Go zero value of the wrapper struct.
type Zeroable interface {
	Zeroize()
}

// ZeroBytes overwrites b in place with zeroes.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
