// Package config holds the three configuration options the cryptographic
// core recognizes at its boundary. The teacher's own CLI wiring
// (main.go/voter.go) hard-codes its equivalents as untyped local constants;
// this package gives them names and defaults instead, following the
// pack's plain os.Getenv convention rather than a config-file library — see
// DESIGN.md for why no third-party config library from the pack (only
// spf13/viper, used by a daemon with on-disk config files) earns a home
// here.
package config

import (
	"math/big"
	"os"
	"strconv"

	"github.com/mercat-protocol/mercat-go/group"
)

// DefaultDecodingBound is 2^32, the default search bound for the
// baby-step/giant-step ElGamal decryption lookup.
var DefaultDecodingBound = new(big.Int).Lsh(big.NewInt(1), 32)

// Options are the configuration knobs recognized at the core boundary.
type Options struct {
	// DecodingBound upper-bounds the discrete-log search performed by
	// elgamal.SecretKey.Decrypt.
	DecodingBound *big.Int
	// RangeBitsize is one of {8, 16, 32, 64}.
	RangeBitsize int
	// AssetIDWhitelist is the ordered list of group elements the membership
	// proof is built against.
	AssetIDWhitelist []group.Element
}

// Default returns the zero-configuration Options: the default decoding
// bound, a 32-bit range, and an empty whitelist (callers must supply one
// before using the membership statement).
func Default() Options {
	return Options{
		DecodingBound: new(big.Int).Set(DefaultDecodingBound),
		RangeBitsize:  32,
	}
}

// ValidRangeBitsize reports whether b is one of the bitsizes the range
// proof wrapper accepts.
func ValidRangeBitsize(b int) bool {
	switch b {
	case 8, 16, 32, 64:
		return true
	default:
		return false
	}
}

// FromEnv overlays process environment variables onto the default
// Options: MERCAT_DECODING_BOUND (decimal) and MERCAT_RANGE_BITSIZE. The
// asset-id whitelist has no environment-variable form; callers set it
// programmatically.
func FromEnv() Options {
	opts := Default()
	if v := os.Getenv("MERCAT_DECODING_BOUND"); v != "" {
		if n, ok := new(big.Int).SetString(v, 10); ok {
			opts.DecodingBound = n
		}
	}
	if v := os.Getenv("MERCAT_RANGE_BITSIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && ValidRangeBitsize(n) {
			opts.RangeBitsize = n
		}
	}
	return opts
}
