package group

import (
	"crypto/rand"
	"math/big"
)

func randomBigInt(order *big.Int) (*big.Int, error) {
	return rand.Int(rand.Reader, order)
}
