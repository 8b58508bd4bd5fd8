package testutil

import (
	"github.com/brianvoe/gofakeit/v7"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// RandomAddress generates random non-zero address
func RandomAddress() common.Address {
	return common.BytesToAddress([]byte(gofakeit.LetterN(common.AddressLength)))
}

// RandomHash generates random transaction hash
func RandomHash() common.Hash {
	return common.BytesToHash([]byte(gofakeit.LetterN(common.HashLength)))
}

// RandomAmount generates random amount in [1, max]
func RandomAmount(max uint64) uint256.Int {
	return *uint256.NewInt(gofakeit.Uint64()%max + 1)
}

// Ether converts whole ether into wei
func Ether(n uint64) uint256.Int {
	var z uint256.Int
	z.Mul(uint256.NewInt(n), uint256.NewInt(1_000_000_000_000_000_000))
	return z
}

// RandomAlphaNum generates random alphanumeric string of given length
func RandomAlphaNum(length int) string {
	return gofakeit.Password(true, true, true, false, false, length)
}
