package types

import (
	"fmt"
	"math/big"
)

// BigInt is a big.Int wrapper which marshals JSON to a string representation of the big number
type BigInt big.Int

// NewBigInt returns a BigInt holding a copy of x. A nil x yields zero.
func NewBigInt(x *big.Int) *BigInt {
	if x == nil {
		return new(BigInt)
	}
	return (*BigInt)(new(big.Int).Set(x))
}

func (i BigInt) MarshalText() ([]byte, error) {
	return []byte((*big.Int)(&i).String()), nil
}

func (i *BigInt) UnmarshalText(data []byte) error {
	i2, ok := new(big.Int).SetString(string(data), 0)
	if !ok {
		return fmt.Errorf("wrong format for bigInt: %q", string(data))
	}
	*i = (BigInt)(*i2)
	return nil
}

// String returns the string representation of the big number
func (i *BigInt) String() string {
	return (*big.Int)(i).String()
}

// SetUint64 sets the value of x to the big number
func (i *BigInt) SetUint64(x uint64) *BigInt {
	return (*BigInt)(i.MathBigInt().SetUint64(x))
}

// MathBigInt converts b to a math/big *Int.
func (i *BigInt) MathBigInt() *big.Int {
	return (*big.Int)(i)
}

// Cmp compares i and j, a nil value is treated as zero.
func (i *BigInt) Cmp(j *BigInt) int {
	zero := new(big.Int)
	a, b := zero, zero
	if i != nil {
		a = i.MathBigInt()
	}
	if j != nil {
		b = j.MathBigInt()
	}
	return a.Cmp(b)
}

// Equal helps us with go-cmp.
func (i *BigInt) Equal(j *BigInt) bool {
	if i == nil || j == nil {
		return (i == nil) == (j == nil)
	}
	return i.MathBigInt().Cmp(j.MathBigInt()) == 0
}
