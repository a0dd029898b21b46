package universe

import (
	"errors"
	"fmt"
)

// AssetName is a 7-byte asset name packed into the low 56 bits of a uint64,
// little-endian, nul padded. The high 8 bits must be zero.
type AssetName uint64

// AssetUnit is a 7-byte unit-of-measurement blob packed the same way as AssetName.
type AssetUnit uint64

const packedBytesMask = 0x00FFFFFFFFFFFFFF

// ErrInvalidAssetName indicates a name that doesn't satisfy the naming rules.
var ErrInvalidAssetName = errors.New("invalid asset name")

// PackAssetName packs an ASCII asset name into its uint64 wire form.
func PackAssetName(s string) (AssetName, error) {
	if len(s) == 0 || len(s) > 7 {
		return 0, fmt.Errorf("%w: length must be 1-7, got %d", ErrInvalidAssetName, len(s))
	}
	var n uint64
	for i := 0; i < len(s); i++ {
		n |= uint64(s[i]) << (8 * i)
	}
	name := AssetName(n)
	if !name.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAssetName, s)
	}
	return name, nil
}

// String renders the name as ASCII, dropping the nul padding.
func (n AssetName) String() string {
	buf := make([]byte, 0, 7)
	for i := 0; i < 7; i++ {
		b := byte(n >> (8 * i))
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf)
}

// Valid reports whether the packed name satisfies the naming rules: the high
// byte is zero, the first byte is an upper-case letter, subsequent bytes are
// upper-case letters or digits, and no non-nul byte follows a nul byte.
func (n AssetName) Valid() bool {
	if uint64(n) > packedBytesMask {
		return false
	}
	first := byte(n)
	if first < 'A' || first > 'Z' {
		return false
	}
	for i := 1; i < 7; i++ {
		b := byte(n >> (8 * i))
		if b == 0 {
			// Nothing but nul may follow.
			for i++; i < 7; i++ {
				if byte(n>>(8*i)) != 0 {
					return false
				}
			}
			return true
		}
		if (b < '0' || b > '9') && (b < 'A' || b > 'Z') {
			return false
		}
	}
	return true
}

// MarshalText renders the name in its ASCII form.
func (n AssetName) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText parses an ASCII asset name.
func (n *AssetName) UnmarshalText(text []byte) error {
	name, err := PackAssetName(string(text))
	if err != nil {
		return err
	}
	*n = name
	return nil
}

// Valid reports whether the unit blob fits in 7 bytes.
func (u AssetUnit) Valid() bool {
	return uint64(u) <= packedBytesMask
}
