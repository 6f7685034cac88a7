package crypto

import (
	"crypto/aes"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"math/big"
)

// softBackend chains CBC blocks and runs HKDF and exponentiation by hand.
// It exists for platforms where the accelerated paths are unwanted and as
// a cross-check for stdBackend.
type softBackend struct{}

func (softBackend) Name() string { return "soft" }

func (softBackend) EncryptCBC(key, iv, padded []byte) ([]byte, error) {
	if err := checkCBCInput(key, iv, padded); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(padded))
	prev := make([]byte, aes.BlockSize)
	copy(prev, iv)
	buf := make([]byte, aes.BlockSize)
	for off := 0; off < len(padded); off += aes.BlockSize {
		for i := range buf {
			buf[i] = padded[off+i] ^ prev[i]
		}
		block.Encrypt(out[off:off+aes.BlockSize], buf)
		prev = out[off : off+aes.BlockSize]
	}
	return out, nil
}

func (softBackend) DecryptCBC(key, iv, ciphertext []byte) ([]byte, error) {
	if err := checkCBCInput(key, iv, ciphertext); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(ciphertext))
	prev := iv
	for off := 0; off < len(ciphertext); off += aes.BlockSize {
		cur := ciphertext[off : off+aes.BlockSize]
		block.Decrypt(out[off:off+aes.BlockSize], cur)
		for i := 0; i < aes.BlockSize; i++ {
			out[off+i] ^= prev[i]
		}
		prev = cur
	}
	return out, nil
}

// HKDFSHA256 follows RFC 5869 with a zero-filled salt and empty info.
func (softBackend) HKDFSHA256(ikm []byte, length int) ([]byte, error) {
	if length <= 0 || length > 255*sha256.Size {
		return nil, fmt.Errorf("%w: output length %d", ErrKeyDerivation, length)
	}

	extract := hmac.New(sha256.New, make([]byte, sha256.Size))
	extract.Write(ikm)
	prk := extract.Sum(nil)

	out := make([]byte, 0, length+sha256.Size)
	var t []byte
	for counter := byte(1); len(out) < length; counter++ {
		expand := hmac.New(sha256.New, prk)
		expand.Write(t)
		expand.Write([]byte{counter})
		t = expand.Sum(nil)
		out = append(out, t...)
	}
	return out[:length], nil
}

// ModExp is left-to-right square-and-multiply.
func (softBackend) ModExp(base, exp, m *big.Int) *big.Int {
	result := big.NewInt(1)
	if m.Cmp(result) == 0 {
		return new(big.Int)
	}
	b := new(big.Int).Mod(base, m)
	for i := exp.BitLen() - 1; i >= 0; i-- {
		result.Mul(result, result)
		result.Mod(result, m)
		if exp.Bit(i) == 1 {
			result.Mul(result, b)
			result.Mod(result, m)
		}
	}
	return result
}
