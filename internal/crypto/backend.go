package crypto

import (
	"crypto/aes"
	"errors"
	"fmt"
	"math/big"
)

// Errors reported by the cipher layer
var (
	ErrInvalidPadding   = errors.New("invalid padding")
	ErrInvalidLength    = errors.New("invalid length")
	ErrInvalidPublicKey = errors.New("invalid DH public value")
	ErrKeyDerivation    = errors.New("key derivation failed")
	ErrSessionClosed    = errors.New("crypto session closed")
)

// Backend is the algorithmic capability a DH session is built on.
// Every implementation must produce byte-identical output for identical input.
type Backend interface {
	// Name identifies the backend in logs
	Name() string

	// EncryptCBC encrypts block-aligned plaintext with AES-CBC
	EncryptCBC(key, iv, padded []byte) ([]byte, error)

	// DecryptCBC decrypts block-aligned ciphertext with AES-CBC, padding is left in place
	DecryptCBC(key, iv, ciphertext []byte) ([]byte, error)

	// HKDFSHA256 derives length bytes from ikm with no salt and empty info
	HKDFSHA256(ikm []byte, length int) ([]byte, error)

	// ModExp returns base^exp mod m
	ModExp(base, exp, m *big.Int) *big.Int
}

// Active returns the backend linked into this build.
func Active() Backend {
	return activeBackend{}
}

// Pad appends PKCS#7 padding up to the AES block size.
// Aligned input gets a full block of padding.
func Pad(plaintext []byte) []byte {
	padLen := aes.BlockSize - len(plaintext)%aes.BlockSize
	padded := make([]byte, len(plaintext)+padLen)
	copy(padded, plaintext)
	for i := len(plaintext); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

// Unpad validates and strips PKCS#7 padding.
func Unpad(padded []byte) ([]byte, error) {
	if len(padded) == 0 || len(padded)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: padded length %d", ErrInvalidLength, len(padded))
	}
	padLen := int(padded[len(padded)-1])
	if padLen == 0 || padLen > aes.BlockSize {
		return nil, fmt.Errorf("%w: padLen=%d", ErrInvalidPadding, padLen)
	}
	for _, b := range padded[len(padded)-padLen:] {
		if int(b) != padLen {
			return nil, ErrInvalidPadding
		}
	}
	return padded[:len(padded)-padLen], nil
}

func checkCBCInput(key, iv, data []byte) error {
	if len(key) != aes.BlockSize {
		return fmt.Errorf("%w: key length %d", ErrInvalidLength, len(key))
	}
	if len(iv) != aes.BlockSize {
		return fmt.Errorf("%w: IV length %d", ErrInvalidLength, len(iv))
	}
	if len(data)%aes.BlockSize != 0 {
		return fmt.Errorf("%w: data length %d", ErrInvalidLength, len(data))
	}
	return nil
}
