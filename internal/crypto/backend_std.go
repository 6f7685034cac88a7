package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/hkdf"
)

// stdBackend uses the assembly-accelerated AES and big.Int paths.
type stdBackend struct{}

func (stdBackend) Name() string { return "std" }

func (stdBackend) EncryptCBC(key, iv, padded []byte) ([]byte, error) {
	if err := checkCBCInput(key, iv, padded); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

func (stdBackend) DecryptCBC(key, iv, ciphertext []byte) ([]byte, error) {
	if err := checkCBCInput(key, iv, ciphertext); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return out, nil
}

func (stdBackend) HKDFSHA256(ikm []byte, length int) ([]byte, error) {
	key := make([]byte, length)
	if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, nil, nil), key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyDerivation, err)
	}
	return key, nil
}

func (stdBackend) ModExp(base, exp, m *big.Int) *big.Int {
	return new(big.Int).Exp(base, exp, m)
}
