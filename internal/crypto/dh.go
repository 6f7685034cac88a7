package crypto

import (
	"crypto/aes"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync/atomic"

	dbtypes "github.com/nikicat/go-secret-service/internal/dbus"
)

// AlgorithmDHAES is dh-ietf1024-sha256-aes128-cbc-pkcs7
const AlgorithmDHAES = dbtypes.AlgorithmDHAES

const (
	// dhValueSize is the fixed width of public values and the shared secret
	dhValueSize = 128
	// aesKeySize is the AES-128 key length produced by HKDF
	aesKeySize = 16
)

// RFC 2409 MODP group 2 (1024-bit)
var (
	dhPrime = func() *big.Int {
		p, _ := new(big.Int).SetString(
			"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD1"+
				"29024E088A67CC74020BBEA63B139B22514A08798E3404DD"+
				"EF9519B3CD3A431B302B0A6DF25F14374FE1356D6D51C245"+
				"E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7ED"+
				"EE386BFB5A899FA5AE9F24117C4B1FE649286651ECE65381"+
				"FFFFFFFFFFFFFFFF", 16)
		return p
	}()
	dhGenerator = big.NewInt(2)

	two         = big.NewInt(2)
	pMinusTwo   = new(big.Int).Sub(dhPrime, two)
	pMinusThree = new(big.Int).Sub(dhPrime, big.NewInt(3))
)

// KeyExchange is the initiating half of a DH negotiation.
type KeyExchange struct {
	private *big.Int
	public  []byte
}

// NewKeyExchange picks a private exponent in [2, p-2] and computes g^x mod p.
func NewKeyExchange() (*KeyExchange, error) {
	private, err := newPrivateExponent()
	if err != nil {
		return nil, err
	}
	public := activeBackend{}.ModExp(dhGenerator, private, dhPrime)
	return &KeyExchange{
		private: private,
		public:  leftPad(public.Bytes(), dhValueSize),
	}, nil
}

// Public returns the value sent to the peer, 128 bytes big-endian
func (kx *KeyExchange) Public() []byte {
	return kx.public
}

// Complete derives the session key from the peer's public value.
func (kx *KeyExchange) Complete(peerPublic []byte) (*DHSession, error) {
	key, err := deriveKey(kx.private, peerPublic)
	if err != nil {
		return nil, err
	}
	return &DHSession{aesKey: key}, nil
}

// Respond answers a peer-initiated exchange: it returns the session and the
// local public value to send back.
func Respond(peerPublic []byte) (*DHSession, []byte, error) {
	kx, err := NewKeyExchange()
	if err != nil {
		return nil, nil, err
	}
	session, err := kx.Complete(peerPublic)
	if err != nil {
		return nil, nil, err
	}
	return session, kx.Public(), nil
}

func newPrivateExponent() (*big.Int, error) {
	// rand.Int yields [0, p-3), shifted to [2, p-2]
	x, err := rand.Int(rand.Reader, pMinusThree)
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	return x.Add(x, two), nil
}

func parsePublic(b []byte) (*big.Int, error) {
	if len(b) == 0 || len(b) > dhValueSize {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidPublicKey, len(b))
	}
	y := new(big.Int).SetBytes(b)
	if y.Cmp(two) < 0 || y.Cmp(pMinusTwo) > 0 {
		return nil, fmt.Errorf("%w: out of range", ErrInvalidPublicKey)
	}
	return y, nil
}

func deriveKey(private *big.Int, peerPublic []byte) ([]byte, error) {
	y, err := parsePublic(peerPublic)
	if err != nil {
		return nil, err
	}
	shared := activeBackend{}.ModExp(y, private, dhPrime)

	// The shared secret keeps its leading zeros
	ikm := leftPad(shared.Bytes(), dhValueSize)
	key, err := activeBackend{}.HKDFSHA256(ikm, aesKeySize)
	clear(ikm)
	if err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: empty key", ErrKeyDerivation)
	}
	return key, nil
}

func leftPad(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}

// DHSession encrypts with AES-128-CBC under a negotiated key.
// The key never changes after the exchange; Close wipes it.
type DHSession struct {
	aesKey []byte
	closed atomic.Bool
}

// Algorithm returns the algorithm name
func (s *DHSession) Algorithm() string {
	return AlgorithmDHAES
}

// Encrypt pads plaintext and encrypts it under a fresh random IV.
// The IV is returned as parameters.
func (s *DHSession) Encrypt(plaintext []byte) (parameters, ciphertext []byte, err error) {
	if s.closed.Load() {
		return nil, nil, ErrSessionClosed
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, err
	}

	ciphertext, err = activeBackend{}.EncryptCBC(s.aesKey, iv, Pad(plaintext))
	if err != nil {
		return nil, nil, err
	}
	return iv, ciphertext, nil
}

// Decrypt reverses Encrypt; parameters holds the IV
func (s *DHSession) Decrypt(parameters, ciphertext []byte) (plaintext []byte, err error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	if len(parameters) != aes.BlockSize {
		return nil, fmt.Errorf("%w: IV length %d", ErrInvalidLength, len(parameters))
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d", ErrInvalidLength, len(ciphertext))
	}

	padded, err := activeBackend{}.DecryptCBC(s.aesKey, parameters, ciphertext)
	if err != nil {
		return nil, err
	}
	return Unpad(padded)
}

// Close zeroes the key. Encrypt and Decrypt fail afterwards.
func (s *DHSession) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	clear(s.aesKey)
	return nil
}
