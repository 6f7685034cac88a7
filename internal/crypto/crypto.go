// Package crypto implements the transport encryption of the Secret Service
// protocol: the "plain" algorithm and dh-ietf1024-sha256-aes128-cbc-pkcs7.
//
// The cipher primitives sit behind Backend. Two backends are compiled in;
// the one used by sessions is chosen at build time with the
// secretservice_soft tag.
package crypto

import (
	"fmt"

	dbtypes "github.com/nikicat/go-secret-service/internal/dbus"
)

// Session is one negotiated transport cipher. Parameters carry the IV
// for dh sessions and are empty for plain ones.
type Session interface {
	Algorithm() string
	Encrypt(plaintext []byte) (parameters, ciphertext []byte, err error)
	Decrypt(parameters, ciphertext []byte) (plaintext []byte, err error)
	// Close wipes key material; the session is unusable afterwards
	Close() error
}

// NewSession answers an OpenSession request: it creates the session for
// algorithm and returns the output to send back to the peer.
func NewSession(algorithm string, peerInput []byte) (Session, []byte, error) {
	switch algorithm {
	case dbtypes.AlgorithmPlain:
		return Plain(), []byte{}, nil
	case AlgorithmDHAES:
		return Respond(peerInput)
	default:
		return nil, nil, fmt.Errorf("unsupported algorithm: %s", algorithm)
	}
}

// SupportedAlgorithms lists the wire names NewSession accepts
func SupportedAlgorithms() []string {
	return []string{dbtypes.AlgorithmPlain, AlgorithmDHAES}
}
