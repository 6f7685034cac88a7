package secretservice

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/nikicat/go-secret-service/internal/crypto"
	dbtypes "github.com/nikicat/go-secret-service/internal/dbus"
)

// Algorithm selects how secrets are protected on the bus
type Algorithm int

const (
	// AlgorithmPlain sends secrets unencrypted, relying on bus permissions
	AlgorithmPlain Algorithm = iota
	// AlgorithmDH negotiates an AES-128-CBC key with Diffie-Hellman
	AlgorithmDH
)

// String returns the wire name of the algorithm
func (a Algorithm) String() string {
	switch a {
	case AlgorithmPlain:
		return dbtypes.AlgorithmPlain
	case AlgorithmDH:
		return dbtypes.AlgorithmDHAES
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// ParseAlgorithm accepts "plain", "dh" or the full wire name
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case dbtypes.AlgorithmPlain:
		return AlgorithmPlain, nil
	case "dh", dbtypes.AlgorithmDHAES:
		return AlgorithmDH, nil
	default:
		return 0, fmt.Errorf("unsupported algorithm: %s", s)
	}
}

// Session is the negotiated encryption context with the daemon. The key
// material stays inside; only Encrypt and Decrypt touch it. A Session is
// safe for concurrent use.
type Session struct {
	algorithm Algorithm
	handle    dbus.ObjectPath
	cipher    crypto.Session
	proxy     proxy
}

func openSession(ctx context.Context, t Transport, algorithm Algorithm) (*Session, error) {
	service := newProxy(t, dbtypes.ServicePath, dbtypes.SecretServiceInterface)

	var (
		input dbus.Variant
		kx    *crypto.KeyExchange
	)
	switch algorithm {
	case AlgorithmPlain:
		input = dbus.MakeVariant("")
	case AlgorithmDH:
		var err error
		kx, err = crypto.NewKeyExchange()
		if err != nil {
			return nil, cryptoError("key exchange", err)
		}
		input = dbus.MakeVariant(kx.Public())
	default:
		return nil, fmt.Errorf("unsupported algorithm: %s", algorithm)
	}

	var (
		output dbus.Variant
		handle dbus.ObjectPath
	)
	if err := service.callStore(ctx, "OpenSession", []interface{}{algorithm.String(), input}, &output, &handle); err != nil {
		return nil, err
	}
	if !handle.IsValid() || dbtypes.IsNoPrompt(handle) {
		return nil, parseError("session path", handle)
	}

	s := &Session{
		algorithm: algorithm,
		handle:    handle,
		proxy:     newProxy(t, handle, dbtypes.SessionInterface),
	}

	var err error
	switch algorithm {
	case AlgorithmPlain:
		s.cipher, err = plainCipher(output)
	case AlgorithmDH:
		s.cipher, err = dhCipher(kx, output)
	}
	if err != nil {
		// The daemon already holds a session object for us
		_, _ = s.proxy.call(context.WithoutCancel(ctx), "Close")
		return nil, err
	}
	return s, nil
}

func plainCipher(output dbus.Variant) (crypto.Session, error) {
	switch v := output.Value().(type) {
	case string:
		if v == "" {
			break
		}
		return nil, cryptoError("open plain session", fmt.Errorf("unexpected output %q", v))
	case []byte:
		if len(v) == 0 {
			break
		}
		return nil, cryptoError("open plain session", fmt.Errorf("unexpected %d byte output", len(v)))
	default:
		return nil, cryptoError("open plain session", fmt.Errorf("unexpected output type %T", v))
	}
	return crypto.Plain(), nil
}

func dhCipher(kx *crypto.KeyExchange, output dbus.Variant) (crypto.Session, error) {
	peer, ok := output.Value().([]byte)
	if !ok {
		return nil, cryptoError("open dh session", fmt.Errorf("unexpected output type %T", output.Value()))
	}
	cipher, err := kx.Complete(peer)
	if err != nil {
		return nil, cryptoError("open dh session", err)
	}
	return cipher, nil
}

// Algorithm returns the negotiated algorithm
func (s *Session) Algorithm() Algorithm {
	return s.algorithm
}

// Handle returns the daemon-assigned session path
func (s *Session) Handle() dbus.ObjectPath {
	return s.handle
}

// Encrypt returns the ciphertext and IV for plaintext. For plain sessions
// it is the identity with an empty IV.
func (s *Session) Encrypt(plaintext []byte) (ciphertext, iv []byte, err error) {
	iv, ciphertext, err = s.cipher.Encrypt(plaintext)
	if err != nil {
		return nil, nil, cryptoError("encrypt", err)
	}
	return ciphertext, iv, nil
}

// Decrypt reverses Encrypt
func (s *Session) Decrypt(ciphertext, iv []byte) ([]byte, error) {
	plaintext, err := s.cipher.Decrypt(iv, ciphertext)
	if err != nil {
		return nil, cryptoError("decrypt", err)
	}
	return plaintext, nil
}

func (s *Session) encodeSecret(plaintext []byte, contentType string) (dbtypes.Secret, error) {
	ciphertext, iv, err := s.Encrypt(plaintext)
	if err != nil {
		return dbtypes.Secret{}, err
	}
	return dbtypes.Secret{
		Session:     s.handle,
		Parameters:  iv,
		Value:       ciphertext,
		ContentType: contentType,
	}, nil
}

func (s *Session) decodeSecret(secret dbtypes.Secret) ([]byte, error) {
	if secret.Session != s.handle {
		return nil, cryptoError("decode secret", fmt.Errorf("secret belongs to session %s", secret.Session))
	}
	return s.Decrypt(secret.Value, secret.Parameters)
}

// Close wipes the key and closes the daemon-side session
func (s *Session) Close(ctx context.Context) error {
	_ = s.cipher.Close()
	_, err := s.proxy.call(ctx, "Close")
	return err
}
