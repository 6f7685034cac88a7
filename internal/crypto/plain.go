package crypto

import (
	dbtypes "github.com/nikicat/go-secret-service/internal/dbus"
)

// plainSession sends secrets unencrypted. Values are copied so a caller
// wiping its buffer does not wipe the other side's.
type plainSession struct{}

// Plain returns the session for the "plain" algorithm
func Plain() Session {
	return plainSession{}
}

func (plainSession) Algorithm() string { return dbtypes.AlgorithmPlain }

func (plainSession) Encrypt(plaintext []byte) (parameters, ciphertext []byte, err error) {
	return []byte{}, append([]byte{}, plaintext...), nil
}

func (plainSession) Decrypt(parameters, ciphertext []byte) (plaintext []byte, err error) {
	return append([]byte{}, ciphertext...), nil
}

func (plainSession) Close() error { return nil }
