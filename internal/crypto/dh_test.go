package crypto

import (
	"bytes"
	"errors"
	"math/big"
	"testing"
)

func newPair(t *testing.T) (client, server *DHSession) {
	t.Helper()
	kx, err := NewKeyExchange()
	if err != nil {
		t.Fatalf("NewKeyExchange failed: %v", err)
	}
	server, serverPublic, err := Respond(kx.Public())
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	client, err = kx.Complete(serverPublic)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	return client, server
}

func TestKeyExchangePublicValue(t *testing.T) {
	kx, err := NewKeyExchange()
	if err != nil {
		t.Fatalf("NewKeyExchange failed: %v", err)
	}
	if len(kx.Public()) != dhValueSize {
		t.Errorf("Expected %d byte public value, got %d", dhValueSize, len(kx.Public()))
	}
	if kx.private.Cmp(two) < 0 || kx.private.Cmp(pMinusTwo) > 0 {
		t.Errorf("Private exponent out of range")
	}
}

func TestKeyAgreement(t *testing.T) {
	client, server := newPair(t)
	if !bytes.Equal(client.aesKey, server.aesKey) {
		t.Fatal("Expected both sides to derive the same key")
	}
	if len(client.aesKey) != aesKeySize {
		t.Errorf("Expected %d byte key, got %d", aesKeySize, len(client.aesKey))
	}
}

func TestDHRoundTrip(t *testing.T) {
	client, server := newPair(t)

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"empty", []byte{}},
		{"short", []byte("test")},
		{"one block", bytes.Repeat([]byte{'x'}, 16)},
		{"multi block", bytes.Repeat([]byte("secret"), 20)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			iv, ciphertext, err := client.Encrypt(tc.plaintext)
			if err != nil {
				t.Fatalf("Encrypt failed: %v", err)
			}
			if len(iv) != 16 {
				t.Errorf("Expected 16 byte IV, got %d", len(iv))
			}
			if len(ciphertext)%16 != 0 || len(ciphertext) == 0 {
				t.Errorf("Unexpected ciphertext length %d", len(ciphertext))
			}

			decrypted, err := server.Decrypt(iv, ciphertext)
			if err != nil {
				t.Fatalf("Decrypt failed: %v", err)
			}
			if !bytes.Equal(decrypted, tc.plaintext) {
				t.Errorf("Expected %q, got %q", tc.plaintext, decrypted)
			}
		})
	}
}

func TestDHFreshIV(t *testing.T) {
	client, _ := newPair(t)
	iv1, ct1, err := client.Encrypt([]byte("same"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	iv2, ct2, err := client.Encrypt([]byte("same"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if bytes.Equal(iv1, iv2) {
		t.Error("Expected a fresh IV per call")
	}
	if bytes.Equal(ct1, ct2) {
		t.Error("Expected different ciphertexts under different IVs")
	}
}

func TestDHDecryptRejectsBadInput(t *testing.T) {
	client, _ := newPair(t)

	if _, err := client.Decrypt(make([]byte, 8), make([]byte, 16)); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("Expected ErrInvalidLength for short IV, got %v", err)
	}
	if _, err := client.Decrypt(make([]byte, 16), make([]byte, 17)); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("Expected ErrInvalidLength for unaligned ciphertext, got %v", err)
	}
	if _, err := client.Decrypt(make([]byte, 16), nil); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("Expected ErrInvalidLength for empty ciphertext, got %v", err)
	}
}

func TestDHWrongKeyFailsPadding(t *testing.T) {
	client, _ := newPair(t)
	_, other := newPair(t)

	// Ciphertext of a full block of padding under the wrong key decrypts to
	// noise; with overwhelming probability the padding check fails.
	failures := 0
	for i := 0; i < 8; i++ {
		iv, ct, err := client.Encrypt(nil)
		if err != nil {
			t.Fatalf("Encrypt failed: %v", err)
		}
		if _, err := other.Decrypt(iv, ct); err != nil {
			failures++
		}
	}
	if failures == 0 {
		t.Error("Expected decryption under a foreign key to fail")
	}
}

func TestParsePublicRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		value []byte
	}{
		{"empty", nil},
		{"zero", []byte{0}},
		{"one", []byte{1}},
		{"p minus one", new(big.Int).Sub(dhPrime, big.NewInt(1)).Bytes()},
		{"too long", make([]byte, dhValueSize+1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kx, err := NewKeyExchange()
			if err != nil {
				t.Fatalf("NewKeyExchange failed: %v", err)
			}
			if _, err := kx.Complete(tc.value); !errors.Is(err, ErrInvalidPublicKey) {
				t.Errorf("Expected ErrInvalidPublicKey, got %v", err)
			}
		})
	}
}

func TestDHClose(t *testing.T) {
	client, _ := newPair(t)
	if err := client.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, _, err := client.Encrypt([]byte("x")); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Expected ErrSessionClosed, got %v", err)
	}
	for _, b := range client.aesKey {
		if b != 0 {
			t.Fatal("Expected key to be zeroed")
		}
	}
	if err := client.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
}

func TestLeftPad(t *testing.T) {
	got := leftPad([]byte{1, 2}, 4)
	if !bytes.Equal(got, []byte{0, 0, 1, 2}) {
		t.Errorf("Unexpected padding %v", got)
	}
	full := []byte{1, 2, 3, 4}
	if !bytes.Equal(leftPad(full, 4), full) {
		t.Error("Expected full-width input unchanged")
	}
}
