package security_test

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/poctrail/assistant/internal/security"
)

func newTestEncryptor(t *testing.T) *security.Encryptor {
	t.Helper()
	key, err := security.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	enc, err := security.NewEncryptor(key)
	if err != nil {
		t.Fatalf("new encryptor: %v", err)
	}
	return enc
}

func TestEncryptRoundTrip(t *testing.T) {
	enc := newTestEncryptor(t)

	for name, plaintext := range map[string]string{
		"empty":    "",
		"short":    "hello",
		"api key":  "AIzaSyD-fake-credential-for-roundtrip-check",
		"unicode":  "pöc träil ünïcode ✓",
		"symbols":  `!@#$%^&*()_+-=[]{}|;':",./<>?`,
		"longform": string(bytes.Repeat([]byte("assistant "), 40)),
	} {
		t.Run(name, func(t *testing.T) {
			sealed, err := enc.Encrypt([]byte(plaintext))
			if err != nil {
				t.Fatalf("encrypt: %v", err)
			}
			opened, err := enc.Decrypt(sealed)
			if err != nil {
				t.Fatalf("decrypt: %v", err)
			}
			if string(opened) != plaintext {
				t.Errorf("round trip changed the data: got %q, want %q", opened, plaintext)
			}
		})
	}
}

func TestEncryptIsNondeterministic(t *testing.T) {
	enc := newTestEncryptor(t)

	first, err := enc.Encrypt([]byte("same input"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	second, err := enc.Encrypt([]byte("same input"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Equal(first, second) {
		t.Error("two encryptions of the same plaintext produced identical blobs")
	}
}

func TestCredentialRoundTrip(t *testing.T) {
	enc := newTestEncryptor(t)

	const credential = "sk-test-credential-0123456789"
	blob, err := enc.EncryptCredential(credential)
	if err != nil {
		t.Fatalf("encrypt credential: %v", err)
	}
	if bytes.Contains(blob, []byte(credential)) {
		t.Error("stored blob leaks the plaintext credential")
	}

	got, err := enc.DecryptCredential(blob)
	if err != nil {
		t.Fatalf("decrypt credential: %v", err)
	}
	if got != credential {
		t.Errorf("credential = %q, want %q", got, credential)
	}
}

func TestNewEncryptorKeySizes(t *testing.T) {
	for _, size := range []int{16, 24, 32} {
		if _, err := security.NewEncryptor(make([]byte, size)); err != nil {
			t.Errorf("%d byte key rejected: %v", size, err)
		}
	}
	for _, size := range []int{0, 8, 31, 64} {
		if _, err := security.NewEncryptor(make([]byte, size)); err == nil {
			t.Errorf("%d byte key accepted, want error", size)
		}
	}
}

func TestNewEncryptorFromBase64(t *testing.T) {
	key, err := security.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	enc, err := security.NewEncryptorFromBase64(base64.StdEncoding.EncodeToString(key))
	if err != nil {
		t.Fatalf("new encryptor from base64: %v", err)
	}
	if _, err := enc.Encrypt([]byte("works")); err != nil {
		t.Errorf("encrypt with decoded key: %v", err)
	}

	if _, err := security.NewEncryptorFromBase64("%%% not base64 %%%"); err == nil {
		t.Error("malformed base64 key accepted, want error")
	}
}

func TestDecryptRejectsDamage(t *testing.T) {
	enc := newTestEncryptor(t)

	sealed, err := enc.Encrypt([]byte("secret"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	flipped := append([]byte(nil), sealed...)
	flipped[len(flipped)-1] ^= 0xff
	if _, err := enc.Decrypt(flipped); err == nil {
		t.Error("tampered blob decrypted without error")
	}

	if _, err := enc.Decrypt(sealed[:4]); err == nil {
		t.Error("truncated blob decrypted without error")
	}

	other := newTestEncryptor(t)
	if _, err := other.Decrypt(sealed); err == nil {
		t.Error("blob decrypted under a different key")
	}
}
