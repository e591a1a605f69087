package crypto

import (
	"bytes"
	"errors"
	"testing"
)

var (
	testKey = []byte("01234567890123456789012345678901")
	testAAD = []byte("user-1\x00twitch\x00access")
)

func TestSecretEncryptor_RoundTrip(t *testing.T) {
	encryptor, err := NewSecretEncryptor(testKey)
	if err != nil {
		t.Fatalf("NewSecretEncryptor: %v", err)
	}

	for _, original := range []string{"oauth:abc123", "", "ünïcödé-token"} {
		blob, err := encryptor.EncryptString(original, testAAD)
		if err != nil {
			t.Fatalf("EncryptString: %v", err)
		}
		if blob[0] != secretVersion {
			t.Errorf("version byte: got %d, want %d", blob[0], secretVersion)
		}

		decrypted, err := encryptor.DecryptString(blob, testAAD)
		if err != nil {
			t.Fatalf("DecryptString: %v", err)
		}
		if decrypted != original {
			t.Errorf("got %q, want %q", decrypted, original)
		}
	}
}

func TestSecretEncryptor_UniqueCiphertexts(t *testing.T) {
	encryptor, err := NewSecretEncryptor(testKey)
	if err != nil {
		t.Fatalf("NewSecretEncryptor: %v", err)
	}

	blob1, _ := encryptor.EncryptString("same-token", testAAD)
	blob2, _ := encryptor.EncryptString("same-token", testAAD)

	if bytes.Equal(blob1, blob2) {
		t.Error("encrypting the same value twice should produce different blobs")
	}
	if bytes.Equal(blob1[1:1+nonceSize], blob2[1:1+nonceSize]) {
		t.Error("nonces should differ")
	}
	if bytes.Contains(blob1, []byte("same-token")) {
		t.Error("blob contains plaintext")
	}
}

func TestSecretEncryptor_InvalidKeySize(t *testing.T) {
	for _, size := range []int{0, 16, 64} {
		if _, err := NewSecretEncryptor(make([]byte, size)); !errors.Is(err, ErrInvalidKeySize) {
			t.Errorf("size %d: expected ErrInvalidKeySize, got %v", size, err)
		}
	}
}

func TestSecretEncryptor_WrongKey(t *testing.T) {
	enc1, _ := NewSecretEncryptor(testKey)
	enc2, _ := NewSecretEncryptor([]byte("abcdefghijklmnopqrstuvwxyz012345"))

	blob, _ := enc1.EncryptString("secret", testAAD)
	if _, err := enc2.DecryptString(blob, testAAD); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestSecretEncryptor_TamperedBlob(t *testing.T) {
	encryptor, _ := NewSecretEncryptor(testKey)
	blob, _ := encryptor.EncryptString("secret", testAAD)

	blob[len(blob)-1] ^= 0xFF
	if _, err := encryptor.DecryptString(blob, testAAD); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestSecretEncryptor_BoundToAAD(t *testing.T) {
	encryptor, _ := NewSecretEncryptor(testKey)
	blob, err := encryptor.EncryptString("secret", testAAD)
	if err != nil {
		t.Fatalf("EncryptString: %v", err)
	}

	for _, aad := range [][]byte{
		nil,
		[]byte("user-2\x00twitch\x00access"),
		[]byte("user-1\x00kick\x00access"),
		[]byte("user-1\x00twitch\x00refresh"),
	} {
		if _, err := encryptor.DecryptString(blob, aad); !errors.Is(err, ErrDecryptionFailed) {
			t.Errorf("aad %q: expected ErrDecryptionFailed, got %v", aad, err)
		}
	}
}

func TestSecretEncryptor_InvalidBlobs(t *testing.T) {
	encryptor, _ := NewSecretEncryptor(testKey)

	if _, err := encryptor.DecryptString([]byte{secretVersion, 1, 2}, testAAD); !errors.Is(err, ErrInvalidBlobSize) {
		t.Errorf("expected ErrInvalidBlobSize, got %v", err)
	}

	blob, _ := encryptor.EncryptString("secret", testAAD)
	blob[0] = 0x02
	if _, err := encryptor.DecryptString(blob, testAAD); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestDeriveKey(t *testing.T) {
	master := bytes.Repeat([]byte("m"), 32)

	k1, err := DeriveKey(master, "purpose-a")
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	k2, _ := DeriveKey(master, "purpose-a")
	k3, _ := DeriveKey(master, "purpose-b")

	if len(k1) != keySize {
		t.Errorf("expected %d-byte key, got %d", keySize, len(k1))
	}
	if !bytes.Equal(k1, k2) {
		t.Error("derivation should be deterministic")
	}
	if bytes.Equal(k1, k3) {
		t.Error("different purposes should derive different keys")
	}

	if _, err := DeriveKey([]byte("short"), "x"); !errors.Is(err, ErrInvalidKeySize) {
		t.Errorf("expected ErrInvalidKeySize, got %v", err)
	}
}

func TestNewSecretEncryptorFromMaster(t *testing.T) {
	master := bytes.Repeat([]byte{0x42}, 48)

	enc1, err := NewSecretEncryptorFromMaster(master)
	if err != nil {
		t.Fatalf("NewSecretEncryptorFromMaster: %v", err)
	}
	enc2, _ := NewSecretEncryptorFromMaster(master)

	blob, _ := enc1.EncryptString("token", testAAD)
	got, err := enc2.DecryptString(blob, testAAD)
	if err != nil {
		t.Fatalf("DecryptString: %v", err)
	}
	if got != "token" {
		t.Errorf("got %q", got)
	}
}
