package security

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestPasswordHasher_BcryptDefault(t *testing.T) {
	h := NewPasswordHasher("", 4)
	if h.Algorithm() != AlgorithmBcrypt {
		t.Fatalf("Algorithm = %q, want bcrypt", h.Algorithm())
	}
	hash, err := h.Hash("pw-123456")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("bcrypt hash expected, got %q", hash)
	}
	ok, err := h.Compare("pw-123456", hash)
	if err != nil || !ok {
		t.Fatalf("Compare = %v, %v", ok, err)
	}
}

func TestPasswordHasher_VerifiesBothFormats(t *testing.T) {
	bc := NewPasswordHasher(AlgorithmBcrypt, 4)
	ar := NewPasswordHasher(AlgorithmArgon2id, 4)
	ar.argon2 = NewArgon2Hasher(Argon2Params{Memory: 8 * 1024, Time: 1, Parallelism: 1})

	bHash, _ := bc.Hash("pw")
	aHash, err := ar.Hash("pw")
	if err != nil {
		t.Fatalf("argon2 Hash: %v", err)
	}
	if !strings.HasPrefix(aHash, argon2Prefix) {
		t.Fatalf("argon2id hash expected, got %q", aHash)
	}
	for name, h := range map[string]*PasswordHasher{"bcrypt": bc, "argon2id": ar} {
		for _, stored := range []string{bHash, aHash} {
			ok, err := h.Compare("pw", stored)
			if err != nil || !ok {
				t.Errorf("%s hasher Compare(%q) = %v, %v", name, stored[:8], ok, err)
			}
		}
	}
}

func TestPasswordHasher_UnknownFormat(t *testing.T) {
	h := NewPasswordHasher(AlgorithmBcrypt, 4)
	ok, err := h.Compare("pw", "plaintext")
	if ok || err != ErrInvalidHash {
		t.Errorf("Compare = %v, %v; want false, ErrInvalidHash", ok, err)
	}
}

func TestPasswordHasher_DummyHash(t *testing.T) {
	h := NewPasswordHasher(AlgorithmBcrypt, 4)
	d1 := h.DummyHash()
	if d1 == "" {
		t.Fatal("DummyHash empty")
	}
	if d2 := h.DummyHash(); d1 != d2 {
		t.Error("DummyHash should be computed once")
	}
	ok, err := h.Compare("anything", d1)
	if err != nil || ok {
		t.Errorf("Compare against dummy = %v, %v; want false, nil", ok, err)
	}
}

func TestGenerateRandomSecret(t *testing.T) {
	s1, err := GenerateRandomSecret()
	if err != nil {
		t.Fatalf("GenerateRandomSecret: %v", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(s1)
	if err != nil {
		t.Fatalf("secret is not base64url: %v", err)
	}
	if len(raw) != 32 {
		t.Errorf("secret has %d bytes, want 32", len(raw))
	}
	s2, _ := NewPasswordHasher("", 4).GenerateRandomSecret()
	if s1 == s2 {
		t.Error("two secrets should differ")
	}
}
