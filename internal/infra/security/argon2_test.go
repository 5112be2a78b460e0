package security

import (
	"strings"
	"testing"
)

func TestHashPasswordProducesVerifiableHash(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	if !strings.HasPrefix(hash, "argon2id$v=19$") {
		t.Fatalf("unexpected hash prefix: %s", hash)
	}

	ok, err := VerifyPassword("correct horse battery staple", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected password to verify against its own hash")
	}
}

func TestVerifyPasswordRejectsWrongPassword(t *testing.T) {
	hash, err := HashPassword("original-password")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	ok, err := VerifyPassword("different-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error: %v", err)
	}
	if ok {
		t.Fatal("expected mismatch for wrong password")
	}
}

func TestVerifyPasswordEmptyInputs(t *testing.T) {
	ok, err := VerifyPassword("", "whatever")
	if err != nil || ok {
		t.Fatalf("empty password: got ok=%v err=%v", ok, err)
	}

	ok, err = VerifyPassword("password", "")
	if err != nil || ok {
		t.Fatalf("empty hash: got ok=%v err=%v", ok, err)
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	cases := []string{
		"not-a-hash",
		"argon2id$v=19$m=65536,t=3,p=4$salt-only",
		"bcrypt$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		"argon2id$v=18$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		"argon2id$v=19$m=abc,t=3,p=4$c2FsdA$aGFzaA",
	}

	for _, encoded := range cases {
		if _, err := VerifyPassword("password", encoded); err == nil {
			t.Errorf("expected error for malformed hash %q", encoded)
		}
	}
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	first, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	second, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	if first == second {
		t.Fatal("expected distinct hashes for the same password")
	}
}

func TestConfigureArgon2RejectsInvalid(t *testing.T) {
	t.Cleanup(func() {
		if err := ConfigureArgon2(DefaultArgon2Config()); err != nil {
			t.Fatalf("restore default config: %v", err)
		}
	})

	bad := DefaultArgon2Config()
	bad.Iterations = 0
	if err := ConfigureArgon2(bad); err == nil {
		t.Fatal("expected error for zero iterations")
	}

	bad = DefaultArgon2Config()
	bad.Memory = 1024
	if err := ConfigureArgon2(bad); err == nil {
		t.Fatal("expected error for too little memory")
	}
}
