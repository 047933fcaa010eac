package auth

import "testing"

func TestHashPassword_NonDeterministic(t *testing.T) {
	p := "correct horse battery staple"
	h1, err := HashPassword(p)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	h2, err := HashPassword(p)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("expected different hashes for same password")
	}
}

func TestVerifyPassword(t *testing.T) {
	p := "correct horse battery staple"
	h, err := HashPassword(p)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	ok, err := VerifyPassword(h, p)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if !ok {
		t.Fatalf("expected password to verify")
	}

	ok, err = VerifyPassword(h, "wrong password")
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if ok {
		t.Fatalf("expected wrong password to fail verification")
	}
}

func TestVerifyPassword_BadHash(t *testing.T) {
	for _, h := range []string{"", "$argon2i$v=19$m=1,t=1,p=1$a$b", "$argon2id$v=18$m=1,t=1,p=1$YQ$Yg", "$argon2id$v=19$m=x,t=1,p=1$YQ$Yg"} {
		if _, err := VerifyPassword(h, "pw"); err == nil {
			t.Fatalf("expected error for %q", h)
		}
	}
}

func TestPasswordFingerprintChangesWithHash(t *testing.T) {
	h1, _ := HashPassword("Secret123")
	h2, _ := HashPassword("Secret123")
	if PasswordFingerprint(h1) == PasswordFingerprint(h2) {
		t.Fatalf("fingerprints of different hashes must differ")
	}
	if PasswordFingerprint(h1) != PasswordFingerprint(h1) {
		t.Fatalf("fingerprint must be stable")
	}
}

func TestGeneratePassword(t *testing.T) {
	pw, err := GeneratePassword(12)
	if err != nil {
		t.Fatalf("GeneratePassword: %v", err)
	}
	if len(pw) != 12 {
		t.Fatalf("length: got %d", len(pw))
	}
	if err := CheckPasswordRules(pw); err != nil {
		t.Fatalf("generated password violates rules: %v", err)
	}
}

func TestCheckPasswordRules(t *testing.T) {
	tests := []struct {
		pw string
		ok bool
	}{
		{"Ab1", false},
		{"abcdefg1", false},
		{"ABCDEFGH", false},
		{"Quartz7Mile", true},
		{"Tr0ub4dor", true},
	}
	for _, tc := range tests {
		err := CheckPasswordRules(tc.pw)
		if tc.ok && err != nil {
			t.Fatalf("%q: unexpected error %v", tc.pw, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.pw)
		}
	}
}
