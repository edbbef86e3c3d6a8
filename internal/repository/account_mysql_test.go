package repository

import "testing"

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "hunter2" {
		t.Fatal("hash must not equal the plaintext")
	}

	if err := verifyPassword(hash, "hunter2"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := verifyPassword(hash, "hunter3"); err == nil {
		t.Error("wrong password accepted")
	}
	if err := verifyPassword(hash, ""); err == nil {
		t.Error("empty password accepted")
	}
	if err := verifyPassword("not-a-bcrypt-hash", "hunter2"); err == nil {
		t.Error("malformed stored hash accepted")
	}
}

func TestHashPasswordSalted(t *testing.T) {
	h1, err := HashPassword("same-input")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	h2, err := HashPassword("same-input")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password should differ (per-hash salt)")
	}
}
