package auth

import "testing"

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("hash equals plaintext")
	}
	if err := ComparePassword(hash, "correct horse"); err != nil {
		t.Fatalf("ComparePassword: %v", err)
	}
	if err := ComparePassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); err == nil {
		t.Fatal("expected short password to fail")
	}
	if err := ValidatePassword("long enough"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
