package util

import "testing"

func TestGenerateTokenIsUnique(t *testing.T) {
	a, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	b, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if a == b {
		t.Fatal("two generated tokens collided")
	}
	if len(a) != 48 {
		t.Fatalf("token length = %d, want 48 hex chars", len(a))
	}
}

func TestHashTokenRoundTrip(t *testing.T) {
	token, _ := GenerateToken()
	hash := HashToken(token, "secret")

	if hash == token {
		t.Fatal("hash must differ from the raw token")
	}
	if !VerifyTokenHash(token, hash, "secret") {
		t.Fatal("hash does not verify against its own token")
	}
	if VerifyTokenHash("other", hash, "secret") {
		t.Fatal("wrong token verified")
	}
	if VerifyTokenHash(token, hash, "other-secret") {
		t.Fatal("wrong secret verified")
	}
}

func TestVerifyTokenHashEmptyHash(t *testing.T) {
	if VerifyTokenHash("anything", "", "secret") {
		t.Fatal("empty stored hash must never verify")
	}
}
