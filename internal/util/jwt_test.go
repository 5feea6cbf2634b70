package util

import (
	"coding_quiz_backend/internal/model"
	"testing"
	"time"
)

func testUser() *model.User {
	user := &model.User{
		Username: "tester",
		Email:    "tester@example.com",
		Role:     model.Student,
	}
	user.ID = 42
	return user
}

func TestGenerateAndParseJWT(t *testing.T) {
	token, err := GenerateJWT(testUser(), "secret-for-tests", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	claims, err := ParseJWT(token, "secret-for-tests")
	if err != nil {
		t.Fatalf("ParseJWT failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Role != model.Student {
		t.Fatalf("Role = %q, want student", claims.Role)
	}
	if claims.Email != "tester@example.com" {
		t.Fatalf("Email = %q", claims.Email)
	}
}

func TestParseJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT(testUser(), "secret-for-tests", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	if _, err := ParseJWT(token, "another-secret"); err == nil {
		t.Fatal("expected error with wrong secret")
	}
}

func TestParseJWTExpired(t *testing.T) {
	token, err := GenerateJWT(testUser(), "secret-for-tests", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	if _, err := ParseJWT(token, "secret-for-tests"); err == nil {
		t.Fatal("expected error for expired token")
	}
}
