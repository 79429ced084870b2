package session

import (
	"testing"
	"time"
)

func TestJWTTokenStoreRoundTrip(t *testing.T) {
	s, err := NewJWTTokenStore("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	userID, ok, err := s.GetUserIDByToken(token)
	if err != nil || !ok {
		t.Fatalf("resolve: ok=%v err=%v", ok, err)
	}
	if userID != "user-1" {
		t.Fatalf("unexpected user id: %q", userID)
	}
}

func TestJWTTokenStoreRejectsForgedToken(t *testing.T) {
	issuer, err := NewJWTTokenStore("secret-a", time.Hour)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	verifier, err := NewJWTTokenStore("secret-b", time.Hour)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	token, err := issuer.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, _ := verifier.GetUserIDByToken(token); ok {
		t.Fatalf("token signed with another secret must not resolve")
	}
	if _, ok, _ := verifier.GetUserIDByToken("garbage"); ok {
		t.Fatalf("garbage must not resolve")
	}
}

func TestJWTTokenStoreRevocation(t *testing.T) {
	s, err := NewJWTTokenStore("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatalf("revoked token must not resolve")
	}

	// A second session is unaffected by the first one's revocation.
	token2, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("second session: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(token2); !ok {
		t.Fatalf("fresh token must still resolve")
	}
}
