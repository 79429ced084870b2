package session

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisTokenStoreRoundTrip(t *testing.T) {
	redis := miniredis.RunT(t)
	s := NewRedisTokenStore(redis.Addr(), "", time.Hour)

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

	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatalf("deleted token must not resolve")
	}
}

func TestRedisTokenStoreExpiry(t *testing.T) {
	redis := miniredis.RunT(t)
	s := NewRedisTokenStore(redis.Addr(), "", time.Minute)

	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	redis.FastForward(2 * time.Minute)
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatalf("expired token must not resolve")
	}
}

func TestRedisTokenStoreSurfacesErrors(t *testing.T) {
	redis := miniredis.RunT(t)
	s := NewRedisTokenStore(redis.Addr(), "", time.Hour)
	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	redis.Close()
	if _, _, err := s.GetUserIDByToken(token); err == nil {
		t.Fatalf("expected error when redis is down")
	}
}
