package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:4321"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.2")

	if got := ClientIP(req); got != "203.0.113.9" {
		t.Fatalf("client ip = %q, want 203.0.113.9", got)
	}
}

func TestClientIPFallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:4321"

	if got := ClientIP(req); got != "10.0.0.1" {
		t.Fatalf("client ip = %q, want 10.0.0.1", got)
	}
}

func TestClientIPIgnoresGarbageForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:4321"
	req.Header.Set("X-Forwarded-For", "not-an-ip")

	if got := ClientIP(req); got != "10.0.0.1" {
		t.Fatalf("client ip = %q, want 10.0.0.1", got)
	}
}
