package session

import (
	"errors"
	"testing"
	"time"

	"shelfsync/pkg/store"
)

func newTestService(t *testing.T) (*Service, *[]string) {
	t.Helper()
	var signedOut []string
	svc, err := NewService(store.NewMemoryStore(), NewMemoryTokenStore(time.Hour), func(userID string) {
		signedOut = append(signedOut, userID)
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, &signedOut
}

func TestSignUpAndSignIn(t *testing.T) {
	svc, _ := newTestService(t)

	user, token, err := svc.SignUp("reader@example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if user.ID == "" || token == "" {
		t.Fatalf("expected user and token")
	}
	if user.PasswordHash == "correct horse battery" {
		t.Fatalf("password stored in clear")
	}

	resolved, ok, err := svc.UserFromToken(token)
	if err != nil || !ok {
		t.Fatalf("resolve token: ok=%v err=%v", ok, err)
	}
	if resolved.ID != user.ID {
		t.Fatalf("token resolved to wrong user")
	}

	again, token2, err := svc.SignIn("reader@example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if again.ID != user.ID || token2 == "" {
		t.Fatalf("sign in returned wrong user")
	}
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := newTestService(t)

	if _, _, err := svc.SignUp("not-an-email", "long enough password"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got: %v", err)
	}
	if _, _, err := svc.SignUp("reader@example.com", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got: %v", err)
	}
	if _, _, err := svc.SignUp("reader@example.com", "long enough password"); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if _, _, err := svc.SignUp("reader@example.com", "long enough password"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got: %v", err)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	if _, _, err := svc.SignUp("reader@example.com", "long enough password"); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if _, _, err := svc.SignIn("reader@example.com", "wrong password!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got: %v", err)
	}
	if _, _, err := svc.SignIn("nobody@example.com", "long enough password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got: %v", err)
	}
}

func TestSignOutFiresHookAndEndsSession(t *testing.T) {
	svc, signedOut := newTestService(t)

	user, token, err := svc.SignUp("reader@example.com", "long enough password")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if err := svc.SignOut(token); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if len(*signedOut) != 1 || (*signedOut)[0] != user.ID {
		t.Fatalf("sign-out hook not fired for user: %v", *signedOut)
	}
	if _, ok, _ := svc.UserFromToken(token); ok {
		t.Fatalf("token must be dead after sign-out")
	}

	// Unknown token is a no-op and must not fire the hook again.
	if err := svc.SignOut("bogus"); err != nil {
		t.Fatalf("sign out unknown token: %v", err)
	}
	if len(*signedOut) != 1 {
		t.Fatalf("hook fired for unknown token")
	}
}

func TestMemoryTokenStoreExpiry(t *testing.T) {
	s := NewMemoryTokenStore(time.Minute)
	base := time.Now()
	s.now = func() time.Time { return base }

	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(token); !ok {
		t.Fatalf("fresh token must resolve")
	}

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatalf("expired token must not resolve")
	}
}
