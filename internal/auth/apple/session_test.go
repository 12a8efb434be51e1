package apple

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/router-for-me/AppleWebAuth/internal/bridge"
	"github.com/router-for-me/AppleWebAuth/internal/constant"
)

func TestNewAttempt(t *testing.T) {
	attempt, err := NewAttempt(AttemptConfig{
		ClientID:    "com.example.web",
		RedirectURI: "https://example.com/apple/return",
	})
	if err != nil {
		t.Fatalf("NewAttempt: %v", err)
	}
	if attempt.State == "" || attempt.ID == "" {
		t.Fatalf("state and id should be generated: %+v", attempt)
	}
	if attempt.InterceptURL != "https://example.com/apple/return" {
		t.Fatalf("intercept URL should default to the redirect URI, got %q", attempt.InterceptURL)
	}

	parsed, err := url.Parse(attempt.AuthorizationURL)
	if err != nil {
		t.Fatalf("parse authorization URL: %v", err)
	}
	if !strings.HasPrefix(attempt.AuthorizationURL, AuthURL+"?") {
		t.Fatalf("unexpected endpoint: %s", attempt.AuthorizationURL)
	}
	query := parsed.Query()
	expected := map[string]string{
		"response_type": "code",
		"response_mode": "form_post",
		"v":             "1.1.1",
		"client_id":     "com.example.web",
		"redirect_uri":  "https://example.com/apple/return",
		"scope":         "name email",
		"state":         attempt.State,
	}
	for key, want := range expected {
		if got := query.Get(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestNewAttempt_Overrides(t *testing.T) {
	attempt, err := NewAttempt(AttemptConfig{
		ClientID:     "id",
		RedirectURI:  "https://example.com/return",
		InterceptURL: "/return",
		State:        "fixed",
		Scope:        "email",
		AuthURL:      "https://apple.test/authorize",
	})
	if err != nil {
		t.Fatalf("NewAttempt: %v", err)
	}
	if attempt.State != "fixed" || attempt.InterceptURL != "/return" {
		t.Fatalf("overrides not applied: %+v", attempt)
	}
	if !strings.HasPrefix(attempt.AuthorizationURL, "https://apple.test/authorize?") {
		t.Fatalf("auth URL override not applied: %s", attempt.AuthorizationURL)
	}
}

func TestNewAttempt_RequiresClient(t *testing.T) {
	if _, err := NewAttempt(AttemptConfig{RedirectURI: "https://x"}); err == nil {
		t.Fatal("expected error without client id")
	}
	if _, err := NewAttempt(AttemptConfig{ClientID: "id"}); err == nil {
		t.Fatal("expected error without redirect uri")
	}
}

func TestSession_EndToEnd(t *testing.T) {
	registry := bridge.NewRegistry()
	session, err := NewSession(registry, SessionOptions{
		ExpectedState: "s",
		InterceptURL:  "auth/callback",
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer session.Close()

	names := registry.Names()
	if len(names) != 1 || names[0] != constant.BridgeName {
		t.Fatalf("bridge not registered before navigation: %v", names)
	}

	view := &fakeWebView{}
	session.ResourceLoader().OnLoadResource(view, "https://x/login")
	session.ResourceLoader().OnLoadResource(view, "https://x/auth/callback")
	if len(view.scripts) != 1 {
		t.Fatalf("expected injection, got %v", view.calls)
	}

	// The page answers through the bridge.
	if err = registry.Dispatch(constant.BridgeName, constant.BridgeMethod, "state=s|code=C|"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	result, err := session.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if success, ok := result.(Success); !ok || success.Code != "C" {
		t.Fatalf("unexpected result %v", result)
	}
}

func TestSession_CloseUnregistersBridge(t *testing.T) {
	registry := bridge.NewRegistry()
	session, err := NewSession(registry, SessionOptions{ExpectedState: "s", InterceptURL: "cb"})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	session.Close()
	session.Close()

	err = registry.Dispatch(constant.BridgeName, constant.BridgeMethod, "state=s|code=C|")
	if !errors.Is(err, bridge.ErrUnknownHandler) {
		t.Fatalf("expected ErrUnknownHandler after Close, got %v", err)
	}
}

func TestSession_WaitHonoursContext(t *testing.T) {
	session, err := NewSession(bridge.NewRegistry(), SessionOptions{ExpectedState: "s", InterceptURL: "cb"})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err = session.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewSession_Validation(t *testing.T) {
	if _, err := NewSession(nil, SessionOptions{InterceptURL: "cb"}); err == nil {
		t.Fatal("expected error without host")
	}
	if _, err := NewSession(bridge.NewRegistry(), SessionOptions{}); err == nil {
		t.Fatal("expected error without intercept url")
	}
	registry := bridge.NewRegistry()
	if _, err := NewSession(registry, SessionOptions{InterceptURL: "cb"}); err != nil {
		t.Fatalf("first session: %v", err)
	}
	if _, err := NewSession(registry, SessionOptions{InterceptURL: "cb"}); !errors.Is(err, bridge.ErrDuplicateHandler) {
		t.Fatalf("expected duplicate bridge error, got %v", err)
	}
}

func TestGetUserFriendlyMessage(t *testing.T) {
	if msg := GetUserFriendlyMessage(ErrStateMismatch); !strings.Contains(msg, "verified") {
		t.Errorf("unexpected message %q", msg)
	}
	if msg := GetUserFriendlyMessage(errors.New("boom")); !strings.Contains(msg, "unexpected") {
		t.Errorf("unexpected message %q", msg)
	}
	if !IsAuthenticationError(NewAuthenticationError(ErrMalformedResponse, errors.New("x"))) {
		t.Error("expected authentication error")
	}
}
