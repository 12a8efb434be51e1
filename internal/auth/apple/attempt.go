package apple

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/router-for-me/AppleWebAuth/internal/misc"
	"golang.org/x/oauth2"
)

// OAuth configuration constants for Sign in with Apple.
const (
	AuthURL      = "https://appleid.apple.com/auth/authorize"
	TokenURL     = "https://appleid.apple.com/auth/token"
	DefaultScope = "name email"

	// responseMode makes Apple deliver the result as an auto-submitted HTML
	// form, which is what the form collector reads.
	responseMode = "form_post"
	apiVersion   = "1.1.1"
)

// AttemptConfig describes the client registration used to start an attempt.
type AttemptConfig struct {
	ClientID    string
	RedirectURI string
	Scope       string
	// AuthURL overrides the authorization endpoint.
	AuthURL string
	// InterceptURL overrides the URL substring to intercept; defaults to RedirectURI.
	InterceptURL string
	// State overrides the generated anti-forgery token.
	State string
}

// Attempt is one sign in try: the URL to load in the webview, the URL substring
// that marks the redirect and the state Apple must echo back.
type Attempt struct {
	ID               string
	AuthorizationURL string
	RedirectURI      string
	InterceptURL     string
	State            string
}

// NewAttempt builds the authorization URL and state for a new attempt.
func NewAttempt(cfg AttemptConfig) (*Attempt, error) {
	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		return nil, fmt.Errorf("apple: client id is required")
	}
	redirectURI := strings.TrimSpace(cfg.RedirectURI)
	if redirectURI == "" {
		return nil, fmt.Errorf("apple: redirect uri is required")
	}
	scope := strings.TrimSpace(cfg.Scope)
	if scope == "" {
		scope = DefaultScope
	}
	authURL := strings.TrimSpace(cfg.AuthURL)
	if authURL == "" {
		authURL = AuthURL
	}

	state := cfg.State
	if state == "" {
		generated, err := misc.GenerateRandomState()
		if err != nil {
			return nil, fmt.Errorf("apple state generation failed: %w", err)
		}
		state = generated
	}

	oauthCfg := &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURI,
		Scopes:      strings.Fields(scope),
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: TokenURL,
		},
	}
	authorizationURL := oauthCfg.AuthCodeURL(state,
		oauth2.SetAuthURLParam("response_mode", responseMode),
		oauth2.SetAuthURLParam("v", apiVersion),
	)

	interceptURL := strings.TrimSpace(cfg.InterceptURL)
	if interceptURL == "" {
		interceptURL = redirectURI
	}

	return &Attempt{
		ID:               uuid.NewString(),
		AuthorizationURL: authorizationURL,
		RedirectURI:      redirectURI,
		InterceptURL:     interceptURL,
		State:            state,
	}, nil
}
