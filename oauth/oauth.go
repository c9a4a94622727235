// Package oauth implements the authorization-code grant against the
// Inter-Actief OAuth endpoint.
//
// For each session (user) a new Client needs to be created.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dvcrn/iaconnector/internal/httpclient"
	"github.com/dvcrn/iaconnector/internal/logger"
)

// DefaultBaseURL is the production Inter-Actief OAuth endpoint.
const DefaultBaseURL = "https://www.inter-actief.utwente.nl/o/"

const (
	authorizePath = "authorize/"
	tokenPath     = "token/"
)

// Config holds the registered application credentials. Supplied once at
// construction and immutable for the life of the client.
type Config struct {
	// ClientID is the registered client id for the application.
	ClientID string

	// ClientSecret is the registered client secret for the application.
	ClientSecret string

	// Scope is the list of permission scopes to request.
	Scope []string

	// RedirectURL is the URL the server redirects to after authenticating.
	// It must be registered with the application.
	RedirectURL string

	// AccessToken and RenewToken resume a previously authenticated session,
	// if known.
	AccessToken string
	RenewToken  string

	// BaseURL overrides the production OAuth endpoint. A missing trailing
	// slash is appended.
	BaseURL string

	// HTTPClient overrides the default transport.
	HTTPClient httpclient.HTTPClient
}

// Token is the result of a code exchange or renewal.
type Token struct {
	AccessToken string
	RenewToken  string

	// Expiry is the time the access token expires. Zero when the server did
	// not report a lifetime.
	Expiry time.Time
}

// tokenResponse represents the token endpoint's JSON response.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
}

// errorResponse represents the token endpoint's JSON error body.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Client performs the OAuth2 authorization-code flow.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient httpclient.HTTPClient

	token   Token
	onToken func(Token)
}

// New creates a new OAuth client from the given config.
func New(cfg Config) *Client {
	c := &Client{
		cfg:        cfg,
		baseURL:    normalizeBaseURL(cfg.BaseURL, DefaultBaseURL),
		httpClient: cfg.HTTPClient,
		token: Token{
			AccessToken: cfg.AccessToken,
			RenewToken:  cfg.RenewToken,
		},
	}
	if c.httpClient == nil {
		c.httpClient = httpclient.New()
	}

	logger.Get().Debug().
		Str("url", c.baseURL).
		Str("client_id", cfg.ClientID).
		Msg("OAuth client initialized")

	return c
}

func normalizeBaseURL(base, fallback string) string {
	if base == "" {
		return fallback
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

// AuthorizationURL returns the URL the user can be redirected to in order to
// log in at Inter-Actief. It is a pure function of the config; no network
// call is made.
func (c *Client) AuthorizationURL() string {
	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", c.cfg.ClientID)
	query.Set("redirect_uri", c.cfg.RedirectURL)
	query.Set("scope", strings.Join(c.cfg.Scope, " "))

	return c.baseURL + authorizePath + "?" + query.Encode()
}

// FetchAccessToken exchanges the authorization code for an access token.
// callbackURL is the full URL the server redirected the user to after
// authorizing. The resulting token is stored on the client and propagated to
// the token listener, if any.
func (c *Client) FetchAccessToken(ctx context.Context, callbackURL string) (Token, error) {
	logger.Get().Debug().Str("url", callbackURL).Msg("fetching access token")

	parsed, err := url.Parse(callbackURL)
	if err != nil {
		return Token{}, fmt.Errorf("oauth: invalid callback URL: %w", err)
	}

	query := parsed.Query()
	if errCode := query.Get("error"); errCode != "" {
		return Token{}, &AuthorizationError{
			Code:        errCode,
			Description: query.Get("error_description"),
		}
	}

	code := query.Get("code")
	if code == "" {
		return Token{}, &AuthorizationError{Description: "callback URL contains no authorization code"}
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.cfg.RedirectURL)
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	return c.requestToken(ctx, form)
}

// RenewAccessToken retrieves a new access token using the stored renew
// token. This can be used when a token has expired.
func (c *Client) RenewAccessToken(ctx context.Context) (Token, error) {
	if c.token.RenewToken == "" {
		return Token{}, ErrNoRenewToken
	}

	logger.Get().Debug().Msg("renewing access token")

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", c.token.RenewToken)
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	return c.requestToken(ctx, form)
}

// requestToken performs a single form-encoded POST to the token endpoint and
// stores the resulting token.
func (c *Client) requestToken(ctx context.Context, form url.Values) (Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("oauth: could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Token{}, &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Token{}, &ConnectionError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		authErr := &AuthorizationError{StatusCode: resp.StatusCode}
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			authErr.Code = errResp.Error
			authErr.Description = errResp.ErrorDescription
		} else {
			authErr.Description = strings.TrimSpace(string(body))
		}
		return Token{}, authErr
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return Token{}, fmt.Errorf("oauth: could not parse token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return Token{}, &AuthorizationError{
			StatusCode:  resp.StatusCode,
			Description: "token response contains no access token",
		}
	}

	c.token = Token{
		AccessToken: tokenResp.AccessToken,
		RenewToken:  tokenResp.RefreshToken,
	}
	if tokenResp.ExpiresIn > 0 {
		c.token.Expiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	}

	if c.onToken != nil {
		c.onToken(c.token)
	}

	logger.Get().Debug().Time("expiry", c.token.Expiry).Msg("access token stored")

	return c.token, nil
}

// AccessToken returns the access token for the current session, or
// ErrNotAuthenticated when none is present.
func (c *Client) AccessToken() (string, error) {
	if c.token.AccessToken == "" {
		return "", ErrNotAuthenticated
	}
	return c.token.AccessToken, nil
}

// RenewToken returns the renew token for the current session, or
// ErrNoRenewToken when none is present.
func (c *Client) RenewToken() (string, error) {
	if c.token.RenewToken == "" {
		return "", ErrNoRenewToken
	}
	return c.token.RenewToken, nil
}

// TokenExpiry returns the time the current access token expires. Zero when
// no token is present or the server did not report a lifetime.
func (c *Client) TokenExpiry() time.Time {
	return c.token.Expiry
}

// SetTokenListener registers fn to be invoked whenever a token is fetched or
// renewed. Used by the connector to propagate tokens into the API client.
func (c *Client) SetTokenListener(fn func(Token)) {
	c.onToken = fn
}
