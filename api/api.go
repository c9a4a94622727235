// Package api implements a client for the Inter-Actief API.
//
// The API speaks a JSON-RPC style protocol: every call is a single POST to
// the API endpoint carrying a method name, positional parameters and a call
// id. Authenticated calls additionally send the access token as a bearer
// header.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dvcrn/iaconnector/internal/httpclient"
	"github.com/dvcrn/iaconnector/internal/logger"
)

// DefaultBaseURL is the production Inter-Actief API endpoint.
const DefaultBaseURL = "https://api.ia.utwente.nl/app/lennart/"

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the production API endpoint. A missing trailing
// slash is appended.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL == "" {
			return
		}
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		c.baseURL = baseURL
	}
}

// WithAccessToken sets the access token used for bearer authentication.
func WithAccessToken(token string) Option {
	return func(c *Client) {
		c.accessToken = token
	}
}

// WithHTTPClient overrides the default transport.
func WithHTTPClient(hc httpclient.HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Client is a client for the Inter-Actief API.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  httpclient.HTTPClient
}

// New creates a new API client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = httpclient.New()
	}
	return c
}

// BaseURL returns the endpoint the client calls.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetAccessToken sets the access token used for bearer authentication. The
// connector calls this to propagate a freshly fetched token.
func (c *Client) SetAccessToken(token string) {
	c.accessToken = token
}

type rpcRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
	ID     string `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs a single API call and unmarshals the result into result when
// it is non-nil.
func (c *Client) call(ctx context.Context, method string, result any, params ...any) error {
	callID := uuid.New().String()

	bodyBytes, err := json.Marshal(rpcRequest{
		Method: method,
		Params: params,
		ID:     callID,
	})
	if err != nil {
		return fmt.Errorf("api: could not marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("api: could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	logger.Get().Debug().Str("method", method).Str("id", callID).Msg("dispatching API call")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ConnectionError{Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &NotLoggedInError{Message: strings.TrimSpace(string(respBody))}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &RemoteError{Code: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return &RemoteError{Code: resp.StatusCode, Message: fmt.Sprintf("invalid response from server: %v", err)}
	}

	if rpcResp.Error != nil {
		return errorFromCode(rpcResp.Error.Code, rpcResp.Error.Message)
	}

	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return &RemoteError{Code: resp.StatusCode, Message: fmt.Sprintf("invalid response from server: %v", err)}
		}
	}

	return nil
}

// Authentication module

// GetDeviceID requests a new device id. It is recommended to call this only
// once in an application's lifetime, just after its first start, and store
// the result for further use.
func (c *Client) GetDeviceID(ctx context.Context) (string, error) {
	var deviceID string
	if err := c.call(ctx, "getDeviceId", &deviceID); err != nil {
		return "", err
	}
	return deviceID, nil
}

// GetAuthToken attempts to log in and returns the authentication token.
//
// Deprecated: use the OAuth flow instead of directly asking the user for
// their password.
func (c *Client) GetAuthToken(ctx context.Context, username, password, deviceID string) (string, error) {
	var token string
	if err := c.call(ctx, "getAuthToken", &token, username, password, deviceID); err != nil {
		return "", err
	}
	return token, nil
}

// CheckAuthToken checks if an authentication token is (still) valid. It is
// recommended to do this after resuming an application, to see if the token
// was revoked. A rejected token reports false, not an error; only transport
// failures error.
func (c *Client) CheckAuthToken(ctx context.Context, token string) (bool, error) {
	var valid bool
	if err := c.call(ctx, "checkAuthToken", &valid, token); err != nil {
		return false, err
	}
	return valid, nil
}

// RevokeAuthToken revokes an authentication token and reports whether the
// revocation succeeded.
func (c *Client) RevokeAuthToken(ctx context.Context, token string) (bool, error) {
	var revoked bool
	if err := c.call(ctx, "revokeAuthToken", &revoked, token); err != nil {
		return false, err
	}
	return revoked, nil
}

// GetPersonDetails retrieves details of the currently authenticated person.
func (c *Client) GetPersonDetails(ctx context.Context, token string) (*PersonDetails, error) {
	var details PersonDetails
	if err := c.call(ctx, "getPersonDetails", &details, token); err != nil {
		return nil, err
	}
	return &details, nil
}

// Activity module

// GetActivityStream retrieves the activities between begin (minimal end
// date, inclusive) and end (maximal begin date, exclusive). When a token is
// given it is used to mark the activities the user is signed up for.
func (c *Client) GetActivityStream(ctx context.Context, begin, end time.Time, token string) ([]Activity, error) {
	var activities []Activity
	if err := c.call(ctx, "getActivityStream", &activities,
		begin.Format(time.RFC3339), end.Format(time.RFC3339), optionalToken(token)); err != nil {
		return nil, err
	}
	return activities, nil
}

// GetActivityDetails retrieves the details of an activity, including its
// signup options. When a token is given it is used to mark whether the user
// is signed up.
func (c *Client) GetActivityDetails(ctx context.Context, id int, token string) (*Activity, error) {
	var activity Activity
	if err := c.call(ctx, "getActivityDetailed", &activity, id, optionalToken(token)); err != nil {
		return nil, err
	}
	return &activity, nil
}

// ActivitySignup marks the user as an attendee to an activity. The
// calculated price is sent along so the server can verify the user was
// presented with the right amount; the selected options may change it.
func (c *Client) ActivitySignup(ctx context.Context, id int, price float64, options []SignupOptionValue, token string) error {
	if options == nil {
		options = []SignupOptionValue{}
	}
	return c.call(ctx, "activitySignup", nil, id, price, options, token)
}

// RevokeActivitySignup unmarks the user as an attendee to an activity.
func (c *Client) RevokeActivitySignup(ctx context.Context, id int, token string) error {
	return c.call(ctx, "activityRevokeSignup", nil, id, token)
}

// optionalToken turns an empty token into an explicit null parameter.
func optionalToken(token string) any {
	if token == "" {
		return nil
	}
	return token
}
