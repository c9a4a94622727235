// Package iaconnector provides OAuth (2) authentication and access to the
// API of the Inter-Actief web site (https://www.inter-actief.utwente.nl).
// Access to these resources is limited to members of study association
// Inter-Actief.
//
// OAuth and API functionality has to be initialized before it can be used,
// using InitOAuth and InitAPI respectively. Once both are initialized, any
// token obtained through the OAuth client is automatically made available to
// the API client.
package iaconnector

import (
	"errors"

	"github.com/dvcrn/iaconnector/api"
	"github.com/dvcrn/iaconnector/oauth"
)

// ErrAlreadyInitialized is returned when InitOAuth or InitAPI is called
// while the respective sub-client already exists.
var ErrAlreadyInitialized = errors.New("iaconnector: already initialized")

// Connector aggregates the OAuth and API clients for a caller's
// convenience. Create one connector per session (user).
type Connector struct {
	oauth *oauth.Client
	api   *api.Client
}

// New creates a connector with neither sub-client initialized.
func New() *Connector {
	return &Connector{}
}

// InitOAuth initializes the OAuth client. This is only possible if the
// client has not been initialized yet. Tokens fetched or renewed through the
// OAuth client are assigned into the API client when that exists.
func (c *Connector) InitOAuth(cfg oauth.Config) error {
	if c.oauth != nil {
		return ErrAlreadyInitialized
	}

	c.oauth = oauth.New(cfg)
	c.oauth.SetTokenListener(func(tok oauth.Token) {
		if c.api != nil {
			c.api.SetAccessToken(tok.AccessToken)
		}
	})

	return nil
}

// InitAPI initializes the API client. This is only possible if the client
// has not been initialized yet. A token already held by the OAuth client is
// copied in.
func (c *Connector) InitAPI(opts ...api.Option) error {
	if c.api != nil {
		return ErrAlreadyInitialized
	}

	if c.oauth != nil {
		if tok, err := c.oauth.AccessToken(); err == nil {
			opts = append(opts, api.WithAccessToken(tok))
		}
	}

	c.api = api.New(opts...)
	return nil
}

// OAuth returns the OAuth client, or nil when InitOAuth has not been called.
func (c *Connector) OAuth() *oauth.Client {
	return c.oauth
}

// API returns the API client, or nil when InitAPI has not been called.
func (c *Connector) API() *api.Client {
	return c.api
}
