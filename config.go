package iaconnector

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/dvcrn/iaconnector/api"
	"github.com/dvcrn/iaconnector/oauth"
)

// Config holds the connector configuration as read from the environment.
// The base URLs are optional and default to the production endpoints.
type Config struct {
	ClientID     string   `env:"IA_CLIENT_ID,required"`
	ClientSecret string   `env:"IA_CLIENT_SECRET,required"`
	Scope        []string `env:"IA_SCOPE" envSeparator:" "`
	RedirectURL  string   `env:"IA_REDIRECT_URL,required"`
	OAuthBaseURL string   `env:"IA_OAUTH_BASE_URL"`
	APIBaseURL   string   `env:"IA_API_BASE_URL"`
}

// ConfigFromEnv parses the connector configuration from the environment.
func ConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("iaconnector: could not parse config from environment: %w", err)
	}
	return cfg, nil
}

// NewFromConfig builds a connector with both sub-clients initialized from
// the given config.
func NewFromConfig(cfg Config) (*Connector, error) {
	c := New()
	if err := c.InitOAuth(oauth.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scope:        cfg.Scope,
		RedirectURL:  cfg.RedirectURL,
		BaseURL:      cfg.OAuthBaseURL,
	}); err != nil {
		return nil, err
	}
	if err := c.InitAPI(api.WithBaseURL(cfg.APIBaseURL)); err != nil {
		return nil, err
	}
	return c, nil
}

// NewFromEnv builds a connector with both sub-clients initialized from the
// environment.
func NewFromEnv() (*Connector, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg)
}
