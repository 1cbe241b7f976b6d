package jira

import (
	"time"
)

// AuthType selects how requests are authenticated.
type AuthType string

// Supported authentication schemes.
const (
	AuthAPIToken AuthType = "api_token" // Cloud: email + API token
	AuthBasic    AuthType = "basic"     // Server: username + password
	AuthPAT      AuthType = "pat"       // Server/DC: personal access token
	AuthOAuth2   AuthType = "oauth2"    // Cloud: pre-issued bearer token
	AuthConnect  AuthType = "connect"   // Atlassian Connect app: JWT signed with the shared secret
)

// APIVersion is the REST API generation: v3 bodies are ADF, v2 bodies are wiki markup.
type APIVersion string

// API versions.
const (
	APIVersionV2 APIVersion = "v2"
	APIVersionV3 APIVersion = "v3"
)

// Config holds the configuration for the Jira client.
type Config struct {
	// URL is the base URL, e.g. https://acme.atlassian.net.
	URL string `yaml:"url"`

	// APIVersion defaults to v3.
	APIVersion APIVersion `yaml:"api_version"`

	Auth AuthConfig `yaml:"auth"`

	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RetryWait  time.Duration `yaml:"retry_wait"`
}

// AuthConfig holds credentials. Only the fields of the selected Type are read.
type AuthConfig struct {
	Type AuthType `yaml:"type"`

	Email    string `yaml:"email"`
	Token    string `yaml:"token"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// AccessToken is the bearer token for oauth2.
	AccessToken string `yaml:"access_token"`

	// AppKey and SharedSecret identify a Connect app installation.
	AppKey       string `yaml:"app_key"`
	SharedSecret string `yaml:"shared_secret"`
}

// DefaultConfig returns a Config with defaults filled in.
func DefaultConfig() *Config {
	return &Config{
		APIVersion: APIVersionV3,
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryWait:  time.Second,
	}
}

// Validate checks that the selected auth scheme has its credentials.
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrConfigURLRequired
	}
	switch c.Auth.Type {
	case "":
		return ErrConfigAuthTypeRequired
	case AuthAPIToken:
		if c.Auth.Email == "" || c.Auth.Token == "" {
			return ErrConfigAPITokenAuth
		}
	case AuthBasic:
		if c.Auth.Username == "" || c.Auth.Password == "" {
			return ErrConfigBasicAuth
		}
	case AuthPAT:
		if c.Auth.Token == "" {
			return ErrConfigPATAuth
		}
	case AuthOAuth2:
		if c.Auth.AccessToken == "" {
			return ErrConfigOAuth2Auth
		}
	case AuthConnect:
		if c.Auth.AppKey == "" || c.Auth.SharedSecret == "" {
			return ErrConfigConnectAuth
		}
	default:
		return ErrConfigAuthTypeInvalid
	}
	switch c.APIVersion {
	case "", APIVersionV2, APIVersionV3:
	default:
		return ErrConfigAPIVersionInvalid
	}
	return nil
}

// version returns the effective API version.
func (c *Config) version() APIVersion {
	if c.APIVersion == "" {
		return APIVersionV3
	}
	return c.APIVersion
}
