package auth

import (
	"fmt"
	"strings"

	"github.com/kbukum/authmaster/auth/extract"
	"github.com/kbukum/authmaster/auth/token"
	"github.com/kbukum/authmaster/validation"
)

// KeyConfig is one named secret. Names are kept in a list rather than a map
// because the config loader lowercases map keys.
type KeyConfig struct {
	Name   string `mapstructure:"name"`
	Secret string `mapstructure:"secret"`
}

// BasicUser is a username with its bcrypt password hash.
type BasicUser struct {
	Username string `mapstructure:"username"`
	Hash     string `mapstructure:"hash"`
}

// Config holds authentication configuration.
type Config struct {
	// Enabled controls whether authentication is active.
	Enabled bool `mapstructure:"enabled"`

	// Keys is the initial registry content.
	Keys []KeyConfig `mapstructure:"keys"`

	// DefaultExpiresIn applies to issuance requests that carry no expiry.
	// Empty means tokens do not expire.
	DefaultExpiresIn string `mapstructure:"default_expires_in"`

	// BearerKeys are the candidate key names for the HTTP bearer adapter,
	// most privileged first.
	BearerKeys []string `mapstructure:"bearer_keys"`

	// SocketKeys are the candidate key names for the socket adapter.
	// Defaults to BearerKeys.
	SocketKeys []string `mapstructure:"socket_keys"`

	// Required makes the protected routes reject unauthenticated callers.
	Required bool `mapstructure:"required"`

	CookieName       string `mapstructure:"cookie_name"`
	BearerQueryParam string `mapstructure:"bearer_query_param"`
	BasicQueryParam  string `mapstructure:"basic_query_param"`

	// BasicUsers enables password checking in the Basic adapter when non-empty.
	BasicUsers []BasicUser `mapstructure:"basic_users"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.CookieName == "" {
		c.CookieName = extract.DefaultCookieName
	}
	if c.BearerQueryParam == "" {
		c.BearerQueryParam = extract.DefaultBearerQueryParam
	}
	if c.BasicQueryParam == "" {
		c.BasicQueryParam = extract.DefaultBasicQueryParam
	}
	if len(c.SocketKeys) == 0 && len(c.BearerKeys) > 0 {
		c.SocketKeys = append([]string(nil), c.BearerKeys...)
	}
}

// Validate checks the configuration. A disabled config is always valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	v := validation.New()
	known := make(map[string]bool, len(c.Keys))
	names := make([]string, 0, len(c.Keys))
	for i, k := range c.Keys {
		field := fmt.Sprintf("keys[%d]", i)
		v.KeyName(field+".name", k.Name).Required(field+".secret", k.Secret)
		known[k.Name] = true
		names = append(names, k.Name)
	}
	v.Unique("keys", names).
		KeyRefs("bearer_keys", c.BearerKeys, known).
		KeyRefs("socket_keys", c.SocketKeys, known).
		Expiry("default_expires_in", c.DefaultExpiresIn)

	users := make([]string, 0, len(c.BasicUsers))
	for i, u := range c.BasicUsers {
		field := fmt.Sprintf("basic_users[%d]", i)
		v.Required(field+".username", u.Username).Required(field+".hash", u.Hash)
		users = append(users, u.Username)
	}
	v.Unique("basic_users", users)

	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// KeyMap returns the configured keys as a registry mapping.
func (c *Config) KeyMap() map[string]string {
	m := make(map[string]string, len(c.Keys))
	for _, k := range c.Keys {
		m[k.Name] = k.Secret
	}
	return m
}

// Expiry returns the parsed default expiry.
func (c *Config) Expiry() (token.Expiry, error) {
	if c.DefaultExpiresIn == "" {
		return token.NoExpiry, nil
	}
	return token.ParseExpiry(c.DefaultExpiresIn)
}

// BearerSources returns the cookie and query fallbacks for bearer extraction.
func (c *Config) BearerSources() extract.Sources {
	return extract.Sources{CookieName: c.CookieName, QueryParam: c.BearerQueryParam}
}

// BasicSources returns the cookie and query fallbacks for Basic extraction.
func (c *Config) BasicSources() extract.Sources {
	return extract.Sources{CookieName: c.CookieName, QueryParam: c.BasicQueryParam}
}

// BasicHashes returns the configured Basic users as username -> hash.
func (c *Config) BasicHashes() map[string]string {
	m := make(map[string]string, len(c.BasicUsers))
	for _, u := range c.BasicUsers {
		m[u.Username] = u.Hash
	}
	return m
}

// Describe returns a human-readable one-liner for the startup summary.
// Secrets never appear in it.
// Example: "keys=[adminToken userToken] bearer=[adminToken userToken] ttl=1h required"
func (c *Config) Describe() string {
	if !c.Enabled {
		return "disabled"
	}
	names := make([]string, 0, len(c.Keys))
	for _, k := range c.Keys {
		names = append(names, k.Name)
	}
	line := fmt.Sprintf("keys=[%s] bearer=[%s] socket=[%s]",
		strings.Join(names, " "), strings.Join(c.BearerKeys, " "), strings.Join(c.SocketKeys, " "))
	if c.DefaultExpiresIn != "" {
		line += " ttl=" + c.DefaultExpiresIn
	}
	if c.Required {
		line += " required"
	}
	if len(c.BasicUsers) > 0 {
		line += fmt.Sprintf(" basic_users=%d", len(c.BasicUsers))
	}
	return line
}
