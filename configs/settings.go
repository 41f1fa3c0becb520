package configs

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	rlerrors "github.com/repolens/cli/errors"
)

const (
	ProviderGitea  = "gitea"
	ProviderGitHub = "github"

	DefaultRedirectURL = "http://localhost:8735/oauth/callback"
)

type ProviderConfig struct {
	Kind string
	// BaseURL is the REST API root, WebURL the site hosting the OAuth pages.
	BaseURL string
	WebURL  string
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

func (c *Configs) Provider() ProviderConfig {
	v := c.rootConfigs.viper
	cfg := ProviderConfig{
		Kind:    strings.ToLower(v.GetString("provider.kind")),
		BaseURL: v.GetString("provider.base_url"),
		WebURL:  v.GetString("provider.web_url"),
	}
	switch cfg.Kind {
	case ProviderGitHub:
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://api.github.com/"
		}
		if cfg.WebURL == "" {
			cfg.WebURL = "https://github.com"
		}
	default:
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://gitea.com"
		}
		if cfg.WebURL == "" {
			cfg.WebURL = cfg.BaseURL
		}
	}
	cfg.WebURL = strings.TrimRight(cfg.WebURL, "/")
	return cfg
}

func (c *Configs) OAuth() OAuthConfig {
	v := c.rootConfigs.viper
	scopes := splitScopes(v.GetStringSlice("oauth.scopes"))
	if len(scopes) == 0 {
		if c.Provider().Kind == ProviderGitHub {
			scopes = []string{"repo", "read:user"}
		} else {
			scopes = []string{"read:repository", "read:user"}
		}
	}
	return OAuthConfig{
		ClientID:     v.GetString("oauth.client_id"),
		ClientSecret: v.GetString("oauth.client_secret"),
		RedirectURL:  v.GetString("oauth.redirect_url"),
		Scopes:       scopes,
	}
}

// splitScopes accepts both list values and a single comma separated string,
// as environment variables arrive.
func splitScopes(raw []string) []string {
	var scopes []string
	for _, item := range raw {
		for _, scope := range strings.Split(item, ",") {
			if scope = strings.TrimSpace(scope); scope != "" {
				scopes = append(scopes, scope)
			}
		}
	}
	return scopes
}

func (c *Configs) HTTPTimeout() time.Duration {
	return c.rootConfigs.viper.GetDuration("http.timeout")
}

func (c *Configs) HTTPRetries() int {
	return c.rootConfigs.viper.GetInt("http.retries")
}

func (c *Configs) AuthTimeout() time.Duration {
	return c.rootConfigs.viper.GetDuration("auth.timeout")
}

func (c *Configs) HiddenPatterns() []string {
	return c.rootConfigs.viper.GetStringSlice("browse.hide")
}

func (c *Configs) Log() LogConfig {
	v := c.rootConfigs.viper
	return LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
		Output: v.GetString("log.output"),
	}
}

func (c *Configs) ServerAddr() string {
	return c.rootConfigs.viper.GetString("server.addr")
}

// Validate reports settings that make login impossible.
func (c *Configs) Validate() error {
	switch c.Provider().Kind {
	case ProviderGitea, ProviderGitHub:
	default:
		return errors.Wrapf(rlerrors.ConfigMissing, "unknown provider.kind %q", c.Provider().Kind)
	}
	if c.OAuth().ClientID == "" {
		return errors.Wrap(rlerrors.ConfigMissing, "oauth.client_id is not set (REPOLENS_OAUTH_CLIENT_ID)")
	}
	if c.OAuth().RedirectURL == "" {
		return errors.Wrap(rlerrors.ConfigMissing, "oauth.redirect_url is not set")
	}
	return nil
}
