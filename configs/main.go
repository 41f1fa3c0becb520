package configs

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	viper      *viper.Viper
	configPath string
}

type Configs struct {
	rootConfigs     *Config
	credentialsPath string
	Dir             string
}

// Home returns the directory holding config.json and credentials.json.
func Home() string {
	if dir, ok := os.LookupEnv("REPOLENS_HOME"); ok && dir != "" {
		return dir
	}
	return path.Join(os.Getenv("HOME"), ".repolens")
}

func IsDevMode() bool {
	environment, exists := os.LookupEnv("REPOLENS_ENV")
	return exists && environment == "develop"
}

func (c *Configs) CreatePathIfNotExist(path string) error {
	dir := filepath.Dir(path)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		err = os.MkdirAll(dir, 0o700)
		if err != nil {
			return err
		}
	}

	return nil
}

// Set persists a single setting to config.json.
func (c *Configs) Set(key string, value interface{}) error {
	c.rootConfigs.viper.Set(key, value)

	err := c.CreatePathIfNotExist(c.rootConfigs.configPath)
	if err != nil {
		return err
	}
	return c.rootConfigs.viper.WriteConfig()
}

func (c *Configs) Get(key string) interface{} {
	return c.rootConfigs.viper.Get(key)
}

// Settings lists every known setting with its effective value.
func (c *Configs) Settings() map[string]string {
	out := map[string]string{}
	for _, k := range c.rootConfigs.viper.AllKeys() {
		if k == "oauth.client_secret" {
			out[k] = "********"
			continue
		}
		out[k] = c.rootConfigs.viper.GetString(k)
	}
	return out
}

func New() *Configs {
	// A .env next to the invocation may carry OAuth client secrets.
	_ = godotenv.Load()
	return NewAt(Home())
}

// NewAt loads configs rooted at dir. A missing config.json is fine; every
// setting has a default or comes from the environment.
func NewAt(dir string) *Configs {
	rootViper := viper.New()
	rootPath := path.Join(dir, "config.json")
	rootViper.SetConfigFile(rootPath)
	rootViper.SetEnvPrefix("REPOLENS")
	rootViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	rootViper.AutomaticEnv()
	setDefaults(rootViper)
	rootViper.ReadInConfig()

	return &Configs{
		rootConfigs: &Config{
			viper:      rootViper,
			configPath: rootPath,
		},
		credentialsPath: path.Join(dir, "credentials.json"),
		Dir:             dir,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.kind", ProviderGitea)
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.web_url", "")
	v.SetDefault("oauth.client_id", "")
	v.SetDefault("oauth.client_secret", "")
	v.SetDefault("oauth.redirect_url", DefaultRedirectURL)
	v.SetDefault("oauth.scopes", []string{})
	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.retries", 2)
	v.SetDefault("auth.timeout", 5*time.Minute)
	v.SetDefault("browse.hide", []string{})
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("server.addr", ":8735")
}
