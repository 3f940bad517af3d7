package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// EnvConfigPath names the JSON config file to load.
	EnvConfigPath = "AICTO_CONFIG"
	// EnvAdminAPIKey authorizes the waitlist admin endpoints.
	EnvAdminAPIKey = "ADMIN_API_KEY"
	// EnvGeminiAPIKey authorizes calls to the generative-language API.
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvClaudeAPIKey = "ANTHROPIC_API_KEY"

	defaultConfigFile = "config.json"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Storage     StorageConfig             `json:"storage"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
	ObjectStore ObjectStoreConfig         `json:"object_store"`
	Relay       RelayConfig               `json:"relay"`
	Providers   map[string]ProviderConfig `json:"providers"`
	Logging     LoggingConfig             `json:"logging"`

	// AdminAPIKey is only ever taken from the environment.
	AdminAPIKey string `json:"-"`
}

type BasicConfig struct {
	ServerAddress string `json:"server_address"`
	DataDir       string `json:"data_dir"`
}

// StorageConfig selects the blob backend used by the waitlist and chat stores.
type StorageConfig struct {
	Backend   string `json:"backend"`
	Database  string `json:"database"`
	KeyPrefix string `json:"key_prefix"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type ObjectStoreConfig struct {
	Endpoint  string `json:"endpoint"`
	Bucket    string `json:"bucket"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Region    string `json:"region"`
	Prefix    string `json:"prefix"`
	UseSSL    bool   `json:"use_ssl"`
	PathStyle bool   `json:"path_style"`
}

// RelayConfig picks the provider the chat relay forwards to.
type RelayConfig struct {
	Provider        string   `json:"provider"`
	Temperature     *float32 `json:"temperature"`
	TopK            *float32 `json:"top_k"`
	TopP            *float32 `json:"top_p"`
	MaxOutputTokens *int32   `json:"max_output_tokens"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

type LoggingConfig struct {
	Level  string `json:"level"`
	ToFile bool   `json:"to_file"`
	Dir    string `json:"dir"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		BasicConfig: BasicConfig{
			ServerAddress: ":8090",
			DataDir:       "data",
		},
		Storage: StorageConfig{Backend: "file"},
		Relay:   RelayConfig{Provider: "gemini"},
		Providers: map[string]ProviderConfig{
			"gemini": {Model: "gemini-2.0-flash"},
			"openai": {Model: "gpt-4o-mini"},
			"claude": {Model: "claude-3-5-haiku-latest"},
		},
		Logging: LoggingConfig{Level: "info", Dir: "logs"},
	}
}

// Load reads configuration from the provided path (defaults to config.json).
// A missing default file is not an error; an explicitly named one is.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	cfg := Default()
	file, err := os.Open(absPath)
	switch {
	case err == nil:
		defer file.Close()
		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
		cfg.resolvePaths(filepath.Dir(absPath))
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// APIKey returns the secret configured for a provider.
func (c *Config) APIKey(provider string) string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.Providers[provider].APIKey)
}

// Provider returns the provider entry used by the relay.
func (c *Config) Provider() (string, ProviderConfig) {
	name := strings.ToLower(strings.TrimSpace(c.Relay.Provider))
	if name == "" {
		name = "gemini"
	}
	return name, c.Providers[name]
}

func (c *Config) resolvePaths(base string) {
	if dir := c.BasicConfig.DataDir; dir != "" && !filepath.IsAbs(dir) {
		c.BasicConfig.DataDir = filepath.Join(base, dir)
	}
	for name, db := range c.Databases {
		if isSQLite(name) && db.DSN != "" && db.DSN != ":memory:" && !strings.HasPrefix(db.DSN, "file:") && !filepath.IsAbs(db.DSN) {
			db.DSN = filepath.Join(base, db.DSN)
			c.Databases[name] = db
		}
	}
}

func (c *Config) applyEnv() {
	c.AdminAPIKey = strings.TrimSpace(os.Getenv(EnvAdminAPIKey))
	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
	for provider, env := range map[string]string{
		"gemini": EnvGeminiAPIKey,
		"openai": EnvOpenAIAPIKey,
		"claude": EnvClaudeAPIKey,
	} {
		if key := strings.TrimSpace(os.Getenv(env)); key != "" {
			p := c.Providers[provider]
			p.APIKey = key
			c.Providers[provider] = p
		}
	}
}

func (c *Config) validate() error {
	if c.BasicConfig.DataDir == "" {
		return errors.New("data_dir must be configured")
	}
	switch strings.ToLower(c.Storage.Backend) {
	case "", "file", "redis", "object":
	case "sql":
		if _, ok := c.Databases[c.Storage.Database]; !ok {
			return fmt.Errorf("database config for %q not found", c.Storage.Database)
		}
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}
	return nil
}

func isSQLite(name string) bool {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return true
	}
	return false
}
