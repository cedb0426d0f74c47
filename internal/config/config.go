package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Version is the release version of the binary
func Version() string {
	return version
}

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("social-connect version %s, commit %s, built at %s", version, commit, date)
}

const redactedValue = "****"

type Config struct {
	Server      ServerConfig    `mapstructure:"server" yaml:"server"`
	Logging     LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Database    DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Auth        AuthConfig      `mapstructure:"auth" yaml:"auth"`
	Instagram   InstagramConfig `mapstructure:"instagram" yaml:"instagram"`
	TempHost    TempHostConfig  `mapstructure:"temp_host" yaml:"temp_host"`
	Upload      UploadConfig    `mapstructure:"upload" yaml:"upload"`
	MCP         MCPConfig       `mapstructure:"mcp" yaml:"mcp"`
	LinkedIn    LinkedInConfig  `mapstructure:"linkedin" yaml:"linkedin"`
	Twitter     TwitterConfig   `mapstructure:"twitter" yaml:"twitter"`
	FrontendURL string          `mapstructure:"frontend_url" yaml:"frontend_url"`
}

type ServerMode string

const (
	ServerModeHTTP ServerMode = "http"
)

type ServerConfig struct {
	Port            int           `mapstructure:"port" yaml:"port"`
	Host            string        `mapstructure:"host" yaml:"host"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	Mode            ServerMode    `mapstructure:"mode" yaml:"mode"`
	Name            string        `mapstructure:"name" yaml:"name"`
	AllowOrigins    []string      `mapstructure:"allow_origins" yaml:"allow_origins"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level" yaml:"level"`
	Format            string `mapstructure:"format" yaml:"format"`
	Color             bool   `mapstructure:"color" yaml:"color"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace" yaml:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path" yaml:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file" yaml:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console" yaml:"disable_console"`
}

// DatabaseDriver selects the bun dialect used by the credential store
type DatabaseDriver string

const (
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
)

type DatabaseConfig struct {
	Driver DatabaseDriver `mapstructure:"driver" yaml:"driver"`
	DSN    string         `mapstructure:"dsn" yaml:"dsn"`
	Debug  bool           `mapstructure:"debug" yaml:"debug"`
}

// AuthConfig configures validation of the application's own bearer tokens
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer" yaml:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
}

type InstagramConfig struct {
	AppID         string        `mapstructure:"app_id" yaml:"app_id"`
	AppSecret     string        `mapstructure:"app_secret" yaml:"app_secret"`
	RedirectURI   string        `mapstructure:"redirect_uri" yaml:"redirect_uri"`
	GraphBaseURL  string        `mapstructure:"graph_base_url" yaml:"graph_base_url"`
	DialogBaseURL string        `mapstructure:"dialog_base_url" yaml:"dialog_base_url"`
	GraphVersion  string        `mapstructure:"graph_version" yaml:"graph_version"`
	Scopes        []string      `mapstructure:"scopes" yaml:"scopes"`
	HTTPTimeout   time.Duration `mapstructure:"http_timeout" yaml:"http_timeout"`
}

type TempHostConfig struct {
	UploadURL   string        `mapstructure:"upload_url" yaml:"upload_url"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout" yaml:"http_timeout"`
}

type UploadConfig struct {
	MaxMemory    int64 `mapstructure:"max_memory" yaml:"max_memory"`
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

type MCPConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
	Name    string `mapstructure:"name" yaml:"name"`
}

// LinkedInConfig is loaded for the LinkedIn integration served by another component
type LinkedInConfig struct {
	ClientID     string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri" yaml:"redirect_uri"`
}

// TwitterConfig is loaded for the Twitter/X integration served by another component
type TwitterConfig struct {
	APIKey      string `mapstructure:"api_key" yaml:"api_key"`
	APISecret   string `mapstructure:"api_secret" yaml:"api_secret"`
	CallbackURL string `mapstructure:"callback_url" yaml:"callback_url"`
}

// legacyEnv maps config keys to the environment names used by earlier deployments.
var legacyEnv = map[string]string{
	"instagram.app_id":       "INSTAGRAM_APP_ID",
	"instagram.app_secret":   "INSTAGRAM_APP_SECRET",
	"instagram.redirect_uri": "INSTAGRAM_REDIRECT_URI",
	"frontend_url":           "FRONTEND_URL",
	"linkedin.client_id":     "LINKEDIN_CLIENT_ID",
	"linkedin.client_secret": "LINKEDIN_CLIENT_SECRET",
	"linkedin.redirect_uri":  "REDIRECT_URI",
	"twitter.api_key":        "TWITTER_API_KEY",
	"twitter.api_secret":     "TWITTER_API_SECRET",
	"twitter.callback_url":   "TWITTER_CALLBACK_URL",
}

const envPrefix = "SOCIAL_CONNECT"

// InitFlags initializes command line flags (without parsing)
func InitFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to a config file")
	flags.String("host", "", "Address to listen on")
	flags.Int("port", 0, "Port to listen on")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.mode", string(ServerModeHTTP))
	v.SetDefault("server.name", "social-connect")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("database.driver", string(DatabaseDriverSQLite))
	v.SetDefault("database.dsn", "file:social-connect.db?cache=shared&_foreign_keys=on")

	v.SetDefault("auth.issuer", "social-connect")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("instagram.redirect_uri", "http://localhost:8000/instagram/callback")
	v.SetDefault("instagram.graph_base_url", "https://graph.facebook.com")
	v.SetDefault("instagram.dialog_base_url", "https://www.facebook.com")
	v.SetDefault("instagram.graph_version", "v21.0")
	v.SetDefault("instagram.scopes", []string{
		"instagram_basic",
		"instagram_content_publish",
		"pages_show_list",
		"pages_read_engagement",
	})
	v.SetDefault("instagram.http_timeout", 30*time.Second)

	v.SetDefault("temp_host.upload_url", "https://tmpfiles.org/api/v1/upload")
	v.SetDefault("temp_host.http_timeout", 60*time.Second)

	v.SetDefault("upload.max_memory", int64(32<<20))
	v.SetDefault("upload.max_body_bytes", int64(16<<20))

	v.SetDefault("mcp.path", "/mcp")
	v.SetDefault("mcp.name", "social-connect")

	v.SetDefault("linkedin.redirect_uri", "http://localhost:8000/linkedin/callback")
	v.SetDefault("twitter.callback_url", "http://localhost:8000/twitter/callback")

	v.SetDefault("frontend_url", "http://localhost:5173")
}

// Load reads configuration from defaults, config files, environment and flags, in
// increasing order of precedence.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// AutomaticEnv alone misses keys viper has no default for
	for _, key := range keys(reflect.TypeOf(Config{}), "") {
		names := []string{key, envName(key)}
		if legacy, ok := legacyEnv[key]; ok {
			names = append(names, legacy)
		}
		if err := v.BindEnv(names...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if flags != nil {
		bindings := map[string]string{
			"server.host":   "host",
			"server.port":   "port",
			"logging.level": "log-level",
		}
		for key, name := range bindings {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	configFile := ""
	if flags != nil {
		configFile, _ = flags.GetString("config")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/social-connect")
	}

	if err := v.ReadInConfig(); err != nil {
		// Running purely from the environment is fine
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	//Loading additionals config files
	if _, err := os.Stat("/config/config.yaml"); err == nil {
		v.SetConfigFile("/config/config.yaml")
		if err := v.MergeInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// keys lists the dotted mapstructure key of every leaf field in t
func keys(t reflect.Type, prefix string) []string {
	var out []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" {
			continue
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		if f.Type.Kind() == reflect.Struct {
			out = append(out, keys(f.Type, name)...)
			continue
		}
		out = append(out, name)
	}
	return out
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Validate checks the settings the service cannot start without
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required, please adjust the config or set %s", envName("auth.jwt_secret"))
	}
	switch c.Database.Driver {
	case DatabaseDriverSQLite, DatabaseDriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	if c.Server.Mode != ServerModeHTTP {
		return fmt.Errorf("unsupported server mode: %q", c.Server.Mode)
	}
	if c.MCP.Enabled && !strings.HasPrefix(c.MCP.Path, "/") {
		return fmt.Errorf("mcp.path must start with /, got %q", c.MCP.Path)
	}
	return nil
}

// GraphURL joins the versioned Graph API base with path.
func (c InstagramConfig) GraphURL(path string) string {
	return strings.TrimRight(c.GraphBaseURL, "/") + "/" + c.GraphVersion + "/" + strings.TrimLeft(path, "/")
}

// DialogURL is the versioned OAuth consent dialog endpoint.
func (c InstagramConfig) DialogURL() string {
	return strings.TrimRight(c.DialogBaseURL, "/") + "/" + c.GraphVersion + "/dialog/oauth"
}

// Redacted returns a copy of the config with secrets masked
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return redactedValue
	}
	c.Auth.JWTSecret = mask(c.Auth.JWTSecret)
	c.Instagram.AppSecret = mask(c.Instagram.AppSecret)
	c.LinkedIn.ClientSecret = mask(c.LinkedIn.ClientSecret)
	c.Twitter.APISecret = mask(c.Twitter.APISecret)
	if c.Database.Driver == DatabaseDriverPostgres {
		c.Database.DSN = mask(c.Database.DSN)
	}
	c.Instagram.Scopes = append([]string(nil), c.Instagram.Scopes...)
	c.Server.AllowOrigins = append([]string(nil), c.Server.AllowOrigins...)
	return c
}
