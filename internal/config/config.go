package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "cwstats.cfg.json"

// Bootstrap is read from CWSTATS_* environment variables before the config file.
type Bootstrap struct {
	ConfigDir string `envconfig:"CONFIGDIR" default:"."`
	LogLevel  string `envconfig:"LOGLEVEL"`
}

// LoadBootstrap reads the bootstrap environment.
func LoadBootstrap() (Bootstrap, error) {
	var b Bootstrap
	if err := envconfig.Process("cwstats", &b); err != nil {
		return b, fmt.Errorf("error reading environment: %w", err)
	}
	return b, nil
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// WebSocketConfig holds streaming storage backend settings
type WebSocketConfig struct {
	URL        string        `json:"url" mapstructure:"url"`
	Secret     string        `json:"secret" mapstructure:"secret"`
	AckTimeout time.Duration `json:"ackTimeout" mapstructure:"ackTimeout"`
}

// StorageConfig selects and configures the round storage backend
type StorageConfig struct {
	Type      string          `json:"type" mapstructure:"type"`
	Memory    MemoryConfig    `json:"memory" mapstructure:"memory"`
	SQLite    SQLiteConfig    `json:"sqlite" mapstructure:"sqlite"`
	WebSocket WebSocketConfig `json:"websocket" mapstructure:"websocket"`
}

// DBConfig holds postgres connection settings
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// InfluxConfig holds the InfluxDB connection settings
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// URL is the server base URL.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// APIConfig configures round uploads
type APIConfig struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	ServerURL string `json:"serverUrl" mapstructure:"serverUrl"`
	APIKey    string `json:"apiKey" mapstructure:"apiKey"`
}

// InputConfig selects where host commands are read from
type InputConfig struct {
	Source       string        `json:"source" mapstructure:"source"`
	Path         string        `json:"path" mapstructure:"path"`
	PollInterval time.Duration `json:"pollInterval" mapstructure:"pollInterval"`
	QueueSize    int           `json:"queueSize" mapstructure:"queueSize"`
	ErrorReplies bool          `json:"errorReplies" mapstructure:"errorReplies"`
}

// Validate checks the input settings before any command is read. Game commands
// always run on the ordered lane, so it needs room for at least one command.
func (c InputConfig) Validate() error {
	switch c.Source {
	case "stdin", "", "websocket":
	case "file":
		if c.Path == "" {
			return errors.New("input.path is required for file input")
		}
	default:
		return fmt.Errorf("unknown input source %q", c.Source)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("input.queueSize must be positive, got %d", c.QueueSize)
	}
	return nil
}

// StatusConfig configures the HTTP status server
type StatusConfig struct {
	Enabled  bool          `json:"enabled" mapstructure:"enabled"`
	Address  string        `json:"address" mapstructure:"address"`
	CacheTTL time.Duration `json:"cacheTTL" mapstructure:"cacheTTL"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./cwlogs")

	viper.SetDefault("input.source", "stdin")
	viper.SetDefault("input.path", "")
	viper.SetDefault("input.pollInterval", "100ms")
	viper.SetDefault("input.queueSize", 4096)
	viper.SetDefault("input.errorReplies", false)

	viper.SetDefault("api.serverUrl", "http://localhost:5000/api")
	viper.SetDefault("api.apiKey", "")
	viper.SetDefault("api.enabled", false)

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "cwstats")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "cwstats")
	viper.SetDefault("influx.bucket", "rounds")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./rounds")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "./cwstats.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.websocket.url", "")
	viper.SetDefault("storage.websocket.secret", "")
	viper.SetDefault("storage.websocket.ackTimeout", "5s")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "cwstats")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("status.enabled", true)
	viper.SetDefault("status.address", "127.0.0.1:8089")
	viper.SetDefault("status.cacheTTL", "24h")

	viper.SetDefault("summary.highlight", "ff0000")
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// GetStorageConfig returns the storage backend configuration.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		WebSocket: WebSocketConfig{
			URL:        viper.GetString("storage.websocket.url"),
			Secret:     viper.GetString("storage.websocket.secret"),
			AckTimeout: viper.GetDuration("storage.websocket.ackTimeout"),
		},
	}
}

// GetDBConfig returns the postgres connection settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// GetOTelConfig returns the OpenTelemetry configuration.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetInputConfig returns where host commands are read from.
func GetInputConfig() InputConfig {
	return InputConfig{
		Source:       viper.GetString("input.source"),
		Path:         viper.GetString("input.path"),
		PollInterval: viper.GetDuration("input.pollInterval"),
		QueueSize:    viper.GetInt("input.queueSize"),
		ErrorReplies: viper.GetBool("input.errorReplies"),
	}
}

// GetStatusConfig returns the status server configuration.
func GetStatusConfig() StatusConfig {
	return StatusConfig{
		Enabled:  viper.GetBool("status.enabled"),
		Address:  viper.GetString("status.address"),
		CacheTTL: viper.GetDuration("status.cacheTTL"),
	}
}

// GetInfluxConfig returns the InfluxDB configuration.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Protocol: viper.GetString("influx.protocol"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetAPIConfig returns the upload API configuration.
func GetAPIConfig() APIConfig {
	return APIConfig{
		Enabled:   viper.GetBool("api.enabled"),
		ServerURL: viper.GetString("api.serverUrl"),
		APIKey:    viper.GetString("api.apiKey"),
	}
}
