package spotd

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/mikey-austin/spotctl/pkg/np"
)

// Config is the top-level configuration for spotd.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Engine  EngineConfig  `toml:"engine"`
	Modules ModulesConfig `toml:"modules"`
}

// ServerConfig defines the datagram server and logging settings.
type ServerConfig struct {
	Listen        string `toml:"listen"`
	RecvTimeoutMS int64  `toml:"recv_timeout_ms"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogOutput     string `toml:"log_output"`
	LogSource     bool   `toml:"log_source"`
	LogUTC        bool   `toml:"log_utc"`
}

// EngineConfig selects the playback engine.
type EngineConfig struct {
	VLC VLCConfig `toml:"vlc"`
}

// VLCConfig configures the VLC HTTP RC engine.
type VLCConfig struct {
	Enabled        bool   `toml:"enabled"`
	BaseURL        string `toml:"base_url"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	PollIntervalMS int64  `toml:"poll_interval_ms"`
	TimeoutMS      int64  `toml:"timeout_ms"`
}

// ModulesConfig holds optional module configurations.
type ModulesConfig struct {
	EmbeddedMQTT EmbeddedMQTTConfig `toml:"embedded_mqtt"`
	MQTTBridge   MQTTBridgeConfig   `toml:"mqtt_bridge"`
}

// EmbeddedMQTTConfig configures the embedded MQTT broker.
type EmbeddedMQTTConfig struct {
	Enabled        bool   `toml:"enabled"`
	Listen         string `toml:"listen"`
	AllowAnonymous bool   `toml:"allow_anonymous"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	TLSCA          string `toml:"tls_ca"`
	TLSCert        string `toml:"tls_cert"`
	TLSKey         string `toml:"tls_key"`
}

// MQTTBridgeConfig configures the now-playing MQTT bridge.
type MQTTBridgeConfig struct {
	Enabled   bool   `toml:"enabled"`
	Broker    string `toml:"broker"`
	NodeID    string `toml:"node_id"`
	TopicBase string `toml:"topic_base"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	TLSCA     string `toml:"tls_ca"`
	TLSCert   string `toml:"tls_cert"`
	TLSKey    string `toml:"tls_key"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Listen:        np.DefaultListen,
			RecvTimeoutMS: 100,
			LogLevel:      "info",
			LogFormat:     "text",
			LogOutput:     "stdout",
		},
	}
}

// LoadConfig loads a config file from path on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return Config{}, err
	}
	if info.IsDir() {
		return Config{}, errors.New("config path is a directory")
	}

	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDefaultConfig loads the default config file, falling back to
// DefaultConfig when it does not exist.
func LoadDefaultConfig() (Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return Config{}, err
	}
	cfg, err := LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// DefaultConfigPath returns the default config location.
func DefaultConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "spotctl", "spotd.toml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "spotctl", "spotd.toml"), nil
}
