package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type ApprovalsConfig struct {
	// Path to the JSON file holding the pending-action queue.
	// Empty disables persistence (in-memory only).
	Path string `mapstructure:"path"`
}

type AuditConfig struct {
	LogPath string `mapstructure:"log_path"`
	DBPath  string `mapstructure:"db_path"`
}

// ToolServerConfig describes one backend tool server reachable over stdio.
type ToolServerConfig struct {
	Name       string            `mapstructure:"name"`
	Command    string            `mapstructure:"command"`
	Args       []string          `mapstructure:"args"`
	Env        map[string]string `mapstructure:"env"`
	MaxRetries int               `mapstructure:"max_retries"`
	Timeout    time.Duration     `mapstructure:"timeout"`
	Enabled    bool              `mapstructure:"enabled"`
}

type ServerConfig struct {
	HTTP        HTTPConfig         `mapstructure:"http"`
	LogLevel    string             `mapstructure:"log_level"`
	LogFormat   string             `mapstructure:"log_format"`
	Approvals   ApprovalsConfig    `mapstructure:"approvals"`
	Audit       AuditConfig        `mapstructure:"audit"`
	PoolSize    int                `mapstructure:"pool_size"`
	ToolServers []ToolServerConfig `mapstructure:"tool_servers"`
}

func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		HTTP: HTTPConfig{
			Host: "127.0.0.1",
			Port: 8045,
		},
		LogLevel:  "info",
		LogFormat: "json",
		Approvals: ApprovalsConfig{
			Path: "data/pending_actions.json",
		},
		Audit: AuditConfig{
			LogPath: "data/audit.jsonl",
		},
		PoolSize: 10,
		ToolServers: []ToolServerConfig{
			{
				Name:       "neo4j",
				Command:    "python",
				Args:       []string{"-m", "api.mcp_servers.neo4j"},
				Env:        map[string]string{"NEO4J_URI": "bolt://localhost:7687"},
				MaxRetries: 3,
				Timeout:    30 * time.Second,
				Enabled:    true,
			},
			{
				Name:       "basex",
				Command:    "python",
				Args:       []string{"-m", "api.mcp_servers.basex"},
				Env:        map[string]string{"BASEX_HOST": "localhost", "BASEX_PORT": "8984"},
				MaxRetries: 3,
				Timeout:    30 * time.Second,
				Enabled:    true,
			},
			{
				Name:       "bsdd",
				Command:    "python",
				Args:       []string{"-m", "api.mcp_servers.bsdd"},
				MaxRetries: 3,
				Timeout:    30 * time.Second,
				Enabled:    true,
			},
			{
				Name:       "opensearch",
				Command:    "python",
				Args:       []string{"-m", "api.mcp_servers.opensearch"},
				Env:        map[string]string{"OPENSEARCH_URL": "http://localhost:9200"},
				MaxRetries: 3,
				Timeout:    30 * time.Second,
				Enabled:    true,
			},
		},
	}
}

func LoadConfig() (*ServerConfig, error) {
	config := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/actiongate/")
	viper.AddConfigPath("$HOME/.actiongate/")

	viper.SetEnvPrefix("ACTIONGATE")
	viper.AutomaticEnv()

	viper.SetDefault("http.host", config.HTTP.Host)
	viper.SetDefault("http.port", config.HTTP.Port)
	viper.SetDefault("log_level", config.LogLevel)
	viper.SetDefault("log_format", config.LogFormat)
	viper.SetDefault("approvals.path", config.Approvals.Path)
	viper.SetDefault("audit.log_path", config.Audit.LogPath)
	viper.SetDefault("audit.db_path", config.Audit.DBPath)
	viper.SetDefault("pool_size", config.PoolSize)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func validateConfig(config *ServerConfig) error {
	if config.HTTP.Port <= 0 || config.HTTP.Port > 65535 {
		return fmt.Errorf("the HTTP port must be between 1 and 65535")
	}

	if config.PoolSize <= 0 {
		return fmt.Errorf("the pool size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return fmt.Errorf("invalid log level: %s", config.LogLevel)
	}

	validLogFormats := map[string]bool{
		"json": true, "text": true,
	}
	if !validLogFormats[config.LogFormat] {
		return fmt.Errorf("invalid log format: %s", config.LogFormat)
	}

	seen := make(map[string]bool)
	for _, server := range config.ToolServers {
		if server.Name == "" {
			return fmt.Errorf("tool server name cannot be empty")
		}
		if seen[server.Name] {
			return fmt.Errorf("duplicate tool server name: %s", server.Name)
		}
		seen[server.Name] = true
		if server.Command == "" {
			return fmt.Errorf("tool server %s: command cannot be empty", server.Name)
		}
		if server.Timeout <= 0 {
			return fmt.Errorf("tool server %s: timeout must be positive", server.Name)
		}
	}

	return nil
}
