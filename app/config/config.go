package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"SmilePos/app/security"
)

// AppConfig holds all application configuration
type AppConfig struct {
	// Database Configuration
	Database DatabaseConfig `json:"database"`

	// Server Configuration
	Server ServerConfig `json:"server"`

	// Twilio SMS Configuration
	Twilio TwilioConfig `json:"twilio"`

	// Business Information
	Business BusinessConfig `json:"business"`

	// System Configuration
	System SystemConfig `json:"system"`

	// First run flag
	FirstRun bool `json:"first_run"`
}

// DatabaseConfig holds the hosted database connection settings
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSLMode  string `json:"ssl_mode"`
}

// ServerConfig holds the local server settings
type ServerConfig struct {
	Port int `json:"port"`
	// AnnounceMDNS controls zeroconf discovery for tablets on the LAN
	AnnounceMDNS bool `json:"announce_mdns"`
}

// TwilioConfig holds SMS credentials for reservation confirmations
type TwilioConfig struct {
	AccountSID string `json:"account_sid"`
	AuthToken  string `json:"auth_token"`
	FromNumber string `json:"from_number"`
	Enabled    bool   `json:"enabled"`
}

// BusinessConfig holds restaurant information for receipts and messages
type BusinessConfig struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

// SystemConfig holds system settings
type SystemConfig struct {
	DataPath string `json:"data_path"`
	Language string `json:"language"`
	// DeriveTickSeconds is the interval of the periodic table re-derivation
	DeriveTickSeconds int `json:"derive_tick_seconds"`
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}

	// Create .smilepos directory if it doesn't exist
	configDir := filepath.Join(homeDir, ".smilepos")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("could not create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.json"), nil
}

// LoadConfig loads configuration from config.json and decrypts sensitive fields
func LoadConfig() (*AppConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found")
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	var cfg AppConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("could not parse config file: %w", err)
	}

	// Environment variables override the file for containerized deployments
	cfg.applyEnvOverrides()

	if err := cfg.decryptSensitiveFields(); err != nil {
		return nil, fmt.Errorf("could not decrypt sensitive fields: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves configuration to config.json after encrypting sensitive fields
func SaveConfig(cfg *AppConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Create a copy to avoid modifying the original
	cfgCopy := *cfg

	if err := cfgCopy.encryptSensitiveFields(); err != nil {
		return fmt.Errorf("could not encrypt sensitive fields: %w", err)
	}

	data, err := json.MarshalIndent(&cfgCopy, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("could not write config file: %w", err)
	}

	return nil
}

// ConfigExists checks if config file exists
func ConfigExists() (bool, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return false, err
	}

	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// LoadOrCreate returns the saved config, creating the default one on first run
func LoadOrCreate() (*AppConfig, error) {
	exists, err := ConfigExists()
	if err != nil {
		return nil, err
	}
	if !exists {
		return CreateDefaultConfig()
	}
	return LoadConfig()
}

// CreateDefaultConfig creates a default configuration file
func CreateDefaultConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "smilepos",
			Username: "postgres",
			Password: "",
			SSLMode:  "disable",
		},
		Server: ServerConfig{
			Port:         8080,
			AnnounceMDNS: true,
		},
		Twilio: TwilioConfig{
			Enabled: false,
		},
		Business: BusinessConfig{
			Name: "Smile Burger",
		},
		System: SystemConfig{
			Language:          "es",
			DeriveTickSeconds: 30,
		},
		FirstRun: true,
	}

	cfg.applyEnvOverrides()

	if err := SaveConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MarkSetupComplete marks the first run as complete
func MarkSetupComplete() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	cfg.FirstRun = false
	return SaveConfig(cfg)
}

// applyEnvOverrides lets deployment environment variables win over the file
func (cfg *AppConfig) applyEnvOverrides() {
	if v := os.Getenv("SMILEPOS_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("SMILEPOS_DB_NAME"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("SMILEPOS_DB_USER"); v != "" {
		cfg.Database.Username = v
	}
	if v := os.Getenv("SMILEPOS_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("TWILIO_ACCOUNT_SID"); v != "" {
		cfg.Twilio.AccountSID = v
	}
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" {
		cfg.Twilio.AuthToken = v
	}
	if v := os.Getenv("TWILIO_FROM_NUMBER"); v != "" {
		cfg.Twilio.FromNumber = v
	}
}

// encryptSensitiveFields encrypts sensitive configuration fields
func (cfg *AppConfig) encryptSensitiveFields() error {
	var err error

	if cfg.Database.Password != "" {
		cfg.Database.Password, err = security.Encrypt(cfg.Database.Password)
		if err != nil {
			return fmt.Errorf("could not encrypt database password: %w", err)
		}
	}

	if cfg.Twilio.AuthToken != "" {
		cfg.Twilio.AuthToken, err = security.Encrypt(cfg.Twilio.AuthToken)
		if err != nil {
			return fmt.Errorf("could not encrypt Twilio auth token: %w", err)
		}
	}

	return nil
}

// decryptSensitiveFields decrypts sensitive configuration fields
// If a field is not encrypted (plain text), it leaves it as-is (useful for development)
func (cfg *AppConfig) decryptSensitiveFields() error {
	if cfg.Database.Password != "" {
		decrypted, err := security.Decrypt(cfg.Database.Password)
		if err != nil {
			// If decryption fails, assume it's plain text (for development)
			decrypted = cfg.Database.Password
		}
		cfg.Database.Password = decrypted
	}

	if cfg.Twilio.AuthToken != "" {
		decrypted, err := security.Decrypt(cfg.Twilio.AuthToken)
		if err != nil {
			decrypted = cfg.Twilio.AuthToken
		}
		cfg.Twilio.AuthToken = decrypted
	}

	return nil
}
