package config

import (
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	MongoDB     MongoDBConfig
	Commerce    CommerceConfig
	ServiceAuth ServiceAuthConfig
	LogLevel    string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// CommerceConfig holds commerce platform API configuration
type CommerceConfig struct {
	BaseURL  string
	APIToken string
	MockAPI  bool
}

// ServiceAuthConfig holds the trigger-channel service token configuration
type ServiceAuthConfig struct {
	Secret    string
	Issuer    string
	ExpiresIn int // seconds
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	// It's okay if the config file is not found, we'll use environment variables
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Server.Port", "4000")
	viper.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "stride-accountability")
	viper.SetDefault("Commerce.MockAPI", true)
	viper.SetDefault("ServiceAuth.Issuer", "stride-backend")
	viper.SetDefault("ServiceAuth.ExpiresIn", 60*60) // 1 hour
	viper.SetDefault("LogLevel", "info")
}
