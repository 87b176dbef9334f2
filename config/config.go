package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`
	Redis struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	// Auth is the single source of truth for every token lifetime in the
	// system. The server and the client-side session coordinator both read
	// their durations from here; nothing else hardcodes a TTL.
	Auth struct {
		SecretKey       string        `mapstructure:"secret_key"`
		AccessTTL       time.Duration `mapstructure:"access_ttl"`
		RefreshTTL      time.Duration `mapstructure:"refresh_ttl"`
		AccessLeadTime  time.Duration `mapstructure:"access_lead_time"`
		RefreshLeadTime time.Duration `mapstructure:"refresh_lead_time"`
		// RevocationStore selects the revocation cache backend:
		// "memory" for single-instance deployments, "redis" for shared ones.
		RevocationStore string `mapstructure:"revocation_store"`
	} `mapstructure:"auth"`
}

var AppConfig Config

func LoadConfig(path string) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	viper.SetDefault("auth.access_ttl", 15*time.Minute)
	viper.SetDefault("auth.refresh_ttl", 7*24*time.Hour)
	viper.SetDefault("auth.access_lead_time", 5*time.Minute)
	viper.SetDefault("auth.refresh_lead_time", time.Hour)
	viper.SetDefault("auth.revocation_store", "memory")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
}
