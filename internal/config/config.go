package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Port          string  `mapstructure:"PORT"`
	DBUrl         string  `mapstructure:"DB_URL"`
	RedisUrl      string  `mapstructure:"REDIS_URL"`
	DirectionsUrl string  `mapstructure:"DIRECTIONS_URL"`
	OriginLng     float64 `mapstructure:"ORIGIN_LNG"`
	OriginLat     float64 `mapstructure:"ORIGIN_LAT"`
	MetersPerUnit float64 `mapstructure:"METERS_PER_UNIT"`
}

func LoadConfig() (c Config, err error) {
	// Get environment type from ENV variable or use development as default
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Set default values
	viper.SetDefault("PORT", ":8080")
	viper.SetDefault("DIRECTIONS_URL", "https://router.project-osrm.org")
	viper.SetDefault("ORIGIN_LNG", 127.0)
	viper.SetDefault("ORIGIN_LAT", 37.5)
	viper.SetDefault("METERS_PER_UNIT", 1.0)

	// Load environment file
	viper.SetConfigName(fmt.Sprintf(".env.%s", env))
	viper.SetConfigType("env")
	viper.AddConfigPath(".") // Look in the project root directory

	// Environment variables take precedence over config file
	viper.AutomaticEnv()

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		// Continue even if file is not found
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	// Map the values to the Config struct
	err = viper.Unmarshal(&c)
	return
}
