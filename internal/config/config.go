package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// MustLoad reads configuration from CONFIG_PATH (YAML) plus environment
// variables and panics on failure. A .env file is loaded first when present
// so local runs don't need exported variables.
func MustLoad() *Config {
	_ = godotenv.Load()

	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			panic(fmt.Sprintf("cannot read config from env: %s", err))
		}
		return &cfg
	}

	if _, err := os.Stat(configPath); err != nil {
		panic(fmt.Sprintf("config file does not exist: %s", configPath))
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic(fmt.Sprintf("cannot read config %s: %s", configPath, err))
	}

	return &cfg
}
