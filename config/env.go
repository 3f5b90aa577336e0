package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type EnvConfig struct {
	Environment        string `envconfig:"ENVIRONMENT"`
	Port               string `envconfig:"PORT"`
	AppURL             string `envconfig:"APP_URL"`
	Domain             string `envconfig:"DOMAIN"`
	DBURL              string `envconfig:"DB_URL"`
	SessionSecret      string `envconfig:"SESSION_SECRET"`
	FitbitOAuthEnvConfig
}

type FitbitOAuthEnvConfig struct {
	FitbitClientID     string `envconfig:"FITBIT_CLIENT_ID"`
	FitbitClientSecret string `envconfig:"FITBIT_CLIENT_SECRET"`
}

func loadEnv() (*EnvConfig, error) {
	var cfg EnvConfig

	err := godotenv.Load()
	if err != nil {
		return nil, err
	}

	err = envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoadEnv() *EnvConfig {
	cfg, err := loadEnv()
	if err != nil {
		panic(err)
	}

	return cfg
}
