package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadFromEnv loads .env (if present) into the process environment, then
// reads the configuration. Variables already set are not overridden.
func LoadFromEnv() (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	return Load(FromEnviron())
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}
