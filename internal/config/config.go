package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

const defaultPointImage = "https://images.unsplash.com/photo-1556767576-5ec41e3239ea?auto=format&fit=crop&w=400&q=60"

type Config struct {
	ListenAddr   string
	DBPath       string
	UploadPath   string
	PublicURL    string
	CORSOrigin   string
	DefaultImage string
	LogLevel     string
	LogFormat    string
	LogFile      string
}

// Load reads configuration from the environment. Values from a .env file in
// the working directory fill in variables that are not already set.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	return &Config{
		ListenAddr:   getEnv("LISTEN_ADDR", ":3333"),
		DBPath:       getEnv("DB_PATH", "/data/ecol.db"),
		UploadPath:   getEnv("UPLOAD_PATH", "/data/uploads"),
		PublicURL:    getEnv("PUBLIC_URL", "http://localhost:3333"),
		CORSOrigin:   getEnv("CORS_ORIGIN", "*"),
		DefaultImage: getEnv("DEFAULT_IMAGE", defaultPointImage),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "json"),
		LogFile:      getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}
