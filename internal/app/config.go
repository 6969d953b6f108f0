package app

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr       string
	MongoURI       string
	MongoDatabase  string
	LogLevel       string
	LogFormat      string
	FFProbePath    string
	PlayerBackend  string // "channel" or "module"
	NativeSocket   string // IPC socket path for the channel backend
	Autoplay       bool
	AllowedOrigins []string
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getEnv("MONGO_DB", "playbackengine"),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", "text")),
		FFProbePath:    getEnv("FFPROBE_PATH", "ffprobe"),
		PlayerBackend:  strings.ToLower(getEnv("PLAYER_BACKEND", "channel")),
		NativeSocket:   getEnv("NATIVE_IPC_SOCKET", ""),
		Autoplay:       getEnvBool("AUTOPLAY", false),
		AllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	return out
}
