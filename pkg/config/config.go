package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds the proxy server configuration.
type Config struct {
	BackendURL     string
	Port           string
	OllamaURL      string
	ChatModel      string
	Temperature    float64
	TopP           float64
	RepeatPenalty  float64
	RetrievalTopK  int
	DatabaseURL    string
	CollectionName string
	VectorsPath    string
	AllowedOrigins []string
}

func Load() *Config {
	return &Config{
		BackendURL:     strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8000"), "/"),
		Port:           getEnv("PORT", "3000"),
		OllamaURL:      strings.TrimRight(getEnv("OLLAMA_URL", "http://localhost:11434"), "/"),
		ChatModel:      getEnv("CHAT_MODEL", "llama3.2:3b-instruct-q4_K_M"),
		Temperature:    getEnvAsFloat("CHAT_TEMPERATURE", 0.3),
		TopP:           getEnvAsFloat("CHAT_TOP_P", 0.9),
		RepeatPenalty:  getEnvAsFloat("CHAT_REPEAT_PENALTY", 1.1),
		RetrievalTopK:  getEnvAsInt("RETRIEVAL_TOP_K", 4),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		CollectionName: getEnv("COLLECTION_NAME", "uniq_documents"),
		VectorsPath:    getEnv("VECTORS_PATH", filepath.Join("vectors", "memory_vectors.json")),
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
	}
}

// ClientConfig holds the terminal client configuration.
type ClientConfig struct {
	ProxyURL   string
	StorageDir string
}

func LoadClient() *ClientConfig {
	return &ClientConfig{
		ProxyURL:   strings.TrimRight(getEnv("UNIQ_PROXY_URL", "http://localhost:3000"), "/"),
		StorageDir: getEnv("UNIQ_STORAGE_DIR", defaultStorageDir()),
	}
}

func defaultStorageDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "uniq-chat")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
