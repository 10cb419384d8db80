package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Frontend
	FrontendURL string

	// Gemini AI
	GeminiAPIKey      string
	GeminiModel       string
	GeminiTemperature float64
	ChatTimeout       time.Duration

	// Speech synthesis (ElevenLabs-compatible)
	TTSAPIKey       string
	TTSBaseURL      string
	TTSVoiceID      string
	TTSModelID      string
	TTSOutputFormat string
	TTSSpeed        float64
	TTSTimeout      time.Duration

	// Auth, empty secret disables bearer checks
	JWTSecret string

	// Rate limiting, empty Redis URL keeps counters in memory
	RedisURL           string
	RateLimitPerMinute int

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string

	// Telemetry
	TelemetryEnabled bool
	TelemetryDir     string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "8080"),
		Env:                getEnvOrDefault("ENV", "development"),
		FrontendURL:        getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTemperature:  getEnvAsFloatOrDefault("GEMINI_TEMPERATURE", 0.4),
		ChatTimeout:        getEnvAsSecondsOrDefault("CHAT_TIMEOUT_SECONDS", 60),
		TTSAPIKey:          os.Getenv("ELEVENLABS_API_KEY"),
		TTSBaseURL:         strings.TrimRight(getEnvOrDefault("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"), "/"),
		TTSVoiceID:         getEnvOrDefault("TTS_VOICE_ID", "uyVNoMrnUku1dZyVEXwD"),
		TTSModelID:         getEnvOrDefault("TTS_MODEL_ID", "eleven_flash_v2_5"),
		TTSOutputFormat:    getEnvOrDefault("TTS_OUTPUT_FORMAT", "mp3_44100_128"),
		TTSSpeed:           getEnvAsFloatOrDefault("TTS_SPEED", 0.9),
		TTSTimeout:         getEnvAsSecondsOrDefault("TTS_TIMEOUT_SECONDS", 30),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		RedisURL:           os.Getenv("REDIS_URL"),
		RateLimitPerMinute: getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 30),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          getEnvOrDefault("LOG_FORMAT", "json"),
		LogFile:            os.Getenv("LOG_FILE"),
		TelemetryEnabled:   getEnvAsBoolOrDefault("TELEMETRY_ENABLED", false),
		TelemetryDir:       getEnvOrDefault("TELEMETRY_DIR", "logs"),
	}

	return cfg
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

// getEnvAsSecondsOrDefault reads a whole number of seconds. Non-positive values fall back.
func getEnvAsSecondsOrDefault(key string, defaultSecs int) time.Duration {
	n := getEnvAsIntOrDefault(key, defaultSecs)
	if n <= 0 {
		n = defaultSecs
	}
	return time.Duration(n) * time.Second
}
