package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	GeminiAPIKey      string
	JWTSecret         string
	DatabaseURL       string
	HTTPPort          string
	LogLevel          string
	CropDataPath      string
	OpenWeatherAPIKey string
	PlantIDAPIKey     string
	HuggingFaceToken  string
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		DatabaseURL:       getEnv("DATABASE_URL", "plantcare.db"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "INFO"),
		CropDataPath:      getEnv("CROP_DATA_PATH", "data/crops.csv"),
		OpenWeatherAPIKey: getEnv("OPENWEATHER_API_KEY", ""),
		PlantIDAPIKey:     getEnv("PLANT_ID_API_KEY", ""),
		HuggingFaceToken:  getEnv("HUGGINGFACE_API_KEY", ""),
	}

	if AppConfig.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable is required")
	}

	if AppConfig.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
}

// Presence checks for the health endpoint. Values are never exposed.
func (c Config) HasGeminiKey() bool   { return c.GeminiAPIKey != "" }
func (c Config) HasJWTSecret() bool   { return c.JWTSecret != "" }
func (c Config) HasDatabaseURL() bool { return c.DatabaseURL != "" }

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
