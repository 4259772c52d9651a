package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

var (
	MongoURI      string
	RedisAddr     string
	RedisPassword string
	Port          string
	GeminiAPIKey  string
	GeminiModel   string
	AWSRegion     string
	AWSBucketName string
	JWTSecret     string
)

// LoadConfig loads environment variables from .env file
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default values or system environment variables")
	}

	MongoURI = os.Getenv("MONGO_URI")
	if MongoURI == "" {
		MongoURI = "mongodb://localhost:27017/"
	}

	RedisAddr = os.Getenv("REDIS_ADDR")
	if RedisAddr == "" {
		RedisAddr = "localhost:6379"
	}
	RedisPassword = os.Getenv("REDIS_PASSWORD")

	Port = os.Getenv("PORT")
	if Port == "" {
		Port = "8080"
	}

	GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	GeminiModel = os.Getenv("GEMINI_MODEL")
	if GeminiModel == "" {
		GeminiModel = "gemini-2.5-flash-image-preview"
	}

	AWSRegion = os.Getenv("AWS_REGION")
	if AWSRegion == "" {
		AWSRegion = "ap-south-1"
	}
	AWSBucketName = os.Getenv("AWS_BUCKET_NAME")
	if AWSBucketName == "" {
		AWSBucketName = "tryonfusion-images"
	}

	JWTSecret = os.Getenv("JWT_SECRET")
}
