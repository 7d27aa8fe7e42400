package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	// All variables
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// Admission control
	LOCK_DIR          string
	MAX_PREVIEW_SLOTS int
	LOCK_RETRY_MS     int
	LOCK_WAIT_BUDGET  time.Duration
	LOCK_STALE_AFTER  time.Duration
	// Redis (optional lock/counter backend)
	REDIS_URL string
	// DigitalOcean Configuration
	DO_SPACES_BUCKET   string
	DO_SPACES_REGION   string
	DO_SPACES_ENDPOINT string
	DO_SPACES_KEY      string
	DO_SPACES_SECRET   string
	DO_INFERENCE_KEY   string
	DO_INFERENCE_MODEL string
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	// Database defaults
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	lockDir := os.Getenv("LOCK_DIR")
	if lockDir == "" {
		lockDir = os.TempDir()
	}

	maxSlots, err := strconv.Atoi(os.Getenv("MAX_PREVIEW_SLOTS"))
	if err != nil || maxSlots <= 0 {
		maxSlots = 10
	}

	retryMs, err := strconv.Atoi(os.Getenv("LOCK_RETRY_MS"))
	if err != nil || retryMs <= 0 {
		retryMs = 100
	}

	waitBudget, err := time.ParseDuration(os.Getenv("LOCK_WAIT_BUDGET"))
	if err != nil || waitBudget <= 0 {
		waitBudget = 5 * time.Second
	}

	staleAfter, err := time.ParseDuration(os.Getenv("LOCK_STALE_AFTER"))
	if err != nil || staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  os.Getenv("DB_SSL_MODE"),
		PORT:         port,
		// Admission control
		LOCK_DIR:          lockDir,
		MAX_PREVIEW_SLOTS: maxSlots,
		LOCK_RETRY_MS:     retryMs,
		LOCK_WAIT_BUDGET:  waitBudget,
		LOCK_STALE_AFTER:  staleAfter,
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// DigitalOcean
		DO_SPACES_BUCKET:   os.Getenv("DO_SPACES_BUCKET"),
		DO_SPACES_REGION:   os.Getenv("DO_SPACES_REGION"),
		DO_SPACES_ENDPOINT: os.Getenv("DO_SPACES_ENDPOINT"),
		DO_SPACES_KEY:      os.Getenv("DO_SPACES_KEY"),
		DO_SPACES_SECRET:   os.Getenv("DO_SPACES_SECRET"),
		DO_INFERENCE_KEY:   os.Getenv("DO_INFERENCE_KEY"),
		DO_INFERENCE_MODEL: os.Getenv("DO_INFERENCE_MODEL"),
	}

	return envVariables, nil
}
