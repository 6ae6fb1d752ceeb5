package main

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all tunable server settings, loaded from the environment
// with sane defaults.
type Config struct {
	Addr      string
	DBPath    string
	LogPath   string
	ClientDir string

	MaxConnsPerIP int
	MaxTotalConns int

	// Per-connection inbound message rate limit (token bucket).
	MsgRate  float64
	MsgBurst int
}

// LoadConfig reads settings from the environment. A .env file in the
// working directory is loaded first if present.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		Addr:          getEnvStr("TANKARENA_ADDR", ":8080"),
		DBPath:        getEnvStr("TANKARENA_DB", "tankarena.db"),
		LogPath:       getEnvStr("TANKARENA_LOG", "tankarena.log"),
		ClientDir:     getEnvStr("TANKARENA_CLIENT_DIR", "./client"),
		MaxConnsPerIP: getEnvInt("TANKARENA_MAX_CONNS_PER_IP", 8),
		MaxTotalConns: getEnvInt("TANKARENA_MAX_CONNS", 512),
		MsgRate:       getEnvFloat("TANKARENA_MSG_RATE", 60),
		MsgBurst:      getEnvInt("TANKARENA_MSG_BURST", 120),
	}
}

func getEnvStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
