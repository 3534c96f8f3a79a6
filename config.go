package main

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	SecureCookies bool // true on HTTPS deployments

	DBDriver string // sqlite | postgres
	DBDSN    string

	SeedDir string // holds questions.json and, optionally, answers.json

	// Max browser identities kept in memory at once.
	ViewerCacheSize int

	// Extra CORS origins besides http://localhost:PORT.
	AllowedOrigins []string
}

// LoadConfig reads the environment, loading a .env file first when one exists.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded, using process environment")
	}
	return Config{
		Port:            getenvDefault("PORT", "8080"),
		SecureCookies:   os.Getenv("SECURE_COOKIES") == "true",
		DBDriver:        getenvDefault("DB_DRIVER", "sqlite"),
		DBDSN:           getenvDefault("DB_DSN", "pastq.db"),
		SeedDir:         getenvDefault("SEED_DIR", "data"),
		ViewerCacheSize: getenvInt("VIEWER_CACHE_SIZE", 4096),
		AllowedOrigins:  splitList(os.Getenv("ALLOWED_ORIGINS")),
	}
}

func getenvDefault(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("%s=%q is not a positive integer, using %d", k, v, fallback)
		return fallback
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
