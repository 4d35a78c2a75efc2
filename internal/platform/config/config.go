package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration. It is built once in main and
// passed down explicitly; no package reads the environment on its own.
type Server struct {
	Addr           string
	DatabaseURL    string
	RedisURL       string
	JWTSigningKey  string
	TokenTTL       time.Duration
	UploadDir      string
	MaxUploadBytes int64
}

// MaxUploadBytes default: documents over 10 MiB are rejected before storage.
const defaultMaxUploadBytes = 10 << 20

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("GRAMSUVIDHA_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	ttl := 60 * time.Minute
	if v := os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil && minutes > 0 {
			ttl = time.Duration(minutes) * time.Minute
		}
	}

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads/documents"
	}

	maxUpload := int64(defaultMaxUploadBytes)
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			maxUpload = n
		}
	}

	return Server{
		Addr:           addr,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		JWTSigningKey:  jwtSigningKey,
		TokenTTL:       ttl,
		UploadDir:      uploadDir,
		MaxUploadBytes: maxUpload,
	}
}
