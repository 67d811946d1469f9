// Package config provides centralized default values for VibeCheck
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var envLoaded sync.Once

// loadEnvFile applies .env overrides without clobbering variables already set in the environment.
func loadEnvFile() {
	envLoaded.Do(func() {
		if err := godotenv.Load(); err != nil {
			return
		}
		log.Println("Loaded configuration overrides from .env file")
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, redact(key, val), defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	log.Printf("Config override: %s=%v", key, out)
	return out
}

// redact keeps secrets out of the startup log.
func redact(key, value string) string {
	upper := strings.ToUpper(key)
	if strings.Contains(upper, "SECRET") || strings.Contains(upper, "TOKEN") || strings.Contains(upper, "KEY") {
		return "****"
	}
	return value
}

var (
	// Server Configuration
	Port               string
	AppOrigin          string
	CORSOrigins        []string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Instagram OAuth
	InstagramAppID        string
	InstagramAppSecret    string
	InstagramRedirectURI  string
	InstagramScope        string
	InstagramAuthBaseURL  string
	InstagramGraphBaseURL string
	InstagramShareBaseURL string

	// OAuth flow timing
	SessionValidity       time.Duration
	AuthPopupPollInterval time.Duration
	AuthFlowTimeout       time.Duration
	OAuthStateTTL         time.Duration
	HTTPClientTimeout     time.Duration

	// Background cleanup
	SessionCleanupInterval time.Duration
	SessionCleanupVerbose  bool

	// Analysis
	AnalysisDelay     time.Duration
	ProfileCacheSize  int
	AssemblyAIAPIKey  string
	TranscribeTimeout time.Duration

	// Database
	DBPath                   string
	TursoDatabaseURL         string
	TursoAuthToken           string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	SlowQueryThreshold       time.Duration

	// Security
	JWTSecret       string
	AESKey          string
	VisitorTokenTTL time.Duration
	SecureCookies   bool

	// Logging
	LogDirectory string
	LogToFile    bool
	LogLevel     string
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	AppOrigin = strings.TrimRight(getEnvString("APP_ORIGIN", "http://localhost:8080"), "/")
	CORSOrigins = getEnvList("CORS_ORIGINS", []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://[::1]:3000",
		"http://[::1]:8080",
	})
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Instagram OAuth
	InstagramAppID = getEnvString("INSTAGRAM_APP_ID", "YOUR_INSTAGRAM_APP_ID")
	InstagramAppSecret = getEnvString("INSTAGRAM_APP_SECRET", "")
	InstagramRedirectURI = getEnvString("INSTAGRAM_REDIRECT_URI", AppOrigin+"/auth-callback")
	InstagramScope = getEnvString("INSTAGRAM_SCOPE", "user_profile,user_media")
	InstagramAuthBaseURL = getEnvString("INSTAGRAM_AUTH_BASE_URL", "https://api.instagram.com")
	InstagramGraphBaseURL = getEnvString("INSTAGRAM_GRAPH_BASE_URL", "https://graph.instagram.com")
	InstagramShareBaseURL = getEnvString("INSTAGRAM_SHARE_BASE_URL", "https://www.instagram.com")

	// OAuth flow timing
	SessionValidity = getEnvDuration("SESSION_VALIDITY", 60*24*time.Hour)
	AuthPopupPollInterval = getEnvDuration("AUTH_POPUP_POLL_INTERVAL", time.Second)
	AuthFlowTimeout = getEnvDuration("AUTH_FLOW_TIMEOUT", 10*time.Minute)
	OAuthStateTTL = getEnvDuration("OAUTH_STATE_TTL", 15*time.Minute)
	HTTPClientTimeout = getEnvDuration("HTTP_CLIENT_TIMEOUT", 15*time.Second)

	// Background cleanup
	SessionCleanupInterval = getEnvDuration("SESSION_CLEANUP_INTERVAL", time.Hour)
	SessionCleanupVerbose = getEnvBool("SESSION_CLEANUP_VERBOSE", false)

	// Analysis
	AnalysisDelay = getEnvDuration("ANALYSIS_DELAY", 0)
	ProfileCacheSize = getEnvInt("PROFILE_CACHE_SIZE", 1024)
	AssemblyAIAPIKey = getEnvString("ASSEMBLYAI_API_KEY", "")
	TranscribeTimeout = getEnvDuration("TRANSCRIBE_TIMEOUT", 2*time.Minute)

	// Database
	DBPath = getEnvString("DB_PATH", "db/vibecheck.db")
	TursoDatabaseURL = getEnvString("TURSO_DATABASE_URL", "")
	TursoAuthToken = getEnvString("TURSO_AUTH_TOKEN", "")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 50*time.Millisecond)

	// Security
	JWTSecret = getEnvString("JWT_SECRET", "")
	AESKey = getEnvString("AES_KEY", "")
	VisitorTokenTTL = getEnvDuration("VISITOR_TOKEN_TTL", 365*24*time.Hour)
	SecureCookies = getEnvBool("SECURE_COOKIES", strings.HasPrefix(AppOrigin, "https://"))

	// Logging
	LogDirectory = getEnvString("LOG_DIRECTORY", "logs")
	LogToFile = getEnvBool("LOG_TO_FILE", false)
	LogLevel = getEnvString("LOG_LEVEL", "INFO")
}
