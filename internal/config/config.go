package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Data backends.
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
	BackendMongo     = "mongo"
)

// Auth modes.
const (
	AuthNone     = "none"
	AuthJWT      = "jwt"
	AuthFirebase = "firebase"
)

var (
	validBackends  = []string{BackendMemory, BackendSQLite, BackendFirestore, BackendMongo}
	validAuthModes = []string{AuthNone, AuthJWT, AuthFirebase}
	validLevels    = []string{"debug", "info", "warn", "warning", "error"}
	validFormats   = []string{"text", "json"}
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	TrustedProxies     []string
	ViewCacheTTL       time.Duration
	ShutdownTimeout    time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Backend selection
	DataBackend   string
	SQLiteDBPath  string
	MongoURI      string
	MongoDatabase string

	// Firebase (firestore backend and firebase auth)
	FirebaseProjectID       string
	FirebaseCredentialsJSON string
	FirebaseCredentialsFile string

	// Auth
	AuthMode  string
	JWTSecret string
	JWTIssuer string
	DevUserID string

	// AMQP. An empty URL disables events.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	// AMQPRequired makes an unreachable broker fatal at startup.
	AMQPRequired bool

	// Market data
	MarketFiatURL   string
	MarketCryptoURL string
	MarketTimeout   time.Duration
	MarketCacheTTL  time.Duration

	// Billing worker
	BillingInterval time.Duration

	// Google Sheets mirror
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleOAuthClientFile    string
	GoogleOAuthClientJSON    string
	GoogleOAuthTokenFile     string
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES"),
		ViewCacheTTL:       getEnvDuration("VIEW_CACHE_TTL", time.Minute),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),

		DataBackend:   strings.ToLower(getEnv("DATA_BACKEND", BackendMemory)),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/spendwise.db"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "spendwise"),

		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsJSON: getEnv("FIREBASE_CREDENTIALS_JSON", ""),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),

		AuthMode:  strings.ToLower(getEnv("AUTH_MODE", AuthNone)),
		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", ""),
		DevUserID: getEnv("DEV_USER_ID", "dev-user"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "spendwise"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transactions_mirror"),
		AMQPRequired: getEnvBool("AMQP_REQUIRED", false),

		MarketFiatURL:   getEnv("MARKET_FIAT_URL", ""),
		MarketCryptoURL: getEnv("MARKET_CRYPTO_URL", ""),
		MarketTimeout:   getEnvDuration("MARKET_TIMEOUT", 10*time.Second),
		MarketCacheTTL:  getEnvDuration("MARKET_CACHE_TTL", 5*time.Minute),

		BillingInterval: getEnvDuration("BILLING_INTERVAL", time.Hour),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleOAuthClientFile:    getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthClientJSON:    getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthTokenFile:     getEnv("GOOGLE_OAUTH_TOKEN_FILE", "token.json"),
	}

	return cfg
}

// Addr is the listen address of the API.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if !slices.Contains(validLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}
	if !slices.Contains(validFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validFormats))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	switch c.DataBackend {
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case BackendMongo:
		if u, err := url.Parse(c.MongoURI); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Mongo URI: %v", err))
		} else if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
			errors = append(errors, fmt.Sprintf("invalid Mongo URI scheme '%s': must be 'mongodb' or 'mongodb+srv'", u.Scheme))
		}
		if c.MongoDatabase == "" {
			errors = append(errors, "Mongo database name cannot be empty when using mongo backend")
		}
	case BackendFirestore:
		errors = append(errors, c.validateFirebaseCredentials()...)
	}

	if !slices.Contains(validAuthModes, c.AuthMode) {
		errors = append(errors, fmt.Sprintf("invalid auth mode '%s': must be one of %v", c.AuthMode, validAuthModes))
	}
	switch c.AuthMode {
	case AuthNone:
		if c.DevUserID == "" {
			errors = append(errors, "DEV_USER_ID cannot be empty when AUTH_MODE is none")
		}
	case AuthJWT:
		if len(c.JWTSecret) < 32 {
			errors = append(errors, "JWT_SECRET must be at least 32 characters when AUTH_MODE is jwt")
		}
	case AuthFirebase:
		if c.DataBackend != BackendFirestore {
			errors = append(errors, c.validateFirebaseCredentials()...)
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.MarketTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid market timeout %v: must be at least 1 second", c.MarketTimeout))
	}
	if c.BillingInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid billing interval %v: must be at least 1 minute", c.BillingInterval))
	} else if c.BillingInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid billing interval %v: must be at most 24 hours", c.BillingInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateMirror checks the settings the Sheets mirror worker needs on
// top of Validate.
func (c *Config) ValidateMirror() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required by the mirror worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required by the mirror worker")
	}

	hasServiceAccount := c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != ""
	hasClient := c.GoogleOAuthClientFile != "" || c.GoogleOAuthClientJSON != ""
	switch {
	case hasServiceAccount:
		if c.GoogleServiceAccountFile != "" && !fileExists(c.GoogleServiceAccountFile) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	case hasClient:
		if c.GoogleOAuthClientFile != "" && !fileExists(c.GoogleOAuthClientFile) {
			errors = append(errors, fmt.Sprintf("Google OAuth client file does not exist: %s", c.GoogleOAuthClientFile))
		}
		if !fileExists(c.GoogleOAuthTokenFile) {
			errors = append(errors, fmt.Sprintf("Google OAuth token file does not exist: %s (run sheets-auth first)", c.GoogleOAuthTokenFile))
		}
	default:
		errors = append(errors, "either a Google service account or GOOGLE_OAUTH_CLIENT_FILE/GOOGLE_OAUTH_CLIENT_JSON must be provided")
	}

	if len(errors) > 0 {
		return fmt.Errorf("mirror configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// GoogleOAuthClient returns the OAuth client JSON, reading it from
// GoogleOAuthClientFile when it is not set inline.
func (c *Config) GoogleOAuthClient() (string, error) {
	if c.GoogleOAuthClientJSON != "" {
		return c.GoogleOAuthClientJSON, nil
	}
	if c.GoogleOAuthClientFile == "" {
		return "", nil
	}
	b, err := os.ReadFile(c.GoogleOAuthClientFile)
	if err != nil {
		return "", fmt.Errorf("read oauth client file: %w", err)
	}
	return string(b), nil
}

func (c *Config) validateFirebaseCredentials() []string {
	var errors []string
	if c.FirebaseProjectID == "" {
		errors = append(errors, "FIREBASE_PROJECT_ID is required for firebase")
	}
	if c.FirebaseCredentialsFile != "" && !fileExists(c.FirebaseCredentialsFile) {
		errors = append(errors, fmt.Sprintf("Firebase credentials file does not exist: %s", c.FirebaseCredentialsFile))
	}
	return errors
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
