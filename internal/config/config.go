package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort   string
	AppEnv    string
	LogLevel  string
	LogFormat string

	DBDriver    string // mysql | postgres | sqlite
	MySQLHost   string
	MySQLPort   string
	MySQLDB     string
	MySQLUser   string
	MySQLPass   string
	PostgresDSN string
	SQLitePath  string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	CORSOrigins []string
	WSOrigins   []string

	MintAPIURL       string
	MintAPIKey       string
	MintChain        string
	MintContractAddr string

	PinAPIURL     string
	PinAPIJWT     string
	PinGatewayURL string

	GenAIURL   string
	GenAIKey   string
	GenAIModel string

	ExternalTimeout time.Duration

	ChatCacheSize int
	ChatCacheTTL  time.Duration
	ChatStore     string // memory | redis

	WalletNonceTTL time.Duration
}

func getenv(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func csv(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadDotenv preloads the first .env file found next to the binary or one
// level up. Variables already present in the environment win.
func LoadDotenv() string {
	for _, p := range []string{".env", "../.env"} {
		if _, err := os.Stat(p); err == nil {
			if godotenv.Load(p) == nil {
				return p
			}
		}
	}
	return ""
}

func Load() *Config {
	c := &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		AppEnv:    getenv("APP_ENV", "dev"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),

		DBDriver:    strings.ToLower(getenv("DB_DRIVER", "mysql")),
		MySQLHost:   getenv("MYSQL_HOST", "mysql"),
		MySQLPort:   getenv("MYSQL_PORT", "3306"),
		MySQLDB:     getenv("MYSQL_DB", "orbitlend"),
		MySQLUser:   getenv("MYSQL_USER", "orbitlend"),
		MySQLPass:   getenv("MYSQL_PASS", "orbitlend"),
		PostgresDSN: getenv("POSTGRES_DSN", ""),
		SQLitePath:  getenv("SQLITE_PATH", "orbitlend.db"),

		RedisAddr:    getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:      getint("REDIS_DB", 0),
		IdempTTLSecs: getint("IDEMPOTENCY_TTL_SECONDS", 300),

		JWTSecret: getenv("JWT_SECRET", ""),
		JWTIssuer: getenv("JWT_ISSUER", "orbitlend"),
		JWTTTL:    time.Duration(getint("JWT_TTL_MINUTES", 7*24*60)) * time.Minute,

		CORSOrigins: csv(getenv("CORS_ALLOWED_ORIGINS", "*")),
		WSOrigins:   csv(getenv("WS_ALLOWED_ORIGINS", "")),

		MintAPIURL:       getenv("MINT_API_URL", "https://api.verbwire.com/v1"),
		MintAPIKey:       getenv("MINT_API_KEY", ""),
		MintChain:        getenv("MINT_CHAIN", "sepolia"),
		MintContractAddr: getenv("MINT_CONTRACT_ADDRESS", ""),

		PinAPIURL:     getenv("PIN_API_URL", "https://api.pinata.cloud"),
		PinAPIJWT:     getenv("PIN_API_JWT", ""),
		PinGatewayURL: getenv("PIN_GATEWAY_URL", "https://gateway.pinata.cloud"),

		GenAIURL:   getenv("GENAI_API_URL", "https://generativelanguage.googleapis.com/v1beta/openai"),
		GenAIKey:   getenv("GENAI_API_KEY", ""),
		GenAIModel: getenv("GENAI_MODEL", "gemini-1.5-flash"),

		ExternalTimeout: time.Duration(getint("EXTERNAL_TIMEOUT_SECONDS", 30)) * time.Second,

		ChatCacheSize: getint("CHAT_CACHE_SIZE", 100),
		ChatCacheTTL:  time.Duration(getint("CHAT_CACHE_TTL_MINUTES", 60)) * time.Minute,
		ChatStore:     strings.ToLower(getenv("CHAT_STORE", "memory")),

		WalletNonceTTL: time.Duration(getint("WALLET_NONCE_TTL_SECONDS", 300)) * time.Second,
	}
	return c
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.JWTSecret == "" {
		return errors.New("missing JWT_SECRET")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	switch c.DBDriver {
	case "mysql":
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("missing POSTGRES_DSN")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.ChatStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported CHAT_STORE %q", c.ChatStore)
	}
	if c.ChatCacheSize <= 0 {
		return errors.New("CHAT_CACHE_SIZE must be positive")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case "postgres":
		return c.PostgresDSN
	case "sqlite":
		return c.SQLitePath
	default:
		return c.MySQLDSN()
	}
}

func (c *Config) IdempotencyTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }
