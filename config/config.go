package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Ledger    LedgerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	AI        AIConfig
	Currency  CurrencyConfig
	Telegram  TelegramConfig
	Jobs      JobsConfig
}

type AppConfig struct {
	Port           string
	Env            string
	CookieDomain   string
	SecureCookies  bool
	CORSOrigins    []string
	TrustedProxies []string // addresses or CIDR ranges whose X-Forwarded-For is believed
}

// IsDevelopment reports whether the app runs with development defaults.
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development"
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	TimeZone string
}

// LedgerConfig configures the raw SQL wallet store.
type LedgerConfig struct {
	DatabaseURL        string
	MaxConns           int32
	MinConns           int32
	DefaultCurrency    string
	DailyTransferLimit decimal.Decimal
	IntlFeePercent     decimal.Decimal
	LoanInterestRate   decimal.Decimal
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	Issuer        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	AuthPerMinute     int
	ChatPerMinute     int
}

type AIConfig struct {
	APIKey       string
	Model        string
	SystemPrompt string
}

type CurrencyConfig struct {
	BaseURL  string
	CacheTTL time.Duration
	Timeout  time.Duration
}

type TelegramConfig struct {
	BotToken string
	ChatID   string
	APIBase  string
}

// Enabled reports whether backups can be delivered.
func (c TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatID != ""
}

type JobsConfig struct {
	BackupInterval   time.Duration
	ReminderInterval time.Duration
	ReminderLead     time.Duration
}

const defaultSystemPrompt = "You are a careful medical information assistant for a patient portal. " +
	"Give general, evidence-based health information in plain language, never a diagnosis, " +
	"and advise contacting a doctor or emergency services when symptoms sound serious."

func LoadConfig() (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("LEDGER_MAX_CONNS", 20)
	v.SetDefault("LEDGER_MIN_CONNS", 2)
	v.SetDefault("LEDGER_DEFAULT_CURRENCY", "USD")
	v.SetDefault("LEDGER_DAILY_TRANSFER_LIMIT", "10000")
	v.SetDefault("LEDGER_INTL_FEE_PERCENT", "1.5")
	v.SetDefault("LEDGER_LOAN_INTEREST_RATE", "5")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("JWT_ISSUER", "medledger")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("RATE_LIMIT_AUTH_PER_MINUTE", 10)
	v.SetDefault("RATE_LIMIT_CHAT_PER_MINUTE", 6)
	v.SetDefault("AI_MODEL", "gemini-2.0-flash")
	v.SetDefault("AI_SYSTEM_PROMPT", defaultSystemPrompt)
	v.SetDefault("CURRENCY_API_BASE_URL", "https://open.er-api.com/v6")
	v.SetDefault("TELEGRAM_API_BASE", "https://api.telegram.org")

	// Missing .env is fine; everything can come from the environment.
	_ = v.ReadInConfig()

	config := &Config{
		App: AppConfig{
			Port:           v.GetString("APP_PORT"),
			Env:            v.GetString("APP_ENV"),
			CookieDomain:   v.GetString("COOKIE_DOMAIN"),
			SecureCookies:  v.GetBool("COOKIE_SECURE"),
			CORSOrigins:    splitList(v.GetString("CORS_ORIGINS")),
			TrustedProxies: splitList(v.GetString("APP_TRUSTED_PROXIES")),
		},
		DB: DBConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			TimeZone: v.GetString("DB_TIMEZONE"),
		},
		Ledger: LedgerConfig{
			DatabaseURL:        v.GetString("LEDGER_DATABASE_URL"),
			MaxConns:           v.GetInt32("LEDGER_MAX_CONNS"),
			MinConns:           v.GetInt32("LEDGER_MIN_CONNS"),
			DefaultCurrency:    strings.ToUpper(v.GetString("LEDGER_DEFAULT_CURRENCY")),
			DailyTransferLimit: parseDecimal(v.GetString("LEDGER_DAILY_TRANSFER_LIMIT"), decimal.NewFromInt(10000)),
			IntlFeePercent:     parseDecimal(v.GetString("LEDGER_INTL_FEE_PERCENT"), decimal.NewFromFloat(1.5)),
			LoanInterestRate:   parseDecimal(v.GetString("LEDGER_LOAN_INTEREST_RATE"), decimal.NewFromInt(5)),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        v.GetString("JWT_SECRET"),
			Issuer:        v.GetString("JWT_ISSUER"),
			AccessExpiry:  parseDuration(v.GetString("JWT_ACCESS_EXPIRY"), 15*time.Minute),
			RefreshExpiry: parseDuration(v.GetString("JWT_REFRESH_EXPIRY"), 7*24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             v.GetInt("RATE_LIMIT_BURST"),
			AuthPerMinute:     v.GetInt("RATE_LIMIT_AUTH_PER_MINUTE"),
			ChatPerMinute:     v.GetInt("RATE_LIMIT_CHAT_PER_MINUTE"),
		},
		AI: AIConfig{
			APIKey:       v.GetString("AI_API_KEY"),
			Model:        v.GetString("AI_MODEL"),
			SystemPrompt: v.GetString("AI_SYSTEM_PROMPT"),
		},
		Currency: CurrencyConfig{
			BaseURL:  strings.TrimRight(v.GetString("CURRENCY_API_BASE_URL"), "/"),
			CacheTTL: parseDuration(v.GetString("CURRENCY_CACHE_TTL"), time.Hour),
			Timeout:  parseDuration(v.GetString("CURRENCY_TIMEOUT"), 10*time.Second),
		},
		Telegram: TelegramConfig{
			BotToken: v.GetString("TELEGRAM_BOT_TOKEN"),
			ChatID:   v.GetString("TELEGRAM_CHAT_ID"),
			APIBase:  strings.TrimRight(v.GetString("TELEGRAM_API_BASE"), "/"),
		},
		Jobs: JobsConfig{
			BackupInterval:   parseDuration(v.GetString("JOBS_BACKUP_INTERVAL"), 24*time.Hour),
			ReminderInterval: parseDuration(v.GetString("JOBS_REMINDER_INTERVAL"), 15*time.Minute),
			ReminderLead:     parseDuration(v.GetString("JOBS_REMINDER_LEAD"), 24*time.Hour),
		},
	}

	return config, nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseDecimal(raw string, fallback decimal.Decimal) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
