package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/yeremiapane/snooker-cafe/billing"
	"github.com/yeremiapane/snooker-cafe/utils"
)

type Config struct {
	Port     string
	GinMode  string
	DBDriver string
	DBDSN    string

	CORSOrigin         string
	RateLimitPerSecond int

	ChangePollInterval  time.Duration
	AutoBillInterval    time.Duration
	ReservationInterval time.Duration

	Billing        billing.Config
	CurrencySymbol string
	UPIPayeeID     string
	UPIPayeeName   string
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("Warning: .env file not found")
	}

	return Config{
		Port:     getEnv("PORT", "8080"),
		GinMode:  getEnv("GIN_MODE", "debug"),
		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBDSN:    getEnv("DB_DSN", "snooker.db"),

		CORSOrigin:         getEnv("CORS_ORIGIN", "http://localhost:3000"),
		RateLimitPerSecond: getInt("RATE_LIMIT_PER_SECOND", 50),

		ChangePollInterval:  getDuration("CHANGE_POLL_INTERVAL", 500*time.Millisecond),
		AutoBillInterval:    getDuration("AUTOBILL_INTERVAL", time.Second),
		ReservationInterval: getDuration("RESERVATION_INTERVAL", 5*time.Second),

		Billing: billing.Config{
			EarlyExitSlackMinutes: getInt("EARLY_EXIT_SLACK_MINUTES", 1),
			ConflictGrace:         time.Duration(getInt("CONFLICT_GRACE_MINUTES", 15)) * time.Minute,
		},
		CurrencySymbol: getEnv("CURRENCY_SYMBOL", "₹"),
		UPIPayeeID:     getEnv("UPI_PAYEE_ID", ""),
		UPIPayeeName:   getEnv("UPI_PAYEE_NAME", "Snooker Cafe"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		utils.ErrorLogger.Printf("Invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		utils.ErrorLogger.Printf("Invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
