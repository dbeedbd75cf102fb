package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr      string   `json:"listenAddr"`
	OpenBrowser     bool     `json:"openBrowser"`
	DatabaseDriver  string   `json:"databaseDriver"`
	DatabaseDSN     string   `json:"databaseDSN"`
	SeedPath        string   `json:"seedPath"`
	CatalogEncoding string   `json:"catalogEncoding"`
	Locale          string   `json:"locale"`
	CurrencySymbol  string   `json:"currencySymbol"`
	SessionSecret   string   `json:"sessionSecret"`
	SessionTTLHours int      `json:"sessionTTLHours"`
	KafkaBrokers    []string `json:"kafkaBrokers"`
	LogLevel        string   `json:"logLevel"`
}

var (
	cfg Config
	mu  sync.RWMutex
)

var configFilePath = "./storefront_config.json"

// Default returns the settings used when no config file exists.
func Default() Config {
	return Config{
		ListenAddr:      ":8080",
		OpenBrowser:     true,
		DatabaseDriver:  "sqlite3",
		DatabaseDSN:     "./storefront.db?_journal_mode=WAL&_busy_timeout=5000",
		SeedPath:        "SEED/PRODUCTS.CSV",
		CatalogEncoding: "utf-8",
		Locale:          "en",
		CurrencySymbol:  "€",
		SessionTTLHours: 12,
		LogLevel:        "info",
	}
}

func applyDefaults(c *Config) {
	d := Default()
	if c.ListenAddr == "" {
		c.ListenAddr = d.ListenAddr
	}
	if c.DatabaseDriver == "" {
		c.DatabaseDriver = d.DatabaseDriver
	}
	if c.DatabaseDSN == "" {
		c.DatabaseDSN = d.DatabaseDSN
	}
	if c.SeedPath == "" {
		c.SeedPath = d.SeedPath
	}
	if c.CatalogEncoding == "" {
		c.CatalogEncoding = d.CatalogEncoding
	}
	if c.Locale == "" {
		c.Locale = d.Locale
	}
	if c.CurrencySymbol == "" {
		c.CurrencySymbol = d.CurrencySymbol
	}
	if c.SessionTTLHours == 0 {
		c.SessionTTLHours = d.SessionTTLHours
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// applyEnv overrides file settings with STOREFRONT_* variables, including
// those from a .env file in the working directory.
func applyEnv(c *Config) {
	_ = godotenv.Load()

	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	str("STOREFRONT_LISTEN_ADDR", &c.ListenAddr)
	str("STOREFRONT_DB_DRIVER", &c.DatabaseDriver)
	str("STOREFRONT_DB_DSN", &c.DatabaseDSN)
	str("STOREFRONT_SEED_PATH", &c.SeedPath)
	str("STOREFRONT_CATALOG_ENCODING", &c.CatalogEncoding)
	str("STOREFRONT_LOCALE", &c.Locale)
	str("STOREFRONT_CURRENCY", &c.CurrencySymbol)
	str("STOREFRONT_SESSION_SECRET", &c.SessionSecret)
	str("STOREFRONT_LOG_LEVEL", &c.LogLevel)

	if v := os.Getenv("STOREFRONT_KAFKA_BROKERS"); v != "" {
		c.KafkaBrokers = nil
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.KafkaBrokers = append(c.KafkaBrokers, b)
			}
		}
	}
	if v := os.Getenv("STOREFRONT_OPEN_BROWSER"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.OpenBrowser = b
		}
	}
	if v := os.Getenv("STOREFRONT_SESSION_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.SessionTTLHours = n
		}
	}
}

// LoadConfig reads the config file, falls back to defaults when it does not
// exist, and applies environment overrides.
func LoadConfig() (Config, error) {
	mu.Lock()
	defer mu.Unlock()

	tempCfg := Default()
	file, err := os.ReadFile(configFilePath)
	if err != nil && !os.IsNotExist(err) {
		cfg = tempCfg
		applyEnv(&cfg)
		return cfg, err
	}
	if err == nil {
		tempCfg = Config{}
		if err := json.Unmarshal(file, &tempCfg); err != nil {
			cfg = Default()
			applyEnv(&cfg)
			return cfg, err
		}
		applyDefaults(&tempCfg)
	}

	applyEnv(&tempCfg)
	cfg = tempCfg
	return cfg, nil
}

// SaveConfig writes newCfg to the config file. An empty session secret keeps
// the current one, since GetConfig callers never see it.
func SaveConfig(newCfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	applyDefaults(&newCfg)
	if newCfg.SessionSecret == "" {
		newCfg.SessionSecret = cfg.SessionSecret
	}

	file, err := json.MarshalIndent(newCfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(configFilePath, file, 0600); err != nil {
		return err
	}
	cfg = newCfg
	return nil
}

func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}
