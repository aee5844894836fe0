package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds every runtime knob, loaded from the environment with an
// optional .env file.
type Config struct {
	HTTPAddr     string
	DataFile     string
	CatalogSeed  string
	KafkaBrokers []string
	KafkaTopic   string

	SimInterval  time.Duration
	ExpirySweep  time.Duration
	ToastDismiss time.Duration
	CatalogDelay time.Duration
	Debug        bool
}

// loadEnv tries a few locations for a .env file; missing files are fine,
// the environment wins either way.
func loadEnv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	candidates := []string{
		filepath.Join(wd, ".env"),
		filepath.Join(wd, "..", ".env"),
		filepath.Join(wd, "..", "..", ".env"),
	}
	for _, path := range candidates {
		if err := godotenv.Load(path); err == nil {
			zap.L().Debug("loaded environment file", zap.String("path", path))
			return
		}
	}
}

// Load reads the configuration. Every field has a demo-friendly default.
func Load() Config {
	loadEnv()

	cfg := Config{
		HTTPAddr:     getEnv("ENTREGAS_HTTP_ADDR", ":8080"),
		DataFile:     getEnv("ENTREGAS_DATA_FILE", "entregas-users.json"),
		CatalogSeed:  getEnv("ENTREGAS_CATALOG_SEED", ""),
		KafkaTopic:   getEnv("ENTREGAS_KAFKA_TOPIC", "order_events"),
		SimInterval:  getDuration("ENTREGAS_SIM_INTERVAL", 2*time.Second),
		ExpirySweep:  getDuration("ENTREGAS_EXPIRY_SWEEP", time.Second),
		ToastDismiss: getDuration("ENTREGAS_TOAST_DISMISS", 7*time.Second),
		CatalogDelay: getDuration("ENTREGAS_CATALOG_DELAY", 500*time.Millisecond),
		Debug:        getBool("ENTREGAS_DEBUG", false),
	}

	if brokers := os.Getenv("ENTREGAS_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		zap.L().Warn("invalid duration, using default", zap.String("key", key), zap.String("value", v))
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
