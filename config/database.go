package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func init() {
	// Load env from .env
	godotenv.Load()
	// Opening the store is deferred to main() so tools and tests can
	// point OFFLINE_DB_PATH wherever they need before first use.
}

// DefaultStorePath is used when OFFLINE_DB_PATH is not set.
const DefaultStorePath = "warehouse-offline.db"

// OpenLocalStore opens (or creates) the device-local sqlite store. The
// store holds the offline mutation queue, the local id sequences and the
// master-data cache, so it must survive restarts: WAL journaling keeps
// enqueue commits durable without blocking readers.
func OpenLocalStore() (*gorm.DB, error) {
	path := strings.TrimSpace(os.Getenv("OFFLINE_DB_PATH"))
	if path == "" {
		path = DefaultStorePath
	}
	return OpenLocalStoreAt(path)
}

// OpenLocalStoreAt opens a store at an explicit path. Tests use
// "file::memory:?cache=shared" to get a throwaway store.
func OpenLocalStoreAt(path string) (*gorm.DB, error) {
	dsn := path
	if !strings.HasPrefix(path, "file:") {
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	}
	handle, err := gorm.Open(sqlite.Open(dsn), initConfig())
	if err != nil {
		return nil, err
	}

	// sqlite permits a single writer; more open conns only buy lock errors.
	if sqlDB, derr := handle.DB(); derr == nil && sqlDB != nil {
		sqlDB.SetMaxOpenConns(intFromEnv("DB_MAX_OPEN_CONNS", 1))
		sqlDB.SetConnMaxIdleTime(time.Duration(intFromEnv("DB_CONN_MAX_IDLE_TIME_SECONDS", 60)) * time.Second)
	}

	if pluginErr := handle.Use(otelgorm.NewPlugin()); pluginErr != nil {
		log.Printf("store opened but failed to install otelgorm plugin: %v", pluginErr)
	}

	return handle, nil
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func initConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         initLog(),
		NamingStrategy: initNamingStrategy(),
	}
}

func initLog() logger.Interface {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			Colorful:      false,
			LogLevel:      logger.Error,
			SlowThreshold: time.Second,
		},
	)
	return newLogger
}

func initNamingStrategy() *schema.NamingStrategy {
	return &schema.NamingStrategy{
		SingularTable: false,
		TablePrefix:   "",
	}
}
