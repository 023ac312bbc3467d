// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	configPath = pflag.String("config", "", "Path to the config file, defaults to ./config.toml")

	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validStorageTypes = []string{"s3", "r2", "minio", "memory"}
	validDrivers      = []string{"sqlite", "postgres"}
	validQueues       = []string{"memory", "redis"}
	validCacheStores  = []string{"memory", "redis"}
)

// ErrNoSecret is returned when no jwt.secret is configured. A random one is
// printed so it can be pasted into the config.
var ErrNoSecret = errors.New("no jwt.secret set")

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Every key that can be set from the environment. KEY_NAME maps to key.name.
var envKeys = []string{
	"app.log_level",

	"host.port",
	"host.cors_origins",

	"db.driver",
	"db.dsn",

	"jwt.secret",
	"security.rate_limit",

	"storage.type",
	"storage.total_capacity",
	"storage.reconcile_schedule",
	"storage.presign_ttl",

	"aws.access_key",
	"aws.secret_access_key",
	"aws.region",
	"aws.bucket",
	"aws.public_url",

	"cloudflare.account_id",
	"cloudflare.access_key_id",
	"cloudflare.secret_access_key",
	"cloudflare.bucket",
	"cloudflare.public_url",

	"minio.endpoint",
	"minio.use_ssl",
	"minio.bucket",
	"minio.access_key",
	"minio.secret_key",
	"minio.public_url",

	"upload.max_size",

	"tagger.api_key",
	"tagger.model",
	"tagger.max_keywords",
	"tagger.max_input_chars",
	"tagger.timeout",

	"ocr.command",
	"ocr.language",

	"ingest.queue",
	"ingest.workers",
	"ingest.queue_size",
	"ingest.extract_timeout",

	"redis.addr",
	"redis.password",
	"redis.db",

	"cache.store",
	"events.amqp_url",
}

func setDefaults() {
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "storage.db")

	v.SetDefault("security.rate_limit", 20)

	v.SetDefault("storage.type", "s3")
	v.SetDefault("storage.total_capacity", int64(2<<30))
	v.SetDefault("storage.reconcile_schedule", "@every 10m")
	v.SetDefault("storage.presign_ttl", 15*time.Minute)

	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("minio.use_ssl", true)

	// In MiB, converted to bytes by Setup
	v.SetDefault("upload.max_size", 50)

	v.SetDefault("tagger.model", "gemini-2.0-flash")
	v.SetDefault("tagger.max_keywords", 20)
	v.SetDefault("tagger.max_input_chars", 30000)
	v.SetDefault("tagger.timeout", 30*time.Second)

	v.SetDefault("ocr.command", "tesseract")
	v.SetDefault("ocr.language", "eng")

	v.SetDefault("ingest.queue", "memory")
	v.SetDefault("ingest.workers", 4)
	v.SetDefault("ingest.queue_size", 100)
	v.SetDefault("ingest.extract_timeout", 2*time.Minute)

	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("cache.store", "memory")
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	if !pflag.Parsed() {
		pflag.Parse()
	}
	v.BindPFlags(pflag.CommandLine)

	if *configPath != "" {
		v.SetConfigFile(*configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range envKeys {
		v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}

	setDefaults()

	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file, %w", err)
		}

		zap.L().Warn("No config.toml file found, using defaults and the environment")
	}

	return Validate()
}

// Validate checks the loaded values and normalizes the ones that need it
func Validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if !slices.Contains(validDrivers, v.GetString("db.driver")) {
		return errors.New("invalid db.driver provided, use sqlite or postgres")
	}

	if v.GetString("db.dsn") == "" {
		return errors.New("db.dsn can't be empty")
	}

	if v.GetString("jwt.secret") == "" {
		fmt.Println("WARNING: You haven't set a JWT secret. It has to match the one the account service signs tokens with.\nA random one, if you need it:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		return ErrNoSecret
	}

	if err := validateStorage(); err != nil {
		return err
	}

	if v.GetInt64("storage.total_capacity") <= 0 {
		return errors.New("storage.total_capacity must be bigger than 0")
	}

	if v.GetInt64("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if v.GetInt("tagger.max_keywords") <= 0 {
		return errors.New("tagger.max_keywords must be bigger than 0")
	}

	if v.GetString("tagger.api_key") == "" {
		zap.L().Warn("No tagger.api_key specified, uploads won't be tagged")
	}

	if !slices.Contains(validQueues, v.GetString("ingest.queue")) {
		return errors.New("invalid ingest.queue provided, use memory or redis")
	}

	if v.GetInt("ingest.workers") <= 0 {
		return errors.New("ingest.workers must be bigger than 0")
	}

	if !slices.Contains(validCacheStores, v.GetString("cache.store")) {
		return errors.New("invalid cache.store provided, use memory or redis")
	}

	if (v.GetString("ingest.queue") == "redis" || v.GetString("cache.store") == "redis") && v.GetString("redis.addr") == "" {
		return errors.New("redis.addr can't be empty")
	}

	// Only convert once, Validate can run again in tests
	if !v.GetBool("upload.max_size_converted") {
		v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
		v.Set("upload.max_size_converted", true)
	}

	return nil
}

func validateStorage() error {
	required := map[string][]string{
		"s3":     {"aws.access_key", "aws.secret_access_key", "aws.region", "aws.bucket"},
		"r2":     {"cloudflare.account_id", "cloudflare.access_key_id", "cloudflare.secret_access_key", "cloudflare.bucket"},
		"minio":  {"minio.endpoint", "minio.bucket", "minio.access_key", "minio.secret_key"},
		"memory": {},
	}

	t := v.GetString("storage.type")
	if !slices.Contains(validStorageTypes, t) {
		return errors.New("invalid storage type provided")
	}

	for _, key := range required[t] {
		if v.GetString(key) == "" {
			return fmt.Errorf("%s can't be empty when storage.type is %s", key, t)
		}
	}

	if t == "memory" {
		zap.L().Warn("Using in-memory object storage, stored files are lost on restart")
	}

	return nil
}
