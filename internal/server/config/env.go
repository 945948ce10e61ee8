package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/organlink/internal/flagx"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "ORGANLINK_"

// lookupEnv is a seam for tests.
var lookupEnv = os.LookupEnv

// parseEnv loads a dotenv file (-env path, or ./.env when present) into the
// process environment without overriding variables already set, then
// overlays every ORGANLINK_* variable onto config. Malformed values panic.
func parseEnv(config *Config, args []string) {
	if path := flagx.EnvFile(args); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	str := func(name string, dst *string) {
		if v, ok := lookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookupEnv(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				panic(fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			}
			*dst = n
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookupEnv(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				panic(fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			}
			*dst = b
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := lookupEnv(EnvPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			}
			*dst = d
		}
	}

	str("HTTP_ADDR", &config.HTTPAddr)
	str("DATABASE_DSN", &config.DatabaseDSN)
	duration("SHUTDOWN_TIMEOUT", &config.ShutdownTimeout)
	str("LOG_FORMAT", &config.LogFormat)
	str("SECRET_KEY", &config.SecretKey)
	duration("ACCESS_TOKEN_VALIDITY", &config.AccessTokenValidityDuration)
	duration("REFRESH_TOKEN_VALIDITY", &config.RefreshTokenValidityDuration)
	num("BCRYPT_COST", &config.BcryptCost)
	num("HASH_CONCURRENCY", &config.HashConcurrency)
	duration("HASH_TIMEOUT", &config.HashTimeout)
	duration("PERSISTENCE_TIMEOUT", &config.PersistenceTimeout)
	boolean("AUDIT_REJECTED_REGISTRATIONS", &config.AuditRejectedRegistrations)
	str("REDIS_ADDR", &config.RedisAddr)
	str("REDIS_PASSWORD", &config.RedisPassword)
	num("REDIS_DB", &config.RedisDB)
	boolean("AUDIT_ARCHIVE_ENABLED", &config.AuditArchiveEnabled)
	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
}
