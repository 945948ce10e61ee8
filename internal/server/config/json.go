package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/organlink/internal/flagx"
	"github.com/dmitrijs2005/organlink/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted.
type JsonConfig struct {
	HTTPAddr        string         `json:"http_addr"`
	DatabaseDSN     string         `json:"database_dsn"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
	LogFormat       string         `json:"log_format"`

	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`

	BcryptCost                 int            `json:"bcrypt_cost"`
	HashConcurrency            int            `json:"hash_concurrency"`
	HashTimeout                timex.Duration `json:"hash_timeout"`
	PersistenceTimeout         timex.Duration `json:"persistence_timeout"`
	AuditRejectedRegistrations bool           `json:"audit_rejected_registrations"`

	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`

	AuditArchiveEnabled bool   `json:"audit_archive_enabled"`
	S3RootUser          string `json:"s3_root_user"`
	S3RootPassword      string `json:"s3_root_password"`
	S3Bucket            string `json:"s3_bucket"`
	S3Region            string `json:"s3_region"`
	S3BaseEndpoint      string `json:"s3_base_endpoint"`
}

// parseJson overlays the file named by -c/-config onto config. Keys absent
// from the file keep their current values. An unreadable or malformed file
// panics: the server must not start on a half-read configuration.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigFile(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}
	fromJson(config, c)
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		HTTPAddr:                     c.HTTPAddr,
		DatabaseDSN:                  c.DatabaseDSN,
		ShutdownTimeout:              timex.Duration{Duration: c.ShutdownTimeout},
		LogFormat:                    c.LogFormat,
		SecretKey:                    c.SecretKey,
		AccessTokenValidityDuration:  timex.Duration{Duration: c.AccessTokenValidityDuration},
		RefreshTokenValidityDuration: timex.Duration{Duration: c.RefreshTokenValidityDuration},
		BcryptCost:                   c.BcryptCost,
		HashConcurrency:              c.HashConcurrency,
		HashTimeout:                  timex.Duration{Duration: c.HashTimeout},
		PersistenceTimeout:           timex.Duration{Duration: c.PersistenceTimeout},
		AuditRejectedRegistrations:   c.AuditRejectedRegistrations,
		RedisAddr:                    c.RedisAddr,
		RedisPassword:                c.RedisPassword,
		RedisDB:                      c.RedisDB,
		AuditArchiveEnabled:          c.AuditArchiveEnabled,
		S3RootUser:                   c.S3RootUser,
		S3RootPassword:               c.S3RootPassword,
		S3Bucket:                     c.S3Bucket,
		S3Region:                     c.S3Region,
		S3BaseEndpoint:               c.S3BaseEndpoint,
	}
}

func fromJson(c *Config, j *JsonConfig) {
	c.HTTPAddr = j.HTTPAddr
	c.DatabaseDSN = j.DatabaseDSN
	c.ShutdownTimeout = j.ShutdownTimeout.Duration
	c.LogFormat = j.LogFormat
	c.SecretKey = j.SecretKey
	c.AccessTokenValidityDuration = j.AccessTokenValidityDuration.Duration
	c.RefreshTokenValidityDuration = j.RefreshTokenValidityDuration.Duration
	c.BcryptCost = j.BcryptCost
	c.HashConcurrency = j.HashConcurrency
	c.HashTimeout = j.HashTimeout.Duration
	c.PersistenceTimeout = j.PersistenceTimeout.Duration
	c.AuditRejectedRegistrations = j.AuditRejectedRegistrations
	c.RedisAddr = j.RedisAddr
	c.RedisPassword = j.RedisPassword
	c.RedisDB = j.RedisDB
	c.AuditArchiveEnabled = j.AuditArchiveEnabled
	c.S3RootUser = j.S3RootUser
	c.S3RootPassword = j.S3RootPassword
	c.S3Bucket = j.S3Bucket
	c.S3Region = j.S3Region
	c.S3BaseEndpoint = j.S3BaseEndpoint
}
