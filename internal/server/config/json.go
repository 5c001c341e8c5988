package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/recipehub/internal/flagx"
	"github.com/dmitrijs2005/recipehub/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Only keys present in
// the file override the current values; durations accept "1h" strings or
// integer nanoseconds.
type JsonConfig struct {
	HTTPAddr          *string         `json:"http_addr"`
	DatabaseDSN       *string         `json:"database_dsn"`
	SecretKey         *string         `json:"secret_key"`
	HashCost          *int            `json:"hash_cost"`
	SessionTokenTTL   *timex.Duration `json:"session_token_ttl"`
	ResetTokenTTL     *timex.Duration `json:"reset_token_ttl"`
	ResetPasswordURL  *string         `json:"reset_password_url"`
	SMTPHost          *string         `json:"smtp_host"`
	SMTPPort          *int            `json:"smtp_port"`
	SMTPUsername      *string         `json:"smtp_username"`
	SMTPPassword      *string         `json:"smtp_password"`
	MailFrom          *string         `json:"mail_from"`
	MailQueueSize     *int            `json:"mail_queue_size"`
	BlobBackend       *string         `json:"blob_backend"`
	UploadDir         *string         `json:"upload_dir"`
	S3AccessKey       *string         `json:"s3_access_key"`
	S3SecretKey       *string         `json:"s3_secret_key"`
	S3Bucket          *string         `json:"s3_bucket"`
	S3Region          *string         `json:"s3_region"`
	S3BaseEndpoint    *string         `json:"s3_base_endpoint"`
	CORSAllowedOrigin *string         `json:"cors_allowed_origin"`
	CookieSecure      *bool           `json:"cookie_secure"`
	LogLevel          *string         `json:"log_level"`
}

// parseJson overlays the file named by -c/-config onto config. Without the
// flag nothing is read.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setInt(&config.HashCost, c.HashCost)
	if c.SessionTokenTTL != nil {
		config.SessionTokenTTL = c.SessionTokenTTL.Duration
	}
	if c.ResetTokenTTL != nil {
		config.ResetTokenTTL = c.ResetTokenTTL.Duration
	}
	setString(&config.ResetPasswordURL, c.ResetPasswordURL)
	setString(&config.SMTPHost, c.SMTPHost)
	setInt(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUsername, c.SMTPUsername)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.MailFrom, c.MailFrom)
	setInt(&config.MailQueueSize, c.MailQueueSize)
	setString(&config.BlobBackend, c.BlobBackend)
	setString(&config.UploadDir, c.UploadDir)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.CORSAllowedOrigin, c.CORSAllowedOrigin)
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
	setString(&config.LogLevel, c.LogLevel)

	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
