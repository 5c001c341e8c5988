package config

import (
	"fmt"
	"strconv"
	"time"
)

// parseEnv overlays environment variables. Unset variables leave the
// current value alone; malformed numbers are reported, not defaulted.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("HTTP_ADDR", &config.HTTPAddr)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)
	str("RESET_PASSWORD_URL", &config.ResetPasswordURL)
	str("SMTP_HOST", &config.SMTPHost)
	str("SMTP_USERNAME", &config.SMTPUsername)
	str("SMTP_PASSWORD", &config.SMTPPassword)
	str("MAIL_FROM", &config.MailFrom)
	str("BLOB_BACKEND", &config.BlobBackend)
	str("UPLOAD_DIR", &config.UploadDir)
	str("S3_ACCESS_KEY", &config.S3AccessKey)
	str("S3_SECRET_KEY", &config.S3SecretKey)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	str("CORS_ALLOWED_ORIGIN", &config.CORSAllowedOrigin)
	str("LOG_LEVEL", &config.LogLevel)

	for key, dst := range map[string]*int{
		"HASH_COST":       &config.HashCost,
		"SMTP_PORT":       &config.SMTPPort,
		"MAIL_QUEUE_SIZE": &config.MailQueueSize,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	if err := dur("SESSION_TOKEN_TTL", &config.SessionTokenTTL); err != nil {
		return err
	}
	if err := dur("RESET_TOKEN_TTL", &config.ResetTokenTTL); err != nil {
		return err
	}

	if v, ok := lookup("COOKIE_SECURE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		config.CookieSecure = b
	}

	return nil
}
