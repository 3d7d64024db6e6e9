package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/wishlist/internal/flagx"
	"github.com/dmitrijs2005/wishlist/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted. Fields
// missing from the file keep their current value.
type JsonConfig struct {
	EndpointAddrHTTP              *string         `json:"endpoint_addr_http"`
	DatabaseDSN                   *string         `json:"database_dsn"`
	StorageMode                   *string         `json:"storage"`
	LogLevel                      *string         `json:"log_level"`
	AccessTokenSecret             *string         `json:"access_token_secret"`
	RefreshTokenSecret            *string         `json:"refresh_token_secret"`
	AccessTokenValidityDuration   *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration  *timex.Duration `json:"refresh_token_validity_duration"`
	PasswordResetValidityDuration *timex.Duration `json:"password_reset_validity_duration"`
	BcryptCost                    *int            `json:"bcrypt_cost"`
	PurgeInterval                 *timex.Duration `json:"purge_interval"`
	RateLimitPerMinute            *int            `json:"rate_limit_per_minute"`
	PasswordResetURL              *string         `json:"password_reset_url"`
	SMTPHost                      *string         `json:"smtp_host"`
	SMTPPort                      *int            `json:"smtp_port"`
	SMTPUsername                  *string         `json:"smtp_username"`
	SMTPPassword                  *string         `json:"smtp_password"`
	SMTPFrom                      *string         `json:"smtp_from"`
	S3RootUser                    *string         `json:"s3_root_user"`
	S3RootPassword                *string         `json:"s3_root_password"`
	S3Bucket                      *string         `json:"s3_bucket"`
	S3Region                      *string         `json:"s3_region"`
	S3BaseEndpoint                *string         `json:"s3_base_endpoint"`
}

// parseJson loads the file named by -c/-config (if any) into config.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
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

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.StorageMode, c.StorageMode)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.AccessTokenSecret, c.AccessTokenSecret)
	setString(&config.RefreshTokenSecret, c.RefreshTokenSecret)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setDuration(&config.PasswordResetValidityDuration, c.PasswordResetValidityDuration)
	setInt(&config.BcryptCost, c.BcryptCost)
	setDuration(&config.PurgeInterval, c.PurgeInterval)
	setInt(&config.RateLimitPerMinute, c.RateLimitPerMinute)
	setString(&config.PasswordResetURL, c.PasswordResetURL)
	setString(&config.SMTPHost, c.SMTPHost)
	setInt(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUsername, c.SMTPUsername)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SMTPFrom, c.SMTPFrom)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
