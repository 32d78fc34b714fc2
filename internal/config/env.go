package config

import (
	"os"
	"strconv"
	"time"

	"k8s.io/kube-openapi/pkg/validation/strfmt"
)

// EnvPrefix prefixes every environment variable read by pmon.
const EnvPrefix = "PMON_"

func lookupEnv(key string) (string, bool) {
	return os.LookupEnv(EnvPrefix + key)
}

func GetString(key, fallback string) string {
	if value, ok := lookupEnv(key); ok {
		return value
	}
	return fallback
}

func GetInt(key string, fallback int) int {
	if value, ok := lookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func GetBool(key string, fallback bool) bool {
	if value, ok := lookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// GetDuration accepts plain seconds ("3600") as well as duration strings
// ("30d", "1h").
func GetDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := lookupEnv(key); ok {
		if d, err := ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// ParseDuration accepts plain seconds or a duration string such as "30d".
func ParseDuration(s string) (time.Duration, error) {
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return strfmt.ParseDuration(s)
}
