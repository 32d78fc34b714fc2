package config

import (
	"time"

	"emperror.dev/errors"
)

// Duration decodes from an integer number of seconds or a duration string.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Seconds returns the duration in whole seconds.
func (d Duration) Seconds() int64 {
	return int64(time.Duration(d) / time.Second)
}

func (d *Duration) UnmarshalTOML(v interface{}) error {
	switch value := v.(type) {
	case int64:
		*d = Duration(time.Duration(value) * time.Second)
	case float64:
		*d = Duration(time.Duration(value * float64(time.Second)))
	case string:
		parsed, err := ParseDuration(value)
		if err != nil {
			return errors.Wrapf(err, "invalid duration %q", value)
		}
		*d = Duration(parsed)
	default:
		return errors.Errorf("invalid duration type %T", v)
	}
	return nil
}
