package configuration

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ConfigurableTimespanType is the unit of a ConfigurableTimespan.
type ConfigurableTimespanType string

const (
	TimespanNone    ConfigurableTimespanType = ""
	TimespanDays    ConfigurableTimespanType = "days"
	TimespanHours   ConfigurableTimespanType = "hours"
	TimespanMinutes ConfigurableTimespanType = "minutes"
	TimespanMins    ConfigurableTimespanType = "mins"
	TimespanSeconds ConfigurableTimespanType = "seconds"
	TimespanSecs    ConfigurableTimespanType = "secs"
)

// ConfigurableTimespan is a (value, unit) pair read from configuration.
//
//	accessTokenLifetime:
//	  value: 7
//	  type: hours
type ConfigurableTimespan struct {
	Value int                      `yaml:"value"`
	Type  ConfigurableTimespanType `yaml:"type"`
}

// GetLifetime converts the timespan into a duration. name identifies the setting in the
// returned ConfigurationError and may be empty.
func (c ConfigurableTimespan) GetLifetime(name string) (time.Duration, error) {
	var unit time.Duration
	switch ConfigurableTimespanType(strings.ToLower(string(c.Type))) {
	case TimespanDays:
		unit = 24 * time.Hour
	case TimespanHours:
		unit = time.Hour
	case TimespanMinutes, TimespanMins:
		unit = time.Minute
	case TimespanSeconds, TimespanSecs:
		unit = time.Second
	default:
		return 0, newTimespanError(name, fmt.Sprintf("the type %q is not recognised", c.Type))
	}

	if c.Value <= 0 {
		return 0, newTimespanError(name, "the value must be greater than zero")
	}
	if int64(c.Value) > math.MaxInt64/int64(unit) {
		return 0, newTimespanError(name, "the value is too large")
	}
	return time.Duration(c.Value) * unit, nil
}

func newTimespanError(name, reason string) *ConfigurationError {
	if name == "" {
		name = "timespan"
	}
	return &ConfigurationError{Field: name, Reason: reason}
}
