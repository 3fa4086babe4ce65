package configuration_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jrsteele09/go-oidc-grants/configuration"
	"github.com/stretchr/testify/require"
)

func TestGetLifetime(t *testing.T) {
	tests := []struct {
		unit  configuration.ConfigurableTimespanType
		value int
		want  time.Duration
	}{
		{configuration.TimespanDays, 2, 48 * time.Hour},
		{configuration.TimespanHours, 7, 25200 * time.Second},
		{configuration.TimespanMinutes, 15, 15 * time.Minute},
		{configuration.TimespanMins, 1, time.Minute},
		{configuration.TimespanSeconds, 90, 90 * time.Second},
		{configuration.TimespanSecs, 1, time.Second},
		{"Hours", 1, time.Hour},
	}

	for _, tt := range tests {
		t.Run(string(tt.unit), func(t *testing.T) {
			span := configuration.ConfigurableTimespan{Value: tt.value, Type: tt.unit}
			got, err := span.GetLifetime("")
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestGetLifetimeRejectsInvalidTimespans(t *testing.T) {
	tests := []struct {
		name string
		span configuration.ConfigurableTimespan
	}{
		{"zero value", configuration.ConfigurableTimespan{Value: 0, Type: configuration.TimespanHours}},
		{"negative value", configuration.ConfigurableTimespan{Value: -3, Type: configuration.TimespanDays}},
		{"no unit", configuration.ConfigurableTimespan{Value: 5}},
		{"unknown unit", configuration.ConfigurableTimespan{Value: 5, Type: "fortnights"}},
		{"overflowing days", configuration.ConfigurableTimespan{Value: 200000, Type: configuration.TimespanDays}},
		{"overflowing seconds", configuration.ConfigurableTimespan{Value: math.MaxInt, Type: configuration.TimespanSeconds}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.span.GetLifetime("AccessTokenLifetime")
			require.Error(t, err)
			require.Zero(t, got)

			var cfgErr *configuration.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			require.Equal(t, "AccessTokenLifetime", cfgErr.Field)
		})
	}
}
