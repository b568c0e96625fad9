package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateCronSchedule(t *testing.T) {
	valid := []string{
		"*/10 * * * *",
		"30 5 * * *",
		"0 */6 * * *",
		"30 9 * * 1-5",
		"0 0 1 * *",
		"15,45 * * * *",
	}
	for _, schedule := range valid {
		t.Run("valid/"+schedule, func(t *testing.T) {
			assert.NoError(t, ValidateCronSchedule(schedule))
		})
	}

	invalid := []string{
		"",
		"not a schedule",
		"60 * * * *",
		"* 24 * * *",
		"* * * * * *",
	}
	for _, schedule := range invalid {
		t.Run("invalid/"+schedule, func(t *testing.T) {
			assert.Error(t, ValidateCronSchedule(schedule))
		})
	}
}

func TestValidateCronSchedule_ErrorNamesValue(t *testing.T) {
	err := ValidateCronSchedule("61 * * * *")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "61 * * * *")
}

func TestValidateTimezone(t *testing.T) {
	valid := []string{"UTC", "America/New_York", "Europe/London", "Asia/Tokyo", "Local"}
	for _, tz := range valid {
		t.Run("valid/"+tz, func(t *testing.T) {
			assert.NoError(t, ValidateTimezone(tz))
		})
	}

	invalid := []string{"", "Mars/Olympus", "+09:00"}
	for _, tz := range invalid {
		t.Run("invalid/"+tz, func(t *testing.T) {
			assert.Error(t, ValidateTimezone(tz))
		})
	}
}

func TestValidateDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		min      time.Duration
		max      time.Duration
		wantErr  bool
	}{
		{name: "within range", duration: 30 * time.Minute, min: time.Minute, max: time.Hour},
		{name: "at minimum", duration: time.Minute, min: time.Minute, max: time.Hour},
		{name: "at maximum", duration: time.Hour, min: time.Minute, max: time.Hour},
		{name: "below minimum", duration: 30 * time.Second, min: time.Minute, max: time.Hour, wantErr: true},
		{name: "above maximum", duration: 2 * time.Hour, min: time.Minute, max: time.Hour, wantErr: true},
		{name: "inverted range", duration: 30 * time.Minute, min: time.Hour, max: time.Minute, wantErr: true},
		{name: "negative below min", duration: -time.Second, min: 0, max: time.Hour, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDuration(tt.duration, tt.min, tt.max)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateIntRange(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		min     int
		max     int
		wantErr bool
	}{
		{name: "within range", value: 9091, min: 1024, max: 65535},
		{name: "at minimum", value: 1024, min: 1024, max: 65535},
		{name: "at maximum", value: 65535, min: 1024, max: 65535},
		{name: "below minimum", value: 80, min: 1024, max: 65535, wantErr: true},
		{name: "above maximum", value: 70000, min: 1024, max: 65535, wantErr: true},
		{name: "inverted range", value: 5, min: 10, max: 1, wantErr: true},
		{name: "zero in zero-based range", value: 0, min: 0, max: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIntRange(tt.value, tt.min, tt.max)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePositiveDuration(t *testing.T) {
	assert.NoError(t, ValidatePositiveDuration(time.Nanosecond))
	assert.NoError(t, ValidatePositiveDuration(5*time.Minute))
	assert.NoError(t, ValidatePositiveDuration(7*24*time.Hour))

	assert.Error(t, ValidatePositiveDuration(0))
	assert.Error(t, ValidatePositiveDuration(-time.Second))
}

func TestValidatePositiveDuration_ErrorNamesValue(t *testing.T) {
	err := ValidatePositiveDuration(-30 * time.Second)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "-30s")
}
