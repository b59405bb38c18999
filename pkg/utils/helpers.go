package utils

import (
	"time"

	"github.com/google/uuid"
)

// GenerateRequestID returns a fresh ID for correlating a request's log lines
func GenerateRequestID() string {
	return uuid.New().String()
}

// FormatUptime renders d at millisecond precision below one second and at
// second precision above it, e.g. "250ms" or "1h2m3s"
func FormatUptime(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

// StringValue dereferences an optional string, returning "" for nil
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
