package util

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidateURL validates a URL string.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme == "" {
		return fmt.Errorf("URL must have a scheme (http or https)")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got: %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}

// ValidatePort validates a port number.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got: %d", port)
	}
	return nil
}

// ValidatePositiveDuration validates that a duration is positive.
func ValidatePositiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got: %s", d)
	}
	return nil
}

// ValidateRatio validates a value in the closed range [0, 1].
func ValidateRatio(value float64) error {
	if value < 0 || value > 1 {
		return fmt.Errorf("ratio must be between 0 and 1, got: %v", value)
	}
	return nil
}

// ValidateNonEmpty validates that a string is not empty.
func ValidateNonEmpty(value, name string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	return nil
}

// ValidateOneOf validates that value is one of the allowed values.
func ValidateOneOf(value, name string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of [%s], got: %q", name, strings.Join(allowed, ", "), value)
}
