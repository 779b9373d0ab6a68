// Package validation checks values that leave the process, such as URLs
// handed to the platform's browser launcher.
package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// shellMeta are the characters rejected in anything passed to a launcher
// command.
const shellMeta = ";&|`$()<>\"'\\\n\r "

// ValidateURL reports whether rawURL is safe to open in a browser: an
// absolute http or https URL with a host and no shell metacharacters.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme %q (only http and https are allowed)", parsed.Scheme)
	}
	if i := strings.IndexAny(rawURL, shellMeta); i >= 0 {
		return fmt.Errorf("URL contains forbidden character %q", rawURL[i])
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
