// Package shared holds small formatting helpers shared by adapters
// that shell out to external processes or HTTP, kept separate from
// errbuilder-go's structured codes because they only ever feed into a
// WithCause(...), never into a code decision of their own.
package shared

import (
	"fmt"
	"strings"
)

// HTTPStatusError formats a non-2xx HTTP response as a plain error for
// wrapping under an errbuilder CodeUnavailable/CodeNotFound.
func HTTPStatusError(status int, url string) error {
	return fmt.Errorf("status=%d url=%s", status, url)
}

// CommandError wraps a failed external command's trimmed combined
// output together with its exec error, for maintainer-script and
// intercept-entry diagnostics.
func CommandError(output []byte, err error) error {
	trimmed := strings.TrimSpace(string(output))
	if trimmed == "" {
		return err
	}
	return fmt.Errorf("%s: %w", trimmed, err)
}
