package lock

import (
	"strconv"
	"strings"
	"time"
)

const (
	DefaultTimeout = 120 * time.Second
	MaxTimeout     = time.Hour
)

// ParseTimeout interprets a Timeout request header. Clients may send a
// comma-separated preference list; the first value the server can honor
// wins. "Infinite" and out-of-range requests are capped at MaxTimeout,
// a missing or malformed header falls back to DefaultTimeout.
func ParseTimeout(header string) time.Duration {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.EqualFold(part, "Infinite") {
			return MaxTimeout
		}
		if n, ok := strings.CutPrefix(part, "Second-"); ok {
			secs, err := strconv.ParseInt(n, 10, 64)
			if err != nil || secs <= 0 {
				continue
			}
			d := time.Duration(secs) * time.Second
			if d > MaxTimeout {
				return MaxTimeout
			}
			return d
		}
	}
	return DefaultTimeout
}

// FormatTimeout renders the granted timeout for lockdiscovery and the
// LOCK response header.
func FormatTimeout(d time.Duration) string {
	return "Second-" + strconv.FormatInt(int64(d/time.Second), 10)
}
