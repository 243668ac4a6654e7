// Package freshness decides whether a stored horoscope artifact is
// still usable or must be regenerated.
package freshness

import (
	"net/url"
	"strconv"
	"time"

	"github.com/pulsedeck/pulsedeck/server/internal/model"
)

// DefaultBuffer is how far ahead of actual signed-URL expiry an
// artifact is declared stale, so consumers never hit a dead link.
const DefaultBuffer = time.Hour

// Policy evaluates artifact usability.
type Policy struct {
	Buffer time.Duration
}

func NewPolicy(buffer time.Duration) Policy {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return Policy{Buffer: buffer}
}

// Usable reports whether the artifact can be served as-is. Rows
// without prompt slots predate the slot system and must regenerate.
func (p Policy) Usable(a *model.Artifact, now time.Time) bool {
	if a == nil || a.ImageURL == "" || a.PromptSlots == nil {
		return false
	}
	exp, ok := URLExpiry(a.ImageURL)
	if !ok {
		return true // unsigned URL, assume non-expiring
	}
	return now.Add(p.Buffer).Before(exp)
}

// URLExpiry extracts a signed-expiry timestamp from a URL's query
// string. Recognized forms:
//   - exp / expires / Expires: unix seconds (Supabase tokens, S3 v2,
//     CloudFront)
//   - X-Amz-Date + X-Amz-Expires: AWS SigV4 presigned URLs
//   - se: RFC3339, Azure SAS
//
// Returns ok=false when no expiry parameter is present.
func URLExpiry(raw string) (time.Time, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return time.Time{}, false
	}
	q := u.Query()

	for _, key := range []string{"exp", "expires", "Expires"} {
		if v := q.Get(key); v != "" {
			if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
				return time.Unix(sec, 0), true
			}
		}
	}

	if date, expires := q.Get("X-Amz-Date"), q.Get("X-Amz-Expires"); date != "" && expires != "" {
		start, err := time.Parse("20060102T150405Z", date)
		if err == nil {
			if sec, err := strconv.ParseInt(expires, 10, 64); err == nil {
				return start.Add(time.Duration(sec) * time.Second), true
			}
		}
	}

	if v := q.Get("se"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
