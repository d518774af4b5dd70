package sigv4

import "time"

const (
	amzDateFormat   = "20060102T150405Z"
	shortDateFormat = "20060102"
)

// SigningInstant is a UTC moment at second precision. Fractional seconds
// are discarded so that AmzDate/DateStamp are stable, textual, and
// caller-supplied rather than read from the system clock.
type SigningInstant struct {
	t time.Time
}

// NewSigningInstant truncates t to UTC, second precision.
func NewSigningInstant(t time.Time) SigningInstant {
	return SigningInstant{t: t.UTC().Truncate(time.Second)}
}

// IsZero reports whether the instant was never set.
func (s SigningInstant) IsZero() bool {
	return s.t.IsZero()
}

// AmzDate renders the full-width form used in the X-Amz-Date header and
// the string-to-sign: YYYYMMDDTHHMMSSZ.
func (s SigningInstant) AmzDate() string {
	return s.t.Format(amzDateFormat)
}

// DateStamp renders the short form used in the credential scope:
// YYYYMMDD.
func (s SigningInstant) DateStamp() string {
	return s.t.Format(shortDateFormat)
}

// CredentialScope builds the four-slash scope string DateStamp/Region/
// Service/aws4_request. Region and Service are opaque, non-empty byte
// cursors as far as this package is concerned.
func (s SigningInstant) CredentialScope(region, service string) string {
	return s.DateStamp() + "/" + region + "/" + service + "/aws4_request"
}
