// Package sigv4 implements the AWS Signature Version 4 canonicalization
// and signing core: it turns a Request plus a set of credentials into the
// Authorization, X-Amz-Date, and X-Amz-Security-Token headers an
// AWS-style service endpoint expects.
//
// It does not implement the HTTP message model, a credentials store, or
// any particular service client. Callers adapt their own request type to
// the Request interface (see HTTPRequestAdapter for the net/http case).
package sigv4

import "io"

// Header is a single (name, value) pair as it appeared on the wire,
// with insertion order preserved. Names are not yet lower-cased.
type Header struct {
	Name  string
	Value string
}

// Stream is the body contract the signing core consumes. It mirrors the
// minimal surface a tee branch and a cursor-backed body both satisfy.
type Stream interface {
	io.Reader
	io.Seeker
	// Status reports whether the stream can seek, whether its total
	// length is known up front, and whether it is currently at EOF.
	Status() (seekable bool, knownLength bool, atEOF bool)
	// Length returns the stream's total length and whether it is known.
	Length() (n int64, ok bool)
}

// Request is the external, mutable HTTP message model the signing core
// reads from and appends headers to. It never reorders or rewrites
// headers present at entry.
type Request interface {
	// Method returns the upper-case HTTP method token, verbatim.
	Method() string
	// Target returns the request-target: the path, optionally followed
	// by "?" and the raw query string.
	Target() string
	// HeadersInOrder returns every header on the request, in the order
	// they were added, with repeats preserved.
	HeadersInOrder() []Header
	// AddHeader appends a new header. It does not deduplicate against
	// headers already present.
	AddHeader(name, value string)
	// Body returns the request body stream, or nil if the request has
	// no body.
	Body() Stream
	// SetBody replaces the request body stream, used by the payload
	// hasher to install a tee in place of a single-pass source.
	SetBody(Stream)
}

// Credentials carries the three values an AWS-style signature needs.
// SignRequest never retains these past the call (a Signer holds the
// Credentials it was built with for its lifetime), and the secret key
// never appears in any output byte.
type Credentials struct {
	AccessKeyID  string
	SecretKey    []byte
	SessionToken []byte // optional; nil or empty means absent
}

// HasSessionToken reports whether a non-empty session token is present.
func (c Credentials) HasSessionToken() bool {
	return len(c.SessionToken) > 0
}
