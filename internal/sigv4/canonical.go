package sigv4

import (
	"net/url"
	"sort"
	"strings"
)

// canonicalRequest holds the pieces of a built canonical request: the
// full newline-joined string and the signed-headers list, which the
// Authorization header reuses.
type canonicalRequest struct {
	String        string
	SignedHeaders string
}

// headerNameConvention controls how repeated header names are folded
// into the canonical headers block.
type headerNameConvention int

const (
	// conventionCommaJoin is the default: all values for a repeated
	// header name are comma-joined into a single canonical entry.
	conventionCommaJoin headerNameConvention = iota
	// conventionSeparateEntries reproduces behavior some signers emit
	// instead: each repeated header value as its own sorted entry.
	// Selected via WithLegacySeparateHeaders.
	conventionSeparateEntries
)

// buildCanonicalRequest assembles the canonical request string end to end:
// method, canonical path, canonical query, canonical headers, signed
// headers list, payload hash.
func buildCanonicalRequest(req Request, payloadHashHex string, conv headerNameConvention) (*canonicalRequest, *Error) {
	method := req.Method()
	if method == "" {
		return nil, newErr(ErrInvalidArgument, "request method is required")
	}

	target := req.Target()
	path, query := splitTarget(target)

	canonPath, err := canonicalizePath(path)
	if err != nil {
		return nil, err
	}

	canonQuery, err := canonicalizeQuery(query)
	if err != nil {
		return nil, err
	}

	headers := req.HeadersInOrder()
	canonHeaders, signedHeaders, err := canonicalizeHeaders(headers, conv)
	if err != nil {
		return nil, err
	}

	s := strings.Join([]string{
		method,
		canonPath,
		canonQuery,
		canonHeaders,
		signedHeaders,
		payloadHashHex,
	}, "\n")

	return &canonicalRequest{String: s, SignedHeaders: signedHeaders}, nil
}

// splitTarget separates a request-target into path and raw query; Target
// reports the combined form, "path, optionally followed by ?query".
func splitTarget(target string) (path, query string) {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		return target[:i], target[i+1:]
	}
	return target, ""
}

// canonicalizePath normalizes a request path per the SigV4 rules for
// non-S3 services: drop empty segments and ".", pop on "..", re-encode
// every retained segment's literal bytes exactly once.
func canonicalizePath(path string) (string, *Error) {
	if path == "" {
		return "/", nil
	}

	var kept []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "":
			continue
		case ".":
			continue
		case "..":
			if len(kept) > 0 {
				kept = kept[:len(kept)-1]
			}
		default:
			kept = append(kept, rfc3986Encode(seg))
		}
	}

	return "/" + strings.Join(kept, "/"), nil
}

// canonicalizeQuery builds the canonical query string: percent-encode
// key and value, missing "=" becomes "key=", sort pairs by encoded key
// then encoded value, join with "&".
func canonicalizeQuery(rawQuery string) (string, *Error) {
	if rawQuery == "" {
		return "", nil
	}

	type pair struct{ k, v string }
	var pairs []pair

	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		var k, v string
		if i := strings.IndexByte(part, '='); i >= 0 {
			k, v = part[:i], part[i+1:]
		} else {
			k = part
		}
		dk, err := decodeIfEscaped(k)
		if err != nil {
			dk = k
		}
		dv, err := decodeIfEscaped(v)
		if err != nil {
			dv = v
		}
		pairs = append(pairs, pair{k: rfc3986Encode(dk), v: rfc3986Encode(dv)})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k != pairs[j].k {
			return pairs[i].k < pairs[j].k
		}
		return pairs[i].v < pairs[j].v
	})

	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.k+"="+p.v)
	}
	return strings.Join(parts, "&"), nil
}

// decodeIfEscaped best-effort percent-decodes a query component so that
// callers who hand the signer an already-escaped raw query string still
// get literal-byte re-encoding rather than double escaping. Invalid
// escapes are left alone and treated as literal text.
func decodeIfEscaped(s string) (string, error) {
	if !strings.ContainsRune(s, '%') && !strings.ContainsRune(s, '+') {
		return s, nil
	}
	return url.QueryUnescape(s)
}

// canonicalizeHeaders builds the canonical headers block and
// signed-headers list: fold each header's value, sort stably by
// lower-cased name, then either comma-join (default) or emit separate
// sorted entries (legacy) per headerNameConvention.
func canonicalizeHeaders(headers []Header, conv headerNameConvention) (canonical, signed string, err *Error) {
	type entry struct {
		name  string
		value string
		order int
	}

	var entries []entry
	byName := map[string][]string{}
	var order []string
	seen := map[string]bool{}

	for i, h := range headers {
		if encErr := validateHeaderValue(h.Value); encErr != nil {
			return "", "", encErr
		}
		lname := strings.ToLower(h.Name)
		folded := foldHeaderValue(h.Value)
		entries = append(entries, entry{name: lname, value: folded, order: i})
		byName[lname] = append(byName[lname], folded)
		if !seen[lname] {
			seen[lname] = true
			order = append(order, lname)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].name < entries[j].name
	})
	sort.Strings(order)

	var b strings.Builder

	switch conv {
	case conventionSeparateEntries:
		for _, e := range entries {
			b.WriteString(e.name)
			b.WriteByte(':')
			b.WriteString(e.value)
			b.WriteByte('\n')
		}
	default: // conventionCommaJoin
		for _, name := range order {
			b.WriteString(name)
			b.WriteByte(':')
			b.WriteString(strings.Join(byName[name], ","))
			b.WriteByte('\n')
		}
	}

	return b.String(), strings.Join(order, ";"), nil
}

// foldHeaderValue trims leading/trailing horizontal whitespace and
// collapses every internal run of whitespace to a single space.
func foldHeaderValue(v string) string {
	v = strings.TrimFunc(v, isHorizontalSpace)
	var b strings.Builder
	inSpace := false
	for _, r := range v {
		if isHorizontalSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

func isHorizontalSpace(r rune) bool {
	return r == ' ' || r == '\t'
}

// validateHeaderValue rejects header values containing a byte outside
// the SigV4-valid range (0x09, 0x20-0x7E), returning ErrEncodingError.
func validateHeaderValue(v string) *Error {
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == 0x09 || (c >= 0x20 && c <= 0x7E) {
			continue
		}
		return newErr(ErrEncodingError, "header value contains a byte outside the SigV4-valid range")
	}
	return nil
}

const unreservedSet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_.~"

// rfc3986Encode percent-encodes every byte outside the RFC 3986
// unreserved set, uppercase hex, treating the input as literal bytes
// rather than pre-encoded text (so an already-%XX-encoded input segment
// is re-encoded exactly once: the leading "%" is itself escaped). A
// literal space always becomes %20, never "+".
func rfc3986Encode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if strings.IndexByte(unreservedSet, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigitUpper(c >> 4))
		b.WriteByte(hexDigitUpper(c & 0x0F))
	}
	return b.String()
}

func hexDigitUpper(n byte) byte {
	const digits = "0123456789ABCDEF"
	return digits[n]
}
