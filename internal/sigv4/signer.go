package sigv4

import "sync"

// Signer caches the derived signing key for the current date stamp so
// that repeated calls within the same UTC day skip the four-step HMAC
// chain. A Signer is safe for concurrent use.
type Signer struct {
	creds   Credentials
	region  string
	service string

	mu         sync.Mutex
	dateStamp  string
	signingKey []byte
}

// NewSigner constructs a Signer bound to one set of credentials, region,
// and service for its lifetime.
func NewSigner(creds Credentials, region, service string) *Signer {
	return &Signer{creds: creds, region: region, service: service}
}

// Sign signs req for the given instant, reusing the cached signing key
// when its date stamp still matches and deriving a fresh one (zeroizing
// the stale one first) otherwise.
func (s *Signer) Sign(req Request, when SigningInstant, opts ...Option) *Error {
	if err := validateSignArgs(req, s.creds, s.region, s.service, when); err != nil {
		return err
	}
	key, err := s.keyFor(when)
	if err != nil {
		return err
	}
	return signWithKey(req, s.creds, s.region, s.service, when, key, opts...)
}

func (s *Signer) keyFor(when SigningInstant) ([]byte, *Error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := when.DateStamp()
	if s.signingKey != nil && s.dateStamp == stamp {
		return append([]byte(nil), s.signingKey...), nil
	}

	key, err := deriveSigningKey(s.creds.SecretKey, stamp, s.region, s.service)
	if err != nil {
		return nil, err
	}

	if s.signingKey != nil {
		zeroize(s.signingKey)
	}
	s.signingKey = key
	s.dateStamp = stamp
	return append([]byte(nil), key...), nil
}

// Close zeroizes any cached signing key. Callers that hold a Signer past
// the lifetime of its credentials should call this explicitly.
func (s *Signer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signingKey != nil {
		zeroize(s.signingKey)
		s.signingKey = nil
	}
}
