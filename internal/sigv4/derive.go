package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
)

// deriveSigningKey implements the four-step HMAC-SHA256 key derivation
// chain: kDate -> kRegion -> kService -> kSigning. Every intermediate key
// is zeroized before return, on every path, success or failure. The
// caller's secretKey is never modified, since Signer reuses it across
// multiple derivations; the returned signing key is the caller's to
// zeroize once it's done with it.
func deriveSigningKey(secretKey []byte, dateStamp, region, service string) ([]byte, *Error) {
	if len(secretKey) == 0 {
		return nil, newErr(ErrInvalidArgument, "secret key is required")
	}
	if dateStamp == "" || region == "" || service == "" {
		return nil, newErr(ErrInvalidArgument, "date stamp, region, and service are all required to derive a signing key")
	}

	seed := make([]byte, 0, len("AWS4")+len(secretKey))
	seed = append(seed, 'A', 'W', 'S', '4')
	seed = append(seed, secretKey...)
	defer zeroize(seed)

	kDate, err := hmacSHA256(seed, []byte(dateStamp))
	if err != nil {
		return nil, err
	}
	defer zeroize(kDate)

	kRegion, err := hmacSHA256(kDate, []byte(region))
	if err != nil {
		return nil, err
	}
	defer zeroize(kRegion)

	kService, err := hmacSHA256(kRegion, []byte(service))
	if err != nil {
		return nil, err
	}
	defer zeroize(kService)

	kSigning, err := hmacSHA256(kService, []byte("aws4_request"))
	if err != nil {
		return nil, err
	}

	return kSigning, nil
}

// hmacSHA256 computes HMAC-SHA256(key, data). The crypto/hmac primitive
// never fails in practice, but the result is surfaced through the same
// Error path as everything else rather than assumed infallible.
func hmacSHA256(key, data []byte) ([]byte, *Error) {
	mac := hmac.New(sha256.New, key)
	if _, err := mac.Write(data); err != nil {
		return nil, wrapErr(ErrInternalHashFailure, "hmac-sha256 write failed", err)
	}
	return mac.Sum(nil), nil
}

// zeroize overwrites every byte of b with zero. It is called on secret
// key material and every derived intermediate key before they go out of
// scope.
func zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
