package sigv4

import (
	"encoding/hex"
)

const (
	amzDateHeader          = "X-Amz-Date"
	amzSecurityTokenHeader = "X-Amz-Security-Token"
	authorizationHeader    = "Authorization"
)

// signOptions holds the resolved effect of every Option passed to
// SignRequest.
type signOptions struct {
	conv     headerNameConvention
	observer Observer
}

// Option configures a single SignRequest call.
type Option func(*signOptions)

// WithLegacySeparateHeaders selects the non-default header canonicalization
// where repeated header values each get their own sorted canonical-header
// entry instead of being comma-joined.
func WithLegacySeparateHeaders() Option {
	return func(o *signOptions) { o.conv = conventionSeparateEntries }
}

// WithObserver attaches an Observer to receive canonicalization-milestone
// events for this call.
func WithObserver(obs Observer) Option {
	return func(o *signOptions) { o.observer = obs }
}

// SignRequest canonicalizes req, resolves the payload hash (tee-wrapping
// the body if needed), builds the string to sign, derives the day-scoped
// signing key, computes the signature, and appends Authorization,
// X-Amz-Date, and (if present) X-Amz-Security-Token headers to req.
//
// req, its credentials, region, and service are all required; when must
// be non-zero. SignRequest never mutates headers already present on req.
func SignRequest(req Request, creds Credentials, region, service string, when SigningInstant, opts ...Option) *Error {
	if err := validateSignArgs(req, creds, region, service, when); err != nil {
		return err
	}

	signingKey, err := deriveSigningKey(creds.SecretKey, when.DateStamp(), region, service)
	if err != nil {
		return err
	}
	defer zeroize(signingKey)

	return signWithKey(req, creds, region, service, when, signingKey, opts...)
}

// validateSignArgs checks the arguments every signing entry point shares.
func validateSignArgs(req Request, creds Credentials, region, service string, when SigningInstant) *Error {
	if req == nil {
		return newErr(ErrInvalidArgument, "request is required")
	}
	if creds.AccessKeyID == "" {
		return newErr(ErrInvalidArgument, "access key id is required")
	}
	if len(creds.SecretKey) == 0 {
		return newErr(ErrInvalidArgument, "secret key is required")
	}
	if region == "" {
		return newErr(ErrInvalidArgument, "region is required")
	}
	if service == "" {
		return newErr(ErrInvalidArgument, "service is required")
	}
	if when.IsZero() {
		return newErr(ErrInvalidArgument, "a signing instant is required")
	}
	return nil
}

// signWithKey runs the canonicalize/hash/sign pipeline against an
// already-derived signing key, letting Signer reuse a cached key without
// duplicating the rest of the pipeline.
func signWithKey(req Request, creds Credentials, region, service string, when SigningInstant, signingKey []byte, opts ...Option) *Error {
	options := signOptions{conv: conventionCommaJoin, observer: NopObserver{}}
	for _, opt := range opts {
		opt(&options)
	}
	if options.observer == nil {
		options.observer = NopObserver{}
	}

	req.AddHeader(amzDateHeader, when.AmzDate())

	payloadHashHex, err := resolvePayloadHash(req)
	if err != nil {
		return err
	}
	options.observer.OnPayloadHashResolved(payloadHashHex)

	canonReq, err := buildCanonicalRequest(req, payloadHashHex, options.conv)
	if err != nil {
		return err
	}
	options.observer.OnCanonicalRequestBuilt(canonReq.String)

	stringToSign, err := buildStringToSign(when, region, service, canonReq.String)
	if err != nil {
		return err
	}

	sigBytes, err := hmacSHA256(signingKey, []byte(stringToSign))
	if err != nil {
		return err
	}
	signatureHex := hex.EncodeToString(sigBytes)
	options.observer.OnSignatureComputed(signatureHex)

	if creds.HasSessionToken() {
		req.AddHeader(amzSecurityTokenHeader, string(creds.SessionToken))
	}
	req.AddHeader(authorizationHeader, buildAuthorizationValue(creds.AccessKeyID, when.CredentialScope(region, service), canonReq.SignedHeaders, signatureHex))

	return nil
}

// buildAuthorizationValue formats the Authorization header value.
func buildAuthorizationValue(accessKeyID, credentialScope, signedHeaders, signatureHex string) string {
	return algorithm + " Credential=" + accessKeyID + "/" + credentialScope +
		", SignedHeaders=" + signedHeaders +
		", Signature=" + signatureHex
}
