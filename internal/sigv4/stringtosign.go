package sigv4

import (
	"crypto/sha256"
	"encoding/hex"
)

const algorithm = "AWS4-HMAC-SHA256"

// buildStringToSign joins four lines, with no trailing newline: the
// algorithm, the signing instant, the credential scope, and the hex
// SHA-256 digest of the canonical request.
func buildStringToSign(when SigningInstant, region, service, canonicalReq string) (string, *Error) {
	if region == "" || service == "" {
		return "", newErr(ErrInvalidArgument, "region and service are required to build the string to sign")
	}
	if when.IsZero() {
		return "", newErr(ErrInvalidArgument, "a signing instant is required")
	}

	sum := sha256.Sum256([]byte(canonicalReq))
	hashHex := hex.EncodeToString(sum[:])

	return algorithm + "\n" +
		when.AmzDate() + "\n" +
		when.CredentialScope(region, service) + "\n" +
		hashHex, nil
}
