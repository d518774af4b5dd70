package sigv4

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"

	"github.com/ethanadams/sigv4probe/internal/teeio"
)

// emptyBodySHA256 is the hex SHA-256 digest of a zero-length payload.
const emptyBodySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

const contentSHA256Header = "x-amz-content-sha256"

// resolvePayloadHash dispatches on three cases: an already-present
// x-amz-content-sha256 header wins outright, an absent body hashes to
// the empty-string digest, and a present body is tee-wrapped (unless it
// already is one) so the hasher's single pass doesn't consume bytes the
// transport still needs to send.
func resolvePayloadHash(req Request) (string, *Error) {
	for _, h := range req.HeadersInOrder() {
		if strings.EqualFold(h.Name, contentSHA256Header) {
			v := strings.TrimSpace(h.Value)
			if !isHexSHA256(v) {
				return "", newErr(ErrInvalidArgument, "x-amz-content-sha256 header is not a 64-character lowercase hex digest")
			}
			return v, nil
		}
	}

	body := req.Body()
	if body == nil {
		return emptyBodySHA256, nil
	}

	branch, ok := body.(*teeio.Branch)
	if !ok {
		t := teeio.Wrap(body)
		branch = t.NewBranch()
		req.SetBody(branch)
	}

	hashBranch := branch.Tee().NewBranch()
	h := sha256.New()
	buf := make([]byte, 32*1024)
	for {
		n, err := hashBranch.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", wrapErr(ErrBodyReadFailure, "failed reading request body to compute payload hash", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// isHexSHA256 reports whether v is exactly 64 lowercase hex digits.
func isHexSHA256(v string) bool {
	if len(v) != 64 {
		return false
	}
	for i := 0; i < len(v); i++ {
		c := v[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') {
			continue
		}
		return false
	}
	return true
}
