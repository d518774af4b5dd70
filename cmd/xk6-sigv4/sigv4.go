package sigv4x

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ethanadams/sigv4probe/internal/sigv4"
	"go.k6.io/k6/js/modules"
)

func init() {
	modules.Register("k6/x/sigv4", new(SigV4))
}

// SigV4 is the k6 extension exposing request signing to JS test scripts.
// Scripts sign a request description and attach the returned headers to
// their own k6/http call, rather than this extension performing the
// network call itself.
type SigV4 struct{}

// Client wraps a cached Signer bound to one set of credentials.
type Client struct {
	signer *sigv4.Signer
}

// NewClient creates a client for the given credentials, region and service.
func (SigV4) NewClient(accessKeyID, secretKey, region, service string) (*Client, error) {
	if accessKeyID == "" || secretKey == "" {
		return nil, errors.New("access key id and secret key are required")
	}
	if region == "" {
		region = "us-east-1"
	}
	if service == "" {
		service = "execute-api"
	}

	creds := sigv4.Credentials{
		AccessKeyID: accessKeyID,
		SecretKey:   []byte(secretKey),
	}

	return &Client{signer: sigv4.NewSigner(creds, region, service)}, nil
}

// Sign builds a request for method/url (with optional body) and returns
// every header the caller must send, including Authorization, X-Amz-Date,
// and any headers it was given, merged with the signature.
func (c *Client) Sign(method, url string, headers map[string]string, body string) (map[string]string, error) {
	if c.signer == nil {
		return nil, errors.New("client not initialized")
	}

	var reqBody *strings.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}

	var req *http.Request
	var err error
	if reqBody != nil {
		req, err = http.NewRequest(strings.ToUpper(method), url, reqBody)
	} else {
		req, err = http.NewRequest(strings.ToUpper(method), url, nil)
	}
	if err != nil {
		return nil, err
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	if body != "" {
		req.ContentLength = int64(len(body))
	}

	adapter, adaptErr := sigv4.NewHTTPRequestAdapter(req)
	if adaptErr != nil {
		return nil, adaptErr
	}

	if err := c.signer.Sign(adapter, sigv4.NewSigningInstant(time.Now())); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(req.Header)+1)
	out["Host"] = req.Host
	for name := range req.Header {
		out[name] = req.Header.Get(name)
	}
	return out, nil
}

// Close releases the client's cached signing key.
func (c *Client) Close() error {
	if c.signer != nil {
		c.signer.Close()
	}
	return nil
}
