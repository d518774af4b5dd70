// sigv4curl generates signed curl commands for any SigV4-compatible endpoint.
package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ethanadams/sigv4probe/internal/sigv4"
)

func main() {
	endpoint := flag.String("endpoint", os.Getenv("SIGV4_ENDPOINT"), "Target endpoint base URL")
	accessKey := flag.String("access-key", os.Getenv("SIGV4_ACCESS_KEY"), "Access key id")
	secretKey := flag.String("secret-key", os.Getenv("SIGV4_SECRET_KEY"), "Secret key")
	region := flag.String("region", "us-east-1", "Region")
	service := flag.String("service", "execute-api", "Service name")
	path := flag.String("path", "/", "Request path")
	method := flag.String("method", "GET", "HTTP method")
	data := flag.String("data", "", "Data to send (for methods with a body)")
	size := flag.Int("size", 0, "Random data size in bytes (overrides -data)")
	flag.Parse()

	if *endpoint == "" || *accessKey == "" || *secretKey == "" {
		fmt.Fprintln(os.Stderr, "Usage: sigv4curl -endpoint URL -access-key KEY -secret-key SECRET [-method GET] [-path /foo] [-data content]")
		fmt.Fprintln(os.Stderr, "\nEnvironment variables: SIGV4_ENDPOINT, SIGV4_ACCESS_KEY, SIGV4_SECRET_KEY")
		fmt.Fprintln(os.Stderr, "\nExamples:")
		fmt.Fprintln(os.Stderr, "  sigv4curl -path /objects/test.txt -method PUT -data 'hello world'")
		fmt.Fprintln(os.Stderr, "  sigv4curl -path /objects/test.txt -method GET")
		fmt.Fprintln(os.Stderr, "  sigv4curl -path /objects/test.bin -method PUT -size 1024")
		os.Exit(1)
	}

	creds := sigv4.Credentials{
		AccessKeyID: *accessKey,
		SecretKey:   []byte(*secretKey),
	}

	url := strings.TrimSuffix(*endpoint, "/") + *path

	var payload []byte
	switch {
	case *size > 0:
		payload = make([]byte, *size)
		rand.Read(payload)
		fmt.Fprintf(os.Stderr, "# Generated %d bytes of random data\n", *size)
	case *data != "":
		payload = []byte(*data)
	}

	var body *strings.Reader
	if payload != nil {
		body = strings.NewReader(string(payload))
	}

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(strings.ToUpper(*method), url, body)
	} else {
		req, err = http.NewRequest(strings.ToUpper(*method), url, nil)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating request: %v\n", err)
		os.Exit(1)
	}

	if payload != nil {
		req.ContentLength = int64(len(payload))
		req.Header.Set("Content-Type", "application/octet-stream")
	}

	adapter, adaptErr := sigv4.NewHTTPRequestAdapter(req)
	if adaptErr != nil {
		fmt.Fprintf(os.Stderr, "Error adapting request: %v\n", adaptErr)
		os.Exit(1)
	}

	if err := sigv4.SignRequest(adapter, creds, *region, *service, sigv4.NewSigningInstant(time.Now())); err != nil {
		fmt.Fprintf(os.Stderr, "Error signing request: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("curl -v -X %s \\\n", strings.ToUpper(*method))
	for name, values := range req.Header {
		for _, value := range values {
			fmt.Printf("  -H '%s: %s' \\\n", name, value)
		}
	}

	if payload != nil {
		if *size > 0 {
			fmt.Printf("  --data-binary \"$(dd if=/dev/urandom bs=%d count=1 2>/dev/null)\" \\\n", *size)
		} else {
			fmt.Printf("  --data-binary '%s' \\\n", *data)
		}
	}

	fmt.Printf("  '%s'\n", url)
}
