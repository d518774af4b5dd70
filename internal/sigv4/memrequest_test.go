package sigv4

import (
	"io"
	"strings"
)

// memRequest is a minimal in-memory Request used across this package's
// tests, standing in for an adapted HTTP request.
type memRequest struct {
	method  string
	target  string
	headers []Header
	body    Stream
}

func newMemRequest(method, target string) *memRequest {
	return &memRequest{method: method, target: target}
}

func (r *memRequest) withBody(data string) *memRequest {
	r.body = newCursorStream([]byte(data))
	return r
}

func (r *memRequest) Method() string             { return r.method }
func (r *memRequest) Target() string              { return r.target }
func (r *memRequest) HeadersInOrder() []Header    { return r.headers }
func (r *memRequest) AddHeader(name, value string) {
	r.headers = append(r.headers, Header{Name: name, Value: value})
}
func (r *memRequest) Body() Stream     { return r.body }
func (r *memRequest) SetBody(s Stream) { r.body = s }

// headerValue returns the value of the first header matching name,
// case-insensitively, or "" if absent.
func (r *memRequest) headerValue(name string) string {
	for _, h := range r.headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// drainAll reads r.body to completion and returns the bytes seen,
// leaving the body consumed, the way a real transport would.
func (r *memRequest) drainAll() ([]byte, error) {
	if r.body == nil {
		return nil, nil
	}
	r.body.Seek(0, io.SeekStart)
	return io.ReadAll(r.body)
}
