package sigv4

import (
	"bytes"
	"io"
	"net/http"
)

// HTTPRequestAdapter bridges a *net/http.Request to the Request
// interface SignRequest consumes. Construct it with NewHTTPRequestAdapter
// so the body, if any, starts out wrapped in a seekable cursor stream.
type HTTPRequestAdapter struct {
	req  *http.Request
	body Stream
}

// NewHTTPRequestAdapter adapts req. If req.Body is non-nil, it is read in
// full up front and replaced with a fresh io.NopCloser over the buffered
// bytes, mirroring the "read fully, then reset" approach the rest of the
// ecosystem uses for non-seekable net/http bodies; a failure to read it
// is reported at adapt time rather than silently producing an empty body.
func NewHTTPRequestAdapter(req *http.Request) (*HTTPRequestAdapter, *Error) {
	a := &HTTPRequestAdapter{req: req}
	if req.Body == nil || req.Body == http.NoBody {
		return a, nil
	}

	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, wrapErr(ErrBodyReadFailure, "failed to buffer http request body", err)
	}
	req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(data))
	req.ContentLength = int64(len(data))

	a.body = newCursorStream(data)
	return a, nil
}

func (a *HTTPRequestAdapter) Method() string { return a.req.Method }

func (a *HTTPRequestAdapter) Target() string {
	if a.req.URL.RawQuery == "" {
		return a.req.URL.EscapedPath()
	}
	return a.req.URL.EscapedPath() + "?" + a.req.URL.RawQuery
}

// HeadersInOrder returns Host first, then every header in req.Header.
// Values of one name keep their order; the order across distinct names
// follows map iteration and is not defined.
func (a *HTTPRequestAdapter) HeadersInOrder() []Header {
	var out []Header
	out = append(out, Header{Name: "Host", Value: a.req.Host})
	for name, values := range a.req.Header {
		for _, v := range values {
			out = append(out, Header{Name: name, Value: v})
		}
	}
	return out
}

func (a *HTTPRequestAdapter) AddHeader(name, value string) {
	a.req.Header.Add(name, value)
}

func (a *HTTPRequestAdapter) Body() Stream { return a.body }

func (a *HTTPRequestAdapter) SetBody(s Stream) {
	a.body = s
	if s == nil {
		a.req.Body = http.NoBody
		return
	}
	a.req.Body = io.NopCloser(readerFromStream(s))
}

// readerFromStream resets s to the beginning and returns it as a plain
// io.Reader for attachment back onto the http.Request.
func readerFromStream(s Stream) io.Reader {
	s.Seek(0, io.SeekStart)
	return s
}

// cursorStream adapts an in-memory byte slice to the Stream interface:
// always seekable, length always known up front.
type cursorStream struct {
	data   []byte
	cursor int64
}

func newCursorStream(data []byte) *cursorStream {
	return &cursorStream{data: data}
}

func (c *cursorStream) Read(p []byte) (int, error) {
	if c.cursor >= int64(len(c.data)) {
		return 0, io.EOF
	}
	n := copy(p, c.data[c.cursor:])
	c.cursor += int64(n)
	return n, nil
}

func (c *cursorStream) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = c.cursor
	case io.SeekEnd:
		base = int64(len(c.data))
	default:
		return 0, errInvalidWhence
	}
	target := base + offset
	if target < 0 {
		return 0, errInvalidWhence
	}
	c.cursor = target
	return c.cursor, nil
}

func (c *cursorStream) Status() (seekable bool, knownLength bool, atEOF bool) {
	return true, true, c.cursor >= int64(len(c.data))
}

func (c *cursorStream) Length() (int64, bool) {
	return int64(len(c.data)), true
}

var errInvalidWhence = &Error{Kind: ErrInvalidSeek, Msg: "invalid seek"}
