package sigv4

import "testing"

func TestCanonicalizePath(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", "/"},
		{"/", "/"},
		{"/foo/./bar/../baz//qux", "/foo/baz/qux"},
		{"/%E4%B8%AD", "/%25E4%25B8%25AD"},
		{"/foo", "/foo"},
	}
	for _, c := range cases {
		got, err := canonicalizePath(c.in)
		if err != nil {
			t.Fatalf("canonicalizePath(%q) error: %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("canonicalizePath(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCanonicalizeQuerySortsAndEncodes(t *testing.T) {
	got, err := canonicalizeQuery("b=2&a=1&a=0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "a=0&a=1&b=2"
	if got != want {
		t.Errorf("canonicalizeQuery = %q, want %q", got, want)
	}
}

func TestCanonicalizeQueryMissingEquals(t *testing.T) {
	got, err := canonicalizeQuery("flag")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "flag=" {
		t.Errorf("canonicalizeQuery(%q) = %q, want %q", "flag", got, "flag=")
	}
}

func TestCanonicalizeHeadersCommaJoinsByDefault(t *testing.T) {
	headers := []Header{
		{Name: "X-Amz-Meta-Foo", Value: "  a  b "},
		{Name: "host", Value: "example.com"},
		{Name: "x-amz-meta-foo", Value: "second"},
	}
	canon, signed, err := canonicalizeHeaders(headers, conventionCommaJoin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantCanon := "host:example.com\nx-amz-meta-foo:a b,second\n"
	if canon != wantCanon {
		t.Errorf("canonical headers = %q, want %q", canon, wantCanon)
	}
	if signed != "host;x-amz-meta-foo" {
		t.Errorf("signed headers = %q, want %q", signed, "host;x-amz-meta-foo")
	}
}

func TestCanonicalizeHeadersLegacySeparateEntries(t *testing.T) {
	headers := []Header{
		{Name: "x-amz-meta-foo", Value: "second"},
		{Name: "x-amz-meta-foo", Value: "first"},
	}
	canon, _, err := canonicalizeHeaders(headers, conventionSeparateEntries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "x-amz-meta-foo:second\nx-amz-meta-foo:first\n"
	if canon != want {
		t.Errorf("canonical headers = %q, want %q", canon, want)
	}
}

func TestValidateHeaderValueRejectsControlBytes(t *testing.T) {
	if err := validateHeaderValue("good\x01bad"); err == nil {
		t.Fatal("expected an error for a control byte in a header value")
	} else if err.Kind != ErrEncodingError {
		t.Errorf("kind = %v, want ErrEncodingError", err.Kind)
	}
}

func TestRFC3986EncodeUppercaseHex(t *testing.T) {
	if got := rfc3986Encode(" "); got != "%20" {
		t.Errorf("rfc3986Encode(space) = %q, want %%20", got)
	}
	if got := rfc3986Encode("a~_.-Z9"); got != "a~_.-Z9" {
		t.Errorf("rfc3986Encode(unreserved) = %q, want unchanged", got)
	}
}
