// Package teeio implements the tee input stream: a buffering adapter
// that turns a single-pass source into one that any number of
// independent, forward-reading branches can read from offset zero.
//
// Neither a Tee nor its branches are safe for concurrent use; callers
// serialize access to a given Tee and its branches themselves.
package teeio

import (
	"errors"
	"io"
)

// Source is the minimal surface a tee wraps: a reader that may also be
// seekable and may know its own length. Implementations that can't seek
// or don't know their length simply report so via Status/Length.
type Source interface {
	io.Reader
	// Seek behaves like io.Seeker when the source is seekable; sources
	// that aren't should return an error for any call.
	Seek(offset int64, whence int) (int64, error)
	Status() (seekable bool, knownLength bool, atEOF bool)
	Length() (n int64, ok bool)
}

// ErrInvalidSeek is returned when a branch seek resolves to a negative
// absolute position.
var ErrInvalidSeek = errors.New("teeio: seek would result in negative position")

// ErrNotSeekable is returned when an operation requires seeking a source
// that refuses to seek and hasn't been (or can't be) fully drained.
var ErrNotSeekable = errors.New("teeio: source is not seekable")

// Tee owns a single source and a single growing buffer that every branch
// reads from. Call Wrap once per source; call NewBranch as many times as
// needed afterward.
type Tee struct {
	source         Source
	buf            []byte
	sourceComplete bool
	knownLength    int64
	hasKnownLength bool
}

// Wrap takes ownership of source and returns a Tee backed by it. If
// source already reports a known length, the Tee remembers it.
func Wrap(source Source) *Tee {
	t := &Tee{source: source}
	if n, ok := source.Length(); ok {
		t.knownLength = n
		t.hasKnownLength = true
	}
	return t
}

// IsTee reports whether s is already a Tee (or a Branch of one), so
// callers can avoid double-wrapping.
func IsTee(s interface{}) bool {
	switch s.(type) {
	case *Tee:
		return true
	case *Branch:
		return true
	default:
		return false
	}
}

// NewBranch creates a fresh, independent view over the tee's buffered
// data, starting at offset zero. It may be called any number of times,
// at any point in the tee's lifetime.
func (t *Tee) NewBranch() *Branch {
	return &Branch{tee: t}
}

// fill pulls more bytes from the source into the buffer. It returns the
// number of bytes appended and any source error other than io.EOF;
// reaching the end of the source sets sourceComplete.
func (t *Tee) fill() (int, error) {
	if t.sourceComplete {
		return 0, nil
	}
	scratch := make([]byte, 32*1024)
	n, err := t.source.Read(scratch)
	if n > 0 {
		t.buf = append(t.buf, scratch[:n]...)
	}
	if err == io.EOF {
		t.sourceComplete = true
		return n, nil
	}
	if err != nil {
		return n, err
	}
	if n == 0 {
		// A zero-byte, nil-error read is treated as EOF to guarantee
		// fill() always makes progress or terminates.
		t.sourceComplete = true
	}
	return n, nil
}

// drainAll pulls from the source until it reports completion.
func (t *Tee) drainAll() error {
	for !t.sourceComplete {
		if _, err := t.fill(); err != nil {
			return err
		}
	}
	return nil
}

// Branch is an independent reader over a Tee's buffered data, with its
// own cursor. Branches borrow the parent and hold no source reference of
// their own; destroying a branch does not affect the parent or any
// sibling branch.
type Branch struct {
	tee    *Tee
	cursor int64
}

// Read serves bytes from the shared buffer if possible, else pulls from
// the source and appends, else returns EOF.
func (b *Branch) Read(dst []byte) (int, error) {
	for {
		if b.cursor < int64(len(b.tee.buf)) {
			n := copy(dst, b.tee.buf[b.cursor:])
			b.cursor += int64(n)
			return n, nil
		}
		if b.tee.sourceComplete {
			return 0, io.EOF
		}
		if _, err := b.tee.fill(); err != nil {
			return 0, &readError{err: err}
		}
	}
}

// Seek repositions the branch's cursor. A seek past the buffered region
// on an incomplete source pulls from the source until the position is
// reachable or EOF. SeekEnd is only defined once the source's length is
// known or it has been fully drained; this implementation eagerly drains
// in that case.
func (b *Branch) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = b.cursor
	case io.SeekEnd:
		if err := b.tee.drainAll(); err != nil {
			return 0, err
		}
		base = int64(len(b.tee.buf))
	default:
		return 0, errors.New("teeio: invalid whence")
	}

	target := base + offset
	if target < 0 {
		return 0, ErrInvalidSeek
	}

	for target > int64(len(b.tee.buf)) && !b.tee.sourceComplete {
		if _, err := b.tee.fill(); err != nil {
			return 0, err
		}
	}

	b.cursor = target
	return b.cursor, nil
}

// Status reports that the branch is always seekable within the buffered
// region, and forwards the source's known-length flag and this branch's
// current EOF state.
func (b *Branch) Status() (seekable bool, knownLength bool, atEOF bool) {
	atEOF = b.cursor >= int64(len(b.tee.buf)) && b.tee.sourceComplete
	return true, b.tee.hasKnownLength, atEOF
}

// Length returns the source's known length, if any.
func (b *Branch) Length() (int64, bool) {
	return b.tee.knownLength, b.tee.hasKnownLength
}

// Tee returns the parent Tee this branch was created from, so callers
// can open sibling branches without threading the Tee through
// separately.
func (b *Branch) Tee() *Tee { return b.tee }

// readError wraps a source read failure so callers of Branch.Read can
// distinguish it from ordinary io.EOF.
type readError struct{ err error }

func (e *readError) Error() string { return "teeio: body read failed: " + e.err.Error() }
func (e *readError) Unwrap() error { return e.err }
