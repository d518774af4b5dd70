package teeio

import (
	"io"
	"strings"
	"testing"
)

// fakeSource adapts a strings.Reader to the Source interface for tests;
// it reports itself as non-seekable and of unknown length, the common
// case for an HTTP request body.
type fakeSource struct {
	r *strings.Reader
}

func newFakeSource(s string) *fakeSource {
	return &fakeSource{r: strings.NewReader(s)}
}

func (f *fakeSource) Read(p []byte) (int, error) { return f.r.Read(p) }
func (f *fakeSource) Seek(int64, int) (int64, error) {
	return 0, ErrNotSeekable
}
func (f *fakeSource) Status() (bool, bool, bool) { return false, false, f.r.Len() == 0 }
func (f *fakeSource) Length() (int64, bool)      { return 0, false }

func TestBranchReadsFullSource(t *testing.T) {
	tee := Wrap(newFakeSource("hello tee stream"))
	b := tee.NewBranch()

	got, err := io.ReadAll(b)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(got) != "hello tee stream" {
		t.Errorf("branch read = %q, want %q", got, "hello tee stream")
	}
}

func TestMultipleBranchesAreIndependent(t *testing.T) {
	tee := Wrap(newFakeSource("independent"))
	a := tee.NewBranch()
	b := tee.NewBranch()

	buf := make([]byte, 4)
	n, err := a.Read(buf)
	if err != nil || n != 4 {
		t.Fatalf("a.Read = %d, %v", n, err)
	}
	if string(buf) != "inde" {
		t.Errorf("a read %q, want %q", buf, "inde")
	}

	got, err := io.ReadAll(b)
	if err != nil {
		t.Fatalf("b.ReadAll failed: %v", err)
	}
	if string(got) != "independent" {
		t.Errorf("b read %q, want full source from offset zero", got)
	}
}

func TestBranchOpenedAfterPartialDrainStillSeesFullData(t *testing.T) {
	tee := Wrap(newFakeSource("abcdef"))
	first := tee.NewBranch()
	buf := make([]byte, 3)
	if _, err := first.Read(buf); err != nil {
		t.Fatalf("first.Read failed: %v", err)
	}

	second := tee.NewBranch()
	got, err := io.ReadAll(second)
	if err != nil {
		t.Fatalf("second.ReadAll failed: %v", err)
	}
	if string(got) != "abcdef" {
		t.Errorf("second branch read = %q, want %q", got, "abcdef")
	}
}

func TestSeekPastBufferPullsFromSource(t *testing.T) {
	tee := Wrap(newFakeSource("0123456789"))
	b := tee.NewBranch()

	pos, err := b.Seek(5, io.SeekStart)
	if err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if pos != 5 {
		t.Fatalf("Seek returned %d, want 5", pos)
	}

	got, err := io.ReadAll(b)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(got) != "56789" {
		t.Errorf("read after seek = %q, want %q", got, "56789")
	}
}

func TestSeekNegativeResultIsInvalid(t *testing.T) {
	tee := Wrap(newFakeSource("abc"))
	b := tee.NewBranch()
	if _, err := b.Seek(-1, io.SeekStart); err != ErrInvalidSeek {
		t.Errorf("Seek(-1) error = %v, want ErrInvalidSeek", err)
	}
}

func TestIsTeeRecognizesBranchesAndTees(t *testing.T) {
	tee := Wrap(newFakeSource("x"))
	if !IsTee(tee) {
		t.Error("IsTee(*Tee) = false, want true")
	}
	if !IsTee(tee.NewBranch()) {
		t.Error("IsTee(*Branch) = false, want true")
	}
	if IsTee("not a tee") {
		t.Error("IsTee(string) = true, want false")
	}
}
