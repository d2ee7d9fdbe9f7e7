package logbuf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRingKeepsCompleteLines(t *testing.T) {
	t.Parallel()
	r := New(5)
	fmt.Fprintf(r, "one\ntwo\nthree\n")

	lines := r.Lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "one" || lines[2] != "three" {
		t.Errorf("unexpected lines: %v", lines)
	}
}

func TestRingDropsOldestOnOverflow(t *testing.T) {
	t.Parallel()
	r := New(3)
	fmt.Fprintf(r, "a\nb\nc\nd\ne\n")

	lines := r.Lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "c" || lines[1] != "d" || lines[2] != "e" {
		t.Errorf("expected [c d e], got %v", lines)
	}
}

func TestRingCarriesPartialLines(t *testing.T) {
	t.Parallel()
	r := New(5)
	r.Write([]byte("hel"))
	r.Write([]byte("lo there\nnext"))
	r.Write([]byte(" line\n"))

	lines := r.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "hello there" {
		t.Errorf("split write was not rejoined: %q", lines[0])
	}
	if lines[1] != "next line" {
		t.Errorf("split write was not rejoined: %q", lines[1])
	}
}

func TestRingLast(t *testing.T) {
	t.Parallel()
	r := New(10)
	fmt.Fprintf(r, "a\nb\nc\nd\ne\n")

	last := r.Last(2)
	if len(last) != 2 || last[0] != "d" || last[1] != "e" {
		t.Errorf("Last(2) = %v", last)
	}
	if got := r.Last(100); len(got) != 5 {
		t.Errorf("Last beyond size should return everything, got %d lines", len(got))
	}
}

func TestRingEmpty(t *testing.T) {
	t.Parallel()
	if lines := New(4).Lines(); len(lines) != 0 {
		t.Errorf("expected no lines, got %v", lines)
	}
}

func TestTailFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "instance.log")
	var b strings.Builder
	for i := 1; i <= 50; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		t.Fatal(err)
	}

	lines, err := TailFile(path, 3)
	if err != nil {
		t.Fatalf("TailFile: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "line 48" || lines[2] != "line 50" {
		t.Errorf("unexpected tail: %v", lines)
	}
}

func TestTailFileMissing(t *testing.T) {
	t.Parallel()
	lines, err := TailFile(filepath.Join(t.TempDir(), "absent.log"), 5)
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("expected no lines, got %v", lines)
	}
}
