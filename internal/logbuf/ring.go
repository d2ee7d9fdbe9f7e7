// Package logbuf keeps the tail of a line stream in a fixed amount of
// memory. The launcher tees browser output through a Ring so the last lines
// are available after a failed start, and the logs command reuses it to
// tail persisted instance logs of any size.
package logbuf

import (
	"bufio"
	"bytes"
	"os"
	"sync"
)

// Ring retains the most recent lines written to it. It implements
// io.Writer and is safe for concurrent use, so it can serve directly as a
// process's stdout and stderr.
type Ring struct {
	mu      sync.Mutex
	buf     []string
	next    int
	wrapped bool
	carry   []byte // trailing bytes of an unterminated line
}

// New returns a ring that keeps the last n lines. n must be positive.
func New(n int) *Ring {
	if n <= 0 {
		n = 1
	}
	return &Ring{buf: make([]string, n)}
}

// Write splits p on newlines and records each completed line. Bytes after
// the final newline are carried over into the next Write.
func (r *Ring) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rest := p
	for {
		i := bytes.IndexByte(rest, '\n')
		if i < 0 {
			r.carry = append(r.carry, rest...)
			break
		}
		line := rest[:i]
		if len(r.carry) > 0 {
			line = append(r.carry, line...)
			r.carry = nil
		}
		r.push(string(line))
		rest = rest[i+1:]
	}
	return len(p), nil
}

func (r *Ring) push(line string) {
	r.buf[r.next] = line
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.wrapped = true
	}
}

// Lines returns the retained lines, oldest first.
func (r *Ring) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.wrapped {
		out := make([]string, r.next)
		copy(out, r.buf[:r.next])
		return out
	}
	out := make([]string, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	out = append(out, r.buf[:r.next]...)
	return out
}

// Last returns up to n of the most recent lines, oldest first.
func (r *Ring) Last(n int) []string {
	all := r.Lines()
	if n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

// TailFile returns the last n lines of the file at path by streaming it
// through a Ring, so memory stays bounded regardless of file size. A
// missing file yields no lines and no error.
func TailFile(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := New(n)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		r.push(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return r.Lines(), nil
}
