// Package test holds in-memory connections shared by the package tests.
package test

import (
	"bytes"
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

var ErrInjected = errors.New("test: injected failure")

// Conn is a scripted net.Conn. Every Read returns the next chunk of In (so
// callers observe exactly the refill boundaries the test chose), then ReadErr,
// or io.EOF once the script is exhausted. Writes are recorded in order.
type Conn struct {
	mu sync.Mutex

	In      [][]byte
	ReadErr error

	// ShortWrite makes the n-th Write (1-based) accept one byte less than asked.
	ShortWrite int
	// WriteErr fails every Write after the first FailAfter successful ones.
	WriteErr  error
	FailAfter int

	out    bytes.Buffer
	writes []int
	reads  int
	closed bool
}

func NewConn(chunks ...string) *Conn {
	c := &Conn{}
	for _, chunk := range chunks {
		c.In = append(c.In, []byte(chunk))
	}
	return c
}

func (c *Conn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reads++
	if len(c.In) == 0 {
		if c.ReadErr != nil {
			return 0, c.ReadErr
		}
		return 0, io.EOF
	}

	n := copy(p, c.In[0])
	if n == len(c.In[0]) {
		c.In = c.In[1:]
	} else {
		c.In[0] = c.In[0][n:]
	}
	return n, nil
}

func (c *Conn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.WriteErr != nil && len(c.writes) >= c.FailAfter {
		return 0, c.WriteErr
	}

	n := len(p)
	if c.ShortWrite == len(c.writes)+1 && n > 0 {
		n--
	}

	c.out.Write(p[:n])
	c.writes = append(c.writes, n)
	return n, nil
}

// Output returns everything written so far.
func (c *Conn) Output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.String()
}

// Writes returns the size of every Write call, in order.
func (c *Conn) Writes() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.writes...)
}

// Reads returns the number of Read calls.
func (c *Conn) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Conn) LocalAddr() net.Addr                { return addr("local") }
func (c *Conn) RemoteAddr() net.Addr               { return addr("remote") }
func (c *Conn) SetDeadline(t time.Time) error      { return nil }
func (c *Conn) SetReadDeadline(t time.Time) error  { return nil }
func (c *Conn) SetWriteDeadline(t time.Time) error { return nil }

type addr string

func (a addr) Network() string { return "memory" }
func (a addr) String() string  { return string(a) }
