// Package stream provides a cancellable push channel used for token, text and
// segment streams.
package stream

import (
	"context"
	"errors"
	"io"
	"sync"
)

// ErrAborted is the failure cause used when Error is called with a nil error.
var ErrAborted = errors.New("stream aborted")

type state int

const (
	open state = iota
	closed
	failed
)

// Channel is an unbounded queue with a producer side (Write, Close, Error)
// and a consumer side (Next). Writes never block and are silently dropped
// once the channel is terminated. Values are delivered in write order.
type Channel[T any] struct {
	mu     sync.Mutex
	buf    []T
	state  state
	cause  error
	signal chan struct{}
	done   chan struct{}
}

// New returns an open channel.
func New[T any]() *Channel[T] {
	return &Channel[T]{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// FromSlice returns a closed channel holding vals.
func FromSlice[T any](vals ...T) *Channel[T] {
	c := New[T]()
	for _, v := range vals {
		c.Write(v)
	}
	c.Close()
	return c
}

// Write appends v. It is a no-op after Close or Error.
func (c *Channel[T]) Write(v T) {
	c.mu.Lock()
	if c.state != open {
		c.mu.Unlock()
		return
	}
	c.buf = append(c.buf, v)
	c.mu.Unlock()
	c.wake()
}

// Close ends the stream. Buffered values remain readable. Closing a
// terminated channel is a no-op.
func (c *Channel[T]) Close() {
	c.terminate(closed, nil)
}

// Error terminates the stream in a failed state. Buffered values are
// discarded and readers receive cause. Erroring a terminated channel is a no-op.
func (c *Channel[T]) Error(cause error) {
	if cause == nil {
		cause = ErrAborted
	}
	c.terminate(failed, cause)
}

func (c *Channel[T]) terminate(s state, cause error) {
	c.mu.Lock()
	if c.state != open {
		c.mu.Unlock()
		return
	}
	c.state = s
	c.cause = cause
	if s == failed {
		c.buf = nil
	}
	c.mu.Unlock()
	close(c.done)
	c.wake()
}

func (c *Channel[T]) wake() {
	select {
	case c.signal <- struct{}{}:
	default:
	}
}

// Next returns the next value. It returns io.EOF once a closed channel is
// drained, the failure cause after Error, or ctx.Err() when ctx ends first.
func (c *Channel[T]) Next(ctx context.Context) (T, error) {
	var zero T
	for {
		c.mu.Lock()
		if c.state == failed {
			cause := c.cause
			c.mu.Unlock()
			return zero, cause
		}
		if len(c.buf) > 0 {
			v := c.buf[0]
			c.buf[0] = zero
			c.buf = c.buf[1:]
			more := len(c.buf) > 0 || c.state != open
			c.mu.Unlock()
			if more {
				// Let another reader blocked in select make progress.
				c.wake()
			}
			return v, nil
		}
		if c.state == closed {
			c.mu.Unlock()
			return zero, io.EOF
		}
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-c.signal:
		}
	}
}

// Done is closed when the channel is closed or errored.
func (c *Channel[T]) Done() <-chan struct{} {
	return c.done
}

// Err returns the failure cause, or nil if the channel is open or closed cleanly.
func (c *Channel[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cause
}

// Len returns the number of buffered values.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buf)
}

// Collect drains c into a slice until it ends. A clean close returns a nil error.
func Collect[T any](ctx context.Context, c *Channel[T]) ([]T, error) {
	var out []T
	for {
		v, err := c.Next(ctx)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
}
