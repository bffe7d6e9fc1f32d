package stream

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

func TestChannelDeliversInWriteOrder(t *testing.T) {
	c := New[int]()
	for i := 0; i < 5; i++ {
		c.Write(i)
	}
	c.Close()

	got, err := Collect(context.Background(), c)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("Expected 5 values, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Errorf("Expected value %d at index %d, got %d", i, i, v)
		}
	}
}

func TestChannelWriteAfterCloseIsDropped(t *testing.T) {
	c := New[string]()
	c.Write("a")
	c.Close()
	c.Write("b")
	c.Close()
	c.Error(errors.New("late"))

	got, err := Collect(context.Background(), c)
	if err != nil {
		t.Fatalf("Expected clean close, got %v", err)
	}
	if len(got) != 1 || got[0] != "a" {
		t.Errorf("Expected [a], got %v", got)
	}
}

func TestChannelErrorTerminates(t *testing.T) {
	boom := errors.New("boom")
	c := New[int]()
	c.Write(1)
	c.Error(boom)
	c.Error(errors.New("second"))
	c.Write(2)

	_, err := c.Next(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("Expected boom, got %v", err)
	}
	if !errors.Is(c.Err(), boom) {
		t.Errorf("Expected Err() to return boom, got %v", c.Err())
	}

	select {
	case <-c.Done():
	default:
		t.Error("Expected Done to be closed after Error")
	}
}

func TestChannelErrorNilCause(t *testing.T) {
	c := New[int]()
	c.Error(nil)
	if _, err := c.Next(context.Background()); !errors.Is(err, ErrAborted) {
		t.Errorf("Expected ErrAborted, got %v", err)
	}
}

func TestChannelNextBlocksUntilWrite(t *testing.T) {
	c := New[int]()
	result := make(chan int, 1)
	go func() {
		v, err := c.Next(context.Background())
		if err == nil {
			result <- v
		}
	}()

	select {
	case <-result:
		t.Fatal("Next returned before any write")
	case <-time.After(20 * time.Millisecond):
	}

	c.Write(42)
	select {
	case v := <-result:
		if v != 42 {
			t.Errorf("Expected 42, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Next did not return after write")
	}
}

func TestChannelNextHonoursContext(t *testing.T) {
	c := New[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestChannelCloseWakesReader(t *testing.T) {
	c := New[int]()
	done := make(chan error, 1)
	go func() {
		_, err := c.Next(context.Background())
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	c.Close()

	select {
	case err := <-done:
		if !errors.Is(err, io.EOF) {
			t.Errorf("Expected io.EOF, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Reader was not woken by Close")
	}
}

func TestChannelConcurrentWriters(t *testing.T) {
	c := New[int]()
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Write(i)
			}
		}()
	}
	wg.Wait()
	c.Close()

	got, err := Collect(context.Background(), c)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(got) != 400 {
		t.Errorf("Expected 400 values, got %d", len(got))
	}
}

func TestFromSlice(t *testing.T) {
	c := FromSlice("x", "y")
	if c.Len() != 2 {
		t.Errorf("Expected 2 buffered values, got %d", c.Len())
	}
	got, _ := Collect(context.Background(), c)
	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("Expected [x y], got %v", got)
	}
}
