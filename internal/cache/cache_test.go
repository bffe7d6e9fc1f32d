package cache

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMemoryBasicOperations(t *testing.T) {
	c := NewMemory(1024)

	if err := c.Put("key", []byte("value")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, ok := c.Get("key")
	if !ok || string(got) != "value" {
		t.Fatalf("Get = %q, %v", got, ok)
	}

	if err := c.Put("key", []byte("longer value")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if s := c.Stats(); s.Size != int64(len("longer value")) || s.Items != 1 {
		t.Errorf("after overwrite stats = %+v", s)
	}

	c.Delete("key")
	if _, ok := c.Get("key"); ok {
		t.Error("key still present after delete")
	}
	s := c.Stats()
	if s.Size != 0 || s.Hits != 1 || s.Misses != 1 {
		t.Errorf("stats = %+v", s)
	}
	if s.HitRate() != 0.5 {
		t.Errorf("HitRate() = %v, want 0.5", s.HitRate())
	}
}

func TestMemoryLRUEviction(t *testing.T) {
	c := NewMemory(100)
	for i := 0; i < 5; i++ {
		if err := c.Put(fmt.Sprintf("key-%d", i), make([]byte, 20)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	// Touch key-0 so key-1 becomes the oldest
	c.Get("key-0")
	if err := c.Put("new", make([]byte, 30)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	for key, want := range map[string]bool{"key-0": true, "key-1": false, "key-2": false, "key-3": true, "new": true} {
		if _, ok := c.Get(key); ok != want {
			t.Errorf("%s present = %v, want %v", key, ok, want)
		}
	}
	if s := c.Stats(); s.Evictions != 2 || s.Size > 100 {
		t.Errorf("stats = %+v", s)
	}
}

func TestMemoryTooLarge(t *testing.T) {
	c := NewMemory(10)
	if err := c.Put("big", make([]byte, 11)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Put error = %v, want ErrTooLarge", err)
	}
}

func TestDiskRoundTrip(t *testing.T) {
	dir := t.TempDir()
	d, err := OpenDisk(dir, 1<<20, 3)
	if err != nil {
		t.Fatalf("OpenDisk failed: %v", err)
	}

	value := bytes.Repeat([]byte{0, 1, 2, 3}, 1024)
	if err := d.Put("hello", value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, ok := d.Get("hello")
	if !ok || !bytes.Equal(got, value) {
		t.Fatal("Get did not return the stored value")
	}
	if s := d.Stats(); s.Size >= int64(len(value)) {
		t.Errorf("compressed size %d should be below %d", s.Size, len(value))
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := OpenDisk(dir, 1<<20, 3)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	if got, ok := reopened.Get("hello"); !ok || !bytes.Equal(got, value) {
		t.Error("entry did not survive reopening")
	}
	if _, ok := reopened.Get("missing"); ok {
		t.Error("unexpected hit")
	}
}

func TestDiskCorruptedEntry(t *testing.T) {
	dir := t.TempDir()
	d, err := OpenDisk(dir, 1<<20, 1)
	if err != nil {
		t.Fatalf("OpenDisk failed: %v", err)
	}
	defer d.Close()

	if err := d.Put("k", []byte("audio")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, fileName("k")), []byte("not zstd"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok := d.Get("k"); ok {
		t.Error("corrupted entry should miss")
	}
	if _, err := os.Stat(filepath.Join(dir, fileName("k"))); !os.IsNotExist(err) {
		t.Error("corrupted file should be removed")
	}
	if s := d.Stats(); s.Items != 0 || s.Size != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestDiskEviction(t *testing.T) {
	d, err := OpenDisk(t.TempDir(), 1<<20, 3)
	if err != nil {
		t.Fatalf("OpenDisk failed: %v", err)
	}
	defer d.Close()

	if err := d.Put("a", []byte("first")); err != nil {
		t.Fatal(err)
	}
	one := d.Stats().Size
	d.capacity = one*2 + one/2
	a := d.files[fileName("a")]
	a.access = a.access.Add(-time.Minute)
	d.files[fileName("a")] = a

	if err := d.Put("b", []byte("other")); err != nil {
		t.Fatal(err)
	}
	if err := d.Put("c", []byte("third")); err != nil {
		t.Fatal(err)
	}

	if _, ok := d.Get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if s := d.Stats(); s.Evictions != 1 || s.Items != 2 {
		t.Errorf("stats = %+v", s)
	}
}

func TestTieredPromotes(t *testing.T) {
	fast, slow := NewMemory(1024), NewMemory(1024)
	tiers := Tiered{fast, slow}

	if err := slow.Put("k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	if got, ok := tiers.Get("k"); !ok || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, ok)
	}
	if _, ok := fast.Get("k"); !ok {
		t.Error("hit should be copied into the fast tier")
	}

	if err := tiers.Put("big", make([]byte, 2048)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Put error = %v, want ErrTooLarge from both tiers", err)
	}
	if _, ok := tiers.Get("missing"); ok {
		t.Error("unexpected hit")
	}
}
