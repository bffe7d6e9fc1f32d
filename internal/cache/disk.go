package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const diskExt = ".zst"

// Disk persists zstd-compressed entries as one file per key. The file
// modification time doubles as the last access time for LRU eviction, so the
// directory needs no separate index.
type Disk struct {
	dir      string
	capacity int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	mu    sync.Mutex
	files map[string]diskFile
	size  int64
	stats Stats
}

type diskFile struct {
	size   int64
	access time.Time
}

// OpenDisk opens or creates a disk cache in dir holding up to capacity
// compressed bytes. level is a zstd level between 1 and 22.
func OpenDisk(dir string, capacity int64, level int) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if level < 1 {
		level = 3
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	d := &Disk{
		dir:      dir,
		capacity: capacity,
		encoder:  enc,
		decoder:  dec,
		files:    make(map[string]diskFile),
	}
	if err := d.scan(); err != nil {
		return nil, err
	}
	return d, nil
}

// Get reads and decompresses the entry for key. Unreadable entries are
// removed and reported as misses.
func (d *Disk) Get(key string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	name := fileName(key)
	f, ok := d.files[name]
	if !ok {
		d.stats.Misses++
		return nil, false
	}

	path := filepath.Join(d.dir, name)
	data, err := os.ReadFile(path)
	if err == nil {
		data, err = d.decoder.DecodeAll(data, nil)
	}
	if err != nil {
		d.drop(name, f)
		d.stats.Misses++
		return nil, false
	}

	now := time.Now()
	_ = os.Chtimes(path, now, now)
	f.access = now
	d.files[name] = f
	d.stats.Hits++
	return data, true
}

// Put compresses value and writes it, evicting the least recently used
// files to stay within capacity.
func (d *Disk) Put(key string, value []byte) error {
	data := d.encoder.EncodeAll(value, nil)
	n := int64(len(data))

	d.mu.Lock()
	defer d.mu.Unlock()

	if n > d.capacity {
		return ErrTooLarge
	}
	name := fileName(key)
	if f, ok := d.files[name]; ok {
		d.drop(name, f)
	}
	d.evictFor(n)

	tmp, err := os.CreateTemp(d.dir, "put-*")
	if err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(d.dir, name)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	d.files[name] = diskFile{size: n, access: time.Now()}
	d.size += n
	return nil
}

// Stats returns a snapshot of the counters. Size is the compressed size.
func (d *Disk) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.stats
	s.Capacity = d.capacity
	s.Size = d.size
	s.Items = int64(len(d.files))
	return s
}

// Close releases the codec resources.
func (d *Disk) Close() error {
	d.decoder.Close()
	return d.encoder.Close()
}

func (d *Disk) scan() error {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), diskExt) {
			continue
		}
		info, err := e.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return fmt.Errorf("failed to stat cache file: %w", err)
		}
		d.files[e.Name()] = diskFile{size: info.Size(), access: info.ModTime()}
		d.size += info.Size()
	}
	d.evictFor(0)
	return nil
}

// evictFor removes the oldest files until n more bytes fit. mu must be held.
func (d *Disk) evictFor(n int64) {
	if d.size+n <= d.capacity {
		return
	}
	names := make([]string, 0, len(d.files))
	for name := range d.files {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return d.files[names[i]].access.Before(d.files[names[j]].access)
	})
	for _, name := range names {
		if d.size+n <= d.capacity {
			return
		}
		d.drop(name, d.files[name])
		d.stats.Evictions++
	}
}

func (d *Disk) drop(name string, f diskFile) {
	_ = os.Remove(filepath.Join(d.dir, name))
	delete(d.files, name)
	d.size -= f.size
}

func fileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:]) + diskExt
}
