package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// compressFloor is the payload size below which compression is not
// attempted; tiny clips do not shrink enough to pay for the header.
const compressFloor = 1024

const indexFile = "index.gob"

// Disk is the persistent tier. Audio is written one file per entry,
// zstd-compressed when that actually shrinks it, with a gob index
// holding the metadata.
type Disk struct {
	mu       sync.Mutex
	dir      string
	capacity int64
	size     int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	index map[string]*diskEntry

	hits      int64
	misses    int64
	evictions int64
}

// diskEntry fields are exported for gob.
type diskEntry struct {
	Key        string
	File       string
	Size       int64 // bytes on disk, compressed
	RawSize    int64
	StoredAt   time.Time
	AccessedAt time.Time
	Compressed bool
}

// NewDisk opens the disk tier rooted at dir, creating it as needed and
// loading any index a previous process left behind. A level of zero
// disables compression.
func NewDisk(dir string, capacity int64, level int) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	d := &Disk{
		dir:      dir,
		capacity: capacity,
		index:    make(map[string]*diskEntry),
	}

	if level > 0 {
		var err error
		d.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
		d.decoder, err = zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("create zstd decoder: %w", err)
		}
	}

	// A missing or unreadable index just means starting empty; entry
	// files without index records are unreachable and harmless.
	if err := d.loadIndex(); err != nil {
		d.index = make(map[string]*diskEntry)
	}
	for _, entry := range d.index {
		d.size += entry.Size
	}

	return d, nil
}

// Get reads the audio for key back off disk. Unreadable or corrupt
// entries are dropped from the index and reported as misses.
func (d *Disk) Get(key string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.index[key]
	if !ok {
		d.misses++
		return nil, false
	}

	data, err := os.ReadFile(entry.File)
	if err != nil {
		d.dropLocked(entry)
		d.misses++
		return nil, false
	}
	if entry.Compressed {
		if d.decoder == nil {
			d.dropLocked(entry)
			d.misses++
			return nil, false
		}
		raw, err := d.decoder.DecodeAll(data, nil)
		if err != nil {
			d.dropLocked(entry)
			d.misses++
			return nil, false
		}
		data = raw
	}

	entry.AccessedAt = time.Now()
	d.hits++
	return data, true
}

// Put writes audio under key, evicting least recently accessed entries
// until it fits.
func (d *Disk) Put(key string, value []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	payload := value
	compressed := false
	if d.encoder != nil && len(value) > compressFloor {
		if c := d.encoder.EncodeAll(value, nil); len(c) < len(value) {
			payload = c
			compressed = true
		}
	}

	diskSize := int64(len(payload))
	if diskSize > d.capacity {
		return ErrTooLarge
	}

	if existing, ok := d.index[key]; ok {
		d.dropLocked(existing)
	}
	for d.size+diskSize > d.capacity && len(d.index) > 0 {
		d.evictOldest()
	}

	path := d.entryPath(key)
	if err := writeAtomic(path, payload); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}

	now := time.Now()
	d.index[key] = &diskEntry{
		Key:        key,
		File:       path,
		Size:       diskSize,
		RawSize:    int64(len(value)),
		StoredAt:   now,
		AccessedAt: now,
		Compressed: compressed,
	}
	d.size += diskSize
	return nil
}

// Delete removes key and its file if present.
func (d *Disk) Delete(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if entry, ok := d.index[key]; ok {
		d.dropLocked(entry)
	}
}

// Size returns bytes currently on disk, compressed sizes counted.
func (d *Disk) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.size
}

// Len returns the number of indexed entries.
func (d *Disk) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.index)
}

// Stats returns a usage snapshot.
func (d *Disk) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Stats{
		Capacity:  d.capacity,
		Size:      d.size,
		Items:     int64(len(d.index)),
		Hits:      d.hits,
		Misses:    d.misses,
		Evictions: d.evictions,
	}
}

// RemoveOlderThan drops entries stored before cutoff, returning how
// many were removed.
func (d *Disk) RemoveOlderThan(cutoff time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	for _, entry := range d.index {
		if entry.StoredAt.Before(cutoff) {
			d.dropLocked(entry)
			removed++
		}
	}
	return removed
}

// Close persists the index so the next process finds its entries.
func (d *Disk) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.saveIndex()
}

func (d *Disk) entryPath(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(d.dir, hex.EncodeToString(hash[:16])+".aud")
}

func (d *Disk) dropLocked(entry *diskEntry) {
	os.Remove(entry.File)
	d.size -= entry.Size
	delete(d.index, entry.Key)
}

func (d *Disk) evictOldest() {
	var oldest *diskEntry
	for _, entry := range d.index {
		if oldest == nil || entry.AccessedAt.Before(oldest.AccessedAt) {
			oldest = entry
		}
	}
	if oldest != nil {
		d.dropLocked(oldest)
		d.evictions++
	}
}

func (d *Disk) loadIndex() error {
	file, err := os.Open(filepath.Join(d.dir, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()
	return gob.NewDecoder(file).Decode(&d.index)
}

func (d *Disk) saveIndex() error {
	path := filepath.Join(d.dir, indexFile)
	tmp, err := os.CreateTemp(d.dir, indexFile+".*")
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(tmp).Encode(d.index); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// writeAtomic lands data at path via a temp file and rename so a crash
// never leaves a half-written entry behind.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}
	_, werr := file.Write(data)
	cerr := file.Close()
	if werr != nil {
		os.Remove(tmp)
		return werr
	}
	if cerr != nil {
		os.Remove(tmp)
		return cerr
	}
	return os.Rename(tmp, path)
}
