package resource

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const chunkSize = 64 << 10

var ErrStaleWrite = errors.New("model cache: superseded by a newer write")

// ModelCache persists downloaded model bytes to <dir>/<sha256(id)>.glb. Writes carry a
// generation and only the newest generation for an id may commit.
type ModelCache struct {
	dir    string
	mu     sync.Mutex
	latest map[string]uint64
}

func NewModelCache(dir string) (*ModelCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model cache dir: %w", err)
	}
	return &ModelCache{dir: dir, latest: make(map[string]uint64)}, nil
}

func (c *ModelCache) Dir() string {
	return c.dir
}

// Path returns the committed location for id.
func (c *ModelCache) Path(id string) string {
	return filepath.Join(c.dir, fileName(id)+".glb")
}

func (c *ModelCache) Write(ctx context.Context, id string, gen uint64, data []byte) (string, error) {
	if err := c.claim(id, gen); err != nil {
		return "", err
	}

	final := c.Path(id)
	tmp := fmt.Sprintf("%s.part-%d", final, gen)
	if err := writeChunked(ctx, tmp, data); err != nil {
		os.Remove(tmp)
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest[id] != gen {
		os.Remove(tmp)
		return "", ErrStaleWrite
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("commit model %s: %w", id, err)
	}
	return final, nil
}

func (c *ModelCache) claim(id string, gen uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen < c.latest[id] {
		return ErrStaleWrite
	}
	c.latest[id] = gen
	return nil
}

func writeChunked(ctx context.Context, path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	for off := 0; off < len(data); off += chunkSize {
		if err := ctx.Err(); err != nil {
			f.Close()
			return err
		}
		end := off + chunkSize
		if end > len(data) {
			end = len(data)
		}
		if _, err := f.Write(data[off:end]); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// fileName gives each id its own file.
func fileName(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}
