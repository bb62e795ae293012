package loader

import (
	"encoding/base64"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// CacheKey identifies a file in the loader caches.
func CacheKey(file GraphFile) string {
	return fmt.Sprintf("%s:%s:%s", file.FileType, file.ID, file.FilePath)
}

// Base64Prefix returns the data URL prefix for the MIME type of filePath.
func Base64Prefix(filePath string) string {
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filePath)))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return fmt.Sprintf("data:%s;base64,", mimeType)
}

// EncodeBase64 wraps content in a GraphBase64 using the MIME type of filePath.
func EncodeBase64(filePath string, content []byte) GraphBase64 {
	return GraphBase64{
		Base64:   base64.StdEncoding.EncodeToString(content),
		FileType: Base64Prefix(filePath),
	}
}

// Cache memoizes loader results per key. Concurrent loads of the same key
// share one call. Failed loads are not cached.
type Cache struct {
	mu    sync.RWMutex
	items map[string][]byte
	group singleflight.Group
}

func NewCache() *Cache {
	return &Cache{items: make(map[string][]byte)}
}

func (c *Cache) get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.items[key]
	return b, ok
}

// Do returns the cached value for key or runs load to produce it.
func (c *Cache) Do(key string, load func() ([]byte, error)) ([]byte, error) {
	if b, ok := c.get(key); ok {
		return b, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		if b, ok := c.get(key); ok {
			return b, nil
		}

		b, err := load()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.items[key] = b
		c.mu.Unlock()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
