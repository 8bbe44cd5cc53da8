package compositor

import (
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"

	"qrbatch/internal/domain"
)

// BackgroundCache decodes each background path once. Entries, including
// decode failures, never change after the first load.
type BackgroundCache struct {
	mu      sync.Mutex
	entries map[string]*backgroundEntry
}

type backgroundEntry struct {
	once sync.Once
	img  image.Image
	err  error
}

func NewBackgroundCache() *BackgroundCache {
	return &BackgroundCache{entries: make(map[string]*backgroundEntry)}
}

// Load returns the decoded background for asset.
func (c *BackgroundCache) Load(asset domain.Asset) (image.Image, error) {
	c.mu.Lock()
	entry, ok := c.entries[asset.Path]
	if !ok {
		entry = &backgroundEntry{}
		c.entries[asset.Path] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		img, err := imaging.Open(asset.Path, imaging.AutoOrientation(true))
		if err != nil {
			entry.err = fmt.Errorf("compositor: decode background %s: %w: %v", asset.ID, domain.ErrDecode, err)
			return
		}
		entry.img = img
	})
	return entry.img, entry.err
}

// Len reports the number of cached backgrounds.
func (c *BackgroundCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
