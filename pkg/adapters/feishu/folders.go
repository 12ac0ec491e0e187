package feishu

import "sync"

// folderCache maps tag names to folder tokens. It is replaced wholesale by
// GetAllTags and extended when Save creates a folder.
type folderCache struct {
	mu     sync.RWMutex
	byName map[string]string
}

func newFolderCache() *folderCache {
	return &folderCache{byName: make(map[string]string)}
}

func (c *folderCache) get(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	token, ok := c.byName[name]
	return token, ok
}

func (c *folderCache) put(name, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byName[name] = token
}

func (c *folderCache) replace(byName map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byName = byName
}

func (c *folderCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byName)
}
