package preview

import lru "github.com/hashicorp/golang-lru/v2"

// Cache is a bounded LRU of previews keyed by URL. Entries live for the
// cache's lifetime or until evicted by capacity pressure.
type Cache struct {
	lru *lru.Cache[string, Preview]
}

func NewCache(size int) (*Cache, error) {
	c, err := lru.New[string, Preview](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

func (c *Cache) Get(url string) (Preview, bool) {
	return c.lru.Get(url)
}

func (c *Cache) Add(url string, p Preview) {
	c.lru.Add(url, p)
}

func (c *Cache) Len() int {
	return c.lru.Len()
}
