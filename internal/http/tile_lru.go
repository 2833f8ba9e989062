package http

import (
	"container/list"
	"sync"
)

// lruKey identifies a cached tile file by path and modification time, so a
// refetched (rewritten) tile never serves stale bytes.
type lruKey struct {
	path  string
	mtime int64
}

type lruEntry struct {
	key   lruKey
	value []byte
}

// tileLRU is an in-memory LRU of recently served tile files. Repaints request
// the same tiles over and over; this keeps the hot set out of the disk.
// A plain mutex guards both maps and list: even a Get reorders the list.
type tileLRU struct {
	mu      sync.Mutex
	maxSize int
	items   map[lruKey]*list.Element
	lruList *list.List
}

func newTileLRU(maxSize int) *tileLRU {
	return &tileLRU{
		maxSize: maxSize,
		items:   make(map[lruKey]*list.Element),
		lruList: list.New(),
	}
}

func (c *tileLRU) Get(key lruKey) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}

	c.lruList.MoveToFront(elem)
	return elem.Value.(*lruEntry).value, true
}

func (c *tileLRU) Set(key lruKey, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*lruEntry).value = value
		c.lruList.MoveToFront(elem)
		return
	}

	if c.lruList.Len() >= c.maxSize {
		oldest := c.lruList.Back()
		if oldest != nil {
			delete(c.items, oldest.Value.(*lruEntry).key)
			c.lruList.Remove(oldest)
		}
	}

	ent := &lruEntry{key: key, value: value}
	elem := c.lruList.PushFront(ent)
	c.items[key] = elem
}
