package cache

import (
	"context"
	"sync"
	"time"
)

// LRU is an in-process response cache with a capacity bound and TTL.
// Eviction is least-recently-used via a doubly-linked list, O(1) per op.
type LRU struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*lruNode
	head     *lruNode // most recently used
	tail     *lruNode // least recently used
}

type lruNode struct {
	key       string
	text      string
	expiresAt time.Time
	prev      *lruNode
	next      *lruNode
}

// NewLRU creates an LRU cache. Capacity must be positive; a zero ttl
// means entries never expire.
func NewLRU(capacity int, ttl time.Duration) *LRU {
	if capacity <= 0 {
		capacity = 1024
	}
	return &LRU{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*lruNode),
	}
}

// Get implements llm.ResponseCache.
func (c *LRU) Get(ctx context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.items[key]
	if !ok {
		return "", false
	}

	if !node.expiresAt.IsZero() && time.Now().After(node.expiresAt) {
		c.removeNode(node)
		delete(c.items, key)
		return "", false
	}

	c.moveToHead(node)
	return node.text, true
}

// Set implements llm.ResponseCache.
func (c *LRU) Set(ctx context.Context, key, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = time.Now().Add(c.ttl)
	}

	if node, ok := c.items[key]; ok {
		node.text = text
		node.expiresAt = expiresAt
		c.moveToHead(node)
		return nil
	}

	node := &lruNode{key: key, text: text, expiresAt: expiresAt}
	c.items[key] = node
	c.pushHead(node)

	if len(c.items) > c.capacity {
		evicted := c.tail
		c.removeNode(evicted)
		delete(c.items, evicted.key)
	}
	return nil
}

// Len returns the number of cached entries, including not-yet-evicted
// expired ones.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU) pushHead(node *lruNode) {
	node.prev = nil
	node.next = c.head
	if c.head != nil {
		c.head.prev = node
	}
	c.head = node
	if c.tail == nil {
		c.tail = node
	}
}

func (c *LRU) removeNode(node *lruNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		c.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		c.tail = node.prev
	}
	node.prev = nil
	node.next = nil
}

func (c *LRU) moveToHead(node *lruNode) {
	if c.head == node {
		return
	}
	c.removeNode(node)
	c.pushHead(node)
}
