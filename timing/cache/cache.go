// Package cache models a latency-only L1 data cache built on Akita's cache
// directory: tags, set mapping, and LRU replacement are real, but there is
// no data array. The trace-driven backend prices accesses without ever
// carrying memory values.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/o3sim/timing/latency"
)

// Config holds cache geometry and latency parameters.
type Config struct {
	// Size in bytes.
	Size int
	// Associativity (number of ways).
	Associativity int
	// BlockSize in bytes (cache line size).
	BlockSize int
	// HitLatency in cycles.
	HitLatency uint64
	// MissLatency in cycles, including the fill from the next level.
	MissLatency uint64
}

// DefaultL1DConfig returns the default L1 data cache configuration:
// 32KB, 8-way, 64B lines.
func DefaultL1DConfig() Config {
	return Config{
		Size:          32 * 1024,
		Associativity: 8,
		BlockSize:     64,
		HitLatency:    3,
		MissLatency:   40,
	}
}

// FromTiming builds a cache Config from the shared timing configuration.
func FromTiming(tc *latency.TimingConfig) Config {
	return Config{
		Size:          tc.CacheSize,
		Associativity: tc.CacheAssociativity,
		BlockSize:     tc.CacheBlockSize,
		HitLatency:    tc.CacheHitLatency,
		MissLatency:   tc.CacheMissLatency,
	}
}

// AccessResult describes the timing outcome of one cache access.
type AccessResult struct {
	// Hit indicates whether the access hit.
	Hit bool
	// Latency is the number of cycles the access takes.
	Latency uint64
	// Evicted is true when the access displaced a valid block.
	Evicted bool
	// EvictedAddr is the block-aligned address of the displaced block.
	EvictedAddr uint64
}

// StoreForwardLatency is the extra latency when a load reads an address
// that a store just wrote: the value comes through the store queue rather
// than straight from the array.
const StoreForwardLatency uint64 = 1

// Statistics holds cache access counters.
type Statistics struct {
	Reads     uint64
	Writes    uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Accesses returns the total access count.
func (s Statistics) Accesses() uint64 {
	return s.Reads + s.Writes
}

// HitRate returns hits over total accesses, or 0 when idle.
func (s Statistics) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// Cache is a single-level data cache: an Akita directory for tag and LRU
// state plus the latency parameters, with write-allocate fills.
type Cache struct {
	config    Config
	directory *akitacache.DirectoryImpl
	stats     Statistics

	// Store queue tracking for store-to-load forwarding: a load that
	// reads the most recently stored address pays the forwarding
	// latency once.
	recentStoreAddr  uint64
	recentStoreValid bool
}

// New creates a cache with the given configuration.
func New(config Config) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)
	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns the access counters.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears the access counters without touching cache state.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

// Reset invalidates every line and clears the counters.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
	c.recentStoreValid = false
	c.recentStoreAddr = 0
}

// Read prices a load from addr.
func (c *Cache) Read(addr uint64) AccessResult {
	c.stats.Reads++

	block := c.directory.Lookup(0, c.blockAddr(addr)) // single address space
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)

		result := AccessResult{Hit: true, Latency: c.config.HitLatency}
		if c.recentStoreValid && c.recentStoreAddr == addr {
			result.Latency += StoreForwardLatency
			c.recentStoreValid = false
		}
		return result
	}

	c.stats.Misses++
	return c.fill(addr, false)
}

// Write prices a store to addr. The policy is write-allocate: a miss fills
// the line before dirtying it.
func (c *Cache) Write(addr uint64) AccessResult {
	c.stats.Writes++
	c.recentStoreAddr = addr
	c.recentStoreValid = true

	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		block.IsDirty = true
		return AccessResult{Hit: true, Latency: c.config.HitLatency}
	}

	c.stats.Misses++
	return c.fill(addr, true)
}

// fill installs the block holding addr, displacing the LRU victim.
func (c *Cache) fill(addr uint64, isWrite bool) AccessResult {
	result := AccessResult{Latency: c.config.MissLatency}

	victim := c.directory.FindVictim(c.blockAddr(addr))
	if victim == nil {
		return result
	}

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = victim.Tag
	}

	victim.Tag = c.blockAddr(addr)
	victim.IsValid = true
	victim.IsDirty = isWrite
	c.directory.Visit(victim)

	return result
}

func (c *Cache) blockAddr(addr uint64) uint64 {
	return addr / uint64(c.config.BlockSize) * uint64(c.config.BlockSize)
}
