package refterm

import "github.com/zeebo/xxh3"

// GlyphState is an entry's lifecycle: an entry is created empty (None),
// sized once the rasterizer has measured it (Sized), and Rasterized once
// its tiles have actually been transferred into the atlas.
type GlyphState int

const (
	GlyphStateNone GlyphState = iota
	GlyphStateSized
	GlyphStateRasterized
)

// DefaultHashCount is the tunable from §6: the hash array size, always a
// power of two.
const DefaultHashCount = 4096

const noEntry = -1

// glyphEntry is one arena slot. GPUIndex is assigned once, at arena
// construction, and never changes — only Hash/State/Dims are re-keyed on
// recycling. LRUPrev/LRUNext are arena indices, not pointers, so the LRU
// list has no cycles to collect.
type glyphEntry struct {
	Hash     uint64
	State    GlyphState
	GPUIndex TileIndex
	DimX     uint16
	DimY     uint16

	lruPrev int
	lruNext int
	inUse   bool // false only for never-yet-claimed slots before first Find
}

// GlyphCacheStats reports lifetime counters.
type GlyphCacheStats struct {
	Hits     uint64
	Misses   uint64
	Recycles uint64
}

// GlyphCache is a fixed-size hash table plus LRU recycling ring mapping a
// shaping run's fingerprint to a stable GPU tile. It is single-threaded by
// design; concurrent readers are not supported.
//
// The hash table is direct-mapped, with no probing: a hash's low bits pick
// its one slot, and a colliding hash takes that slot over. The entry it
// displaces can no longer be found and stays in the arena until the LRU
// recycles it.
type GlyphCache struct {
	table     []int // index into entries, or noEntry; len is a power of two
	tableMask uint64
	entries   []glyphEntry

	lruHead int
	lruTail int

	stats GlyphCacheStats

	// hashSeed is a compile-time constant per the design notes: collisions
	// across fonts are not mitigated, acceptable for a reference engine.
	hashSeed uint64
}

const glyphHashSeed uint64 = 0x9E3779B97F4A7C15

// NewGlyphCache builds a cache with hashCount hash-table slots
// (DefaultHashCount if 0) and entryCount arena entries, whose GPU indices
// start at firstGPUIndex (i.e. one past the reserved direct-codepoint
// table) and increase by one per entry.
func NewGlyphCache(hashCount, entryCount int, firstGPUIndex TileIndex) *GlyphCache {
	if hashCount <= 0 {
		hashCount = DefaultHashCount
	}
	hashCount = int(nextPowerOfTwo(uint64(hashCount)))

	c := &GlyphCache{
		table:     make([]int, hashCount),
		tableMask: uint64(hashCount - 1),
		entries:   make([]glyphEntry, entryCount),
		hashSeed:  glyphHashSeed,
	}
	for i := range c.table {
		c.table[i] = noEntry
	}
	for i := range c.entries {
		c.entries[i] = glyphEntry{
			GPUIndex: firstGPUIndex + TileIndex(i),
			lruPrev:  i - 1,
			lruNext:  i + 1,
		}
	}
	c.lruHead = 0
	c.lruTail = entryCount - 1
	if entryCount > 0 {
		c.entries[0].lruPrev = noEntry
		c.entries[entryCount-1].lruNext = noEntry
	}
	return c
}

// HashRun computes the fingerprint for a shaping run's codepoints, the Go
// equivalent of the original's ComputeGlyphHash(..., DefaultSeed).
func (c *GlyphCache) HashRun(codepoints []rune) uint64 {
	buf := make([]byte, len(codepoints)*4)
	for i, r := range codepoints {
		buf[i*4+0] = byte(r)
		buf[i*4+1] = byte(r >> 8)
		buf[i*4+2] = byte(r >> 16)
		buf[i*4+3] = byte(r >> 24)
	}
	return xxh3.HashSeed(buf, c.hashSeed)
}

// Stats returns the cache's lifetime hit/miss/recycle counters.
func (c *GlyphCache) Stats() GlyphCacheStats { return c.stats }

func (c *GlyphCache) probe(hash uint64) int {
	return int(hash & c.tableMask)
}

// Find probes the hash table for hash. On hit, the matching entry is
// promoted to MRU and returned with its id. On miss, the LRU tail is
// recycled: its old hash is unlinked from the table, hash is installed in
// its place, state resets to None, and it becomes MRU.
//
// A successful Find's GPUIndex is stable for the remainder of the current
// frame's rendering work (§4.E).
func (c *GlyphCache) Find(hash uint64) (id int, state GlyphState, hit bool) {
	slot := c.probe(hash)
	if id := c.table[slot]; id != noEntry && c.entries[id].inUse && c.entries[id].Hash == hash {
		c.touch(id)
		c.stats.Hits++
		return id, c.entries[id].State, true
	}

	victim := c.lruTail
	if victim == noEntry {
		c.stats.Misses++
		return noEntry, GlyphStateNone, false
	}
	if c.entries[victim].inUse {
		if old := c.probe(c.entries[victim].Hash); c.table[old] == victim {
			c.table[old] = noEntry
		}
		c.stats.Recycles++
	}
	c.entries[victim].Hash = hash
	c.entries[victim].State = GlyphStateNone
	c.entries[victim].inUse = true
	c.table[slot] = victim
	c.touch(victim)
	c.stats.Misses++
	return victim, GlyphStateNone, false
}

// UpdateDims sets an entry's lifecycle state and tile footprint after
// sizing or rasterizing it.
func (c *GlyphCache) UpdateDims(id int, state GlyphState, dimX, dimY uint16) {
	c.entries[id].State = state
	c.entries[id].DimX = dimX
	c.entries[id].DimY = dimY
}

// GPUIndex returns the entry's permanently assigned atlas tile.
func (c *GlyphCache) GPUIndex(id int) TileIndex { return c.entries[id].GPUIndex }

// touch moves id to the MRU head of the LRU list.
func (c *GlyphCache) touch(id int) {
	if c.lruHead == id {
		return
	}
	e := &c.entries[id]
	// unlink
	if e.lruPrev != noEntry {
		c.entries[e.lruPrev].lruNext = e.lruNext
	}
	if e.lruNext != noEntry {
		c.entries[e.lruNext].lruPrev = e.lruPrev
	} else {
		c.lruTail = e.lruPrev
	}
	// relink at head
	e.lruPrev = noEntry
	e.lruNext = c.lruHead
	if c.lruHead != noEntry {
		c.entries[c.lruHead].lruPrev = id
	}
	c.lruHead = id
	if c.lruTail == noEntry {
		c.lruTail = id
	}
}
