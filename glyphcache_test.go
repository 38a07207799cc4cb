package refterm

import "testing"

func TestGlyphCacheMissThenHit(t *testing.T) {
	c := NewGlyphCache(16, 4, 100)
	hash := c.HashRun([]rune("ab"))

	id, state, hit := c.Find(hash)
	if hit {
		t.Fatal("first Find should miss")
	}
	if state != GlyphStateNone {
		t.Fatalf("state = %v, want GlyphStateNone", state)
	}
	c.UpdateDims(id, GlyphStateRasterized, 1, 1)

	id2, state2, hit2 := c.Find(hash)
	if !hit2 {
		t.Fatal("second Find with same hash should hit")
	}
	if id2 != id {
		t.Fatalf("hit returned different id: %d != %d", id2, id)
	}
	if state2 != GlyphStateRasterized {
		t.Fatalf("state2 = %v, want GlyphStateRasterized", state2)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("stats = %+v, want 1 hit and 1 miss", stats)
	}
}

func TestGlyphCacheGPUIndexStableAcrossRecycle(t *testing.T) {
	c := NewGlyphCache(16, 2, 100)
	h1 := c.HashRun([]rune("a"))
	h2 := c.HashRun([]rune("b"))
	h3 := c.HashRun([]rune("c"))

	c.Find(h1)
	c.Find(h2)
	// entries full; a third distinct run must recycle the LRU entry (h1).
	id3, _, hit3 := c.Find(h3)
	if hit3 {
		t.Fatal("third distinct hash must not hit")
	}

	stats := c.Stats()
	if stats.Recycles == 0 {
		t.Fatal("expected at least one recycle once the arena is full")
	}
	// GPU indices are permanently bound to arena slots at construction.
	gpu := c.GPUIndex(id3)
	if gpu != 100 && gpu != 101 {
		t.Fatalf("GPUIndex(id3) = %d, want 100 or 101", gpu)
	}
}

func TestGlyphCacheLRUPromotesOnHit(t *testing.T) {
	c := NewGlyphCache(16, 2, 100)
	ha := c.HashRun([]rune("a"))
	hb := c.HashRun([]rune("b"))
	hc := c.HashRun([]rune("c"))

	idA, _, _ := c.Find(ha)
	c.Find(hb)
	// touch a again, making b the LRU victim instead of a
	c.Find(ha)
	idC, _, _ := c.Find(hc)

	if idC == idA {
		t.Fatal("recycling should have evicted b (LRU), not a (just touched)")
	}
}

func TestHashRunDeterministic(t *testing.T) {
	c := NewGlyphCache(16, 4, 0)
	a := c.HashRun([]rune("hello"))
	b := c.HashRun([]rune("hello"))
	if a != b {
		t.Fatal("HashRun must be deterministic for identical input")
	}
	if a == c.HashRun([]rune("world")) {
		t.Fatal("HashRun should differ for different input (overwhelmingly likely)")
	}
}
