package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/o3sim/timing/cache"
	"github.com/sarchlab/o3sim/timing/latency"
)

var _ = Describe("Cache", func() {
	var c *cache.Cache

	BeforeEach(func() {
		// Small cache for testing: 4KB, 4-way, 64B lines, 16 sets.
		c = cache.New(cache.Config{
			Size:          4 * 1024,
			Associativity: 4,
			BlockSize:     64,
			HitLatency:    1,
			MissLatency:   10,
		})
	})

	Describe("reads", func() {
		It("should miss on a cold cache", func() {
			result := c.Read(0x1000)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Latency).To(Equal(uint64(10)))

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(BeZero())
		})

		It("should hit on a warmed line", func() {
			c.Read(0x1000)

			result := c.Read(0x1000)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Latency).To(Equal(uint64(1)))
		})

		It("should hit anywhere within a fetched block", func() {
			c.Read(0x1000)

			Expect(c.Read(0x1008).Hit).To(BeTrue())
			Expect(c.Read(0x103F).Hit).To(BeTrue())
			Expect(c.Read(0x1040).Hit).To(BeFalse())
		})
	})

	Describe("writes", func() {
		It("should allocate on a write miss", func() {
			result := c.Write(0x2000)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Latency).To(Equal(uint64(10)))

			Expect(c.Read(0x2000).Hit).To(BeTrue())
		})

		It("should hit on a warmed line", func() {
			c.Write(0x2000)

			result := c.Write(0x2008)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Latency).To(Equal(uint64(1)))
		})
	})

	Describe("store-to-load forwarding", func() {
		It("should charge the forwarding latency once", func() {
			c.Write(0x3000)

			first := c.Read(0x3000)
			Expect(first.Hit).To(BeTrue())
			Expect(first.Latency).To(Equal(uint64(1) + cache.StoreForwardLatency))

			second := c.Read(0x3000)
			Expect(second.Latency).To(Equal(uint64(1)))
		})

		It("should not charge loads from other addresses", func() {
			c.Write(0x3000)
			c.Read(0x3008)

			result := c.Read(0x3008)
			Expect(result.Latency).To(Equal(uint64(1)))
		})
	})

	Describe("replacement", func() {
		It("should evict the least recently used way", func() {
			// 2 sets * 2 ways; addresses 0x000, 0x080, 0x100 all map
			// to set 0.
			c = cache.New(cache.Config{
				Size:          256,
				Associativity: 2,
				BlockSize:     64,
				HitLatency:    1,
				MissLatency:   10,
			})

			c.Read(0x000)
			c.Read(0x080)
			c.Read(0x000) // refresh; 0x080 becomes LRU

			result := c.Read(0x100)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Evicted).To(BeTrue())
			Expect(result.EvictedAddr).To(Equal(uint64(0x080)))

			Expect(c.Read(0x000).Hit).To(BeTrue())
			Expect(c.Read(0x080).Hit).To(BeFalse())
		})

		It("should not evict lines in other sets", func() {
			c.Read(0x1000) // set 0

			// Five blocks that all map to set 1 overflow its four ways.
			for i := 0; i < 5; i++ {
				c.Read(uint64(0x40 + i*16*64))
			}

			Expect(c.Stats().Evictions).To(Equal(uint64(1)))
			Expect(c.Read(0x1000).Hit).To(BeTrue())
		})
	})

	Describe("statistics", func() {
		It("should compute the hit rate", func() {
			c.Read(0x1000) // miss
			c.Read(0x1000) // hit
			c.Read(0x1000) // hit
			c.Read(0x2000) // miss

			stats := c.Stats()
			Expect(stats.Accesses()).To(Equal(uint64(4)))
			Expect(stats.HitRate()).To(BeNumerically("~", 0.5, 1e-9))
		})

		It("should report zero hit rate when idle", func() {
			Expect(c.Stats().HitRate()).To(BeZero())
		})

		It("should clear counters without losing cache state", func() {
			c.Read(0x1000)
			c.ResetStats()

			Expect(c.Stats()).To(Equal(cache.Statistics{}))
			Expect(c.Read(0x1000).Hit).To(BeTrue())
		})

		It("should invalidate everything on reset", func() {
			c.Read(0x1000)
			c.Reset()

			Expect(c.Read(0x1000).Hit).To(BeFalse())
		})
	})

	Describe("configuration", func() {
		It("should map the shared timing configuration", func() {
			tc := latency.DefaultTimingConfig()
			config := cache.FromTiming(tc)

			Expect(config.Size).To(Equal(tc.CacheSize))
			Expect(config.Associativity).To(Equal(tc.CacheAssociativity))
			Expect(config.BlockSize).To(Equal(tc.CacheBlockSize))
			Expect(config.HitLatency).To(Equal(tc.CacheHitLatency))
			Expect(config.MissLatency).To(Equal(tc.CacheMissLatency))
		})
	})
})
