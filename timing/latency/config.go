package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds the latency values and structure sizes of the modeled
// backend. Defaults approximate a modest out-of-order core.
type TimingConfig struct {
	// ALULatency is the execution latency for integer ALU operations
	// (add, sub, logic, shifts, addi). Default: 1 cycle.
	ALULatency uint64 `json:"alu_latency"`

	// MultiplyLatency is the latency for integer multiply. Default: 3 cycles.
	MultiplyLatency uint64 `json:"multiply_latency"`

	// DivideLatency is the latency for integer divide. Default: 12 cycles.
	DivideLatency uint64 `json:"divide_latency"`

	// BranchLatency is the branch resolution latency, not including any
	// misprediction penalty. Default: 1 cycle.
	BranchLatency uint64 `json:"branch_latency"`

	// StoreLatency is the latency for stores (fire-and-forget toward the
	// store queue). Default: 1 cycle.
	StoreLatency uint64 `json:"store_latency"`

	// BranchMispredictPenalty is the number of cycles the front end stays
	// silent after a mispredicted branch resolves. Default: 12 cycles.
	BranchMispredictPenalty uint64 `json:"branch_mispredict_penalty"`

	// TrapFlushPenalty is the number of cycles the front end stays silent
	// after a faulting instruction reaches commit and flushes the
	// pipeline. Default: 20 cycles.
	TrapFlushPenalty uint64 `json:"trap_flush_penalty"`

	// ScoreboardCapacity is the in-flight instruction window size. Must
	// be a power of two. Default: 32 entries.
	ScoreboardCapacity int `json:"scoreboard_capacity"`

	// BHTSize is the branch history table entry count. Must be a power
	// of two. Default: 1024 entries.
	BHTSize uint32 `json:"bht_size"`

	// BTBSize is the branch target buffer entry count. Must be a power
	// of two. Default: 256 entries.
	BTBSize uint32 `json:"btb_size"`

	// CacheSize is the L1 data cache capacity in bytes. Default: 32 KiB.
	CacheSize int `json:"cache_size"`

	// CacheAssociativity is the L1 data cache way count. Default: 8.
	CacheAssociativity int `json:"cache_associativity"`

	// CacheBlockSize is the L1 data cache line size in bytes. Must be a
	// power of two. Default: 64.
	CacheBlockSize int `json:"cache_block_size"`

	// CacheHitLatency is the load-to-use latency on an L1 hit.
	// Default: 3 cycles.
	CacheHitLatency uint64 `json:"cache_hit_latency"`

	// CacheMissLatency is the load-to-use latency on an L1 miss.
	// Default: 40 cycles.
	CacheMissLatency uint64 `json:"cache_miss_latency"`
}

// DefaultTimingConfig returns a TimingConfig with the default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ALULatency:              1,
		MultiplyLatency:         3,
		DivideLatency:           12,
		BranchLatency:           1,
		StoreLatency:            1,
		BranchMispredictPenalty: 12,
		TrapFlushPenalty:        20,
		ScoreboardCapacity:      32,
		BHTSize:                 1024,
		BTBSize:                 256,
		CacheSize:               32 * 1024,
		CacheAssociativity:      8,
		CacheBlockSize:          64,
		CacheHitLatency:         3,
		CacheMissLatency:        40,
	}
}

// LoadConfig loads a TimingConfig from a JSON file. Fields absent from the
// file keep their default values.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks latencies and structure sizes before they reach the
// construction-time panics of the structures they parameterize.
func (c *TimingConfig) Validate() error {
	if c.ALULatency == 0 {
		return fmt.Errorf("alu_latency must be > 0")
	}
	if c.MultiplyLatency == 0 {
		return fmt.Errorf("multiply_latency must be > 0")
	}
	if c.DivideLatency == 0 {
		return fmt.Errorf("divide_latency must be > 0")
	}
	if c.BranchLatency == 0 {
		return fmt.Errorf("branch_latency must be > 0")
	}
	if c.StoreLatency == 0 {
		return fmt.Errorf("store_latency must be > 0")
	}
	if c.CacheHitLatency == 0 {
		return fmt.Errorf("cache_hit_latency must be > 0")
	}
	if c.CacheMissLatency < c.CacheHitLatency {
		return fmt.Errorf("cache_miss_latency must be >= cache_hit_latency")
	}
	if c.ScoreboardCapacity <= 0 || !isPowerOfTwo(uint64(c.ScoreboardCapacity)) {
		return fmt.Errorf("scoreboard_capacity must be a power of two, got %d",
			c.ScoreboardCapacity)
	}
	if !isPowerOfTwo(uint64(c.BHTSize)) {
		return fmt.Errorf("bht_size must be a power of two, got %d", c.BHTSize)
	}
	if !isPowerOfTwo(uint64(c.BTBSize)) {
		return fmt.Errorf("btb_size must be a power of two, got %d", c.BTBSize)
	}
	if c.CacheBlockSize <= 0 || !isPowerOfTwo(uint64(c.CacheBlockSize)) {
		return fmt.Errorf("cache_block_size must be a power of two, got %d",
			c.CacheBlockSize)
	}
	if c.CacheAssociativity <= 0 {
		return fmt.Errorf("cache_associativity must be > 0")
	}
	sets := c.CacheSize / (c.CacheAssociativity * c.CacheBlockSize)
	if sets <= 0 || !isPowerOfTwo(uint64(sets)) {
		return fmt.Errorf(
			"cache_size / (associativity * block_size) must be a power of two, got %d",
			sets)
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}

func isPowerOfTwo(v uint64) bool {
	return v != 0 && v&(v-1) == 0
}
