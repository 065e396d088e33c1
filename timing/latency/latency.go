// Package latency provides the timing parameters of the modeled backend:
// per-unit execution latencies, pipeline flush penalties, and the sizes of
// the scoreboard, branch predictor, and data cache. Values are configurable
// via TimingConfig.
package latency

import (
	"github.com/sarchlab/o3sim/insts"
)

// Table provides execution latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a latency table with a custom configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// ExecLatency returns the execution latency in cycles for the given op.
// Loads are priced by the cache model; for them the L1 hit latency stands
// in when no cache is consulted.
func (t *Table) ExecLatency(op *insts.MicroOp) uint64 {
	if op == nil {
		return 1
	}

	switch op.Unit() {
	case insts.UnitALU:
		return t.config.ALULatency
	case insts.UnitMUL:
		return t.config.MultiplyLatency
	case insts.UnitDIV:
		return t.config.DivideLatency
	case insts.UnitBR:
		return t.config.BranchLatency
	case insts.UnitMEM:
		if op.Kind == insts.KindST {
			return t.config.StoreLatency
		}
		return t.config.CacheHitLatency
	default:
		return 1
	}
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
