package core

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/o3sim/insts"
	"github.com/sarchlab/o3sim/timing/latency"
)

// Comp wraps a Backend as an Akita ticking component so it runs under a
// discrete-event engine.
type Comp struct {
	*sim.TickingComponent

	backend *Backend
}

// Tick advances the backend one cycle. Returning false lets the engine
// retire the component once the trace has drained.
func (c *Comp) Tick() bool {
	return c.backend.Tick()
}

// Backend exposes the wrapped backend.
func (c *Comp) Backend() *Backend {
	return c.backend
}

// Run seeds the first tick and drives the engine until the backend drains.
func (c *Comp) Run() error {
	c.TickNow()
	return c.Engine.Run()
}

// Builder constructs backend components.
type Builder struct {
	engine    sim.Engine
	freq      sim.Freq
	program   []*insts.MicroOp
	config    *latency.TimingConfig
	maxCycles uint64
}

// NewBuilder returns a Builder with a 1 GHz clock and the default timing
// configuration.
func NewBuilder() Builder {
	return Builder{
		freq:   1 * sim.GHz,
		config: latency.DefaultTimingConfig(),
	}
}

// WithEngine sets the event engine the component runs on.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the component frequency.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithProgram sets the micro-op trace to execute.
func (b Builder) WithProgram(program []*insts.MicroOp) Builder {
	b.program = program
	return b
}

// WithConfig sets the timing configuration.
func (b Builder) WithConfig(config *latency.TimingConfig) Builder {
	b.config = config
	return b
}

// WithMaxCycles caps the simulated cycle count; zero means unlimited.
func (b Builder) WithMaxCycles(n uint64) Builder {
	b.maxCycles = n
	return b
}

// Build creates the component with the given name.
func (b Builder) Build(name string) *Comp {
	c := &Comp{
		backend: NewBackend(b.program, b.config),
	}
	c.backend.SetMaxCycles(b.maxCycles)
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)
	return c
}
