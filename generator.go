package snowflake

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// Bit layout, most significant first: timestamp | datacenter | node | sequence.
const (
	Epoch int64 = 1413817200000 // 2014-10-20T15:00:00Z in ms

	DatacenterBits = 5
	NodeBits       = 5
	SeqBits        = 12

	NodeShift       = SeqBits
	DatacenterShift = NodeShift + NodeBits
	TimeShift       = DatacenterShift + DatacenterBits

	MaxDatacenterID = (1 << DatacenterBits) - 1
	MaxNodeID       = (1 << NodeBits) - 1
	MaxSeq          = (1 << SeqBits) - 1

	maxTimestampDelta = (1 << (64 - TimeShift)) - 1

	// neverGenerated is the lastTimestamp sentinel of a fresh Generator.
	neverGenerated int64 = -1
)

var (
	ErrInvalidConfiguration = errors.New("snowflake: invalid configuration")
	ErrNotInitialized       = errors.New("snowflake: allocator must be configured first")
	ErrClockMovedBackwards  = errors.New("snowflake: clock moved backwards")
	ErrFieldRange           = errors.New("snowflake: field out of range")
)

var DefaultFormat Format = FormatDecimal

// DefaultGenerator backs the package-level Configure, NextID and New.
var DefaultGenerator = NewGenerator()

// Configure sets the datacenter and node IDs of the DefaultGenerator.
// Call this once at startup before using NextID or New.
func Configure(datacenterID, nodeID int64) error {
	return DefaultGenerator.Configure(datacenterID, nodeID)
}

// NextID allocates an ID from the DefaultGenerator and returns it as a
// decimal string.
func NextID() (string, error) {
	return DefaultGenerator.NextID()
}

// New allocates an ID from the DefaultGenerator.
// Panics if Configure() hasn't been called.
func New() ID {
	id, err := DefaultGenerator.Next()
	if err != nil {
		panic(err)
	}
	return id
}

// RegressionPolicy decides what Next does when the clock reports a time
// earlier than the last allocation.
type RegressionPolicy int

const (
	// RegressionHold keeps allocating at the last timestamp, incrementing the
	// sequence, until the clock catches up.
	RegressionHold RegressionPolicy = iota
	// RegressionReject fails with ErrClockMovedBackwards until the clock
	// catches up.
	RegressionReject
)

func (p RegressionPolicy) String() string {
	switch p {
	case RegressionHold:
		return "hold"
	case RegressionReject:
		return "reject"
	default:
		return fmt.Sprintf("RegressionPolicy(%d)", int(p))
	}
}

func ParseRegressionPolicy(s string) (RegressionPolicy, error) {
	switch s {
	case "hold", "":
		return RegressionHold, nil
	case "reject":
		return RegressionReject, nil
	default:
		return 0, fmt.Errorf("snowflake: unknown regression policy %q", s)
	}
}

// Option configures a Generator.
type Option func(*Generator)

func WithClock(c Clock) Option {
	return func(g *Generator) {
		g.clock = c
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithWaitInterval sets how long Next sleeps between clock reads while
// waiting for the next millisecond. Zero spins.
func WithWaitInterval(d time.Duration) Option {
	return func(g *Generator) {
		g.waitInterval = d
	}
}

func WithRegressionPolicy(p RegressionPolicy) Option {
	return func(g *Generator) {
		g.policy = p
	}
}

// Generator allocates Snowflake IDs for one (datacenter, node) pair.
// It is safe for concurrent use.
type Generator struct {
	clock        Clock
	logger       *slog.Logger
	waitInterval time.Duration
	policy       RegressionPolicy

	mu            sync.Mutex
	configured    bool
	datacenterID  int64
	nodeID        int64
	lastTimestamp int64
	sequence      int64
}

// NewGenerator returns an unconfigured Generator. Configure must succeed
// before Next can allocate.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		clock:         SystemClock,
		logger:        slog.New(slog.DiscardHandler),
		policy:        RegressionHold,
		lastTimestamp: neverGenerated,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Configure validates and stores the datacenter and node IDs. It may be
// called again later; a failed call leaves any earlier configuration in
// place. The allocation state is kept across reconfiguration.
func (g *Generator) Configure(datacenterID, nodeID int64) error {
	if err := validateField("datacenter_id", datacenterID, MaxDatacenterID); err != nil {
		return err
	}
	if err := validateField("node_id", nodeID, MaxNodeID); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.datacenterID = datacenterID
	g.nodeID = nodeID
	g.configured = true
	return nil
}

func validateField(name string, v, limit int64) error {
	if v < 0 || v > limit {
		return fmt.Errorf("%w: %s must be an integer n, where 0 ≤ n ≤ %d", ErrInvalidConfiguration, name, limit)
	}
	return nil
}

func (g *Generator) Configured() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.configured
}

func (g *Generator) DatacenterID() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.datacenterID
}

func (g *Generator) NodeID() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.nodeID
}

// NextID allocates an ID and returns its decimal representation.
func (g *Generator) NextID() (string, error) {
	id, err := g.Next()
	if err != nil {
		return "", err
	}
	return id.Format(FormatDecimal), nil
}

// Next allocates an ID. At most MaxSeq+1 IDs are issued per millisecond;
// beyond that Next blocks until the clock reaches the next millisecond.
func (g *Generator) Next() (ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.configured {
		return Nil, ErrNotInitialized
	}

	ts := g.clock.UnixMilli()
	if ts < g.lastTimestamp {
		behind := g.lastTimestamp - ts
		if g.policy == RegressionReject {
			g.logger.Warn("clock moved backwards, rejecting allocation",
				"last_timestamp", g.lastTimestamp, "now", ts, "behind_ms", behind)
			return Nil, fmt.Errorf("%w by %dms", ErrClockMovedBackwards, behind)
		}
		g.logger.Warn("clock moved backwards, holding last timestamp",
			"last_timestamp", g.lastTimestamp, "now", ts, "behind_ms", behind)
		ts = g.lastTimestamp
	}
	if delta := ts - Epoch; delta < 0 || delta > maxTimestampDelta {
		return Nil, fmt.Errorf("%w: clock reading %d is outside the representable range", ErrFieldRange, ts)
	}

	if ts == g.lastTimestamp {
		g.sequence = (g.sequence + 1) & MaxSeq
		if g.sequence == 0 {
			g.logger.Debug("sequence exhausted, waiting for next millisecond",
				"last_timestamp", g.lastTimestamp)
			ts = g.tilNextMillis(g.lastTimestamp)
		}
	} else {
		g.sequence = 0
	}

	g.lastTimestamp = ts
	return compose(ts-Epoch, g.datacenterID, g.nodeID, g.sequence), nil
}

// tilNextMillis polls the clock until it reports a time after last.
func (g *Generator) tilNextMillis(last int64) int64 {
	ts := g.clock.UnixMilli()
	for ts <= last {
		if g.waitInterval > 0 {
			time.Sleep(g.waitInterval)
		} else {
			runtime.Gosched()
		}
		ts = g.clock.UnixMilli()
	}
	return ts
}
