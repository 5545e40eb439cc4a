package idgen

import (
	"fmt"
	"strconv"
	"sync"
	"time"
)

const (
	snowflakeTimeBits = 41
	snowflakeNodeBits = 10
	snowflakeSeqBits  = 12

	MaxSnowflakeNode = (1 << snowflakeNodeBits) - 1
	maxSnowflakeSeq  = (1 << snowflakeSeqBits) - 1

	snowflakeNodeShift = snowflakeSeqBits
	snowflakeTimeShift = snowflakeSeqBits + snowflakeNodeBits

	// DefaultSnowflakeEpoch is 2024-01-01T00:00:00Z in unix milliseconds.
	DefaultSnowflakeEpoch int64 = 1704067200000

	// fixed width keeps string order equal to numeric order
	snowflakeDigits = 19
)

// SnowflakeGenerator issues 64-bit time-ordered IDs rendered as
// zero-padded decimals.
type SnowflakeGenerator struct {
	mu       sync.Mutex
	epoch    int64
	node     int64
	sequence int64
	lastMs   int64
	now      func() time.Time
}

// NewSnowflake returns a generator for node in [0, MaxSnowflakeNode].
// A zero epoch means DefaultSnowflakeEpoch.
func NewSnowflake(node, epoch int64) (*SnowflakeGenerator, error) {
	if node < 0 || node > MaxSnowflakeNode {
		return nil, fmt.Errorf("snowflake node must be between 0 and %d, got %d", MaxSnowflakeNode, node)
	}
	if epoch == 0 {
		epoch = DefaultSnowflakeEpoch
	}
	return &SnowflakeGenerator{
		epoch: epoch,
		node:  node,
		now:   time.Now,
	}, nil
}

func (g *SnowflakeGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms < g.epoch {
		return "", fmt.Errorf("clock is before snowflake epoch")
	}
	// a clock that stepped back keeps counting from the last millisecond
	if ms < g.lastMs {
		ms = g.lastMs
	}

	if ms == g.lastMs {
		g.sequence = (g.sequence + 1) & maxSnowflakeSeq
		if g.sequence == 0 {
			// sequence exhausted, borrow the next millisecond
			ms++
		}
	} else {
		g.sequence = 0
	}
	g.lastMs = ms

	id := ((ms - g.epoch) << snowflakeTimeShift) | (g.node << snowflakeNodeShift) | g.sequence
	return fmt.Sprintf("%0*d", snowflakeDigits, id), nil
}

func (g *SnowflakeGenerator) Validate(id string) error {
	if len(id) != snowflakeDigits {
		return fmt.Errorf("invalid snowflake: want %d digits, got %d", snowflakeDigits, len(id))
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n < 0 {
		return fmt.Errorf("invalid snowflake: %q", id)
	}
	if node := (n >> snowflakeNodeShift) & MaxSnowflakeNode; node != g.node {
		return fmt.Errorf("invalid snowflake: node %d, want %d", node, g.node)
	}
	return nil
}

func (g *SnowflakeGenerator) Kind() string { return KindSnowflake }

// Time returns the millisecond timestamp encoded in a valid id.
func (g *SnowflakeGenerator) Time(id string) (time.Time, error) {
	if err := g.Validate(id); err != nil {
		return time.Time{}, err
	}
	n, _ := strconv.ParseInt(id, 10, 64)
	ms := (n>>snowflakeTimeShift)&((1<<snowflakeTimeBits)-1) + g.epoch
	return time.UnixMilli(ms).UTC(), nil
}
