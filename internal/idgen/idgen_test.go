package idgen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	tests := []struct {
		cfg     Config
		kind    string
		foreign string
	}{
		{cfg: Config{}, kind: KindULID, foreign: "not-a-ulid"},
		{cfg: Config{Kind: "ULID"}, kind: KindULID, foreign: "550e8400-e29b-41d4-a716-446655440000"},
		{cfg: Config{Kind: KindUUID}, kind: KindUUID, foreign: "01ARZ3NDEKTSV4RRFFQ69G5FAV"},
		{cfg: Config{Kind: KindKSUID}, kind: KindKSUID, foreign: "short"},
		{cfg: Config{Kind: KindNanoID}, kind: KindNanoID, foreign: "has spaces in it!!!!!"},
		{cfg: Config{Kind: KindNanoID, NanoIDSize: 10}, kind: KindNanoID, foreign: "abc"},
		{cfg: Config{Kind: KindCUID2}, kind: KindCUID2, foreign: "UPPERCASE"},
		{cfg: Config{Kind: KindCUID2, CUID2Length: 10}, kind: KindCUID2, foreign: "a"},
		{cfg: Config{Kind: KindSnowflake}, kind: KindSnowflake, foreign: "12345"},
		{cfg: Config{Kind: KindSnowflake, SnowflakeNode: 7}, kind: KindSnowflake, foreign: "0000000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			gen, err := New(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, gen.Kind())

			seen := make(map[string]struct{})
			for i := 0; i < 50; i++ {
				id, err := gen.Generate()
				require.NoError(t, err)
				require.NoError(t, gen.Validate(id))
				seen[id] = struct{}{}
			}
			assert.Len(t, seen, 50)
			assert.Error(t, gen.Validate(tt.foreign))
		})
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{Kind: "sonyflake"})
	assert.Error(t, err)

	_, err = New(Config{Kind: KindSnowflake, SnowflakeNode: MaxSnowflakeNode + 1})
	assert.Error(t, err)

	_, err = New(Config{Kind: KindSnowflake, SnowflakeNode: -1})
	assert.Error(t, err)

	_, err = New(Config{Kind: KindNanoID, NanoIDSize: -1})
	assert.Error(t, err)

	_, err = New(Config{Kind: KindCUID2, CUID2Length: 64})
	assert.Error(t, err)
}

func TestULIDsSortInIssueOrder(t *testing.T) {
	g := NewULID()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return fixed }

	prev := ""
	for i := 0; i < 100; i++ {
		id, err := g.Generate()
		require.NoError(t, err)
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestSnowflakesSortInIssueOrder(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		clock []time.Time
	}{
		{name: "frozen", clock: []time.Time{base, base, base, base}},
		{name: "advancing", clock: []time.Time{base, base.Add(time.Millisecond), base.Add(time.Second)}},
		{name: "stepped back", clock: []time.Time{base, base.Add(-time.Minute), base.Add(-time.Second), base}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewSnowflake(3, 0)
			require.NoError(t, err)
			calls := 0
			g.now = func() time.Time {
				now := tt.clock[calls]
				calls++
				return now
			}

			prev := ""
			for range tt.clock {
				id, err := g.Generate()
				require.NoError(t, err)
				require.NoError(t, g.Validate(id))
				assert.Greater(t, id, prev)
				prev = id
			}
		})
	}
}

func TestSnowflakeSequenceRollover(t *testing.T) {
	g, err := NewSnowflake(1, 0)
	require.NoError(t, err)
	fixed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return fixed }

	prev := ""
	for i := 0; i < maxSnowflakeSeq+10; i++ {
		id, err := g.Generate()
		require.NoError(t, err)
		assert.Greater(t, id, prev)
		prev = id
	}

	at, err := g.Time(prev)
	require.NoError(t, err)
	assert.True(t, at.Equal(fixed.Add(time.Millisecond)))
}

func TestSnowflakeRejectsClockBeforeEpoch(t *testing.T) {
	g, err := NewSnowflake(0, DefaultSnowflakeEpoch)
	require.NoError(t, err)
	g.now = func() time.Time { return time.UnixMilli(DefaultSnowflakeEpoch - 1) }

	_, err = g.Generate()
	assert.Error(t, err)
}
