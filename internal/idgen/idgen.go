// Package idgen generates message identifiers. The default ULID generator
// is monotonic, so IDs issued by one process sort in issue order. Snowflake
// IDs are time-ordered too.
package idgen

import (
	"fmt"
	"strings"
)

const (
	KindULID      = "ulid"
	KindUUID      = "uuid"
	KindKSUID     = "ksuid"
	KindNanoID    = "nanoid"
	KindCUID2     = "cuid2"
	KindSnowflake = "snowflake"
)

// Generator issues and recognises identifiers of one kind.
type Generator interface {
	Generate() (string, error)
	Validate(id string) error
	Kind() string
}

type Config struct {
	Kind           string `mapstructure:"kind"`
	NanoIDSize     int    `mapstructure:"nanoid_size"`
	CUID2Length    int    `mapstructure:"cuid2_length"`
	SnowflakeNode  int64  `mapstructure:"snowflake_node"`
	SnowflakeEpoch int64  `mapstructure:"snowflake_epoch"`
}

// New returns the generator named by cfg.Kind. An empty kind means ULID.
func New(cfg Config) (Generator, error) {
	switch strings.ToLower(cfg.Kind) {
	case "", KindULID:
		return NewULID(), nil
	case KindUUID:
		return NewUUID(), nil
	case KindKSUID:
		return NewKSUID(), nil
	case KindNanoID:
		return NewNanoID(cfg.NanoIDSize)
	case KindCUID2:
		return NewCUID2(cfg.CUID2Length)
	case KindSnowflake:
		return NewSnowflake(cfg.SnowflakeNode, cfg.SnowflakeEpoch)
	default:
		return nil, fmt.Errorf("unknown id kind %q", cfg.Kind)
	}
}
