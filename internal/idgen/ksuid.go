package idgen

import (
	"fmt"

	"github.com/segmentio/ksuid"
)

// KSUIDGenerator issues KSUIDs, which sort by second.
type KSUIDGenerator struct{}

func NewKSUID() *KSUIDGenerator { return &KSUIDGenerator{} }

func (g *KSUIDGenerator) Generate() (string, error) {
	id, err := ksuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate ksuid: %w", err)
	}
	return id.String(), nil
}

func (g *KSUIDGenerator) Validate(id string) error {
	if _, err := ksuid.Parse(id); err != nil {
		return fmt.Errorf("invalid ksuid: %w", err)
	}
	return nil
}

func (g *KSUIDGenerator) Kind() string { return KindKSUID }
