package idgen

import (
	"fmt"

	"github.com/google/uuid"
)

// UUIDGenerator issues random (v4) UUIDs.
type UUIDGenerator struct{}

func NewUUID() *UUIDGenerator { return &UUIDGenerator{} }

func (g *UUIDGenerator) Generate() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return id.String(), nil
}

func (g *UUIDGenerator) Validate(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid uuid: %w", err)
	}
	return nil
}

func (g *UUIDGenerator) Kind() string { return KindUUID }
