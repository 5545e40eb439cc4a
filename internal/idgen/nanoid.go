package idgen

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	DefaultNanoIDSize     = 21
	DefaultNanoIDAlphabet = "_-0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

type NanoIDGenerator struct {
	size int
}

// NewNanoID returns a generator of size-character IDs. Zero means the
// default size.
func NewNanoID(size int) (*NanoIDGenerator, error) {
	if size == 0 {
		size = DefaultNanoIDSize
	}
	if size < 1 || size > 256 {
		return nil, fmt.Errorf("nanoid size must be between 1 and 256, got %d", size)
	}
	return &NanoIDGenerator{size: size}, nil
}

func (g *NanoIDGenerator) Generate() (string, error) {
	id, err := gonanoid.Generate(DefaultNanoIDAlphabet, g.size)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return id, nil
}

func (g *NanoIDGenerator) Validate(id string) error {
	if len(id) != g.size {
		return fmt.Errorf("invalid nanoid: expected length %d, got %d", g.size, len(id))
	}
	for _, r := range id {
		if !strings.ContainsRune(DefaultNanoIDAlphabet, r) {
			return fmt.Errorf("invalid nanoid: unexpected character %q", r)
		}
	}
	return nil
}

func (g *NanoIDGenerator) Kind() string { return KindNanoID }
