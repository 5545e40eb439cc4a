package idgen

import (
	"fmt"

	"github.com/nrednav/cuid2"
)

const DefaultCUID2Length = 24

type CUID2Generator struct {
	length   int
	generate func() string
}

// NewCUID2 returns a generator of length-character CUID2s. Zero means the
// default length.
func NewCUID2(length int) (*CUID2Generator, error) {
	if length == 0 {
		length = DefaultCUID2Length
	}
	if length < 2 || length > 32 {
		return nil, fmt.Errorf("cuid2 length must be between 2 and 32, got %d", length)
	}
	gen, err := cuid2.Init(cuid2.WithLength(length))
	if err != nil {
		return nil, fmt.Errorf("init cuid2: %w", err)
	}
	return &CUID2Generator{length: length, generate: gen}, nil
}

func (g *CUID2Generator) Generate() (string, error) {
	return g.generate(), nil
}

func (g *CUID2Generator) Validate(id string) error {
	if len(id) != g.length || !cuid2.IsCuid(id) {
		return fmt.Errorf("invalid cuid2 %q", id)
	}
	return nil
}

func (g *CUID2Generator) Kind() string { return KindCUID2 }
