package editor

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// id prefixes for synthesized entities
const (
	PrefixTable        = "table"
	PrefixColumn       = "col"
	PrefixRelationship = "rel"
)

// IDGenerator synthesizes ids that are unique for the lifetime of a session
type IDGenerator interface {
	NewID(prefix string) string
}

type uuidGenerator struct{}

// NewUUIDGenerator returns a generator yielding <prefix>_<uuid>
func NewUUIDGenerator() IDGenerator {
	return uuidGenerator{}
}

func (uuidGenerator) NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// SequenceGenerator yields <prefix>_1, <prefix>_2, ... with one counter per prefix
type SequenceGenerator struct {
	mu       sync.Mutex
	counters map[string]int
}

var _ IDGenerator = (*SequenceGenerator)(nil)

// NewSequenceGenerator returns a deterministic generator, mostly useful in tests
func NewSequenceGenerator() *SequenceGenerator {
	return &SequenceGenerator{counters: make(map[string]int)}
}

func (g *SequenceGenerator) NewID(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counters[prefix]++
	return fmt.Sprintf("%s_%d", prefix, g.counters[prefix])
}

// GeneratorFor maps a configured strategy name to a generator
func GeneratorFor(strategy string) (IDGenerator, error) {
	switch strategy {
	case "", "uuid":
		return NewUUIDGenerator(), nil
	case "sequence":
		return NewSequenceGenerator(), nil
	}
	return nil, errors.Newf("unknown id strategy %q", strategy)
}
