package idgen

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Generator produces identifiers for metric items, filters and saved
// queries. Identifiers never reach the compiled query text.
type Generator interface {
	NewID() string
}

type uuidGenerator struct {
	fallback atomic.Uint64
}

// NewUUIDGenerator returns a Generator backed by random UUIDs. When the
// random source fails it falls back to a timestamp plus a process-wide counter.
func NewUUIDGenerator() Generator {
	return &uuidGenerator{}
}

func (g *uuidGenerator) NewID() string {
	id, err := uuid.NewRandom()
	if err == nil {
		return id.String()
	}
	log.Warn().Err(err).Msg("Random UUID unavailable, using fallback identifier")
	return fmt.Sprintf("%x-%x", time.Now().UnixNano(), g.fallback.Add(1))
}

// Sequence yields prefix-1, prefix-2, ... and is meant for tests and
// reproducible fixtures.
type Sequence struct {
	prefix string
	n      atomic.Uint64
}

func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) NewID() string {
	return fmt.Sprintf("%s-%d", s.prefix, s.n.Add(1))
}
