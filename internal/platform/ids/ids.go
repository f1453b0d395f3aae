// Package ids generates the ULID identifiers used for every row and QR token.
package ids

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type IDGen interface {
	New() (string, error)
}

type ulidGen struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// ULID returns a generator whose ids sort by creation time.
func ULID() IDGen {
	return &ulidGen{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ulidGen) New() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), g.entropy)
	if err != nil {
		return "", fmt.Errorf("generate ulid: %w", err)
	}
	return id.String(), nil
}

// Sequence yields prefix-1, prefix-2, ... for tests.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func NewSequence(prefix string) *Sequence { return &Sequence{prefix: prefix} }

func (s *Sequence) New() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", s.prefix, s.n), nil
}
