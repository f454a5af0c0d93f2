package editor

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces identifiers for signatures, placements and recipients.
type IDGenerator interface {
	NewID(prefix string) string
}

// UUIDGenerator yields "<prefix>-<uuid>" identifiers.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// SequenceGenerator yields "<prefix>-<n>" with a monotonic n. It is safe for
// concurrent use.
type SequenceGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *SequenceGenerator) NewID(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", prefix, g.n)
}
