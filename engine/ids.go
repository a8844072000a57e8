package engine

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	idMu     sync.Mutex
	idSource = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// NewID assigns a fresh, lexicographically sortable opaque identifier —
// phlow's Identifier, used for step ids that a script doesn't supply one
// for and for per-run trace ids.
func NewID() string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), idSource).String()
}
