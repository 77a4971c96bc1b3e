package friendships

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces identifiers for newly created friendships.
type IDGenerator func() string

// UUIDs generates random UUIDv4 identifiers.
func UUIDs() IDGenerator {
	return uuid.NewString
}

// SequentialIDs returns a generator yielding prefix-1, prefix-2, ...
func SequentialIDs(prefix string) IDGenerator {
	var n atomic.Uint64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}
