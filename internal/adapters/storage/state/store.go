// Package state persists per-registrant reminder state. The whole snapshot
// is loaded at startup, mutated in memory, and written back after every
// successful send. Write amplification is accepted: registrant counts are
// small and ticks are a minute apart.
package state

import (
	"context"

	"remindbot/internal/domain/registrant"
)

// Store is the durable snapshot behind the decision engine. Implementations
// must treat absent storage as empty state and surface corrupt storage as an
// error, and must make Save atomic enough that a concurrent reader never
// sees a half-written snapshot.
type Store interface {
	// Load deserializes the full snapshot keyed by registrant email.
	// PRE: none
	// POST: Absent storage yields an empty map and nil error; corrupt
	// storage yields an error
	Load(ctx context.Context) (map[string]registrant.State, error)

	// Save persists the full snapshot, replacing the previous one.
	// PRE: states is the complete in-memory state
	// POST: On success the on-disk snapshot round-trips through Load
	Save(ctx context.Context, states map[string]registrant.State) error
}
