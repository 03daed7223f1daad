package crdt

import "github.com/google/uuid"

// uuidFor returns a deterministic UUID for n, so ordering-sensitive tests
// (tie-break on device ID) don't depend on uuid.New()'s randomness.
func uuidFor(n byte) uuid.UUID {
	var id uuid.UUID
	id[len(id)-1] = n
	return id
}
