package chunky

import "github.com/google/uuid"

// genID returns a fresh request/connection identifier. The teacher's
// version hand-rolled this with crypto/rand + hex; google/uuid is the
// ecosystem's standard tool for the same job and is what the rest of
// the corpus reaches for when it needs an opaque unique id.
func genID() string {
	return uuid.New().String()
}
