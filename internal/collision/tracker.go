// Package collision detects sources with identical content among a batch of
// differently named files.
package collision

import (
	"fmt"
	"sync"

	"github.com/arloliu/dataless/errs"
)

// Tracker remembers which source name first claimed each content hash.
//
// Thread Safety: a Tracker is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	owners map[uint64]string // hash -> first name
	hashes map[string]uint64 // name -> hash
	dups   int
}

// NewTracker creates a new collision tracker.
func NewTracker() *Tracker {
	return &Tracker{
		owners: make(map[uint64]string),
		hashes: make(map[string]uint64),
	}
}

// Claim records that source name has content hash.
//
// Parameters:
//   - name: Source name, unique within the batch
//   - hash: Content fingerprint of the source
//
// Returns:
//   - string: The name that claimed hash first (name itself for a new hash)
//   - bool: true when an earlier source already holds the same content
//   - error: ErrInvalidSourceName for an empty name, ErrSourceTracked when name
//     was claimed before with a different hash
func (t *Tracker) Claim(name string, hash uint64) (string, bool, error) {
	if name == "" {
		return "", false, errs.ErrInvalidSourceName
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.hashes[name]; ok {
		if prev != hash {
			return "", false, fmt.Errorf("%w: %s", errs.ErrSourceTracked, name)
		}

		// claiming again is idempotent
		owner := t.owners[hash]
		return owner, owner != name, nil
	}

	t.hashes[name] = hash

	if owner, ok := t.owners[hash]; ok {
		t.dups++
		return owner, true, nil
	}
	t.owners[hash] = name

	return name, false, nil
}

// Duplicates returns the number of claims that matched an earlier source.
func (t *Tracker) Duplicates() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.dups
}

// Distinct returns the number of different contents seen.
func (t *Tracker) Distinct() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.owners)
}

// Count returns the number of tracked sources.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.hashes)
}
