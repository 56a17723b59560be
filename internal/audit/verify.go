// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package audit

import (
	"context"
	"fmt"
)

// ChainError reports the first entry at which hash-chain verification
// failed. Every entry after it is also untrustworthy.
type ChainError struct {
	// Seq is the sequence number of the first invalid entry.
	Seq int64

	// Reason describes the mismatch.
	Reason string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("audit chain broken at seq %d: %s", e.Seq, e.Reason)
}

// Verify recomputes the hash chain from the genesis entry and reports the
// number of verified entries. Any altered payload, reordered entry, or
// broken link yields a ChainError (R4.1, R4.2).
func (s *Store) Verify(ctx context.Context) (int, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return 0, err
	}

	prevHash := ""
	var prevSeq int64
	for i, e := range entries {
		if e.Seq != prevSeq+1 {
			return i, &ChainError{Seq: e.Seq, Reason: fmt.Sprintf("sequence gap after %d", prevSeq)}
		}
		if e.PrevHash != prevHash {
			return i, &ChainError{Seq: e.Seq, Reason: "prev_hash does not match preceding entry"}
		}
		if got := entryHash(e); got != e.Hash {
			return i, &ChainError{Seq: e.Seq, Reason: "stored hash does not match recomputed hash"}
		}
		prevHash = e.Hash
		prevSeq = e.Seq
	}
	return len(entries), nil
}
