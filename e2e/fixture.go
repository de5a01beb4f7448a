//go:build e2e

package e2e

import (
	"context"
	"sync"

	"github.com/ThomasdenH/crev/internal/proof"
)

// memoryStore is an in-memory store.ProofStore fixture: a synchronized
// slice of already-published proofs, standing in for the git-backed store
// so the suite can exercise ingestion and verification without touching a
// real repository.
type memoryStore struct {
	mu     sync.Mutex
	proofs []*proof.ProofRecord
}

func newMemoryStore() *memoryStore {
	return &memoryStore{}
}

func (s *memoryStore) Fetch(ctx context.Context) ([]*proof.ProofRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*proof.ProofRecord, len(s.proofs))
	copy(out, s.proofs)
	return out, nil
}

func (s *memoryStore) Publish(ctx context.Context, p *proof.ProofRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proofs = append(s.proofs, p)
	return nil
}

func (s *memoryStore) Pull(ctx context.Context, kind, url string) error {
	return nil // the fixture has no remote; every proof is already local
}

func (s *memoryStore) GitPassthrough(ctx context.Context, args []string) (int, error) {
	return 0, nil
}

// failingCounter always fails, standing in for an unreachable remote
// package index.
type failingCounter struct{ err error }

func (f failingCounter) DownloadCount(ctx context.Context, source, name string) (int64, error) {
	return 0, f.err
}
