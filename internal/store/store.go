// Package store implements the ProofStore boundary: an opaque,
// append-oriented, git-backed persistence and synchronization layer for
// proofs. It is the only place in the system that retries I/O.
package store

import (
	"context"

	"github.com/ThomasdenH/crev/internal/proof"
)

// ProofStore is the opaque interface the core depends on: it yields
// proofs and accepts new ones, and exposes the git pass-through commands
// the CLI surface names.
type ProofStore interface {
	// Fetch returns every proof currently available locally.
	Fetch(ctx context.Context) ([]*proof.ProofRecord, error)
	// Publish appends a newly signed proof and persists it.
	Publish(ctx context.Context, p *proof.ProofRecord) error
	// Pull replenishes the local store from the given remote kind: one of
	// "trusted" (remotes of trusted ids), "url" (a single remote), or
	// "all" (every known remote).
	Pull(ctx context.Context, kind, url string) error
	// GitPassthrough runs a raw git subcommand against the proof
	// repository, returning its exit code. Used for `diff`, `commit`,
	// `push`, `pull`, and arbitrary `git` invocations the store doesn't
	// model as first-class operations.
	GitPassthrough(ctx context.Context, args []string) (exitCode int, err error)
}
