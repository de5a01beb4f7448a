package main

import (
	"context"

	"github.com/ThomasdenH/crev/internal/crates"
	"github.com/ThomasdenH/crev/internal/review"
	"github.com/ThomasdenH/crev/internal/store"
	"github.com/ThomasdenH/crev/internal/trustdb"
)

// openStore constructs the configured git-backed ProofStore, cloning it
// if it is not yet present locally.
func openStore(ctx context.Context) (*store.GitProofStore, error) {
	s := store.NewGitProofStore(cfg.ProofRepoPath, cfg.ProofRepoURL)
	if cfg.ProofRepoURL != "" {
		if err := s.EnsureCloned(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// loadDB fetches every proof from the configured store and ingests it
// into a fresh TrustDB.
func loadDB(ctx context.Context) (*trustdb.TrustDB, *review.Query, error) {
	s, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	proofs, err := s.Fetch(ctx)
	if err != nil {
		return nil, nil, err
	}
	db := trustdb.New()
	db.ImportFromIter(proofs)
	return db, review.New(db), nil
}

var downloadCounter crates.DownloadCounter = crates.NoopCounter{}
