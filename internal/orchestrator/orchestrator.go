// Package orchestrator drives a bulk verification pass over a project's
// declared dependencies, composing DirectoryDigest, DigestVerifier, and
// ReviewQuery into one report row per dependency.
package orchestrator

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ThomasdenH/crev/internal/crates"
	"github.com/ThomasdenH/crev/internal/digest"
	"github.com/ThomasdenH/crev/internal/id"
	"github.com/ThomasdenH/crev/internal/review"
	"github.com/ThomasdenH/crev/internal/verify"
)

// Dependency is one descriptor obtained from the external package
// manager: an identifier and its on-disk materialization path.
type Dependency struct {
	Source  string
	Name    string
	Version string
	Path    string
}

// Row is one formatted report line the Orchestrator emits per dependency.
type Row struct {
	Dependency     Dependency
	Digest         digest.Digest
	Status         verify.Status
	ReviewsByName  int
	ReviewsByNameVersion int
	DownloadCount  int64
	DownloadCountErr bool
}

// TrustSource is the subset of TrustDB the Orchestrator needs: the
// reviewer lookup DigestVerifier requires. The precomputed trusted-id set
// is passed to Run separately.
type TrustSource interface {
	verify.ReviewSource
}

// Orchestrator drives the verify-deps pass.
type Orchestrator struct {
	db       TrustSource
	query    *review.Query
	counter  crates.DownloadCounter
	ignore   []string
	workdir  string
}

// New constructs an Orchestrator. workdir is the caller's current working
// directory, used to skip local workspace members (dependencies whose
// path is under it). counter may be crates.NoopCounter{} if no remote
// index is configured.
func New(db TrustSource, query *review.Query, counter crates.DownloadCounter, ignore []string, workdir string) *Orchestrator {
	return &Orchestrator{db: db, query: query, counter: counter, ignore: ignore, workdir: workdir}
}

// Run walks deps, skipping local workspace members, and returns one Row
// per remaining dependency in input order. A failure to fetch a remote
// download count is reported per-row (DownloadCountErr) without aborting
// the pass.
func (o *Orchestrator) Run(ctx context.Context, deps []Dependency, trustedIds map[id.Id]struct{}) ([]Row, error) {
	rows := make([]Row, 0, len(deps))
	for _, dep := range deps {
		if isWithinWorkdir(dep.Path, o.workdir) {
			continue // local workspace member
		}

		d, err := digest.Directory(dep.Path, o.ignore)
		if err != nil {
			return nil, err
		}

		status := verify.VerifyDigest(o.db, d, trustedIds)

		name := dep.Name
		version := dep.Version
		row := Row{
			Dependency:           dep,
			Digest:               d,
			Status:               status,
			ReviewsByName:        o.query.Count(dep.Source, &name, nil),
			ReviewsByNameVersion: o.query.Count(dep.Source, &name, &version),
		}

		count, err := o.counter.DownloadCount(ctx, dep.Source, dep.Name)
		if err != nil {
			row.DownloadCountErr = true
		} else {
			row.DownloadCount = count
		}

		rows = append(rows, row)
	}
	return rows, nil
}

// isWithinWorkdir reports whether path is workdir itself or a descendant
// of it. Unlike a lexical prefix check, this rejects unrelated siblings
// that merely share a string prefix (e.g. workdir "/tmp/abc" must not
// match "/tmp/abcdef/pkg").
func isWithinWorkdir(path, workdir string) bool {
	if workdir == "" {
		return false
	}
	rel, err := filepath.Rel(workdir, path)
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}
