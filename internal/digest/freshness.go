package digest

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	crerrors "github.com/ThomasdenH/crev/internal/errors"
)

// Materializer re-downloads/re-extracts an artifact's on-disk
// representation into destPath. It is the package manager's acquisition
// boundary; this package never touches the network or an archive format
// itself.
type Materializer interface {
	Materialize(ctx context.Context, destPath string) error
}

// VerifyFreshness implements the freshness protocol: rename the target
// directory aside, re-materialize it from upstream, recompute the digest on
// the fresh copy, and compare against the digest of the preserved copy.
// It returns the digest of the directory if the two copies agree, or a
// CategoryEnvironmental error (CodeDigestMismatch) if they differ.
//
// The rename→re-materialize→compare window is held under an exclusive
// flock on a sentinel file beside dir, so a concurrent reviewer process
// cannot observe a half-swapped directory.
func VerifyFreshness(ctx context.Context, dir string, ignore []string, mat Materializer) (Digest, error) {
	lockPath := dir + ".crev.lock"
	lock := flock.New(lockPath)
	locked, err := lock.TryLockContext(ctx, flockRetryInterval)
	if err != nil {
		return Digest{}, crerrors.Wrap(crerrors.CodeIO, "acquire freshness lock", err)
	}
	if !locked {
		return Digest{}, crerrors.New(crerrors.CategoryEnvironmental, crerrors.CodeIO, "could not acquire freshness lock for "+dir)
	}
	defer lock.Unlock()
	defer os.Remove(lockPath)

	reviewedPath := dir + ".crev.reviewed"

	digestClean, err := Directory(dir, ignore)
	if err != nil {
		return Digest{}, err
	}

	if err := os.Rename(dir, reviewedPath); err != nil {
		return Digest{}, crerrors.Wrap(crerrors.CodeIO, "rename directory aside", err)
	}

	if err := mat.Materialize(ctx, dir); err != nil {
		return Digest{}, crerrors.Wrap(crerrors.CodeIO, "re-materialize directory", err)
	}

	digestFresh, err := Directory(dir, ignore)
	if err != nil {
		return Digest{}, err
	}

	if digestClean != digestFresh {
		return Digest{}, crerrors.New(crerrors.CategoryEnvironmental, crerrors.CodeDigestMismatch,
			"directory digest changed between the preserved and re-materialized copies of "+filepath.Base(dir))
	}

	// Only the aside copy is ever removed, and only once the two copies are
	// confirmed identical. Once re-materialization has succeeded, dir itself,
	// the freshly re-materialized copy, survives every return path.
	if err := os.RemoveAll(reviewedPath); err != nil {
		return Digest{}, crerrors.Wrap(crerrors.CodeIO, "remove reviewed aside copy", err)
	}

	return digestClean, nil
}

const flockRetryInterval = 50 * time.Millisecond
