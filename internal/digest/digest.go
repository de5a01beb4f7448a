// Package digest computes deterministic, content-addressed digests of
// files and directory trees, and implements the freshness protocol used
// to bind a review to a specific on-disk artifact.
package digest

import (
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	v1 "github.com/google/go-containerregistry/pkg/v1"
	"golang.org/x/crypto/blake2b"

	crerrors "github.com/ThomasdenH/crev/internal/errors"
)

// Algorithm is the hash algorithm tag embedded in the Digest wire type.
const Algorithm = "blake2b-256"

// Digest is a fixed-width, algorithm-tagged content hash, reusing
// go-containerregistry's v1.Hash as a stable, string-round-trippable wire
// representation.
type Digest = v1.Hash

// DefaultIgnore is the default set of path suffixes ignored when digesting
// a crate package directory.
var DefaultIgnore = []string{".cargo-ok", "Cargo.lock", "target"}

// HashBytes computes the Digest of a single byte slice.
func HashBytes(b []byte) Digest {
	sum := blake2b.Sum256(b)
	return Digest{Algorithm: Algorithm, Hex: hex.EncodeToString(sum[:])}
}

// HashReader computes the Digest of a stream.
func HashReader(r io.Reader) (Digest, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return Digest{}, crerrors.Wrap(crerrors.CodeIO, "initialize hash", err)
	}
	if _, err := io.Copy(h, r); err != nil {
		return Digest{}, crerrors.Wrap(crerrors.CodeIO, "read content", err)
	}
	return Digest{Algorithm: Algorithm, Hex: hex.EncodeToString(h.Sum(nil))}, nil
}

// isIgnored reports whether relPath falls under one of the ignore entries:
// an exact basename match, or residing under an ignored subtree.
func isIgnored(relPath string, ignore []string) bool {
	parts := strings.Split(relPath, string(filepath.Separator))
	for _, entry := range ignore {
		for _, p := range parts {
			if p == entry {
				return true
			}
		}
	}
	return false
}

// Directory computes the content-only digest of a directory tree: the
// sorted sequence of non-ignored relative file paths, hashed together with
// each file's content bytes. Mode bits and timestamps never participate.
func Directory(root string, ignore []string) (Digest, error) {
	var relPaths []string
	if err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if isIgnored(rel, ignore) {
			return nil
		}
		relPaths = append(relPaths, rel)
		return nil
	}); err != nil {
		return Digest{}, crerrors.Wrap(crerrors.CodeIO, "walk directory "+root, err)
	}

	sort.Strings(relPaths)

	h, err := blake2b.New256(nil)
	if err != nil {
		return Digest{}, crerrors.Wrap(crerrors.CodeIO, "initialize hash", err)
	}
	for _, rel := range relPaths {
		io.WriteString(h, rel)
		h.Write([]byte{0})
		f, err := os.Open(filepath.Join(root, rel))
		if err != nil {
			return Digest{}, crerrors.Wrap(crerrors.CodeIO, "open "+rel, err)
		}
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return Digest{}, crerrors.Wrap(crerrors.CodeIO, "read "+rel, err)
		}
	}

	return Digest{Algorithm: Algorithm, Hex: hex.EncodeToString(h.Sum(nil))}, nil
}

// DefaultIgnoreWith returns DefaultIgnore plus any caller-supplied
// additions, used by config to layer user ignore entries onto the
// built-in crate defaults.
func DefaultIgnoreWith(extra []string) []string {
	out := make([]string, 0, len(DefaultIgnore)+len(extra))
	out = append(out, DefaultIgnore...)
	out = append(out, extra...)
	return out
}
