package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	crerrors "github.com/ThomasdenH/crev/internal/errors"
	"github.com/ThomasdenH/crev/internal/id"
	"github.com/ThomasdenH/crev/internal/proof"
)

// envelope is the store's own on-disk record shape for one proof file.
// Proof wire serialization is out of scope for the core (spec §1); this is
// the store's local concern, not a domain contract other implementations
// must match.
type envelope struct {
	Author    string `json:"author"`
	Signature string `json:"signature"`
	Bytes     string `json:"bytes"`
}

// GitProofStore is a git-backed ProofStore: proofs are individual files
// under repoPath/proofs, synchronized via clone/pull/push against
// remoteURL.
type GitProofStore struct {
	repoPath  string
	remoteURL string

	mu sync.Mutex
}

// NewGitProofStore constructs a GitProofStore rooted at repoPath,
// synchronizing against remoteURL.
func NewGitProofStore(repoPath, remoteURL string) *GitProofStore {
	return &GitProofStore{repoPath: repoPath, remoteURL: remoteURL}
}

const proofsSubdir = "proofs"

// EnsureCloned clones the proof repository if it is not already present
// at repoPath, retrying the clone with bounded exponential backoff.
func (s *GitProofStore) EnsureCloned(ctx context.Context) error {
	if _, err := git.PlainOpen(s.repoPath); err == nil {
		return nil
	}

	slog.Debug("cloning proof repository", "url", s.remoteURL, "path", s.repoPath)
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		_, err := git.PlainCloneContext(ctx, s.repoPath, false, &git.CloneOptions{URL: s.remoteURL})
		if err != nil && !errors.Is(err, git.ErrRepositoryAlreadyExists) {
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, backoff.WithMaxTries(3))
	if err != nil {
		return crerrors.Wrap(crerrors.CodeRemoteFetchFailed, "clone proof repository", err)
	}
	return nil
}

// Fetch returns every proof currently materialized under repoPath/proofs.
func (s *GitProofStore) Fetch(ctx context.Context) ([]*proof.ProofRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.repoPath, proofsSubdir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, crerrors.Wrap(crerrors.CodeIO, "list proof files", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	records := make([]*proof.ProofRecord, 0, len(names))
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, crerrors.Wrap(crerrors.CodeIO, "read proof file "+name, err)
		}
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, crerrors.Wrap(crerrors.CodeIO, "parse proof file "+name, err)
		}
		rec, err := decodeEnvelope(env)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeEnvelope(env envelope) (*proof.ProofRecord, error) {
	authorId, err := id.Parse(env.Author)
	if err != nil {
		return nil, crerrors.Wrap(crerrors.CodeIO, "parse proof author", err)
	}
	sig, err := base64.RawURLEncoding.DecodeString(env.Signature)
	if err != nil {
		return nil, crerrors.Wrap(crerrors.CodeIO, "parse proof signature", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(env.Bytes)
	if err != nil {
		return nil, crerrors.Wrap(crerrors.CodeIO, "parse proof bytes", err)
	}
	content, err := proof.DecodeContent(raw)
	if err != nil {
		return nil, err
	}
	return &proof.ProofRecord{Author: authorId, Signature: sig, Bytes: raw, Content: content}, nil
}

// Publish writes p as a new proof file, stages it, and commits it to the
// local repository. Pushing to the remote happens via the `git push`
// pass-through.
func (s *GitProofStore) Publish(ctx context.Context, p *proof.ProofRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.repoPath, proofsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return crerrors.Wrap(crerrors.CodeIO, "create proofs directory", err)
	}

	env := envelope{
		Author:    p.Author.String(),
		Signature: base64.RawURLEncoding.EncodeToString(p.Signature),
		Bytes:     base64.RawURLEncoding.EncodeToString(p.Bytes),
	}
	raw, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return crerrors.Wrap(crerrors.CodeIO, "encode proof", err)
	}

	name := p.SignatureString() + ".json"
	if err := os.WriteFile(filepath.Join(dir, name), raw, 0o644); err != nil {
		return crerrors.Wrap(crerrors.CodeIO, "write proof file", err)
	}

	repo, err := git.PlainOpen(s.repoPath)
	if err != nil {
		return crerrors.Wrap(crerrors.CodeIO, "open proof repository", err)
	}
	w, err := repo.Worktree()
	if err != nil {
		return crerrors.Wrap(crerrors.CodeIO, "open proof repository worktree", err)
	}
	if _, err := w.Add(filepath.Join(proofsSubdir, name)); err != nil {
		return crerrors.Wrap(crerrors.CodeIO, "stage proof file", err)
	}
	_, err = w.Commit("crev: add proof "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "crev", When: time.Now()},
	})
	if err != nil {
		return crerrors.Wrap(crerrors.CodeIO, "commit proof file", err)
	}
	return nil
}

// Pull replenishes the local store from the given remote kind. "trusted"
// and "all" pull from the configured remoteURL; "url" pulls from the
// given url instead, matching the `fetch {trusted|url|all}` CLI surface.
func (s *GitProofStore) Pull(ctx context.Context, kind, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.remoteURL
	if kind == "url" {
		target = url
	}

	slog.Debug("fetching proofs", "kind", kind, "url", target)

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		repo, err := git.PlainOpen(s.repoPath)
		if err != nil {
			return struct{}{}, err
		}
		w, err := repo.Worktree()
		if err != nil {
			return struct{}{}, err
		}
		err = w.PullContext(ctx, &git.PullOptions{RemoteURL: target})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, backoff.WithMaxTries(3))
	if err != nil {
		return crerrors.Wrap(crerrors.CodeRemoteFetchFailed, "fetch proofs", err)
	}
	return nil
}

// GitPassthrough shells out to the system git binary inside repoPath,
// streaming stdout/stderr concurrently and propagating the exit code
// (fallback -159 when the process provides none).
func (s *GitProofStore) GitPassthrough(ctx context.Context, args []string) (int, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.repoPath

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -159, crerrors.Wrap(crerrors.CodeGitPassthroughFailed, "open stdout pipe", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return -159, crerrors.Wrap(crerrors.CodeGitPassthroughFailed, "open stderr pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return -159, crerrors.Wrap(crerrors.CodeGitPassthroughFailed, "start git "+fmt.Sprint(args), err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); io.Copy(os.Stdout, stdout) }()
	go func() { defer wg.Done(); io.Copy(os.Stderr, stderr) }()
	wg.Wait()

	err = cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			code = -159
		}
		return code, nil
	}
	if err != nil {
		return -159, crerrors.Wrap(crerrors.CodeGitPassthroughFailed, "run git "+fmt.Sprint(args), err)
	}
	return 0, nil
}
