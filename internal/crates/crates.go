// Package crates names the external download-count lookup collaborator.
// Acquisition and the HTTP client itself are out of scope (spec §1); this
// package defines only the narrow interface the Orchestrator depends on,
// plus a stub implementation for environments with no remote index
// configured.
package crates

import "context"

// DownloadCounter looks up the total download count for a package. A real
// implementation talks to a remote package index (e.g. crates.io);
// failures are environmental and are downgraded to a per-row sentinel by
// the Orchestrator rather than aborting a verification pass.
type DownloadCounter interface {
	DownloadCount(ctx context.Context, source, name string) (int64, error)
}

// NoopCounter is a DownloadCounter that always reports no remote index is
// configured. Used when the caller has not wired a real counter.
type NoopCounter struct{}

// errNoIndexConfigured is returned by NoopCounter for every lookup.
type errNoIndexConfigured struct{}

func (errNoIndexConfigured) Error() string { return "no remote download-count index configured" }

func (NoopCounter) DownloadCount(ctx context.Context, source, name string) (int64, error) {
	return 0, errNoIndexConfigured{}
}
