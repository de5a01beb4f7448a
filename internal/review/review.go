// Package review is a thin read-only facade over TrustDB's counting and
// enumeration methods, kept separate so callers depend on a narrow
// interface that could be served by an alternative index backend.
package review

import (
	"github.com/Masterminds/semver/v3"

	"github.com/ThomasdenH/crev/internal/trustdb"
)

// Source is the subset of TrustDB that ReviewQuery needs.
type Source interface {
	GetPackageReviewCount(source string, name, version *string) int
	GetPackageReviewsForPackage(source string, name, version *string) []trustdb.PackageReviewEntry
}

// Query is the read-only facade over package review counts and
// enumerations.
type Query struct {
	db Source
}

// New wraps db in a Query.
func New(db Source) *Query {
	return &Query{db: db}
}

// Count returns the review count at the given granularity; see TrustDB's
// GetPackageReviewCount for the precondition on (name=nil, version set).
func (q *Query) Count(source string, name, version *string) int {
	return q.db.GetPackageReviewCount(source, name, version)
}

// Reviews returns reviews at the given granularity, oldest first.
func (q *Query) Reviews(source string, name, version *string) []trustdb.PackageReviewEntry {
	return q.db.GetPackageReviewsForPackage(source, name, version)
}

// LatestReviewedVersion parses every distinct version appearing in the
// (source, name) signature set with semver and returns the highest. It
// returns false if no review carries a version semver can parse.
func (q *Query) LatestReviewedVersion(source, name string) (string, bool) {
	entries := q.db.GetPackageReviewsForPackage(source, &name, nil)

	var best *semver.Version
	var bestRaw string
	for _, e := range entries {
		v, err := semver.NewVersion(e.Package.Version)
		if err != nil {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
			bestRaw = e.Package.Version
		}
	}
	if best == nil {
		return "", false
	}
	return bestRaw, true
}
