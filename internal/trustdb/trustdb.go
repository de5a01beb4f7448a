// Package trustdb implements the in-memory index of ingested proofs: an
// append-only store reconciling multiple statements per (author, subject)
// pair with a latest-timestamp-wins rule, and the read surface the rest of
// the system queries.
package trustdb

import (
	"sort"

	"github.com/ThomasdenH/crev/internal/digest"
	crerrors "github.com/ThomasdenH/crev/internal/errors"
	"github.com/ThomasdenH/crev/internal/id"
	"github.com/ThomasdenH/crev/internal/proof"
)

// signedPackageReview is the canonical per-signature copy stored by
// package_review_by_signature: the package info, the review body, the
// author, and the timestamp it was made at.
type signedPackageReview struct {
	Author  id.Id
	Date    Timestamped[proof.Review]
	Package proof.PackageInfo
}

type sourceKey struct{ source string }
type sourceNameKey struct{ source, name string }
type sourceNameVersionKey struct{ source, name, version string }

// TrustDB is the in-memory index described by the data model: it ingests
// proofs one at a time and serves the read queries the rest of the system
// needs. It holds no locks and performs no I/O; callers own exclusivity
// while mutating.
type TrustDB struct {
	trustIdToId map[id.Id]map[id.Id]Timestamped[id.TrustLevel]

	digestToReviews map[digest.Digest]map[id.Id]Timestamped[proof.Review]

	urlById          map[id.Id]Timestamped[string]
	urlByIdSecondary map[id.Id]Timestamped[string]

	packageReviewBySignature map[string]signedPackageReview

	bySource        map[sourceKey]map[string]struct{}
	bySourceName    map[sourceNameKey]map[string]struct{}
	bySourceVersion map[sourceNameVersionKey]map[string]struct{}
}

// New returns an empty TrustDB.
func New() *TrustDB {
	return &TrustDB{
		trustIdToId:              make(map[id.Id]map[id.Id]Timestamped[id.TrustLevel]),
		digestToReviews:          make(map[digest.Digest]map[id.Id]Timestamped[proof.Review]),
		urlById:                  make(map[id.Id]Timestamped[string]),
		urlByIdSecondary:         make(map[id.Id]Timestamped[string]),
		packageReviewBySignature: make(map[string]signedPackageReview),
		bySource:                 make(map[sourceKey]map[string]struct{}),
		bySourceName:             make(map[sourceNameKey]map[string]struct{}),
		bySourceVersion:          make(map[sourceNameVersionKey]map[string]struct{}),
	}
}

// recordURLFromFrom records the author's own URL into the primary map with
// latest-wins semantics.
func (db *TrustDB) recordURLFromFrom(p *proof.ProofRecord) {
	InsertOrUpdate(db.urlById, p.Content.From.Id, Timestamped[string]{Date: p.Content.Date, Value: p.Content.From.URL})
}

// recordURLFromTo records a target's URL into the secondary map with
// latest-wins semantics. The primary map is never touched, so a primary
// entry is never overwritten by a secondary observation.
func (db *TrustDB) recordURLFromTo(target id.Id, entry Timestamped[string]) {
	InsertOrUpdate(db.urlByIdSecondary, target, entry)
}

// AddProof idempotently ingests one proof, dispatching on its content
// kind. p must already have passed Verify(); AddProof panics
// (CategoryPrecondition) if it has not been verified successfully, since
// an unverified proof reaching the index is a programmer error.
func (db *TrustDB) AddProof(p *proof.ProofRecord) {
	if err := p.Verify(); err != nil {
		crerrors.Precondition(crerrors.CodeUnverifiedProof, "AddProof called with an unverified proof: "+err.Error())
	}

	switch p.Content.Kind() {
	case proof.KindTrust:
		db.addTrust(p)
	case proof.KindPackageReview:
		db.addPackageReview(p)
	case proof.KindCodeReview:
		db.addCodeReview(p)
	}
}

func (db *TrustDB) addTrust(p *proof.ProofRecord) {
	from := p.Content.From.Id
	db.recordURLFromFrom(p)

	edges, ok := db.trustIdToId[from]
	if !ok {
		edges = make(map[id.Id]Timestamped[id.TrustLevel])
		db.trustIdToId[from] = edges
	}

	for _, target := range p.Content.Trust.Ids {
		InsertOrUpdate(edges, target.Id, Timestamped[id.TrustLevel]{Date: p.Content.Date, Value: p.Content.Trust.Trust})
		db.recordURLFromTo(target.Id, Timestamped[string]{Date: p.Content.Date, Value: target.URL})
	}
}

func (db *TrustDB) addPackageReview(p *proof.ProofRecord) {
	db.recordURLFromFrom(p)

	d := p.Content.Package.Package.Digest
	reviewers, ok := db.digestToReviews[d]
	if !ok {
		reviewers = make(map[id.Id]Timestamped[proof.Review])
		db.digestToReviews[d] = reviewers
	}
	InsertOrUpdate(reviewers, p.Content.From.Id, Timestamped[proof.Review]{Date: p.Content.Date, Value: p.Content.Package.Review})

	sig := p.SignatureString()
	if _, exists := db.packageReviewBySignature[sig]; exists {
		return // write-once: first proof with a given signature wins
	}
	db.packageReviewBySignature[sig] = signedPackageReview{
		Author:  p.Content.From.Id,
		Date:    Timestamped[proof.Review]{Date: p.Content.Date, Value: p.Content.Package.Review},
		Package: p.Content.Package.Package,
	}

	pkg := p.Content.Package.Package
	addToSet(db.bySource, sourceKey{pkg.Source}, sig)
	addToSet(db.bySourceName, sourceNameKey{pkg.Source, pkg.Name}, sig)
	addToSet(db.bySourceVersion, sourceNameVersionKey{pkg.Source, pkg.Name, pkg.Version}, sig)
}

func (db *TrustDB) addCodeReview(p *proof.ProofRecord) {
	db.recordURLFromFrom(p)

	for _, f := range p.Content.Code.Files {
		reviewers, ok := db.digestToReviews[f.Digest]
		if !ok {
			reviewers = make(map[id.Id]Timestamped[proof.Review])
			db.digestToReviews[f.Digest] = reviewers
		}
		InsertOrUpdate(reviewers, p.Content.From.Id, Timestamped[proof.Review]{Date: p.Content.Date, Value: p.Content.Code.Review})
	}
}

func addToSet[K comparable](m map[K]map[string]struct{}, key K, sig string) {
	set, ok := m[key]
	if !ok {
		set = make(map[string]struct{})
		m[key] = set
	}
	set[sig] = struct{}{}
}

// ImportFromIter ingests a sequence of already-verified proofs, calling
// AddProof on each. A panic from AddProof (an invalid proof reaching
// ingestion) aborts the whole batch; callers re-ingest from scratch.
func (db *TrustDB) ImportFromIter(proofs []*proof.ProofRecord) {
	for _, p := range proofs {
		db.AddProof(p)
	}
}

// GetPackageReviewCount returns the number of distinct package-review
// signatures matching the given granularity. (source, nil, non-nil) is an
// illegal call and panics with CategoryPrecondition.
func (db *TrustDB) GetPackageReviewCount(source string, name, version *string) int {
	if name == nil && version != nil {
		crerrors.Precondition(crerrors.CodeIllegalQuery, "GetPackageReviewCount called with name=nil, version set")
	}
	switch {
	case name != nil && version != nil:
		return len(db.bySourceVersion[sourceNameVersionKey{source, *name, *version}])
	case name != nil:
		return len(db.bySourceName[sourceNameKey{source, *name}])
	default:
		return len(db.bySource[sourceKey{source}])
	}
}

// PackageReviewEntry is one materialized package review, paired with its
// signature and author for display purposes.
type PackageReviewEntry struct {
	Signature string
	Author    id.Id
	Package   proof.PackageInfo
	Review    proof.Review
	Date      Timestamped[proof.Review]
}

// GetPackageReviewsForPackage resolves the signature set for the given
// granularity, materializes each review, and returns them sorted ascending
// by timestamp. Ties are ordered by signature string: the signature set is
// sorted lexicographically before the stable sort by timestamp.
// (source, nil, non-nil) is an illegal call and panics.
func (db *TrustDB) GetPackageReviewsForPackage(source string, name, version *string) []PackageReviewEntry {
	if name == nil && version != nil {
		crerrors.Precondition(crerrors.CodeIllegalQuery, "GetPackageReviewsForPackage called with name=nil, version set")
	}

	var sigs []string
	var set map[string]struct{}
	switch {
	case name != nil && version != nil:
		set = db.bySourceVersion[sourceNameVersionKey{source, *name, *version}]
	case name != nil:
		set = db.bySourceName[sourceNameKey{source, *name}]
	default:
		set = db.bySource[sourceKey{source}]
	}
	for sig := range set {
		sigs = append(sigs, sig)
	}
	sort.Strings(sigs) // deterministic order for entries with equal timestamps

	entries := make([]PackageReviewEntry, 0, len(sigs))
	for _, sig := range sigs {
		spr, ok := db.packageReviewBySignature[sig]
		if !ok {
			continue
		}
		entries = append(entries, PackageReviewEntry{
			Signature: sig,
			Author:    spr.Author,
			Package:   spr.Package,
			Review:    spr.Date.Value,
			Date:      spr.Date,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Date.Before(entries[j].Date.Date)
	})
	return entries
}

// AllKnownIds returns the union of primary and secondary URL-map keys.
func (db *TrustDB) AllKnownIds() []id.Id {
	seen := make(map[id.Id]struct{})
	for k := range db.urlById {
		seen[k] = struct{}{}
	}
	for k := range db.urlByIdSecondary {
		seen[k] = struct{}{}
	}
	out := make([]id.Id, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return id.Less(out[i], out[j]) })
	return out
}

// LookupURL returns the URL known for id, preferring the primary entry
// over the secondary one.
func (db *TrustDB) LookupURL(i id.Id) (string, bool) {
	if ts, ok := db.urlById[i]; ok {
		return ts.Value, true
	}
	if ts, ok := db.urlByIdSecondary[i]; ok {
		return ts.Value, true
	}
	return "", false
}

// TrustEdges returns the outgoing trust edges of author, or nil if author
// has never authored a Trust proof. Used by TrustSetResolver.
func (db *TrustDB) TrustEdges(author id.Id) map[id.Id]id.TrustLevel {
	edges := db.trustIdToId[author]
	if edges == nil {
		return nil
	}
	out := make(map[id.Id]id.TrustLevel, len(edges))
	for target, ts := range edges {
		out[target] = ts.Value
	}
	return out
}

// Reviewers returns the authors who have reviewed d, each paired with
// their most recent Review. Used by DigestVerifier.
func (db *TrustDB) Reviewers(d digest.Digest) map[id.Id]proof.Review {
	reviewers := db.digestToReviews[d]
	if reviewers == nil {
		return nil
	}
	out := make(map[id.Id]proof.Review, len(reviewers))
	for author, ts := range reviewers {
		out[author] = ts.Value
	}
	return out
}
